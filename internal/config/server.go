package config

import (
	"ScanCheckout/database/postgres"
	authHandler "ScanCheckout/internal/api/auth/handler"
	authRepository "ScanCheckout/internal/api/auth/repository"
	authService "ScanCheckout/internal/api/auth/service"
	checkoutHandler "ScanCheckout/internal/api/checkout/handler"
	checkoutRepository "ScanCheckout/internal/api/checkout/repository"
	checkoutService "ScanCheckout/internal/api/checkout/service"
	productHandler "ScanCheckout/internal/api/product/handler"
	productRepository "ScanCheckout/internal/api/product/repository"
	productService "ScanCheckout/internal/api/product/service"
	"ScanCheckout/internal/catalog"
	"ScanCheckout/internal/middleware"
	"ScanCheckout/internal/scanner"
	"ScanCheckout/pkg/bcrypt"
	"ScanCheckout/pkg/capture"
	"ScanCheckout/pkg/doku"
	"ScanCheckout/pkg/inference"
	"ScanCheckout/pkg/inference/gemini"
	"ScanCheckout/pkg/inference/wsmodel"
	"ScanCheckout/pkg/redis"
	"ScanCheckout/pkg/s3"
	"ScanCheckout/pkg/utils"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	db          *sqlx.DB
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	bcryptUtils bcrypt.IBcrypt
	handlers    []handler
	redisServer redis.IRedis
	s3Client    s3.ItfS3
	dokuClient  doku.IDokuService
	catalog     *catalog.Catalog
	loader      inference.Loader
	closers     []io.Closer
	manager     *scanner.Manager
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.manager == nil {
		return nil, fmt.Errorf("scanner is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

// WithRedisServer enables the session snapshot mirror. A nil client leaves it off.
func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

// WithS3Client enables evidence uploads when AWS_BUCKET_NAME is set.
func WithS3Client() ServerOption {
	return func(s *Server) error {
		if os.Getenv("AWS_BUCKET_NAME") == "" {
			s.log.Warn("AWS_BUCKET_NAME not set, evidence upload disabled")
			return nil
		}

		client, err := s3.New(s.log)
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

// WithDokuClient enables virtual-account payments when DOKU_CLIENT_ID is set.
// A client that fails to initialize is logged and left out.
func WithDokuClient() ServerOption {
	return func(s *Server) error {
		if os.Getenv("DOKU_CLIENT_ID") == "" {
			s.log.Warn("DOKU_CLIENT_ID not set, virtual account payments disabled")
			return nil
		}

		client := doku.NewDokuService(s.log)
		if err := client.Init(); err != nil {
			s.log.WithField("error", err.Error()).Error("Failed to initialize Doku client, virtual account payments disabled")
			return nil
		}
		s.dokuClient = client
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithBcryptUtils() ServerOption {
	return func(s *Server) error {
		s.bcryptUtils = bcrypt.New()
		return nil
	}
}

// WithCatalog loads the product catalog once. CATALOG_SOURCE=postgres reads
// the products table, anything else uses the built-in list.
func WithCatalog() ServerOption {
	return func(s *Server) error {
		source := os.Getenv("CATALOG_SOURCE")

		var (
			c   *catalog.Catalog
			err error
		)
		switch source {
		case "", "embedded":
			c, err = catalog.Default()
		case "postgres":
			if s.db == nil {
				return fmt.Errorf("database must be initialized before a postgres catalog")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			c, err = productService.LoadCatalog(ctx, productRepository.New(s.db, s.log), s.log)
		default:
			return fmt.Errorf("unknown CATALOG_SOURCE %q", source)
		}
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}

		s.log.WithFields(logrus.Fields{
			"source":   source,
			"products": c.Len(),
		}).Info("Catalog loaded")

		s.catalog = c
		return nil
	}
}

// WithInferenceLoader picks the classifier backend from INFERENCE_BACKEND.
func WithInferenceLoader() ServerOption {
	return func(s *Server) error {
		if s.catalog == nil {
			return fmt.Errorf("catalog must be loaded before the inference backend")
		}

		backend := os.Getenv("INFERENCE_BACKEND")
		switch backend {
		case "", "websocket":
			s.loader = wsmodel.NewLoader(wsmodel.ConfigFromEnv(), s.log)
		case "gemini":
			items := s.catalog.Items()
			labels := make([]string, 0, len(items))
			for _, item := range items {
				labels = append(labels, item.Name)
			}

			loader, err := gemini.NewLoader(context.Background(), labels)
			if err != nil {
				s.log.Errorf("Failed to create Gemini client: %v", err)
				return fmt.Errorf("failed to create Gemini client: %w", err)
			}
			s.loader = loader
			s.closers = append(s.closers, loader)
		default:
			return fmt.Errorf("unknown INFERENCE_BACKEND %q", backend)
		}

		s.log.WithField("backend", backend).Info("Inference backend configured")
		return nil
	}
}

func WithScanner() ServerOption {
	return func(s *Server) error {
		if s.catalog == nil || s.loader == nil {
			return fmt.Errorf("catalog and inference backend must be initialized before the scanner")
		}
		if s.utils == nil {
			s.utils = utils.New()
		}

		settings, err := LoadScannerSettings()
		if err != nil {
			return err
		}

		var opts []scanner.ManagerOption
		if s.redisServer != nil {
			opts = append(opts, scanner.WithSnapshotStore(s.redisServer))
		}
		if s.s3Client != nil {
			opts = append(opts, scanner.WithEvidenceSink(s.s3Client))
		}
		if settings.SnapshotURL != "" {
			snapshotCfg := capture.SnapshotConfig{
				URL:          settings.SnapshotURL,
				PollInterval: settings.SnapshotInterval,
			}
			opts = append(opts, scanner.WithSource(scanner.SourceSnapshot, func() (capture.Source, error) {
				return capture.NewSnapshotSource(snapshotCfg, s.log), nil
			}))
		}

		loader := inference.WrapLoader(s.loader, s.utils, settings.FrameWidth, settings.FrameHeight)
		manager, err := scanner.NewManager(settings.Manager, s.catalog, loader, s.log, opts...)
		if err != nil {
			return fmt.Errorf("failed to create scanner: %w", err)
		}

		s.log.WithFields(logrus.Fields{
			"tick_interval": settings.Manager.Loop.TickInterval.String(),
			"cooldown":      settings.Manager.Cooldown.String(),
			"policy":        string(settings.Manager.Policy),
			"idle_timeout":  settings.Manager.IdleTimeout.String(),
		}).Info("Scanner configured")

		s.manager = manager
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Auth Domain
	authRepo := authRepository.New(s.db, s.log)
	authServices := authService.New(s.log, authRepo, s.bcryptUtils, s.utils)
	authHandlers := authHandler.New(s.log, authServices, s.validator, s.middleware)

	// Product Domain
	productServices := productService.NewProductService(s.log, s.catalog)
	productHandlers := productHandler.New(s.log, s.middleware, productServices)

	// Checkout Domain
	var evidence checkoutService.EvidenceLinker
	if s.s3Client != nil {
		evidence = s.s3Client
	}
	checkoutRepo := checkoutRepository.New(s.db, s.log)
	checkoutServices := checkoutService.NewCheckoutService(s.log, s.manager, checkoutRepo, s.dokuClient, evidence, s.utils)
	checkoutHandlers := checkoutHandler.New(s.log, s.validator, s.middleware, checkoutServices)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, authHandlers, productHandlers, checkoutHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests, tears down live sessions and closes
// every client the server opened.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.engine.ShutdownWithContext(ctx)
	err = multierr.Append(err, s.manager.Shutdown(ctx))

	if s.s3Client != nil {
		err = multierr.Append(err, s.s3Client.Close())
	}
	for _, c := range s.closers {
		err = multierr.Append(err, c.Close())
	}
	if s.redisServer != nil {
		err = multierr.Append(err, s.redisServer.Close())
	}
	if s.db != nil {
		err = multierr.Append(err, s.db.Close())
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message":  "Server is Healthy!",
			"products": s.catalog.Len(),
			"sessions": len(s.manager.List()),
		})
	})
}
