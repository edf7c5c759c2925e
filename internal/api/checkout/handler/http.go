package checkoutHandler

import (
	checkoutService "ScanCheckout/internal/api/checkout/service"
	"ScanCheckout/internal/middleware"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const (
	maxReadTimeout   = 60 * time.Second
	writeTimeout     = 10 * time.Second
	pingInterval     = 30 * time.Second
	eventBufferSize  = 32
	frameReadLimit   = 6 * 1024 * 1024
	requestTimeLimit = 10 * time.Second
)

type CheckoutHandler struct {
	log             *logrus.Logger
	validator       *validator.Validate
	middleware      middleware.Middleware
	checkoutService checkoutService.ICheckoutService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	cs checkoutService.ICheckoutService,
) *CheckoutHandler {
	return &CheckoutHandler{
		log:             log,
		validator:       validate,
		middleware:      middleware,
		checkoutService: cs,
	}
}

func (h *CheckoutHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	checkout := srv.Group("/checkout", h.middleware.NewTokenMiddleware)

	sessions := checkout.Group("/sessions")
	sessions.Post("/", h.StartSession)
	sessions.Get("/", h.ListSessions)
	sessions.Get("/:id", h.GetSession)
	sessions.Delete("/:id", h.StopSession)
	sessions.Post("/:id/pay", h.Pay)

	sessions.Get("/:id/frames", wsMiddleware, websocket.New(h.handleFrameSocket, websocket.Config{
		ReadBufferSize: 64 * 1024,
	}))
	sessions.Get("/:id/events", wsMiddleware, websocket.New(h.handleEventSocket))

	checkout.Get("/receipts/:id", h.GetReceipt)
}
