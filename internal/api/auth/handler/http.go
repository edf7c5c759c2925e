package authHandler

import (
	authService "ScanCheckout/internal/api/auth/service"
	"ScanCheckout/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const AdminKeyHeader = "X-Admin-Key"

type AuthHandler struct {
	log         *logrus.Logger
	authService authService.AuthService
	validator   *validator.Validate
	middleware  middleware.Middleware
}

func New(
	log *logrus.Logger,
	as authService.AuthService,
	validate *validator.Validate,
	middleware middleware.Middleware,
) *AuthHandler {
	return &AuthHandler{
		log:         log,
		authService: as,
		validator:   validate,
		middleware:  middleware,
	}
}

func (h *AuthHandler) Start(srv fiber.Router) {
	auth := srv.Group("/auth")
	auth.Post("/token", h.middleware.NewRateLimiter, h.HandleIssueToken)
	auth.Post("/terminals", h.middleware.NewRateLimiter, h.HandleRegisterTerminal)
}
