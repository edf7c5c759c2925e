package middleware

import (
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Middleware interface {
	NewRateLimiter(ctx *fiber.Ctx) error
	NewTokenMiddleware(ctx *fiber.Ctx) error
	NewRequestIDMiddleware() fiber.Handler
	NewLoggingMiddleware() fiber.Handler
	GetRequestID(ctx *fiber.Ctx) string
}

type middleware struct {
	token               *tokenMiddleware
	rateLimitter        *rateLimiter
	requestIDMiddleware fiber.Handler
	loggingMiddleware   fiber.Handler
	log                 *logrus.Logger
}

const (
	defaultRateLimit = 50
	defaultBurst     = 100
)

// New reads RATE_LIMIT_RPS and RATE_LIMIT_BURST, falling back to 50 req/s
// with a burst of 100 per client IP.
func New(logger *logrus.Logger) Middleware {
	reqRate := rate.Limit(defaultRateLimit)
	if raw := os.Getenv("RATE_LIMIT_RPS"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			reqRate = rate.Limit(v)
		} else {
			logger.WithField("value", raw).Warn("Ignoring invalid RATE_LIMIT_RPS")
		}
	}

	burst := defaultBurst
	if raw := os.Getenv("RATE_LIMIT_BURST"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			burst = v
		} else {
			logger.WithField("value", raw).Warn("Ignoring invalid RATE_LIMIT_BURST")
		}
	}

	return NewWithLimits(logger, reqRate, burst)
}

func NewWithLimits(logger *logrus.Logger, reqRate rate.Limit, burst int) Middleware {
	return &middleware{
		token:               newTokenMiddleware(),
		rateLimitter:        newRateLimiter(reqRate, burst),
		requestIDMiddleware: NewRequestIDMiddleware(),
		loggingMiddleware:   newLoggingMiddleware(logger),
		log:                 logger,
	}
}

func (m *middleware) GetRequestID(ctx *fiber.Ctx) string {
	requestID, ok := ctx.Locals(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

func (m *middleware) NewRequestIDMiddleware() fiber.Handler {
	return m.requestIDMiddleware
}

func (m *middleware) NewLoggingMiddleware() fiber.Handler {
	return m.loggingMiddleware
}
