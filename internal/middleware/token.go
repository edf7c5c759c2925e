package middleware

import (
	jwtPkg "ScanCheckout/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	AccessTokenSecret = "JWT_ACCESS_TOKEN_SECRET"
)

type tokenMiddleware struct {
	secretEnvKey string
}

func newTokenMiddleware() *tokenMiddleware {
	return &tokenMiddleware{secretEnvKey: AccessTokenSecret}
}

func (m *middleware) unauthorized(ctx *fiber.Ctx, reason string) error {
	m.log.WithFields(logrus.Fields{
		"request_id": m.GetRequestID(ctx),
		"path":       ctx.Path(),
		"client_ip":  ctx.IP(),
		"error":      reason,
	}).Warn("Token verification failed")

	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized, access token invalid or expired",
		"code":  "UNAUTHORIZED",
	})
}

// NewTokenMiddleware authenticates a terminal and stores its login data in
// ctx.Locals under jwtPkg.LocalsTerminal.
func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	accessToken, err := jwtPkg.ExtractToken(ctx)
	if err != nil {
		return m.unauthorized(ctx, err.Error())
	}

	claims, err := jwtPkg.Parse(accessToken, m.token.secretEnvKey)
	if err != nil {
		return m.unauthorized(ctx, err.Error())
	}

	terminal, err := jwtPkg.TerminalFromClaims(claims)
	if err != nil {
		return m.unauthorized(ctx, err.Error())
	}

	ctx.Locals(jwtPkg.LocalsTerminal, terminal)

	m.log.WithFields(logrus.Fields{
		"request_id":  m.GetRequestID(ctx),
		"terminal_id": terminal.ID,
	}).Debug("Authentication successful")
	return ctx.Next()
}
