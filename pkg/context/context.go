package context

import (
	"ScanCheckout/internal/entity"
	jwtPkg "ScanCheckout/pkg/jwt"
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type key int

const (
	requestIDKey key = iota
	terminalIDKey
)

// LocalsRequestID is where the request ID middleware stores the ID.
const LocalsRequestID = "X-Request-ID"

const unknown = "unknown"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return unknown
	}
	return requestID
}

func WithTerminalID(ctx context.Context, terminalID string) context.Context {
	return context.WithValue(ctx, terminalIDKey, terminalID)
}

// GetTerminalID returns the authenticated terminal or "" outside protected routes.
func GetTerminalID(ctx context.Context) string {
	terminalID, _ := ctx.Value(terminalIDKey).(string)
	return terminalID
}

// Fields returns the log fields every line written on behalf of ctx carries.
func Fields(ctx context.Context) logrus.Fields {
	fields := logrus.Fields{"request_id": GetRequestID(ctx)}
	if terminalID := GetTerminalID(ctx); terminalID != "" {
		fields["terminal_id"] = terminalID
	}
	return fields
}

func FromFiberCtx(c *fiber.Ctx) context.Context {
	ctx := FromLocals(func(key string) interface{} { return c.Locals(key) })
	if GetRequestID(ctx) == unknown {
		if header := c.Get(LocalsRequestID); header != "" {
			ctx = WithRequestID(ctx, header)
		}
	}
	return ctx
}

// FromLocals builds a request context from handler locals. Websocket handlers
// use it because their fiber.Ctx is gone once the connection is upgraded.
func FromLocals(locals func(key string) interface{}) context.Context {
	ctx := context.Background()

	if requestID, ok := locals(LocalsRequestID).(string); ok && requestID != "" {
		ctx = WithRequestID(ctx, requestID)
	}
	if terminal, ok := locals(jwtPkg.LocalsTerminal).(entity.TerminalLoginData); ok && terminal.ID != "" {
		ctx = WithTerminalID(ctx, terminal.ID)
	}

	return ctx
}
