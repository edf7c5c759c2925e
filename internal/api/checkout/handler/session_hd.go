package checkoutHandler

import (
	"ScanCheckout/internal/api/checkout"
	contextPkg "ScanCheckout/pkg/context"
	"ScanCheckout/pkg/handlerUtil"
	jwtPkg "ScanCheckout/pkg/jwt"
	"ScanCheckout/pkg/log"
	"context"

	"github.com/gofiber/fiber/v2"
)

func (h *CheckoutHandler) StartSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	// Model loading dominates; it is bounded by the request timeout.
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 2*requestTimeLimit)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	terminal, err := jwtPkg.GetTerminalLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req checkout.StartSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, fiber.ErrBadRequest, ctx.Path(), "parse_request_body")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	h.log.WithFields(log.Fields{
		"request_id":  requestID,
		"terminal_id": terminal.ID,
		"source":      req.Source,
	}).Debug("Starting checkout session")

	snap, err := h.checkoutService.StartSession(c, terminal, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "start_session")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusCreated, snap)
}

func (h *CheckoutHandler) ListSessions(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeLimit)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	terminal, err := jwtPkg.GetTerminalLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	res, err := h.checkoutService.ListSessions(c, terminal.ID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_sessions")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *CheckoutHandler) GetSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeLimit)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	terminal, err := jwtPkg.GetTerminalLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	snap, err := h.checkoutService.GetSession(c, terminal.ID, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_session")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, snap)
	}
}

func (h *CheckoutHandler) StopSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeLimit)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	terminal, err := jwtPkg.GetTerminalLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	snap, err := h.checkoutService.StopSession(c, terminal.ID, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "stop_session")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, snap)
}

func (h *CheckoutHandler) Pay(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 3*requestTimeLimit)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	terminal, err := jwtPkg.GetTerminalLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req checkout.PayRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, fiber.ErrBadRequest, ctx.Path(), "parse_request_body")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	confirmation, err := h.checkoutService.Pay(c, terminal, ctx.Params("id"), req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "pay")
	}

	// The session has been reset at this point, so the confirmation is
	// returned even if the deadline passed while the receipt was stored.
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, confirmation)
}
