package checkoutHandler

import (
	contextPkg "ScanCheckout/pkg/context"
	"ScanCheckout/pkg/handlerUtil"
	jwtPkg "ScanCheckout/pkg/jwt"
	"context"

	"github.com/gofiber/fiber/v2"
)

func (h *CheckoutHandler) GetReceipt(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeLimit)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	terminal, err := jwtPkg.GetTerminalLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	receipt, err := h.checkoutService.GetReceipt(c, terminal.ID, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_receipt")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, receipt)
	}
}
