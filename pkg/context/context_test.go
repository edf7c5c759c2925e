package context

import (
	"ScanCheckout/internal/entity"
	jwtPkg "ScanCheckout/pkg/jwt"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"go.viam.com/test"
)

func TestGettersOnEmptyContext(t *testing.T) {
	ctx := context.Background()

	test.That(t, GetRequestID(ctx), test.ShouldEqual, "unknown")
	test.That(t, GetTerminalID(ctx), test.ShouldBeEmpty)
	test.That(t, Fields(ctx), test.ShouldResemble, logrus.Fields{"request_id": "unknown"})
}

func TestFromFiberCtx(t *testing.T) {
	var got context.Context

	app := fiber.New()
	app.Get("/locals", func(c *fiber.Ctx) error {
		c.Locals(LocalsRequestID, "01JREQ")
		c.Locals(jwtPkg.LocalsTerminal, entity.TerminalLoginData{ID: "01JTERM", Name: "Lane 1"})
		got = FromFiberCtx(c)
		return nil
	})
	app.Get("/header", func(c *fiber.Ctx) error {
		got = FromFiberCtx(c)
		return nil
	})

	_, err := app.Test(httptest.NewRequest("GET", "/locals", nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, GetRequestID(got), test.ShouldEqual, "01JREQ")
	test.That(t, GetTerminalID(got), test.ShouldEqual, "01JTERM")
	test.That(t, Fields(got)["terminal_id"], test.ShouldEqual, "01JTERM")

	req := httptest.NewRequest("GET", "/header", nil)
	req.Header.Set(LocalsRequestID, "from-header")
	_, err = app.Test(req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, GetRequestID(got), test.ShouldEqual, "from-header")
	test.That(t, GetTerminalID(got), test.ShouldBeEmpty)
}

func TestFromLocalsIgnoresWrongTypes(t *testing.T) {
	ctx := FromLocals(func(key string) interface{} {
		return 42
	})

	test.That(t, GetRequestID(ctx), test.ShouldEqual, "unknown")
	test.That(t, GetTerminalID(ctx), test.ShouldBeEmpty)
}
