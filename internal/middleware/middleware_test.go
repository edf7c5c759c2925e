package middleware

import (
	"ScanCheckout/internal/entity"
	jwtPkg "ScanCheckout/pkg/jwt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"go.viam.com/test"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestApp(m Middleware) *fiber.App {
	app := fiber.New()
	app.Use(m.NewRequestIDMiddleware())
	app.Use(m.NewLoggingMiddleware())

	app.Get("/limited", m.NewRateLimiter, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/protected", m.NewTokenMiddleware, func(c *fiber.Ctx) error {
		terminal, err := jwtPkg.GetTerminalLoginData(c)
		if err != nil {
			return err
		}
		return c.JSON(terminal)
	})
	app.Get("/request-id", func(c *fiber.Ctx) error {
		return c.SendString(m.GetRequestID(c))
	})
	return app
}

func TestRequestIDIsGeneratedAndEchoed(t *testing.T) {
	app := newTestApp(New(testLogger()))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/request-id", nil))
	test.That(t, err, test.ShouldBeNil)
	body, _ := io.ReadAll(resp.Body)
	test.That(t, string(body), test.ShouldNotBeEmpty)
	test.That(t, resp.Header.Get(RequestIDKey), test.ShouldEqual, string(body))

	req := httptest.NewRequest(fiber.MethodGet, "/request-id", nil)
	req.Header.Set(RequestIDKey, "given-id")
	resp, err = app.Test(req)
	test.That(t, err, test.ShouldBeNil)
	body, _ = io.ReadAll(resp.Body)
	test.That(t, string(body), test.ShouldEqual, "given-id")
}

func TestRequestIDRejectsUnsafeHeader(t *testing.T) {
	app := newTestApp(New(testLogger()))

	req := httptest.NewRequest(fiber.MethodGet, "/request-id", nil)
	req.Header.Set(RequestIDKey, "bad id\twith spaces")
	resp, err := app.Test(req)
	test.That(t, err, test.ShouldBeNil)

	body, _ := io.ReadAll(resp.Body)
	test.That(t, string(body), test.ShouldNotEqual, "bad id\twith spaces")
	test.That(t, string(body), test.ShouldHaveLength, 26)
}

func TestRateLimiterForgetsQuietVisitors(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	r := newRateLimiter(1, 1)
	r.now = func() time.Time { return now }

	first := r.GetLimiterFrom("10.0.0.1")
	test.That(t, r.GetLimiterFrom("10.0.0.1") == first, test.ShouldBeTrue)
	r.GetLimiterFrom("10.0.0.2")
	test.That(t, r.size(), test.ShouldEqual, 2)

	now = now.Add(visitorTTL + sweepInterval)
	r.GetLimiterFrom("10.0.0.3")
	test.That(t, r.size(), test.ShouldEqual, 1)
	test.That(t, r.GetLimiterFrom("10.0.0.1") == first, test.ShouldBeFalse)
}

func TestNewReadsRateLimitEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "0.001")
	t.Setenv("RATE_LIMIT_BURST", "1")
	app := newTestApp(New(testLogger()))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/limited", nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, fiber.StatusNoContent)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/limited", nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, fiber.StatusTooManyRequests)
}

func TestRateLimiter(t *testing.T) {
	app := newTestApp(NewWithLimits(testLogger(), 0.001, 2))

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/limited", nil))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, resp.StatusCode, test.ShouldEqual, fiber.StatusNoContent)
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/limited", nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, fiber.StatusTooManyRequests)
}

func TestTokenMiddleware(t *testing.T) {
	t.Setenv(AccessTokenSecret, "s3cret")
	app := newTestApp(New(testLogger()))

	token, _, err := jwtPkg.Sign(map[string]interface{}{"terminal_id": "kiosk-1", "name": "Front"}, time.Hour, AccessTokenSecret)
	test.That(t, err, test.ShouldBeNil)

	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, fiber.StatusOK)

	var terminal entity.TerminalLoginData
	body, _ := io.ReadAll(resp.Body)
	test.That(t, jsoniter.Unmarshal(body, &terminal), test.ShouldBeNil)
	test.That(t, terminal.ID, test.ShouldEqual, "kiosk-1")

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/protected?token="+token, nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, fiber.StatusOK)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/protected", nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, fiber.StatusUnauthorized)

	noTerminal, _, err := jwtPkg.Sign(map[string]interface{}{"name": "Front"}, time.Hour, AccessTokenSecret)
	test.That(t, err, test.ShouldBeNil)
	req = httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+noTerminal)
	resp, err = app.Test(req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, fiber.StatusUnauthorized)
}

func TestSanitizeRequestBody(t *testing.T) {
	out := sanitizeRequestBody([]byte(`{"terminal_id":"kiosk-1","secret":"hunter2"}`))
	test.That(t, out, test.ShouldContainSubstring, `"secret":"[SECRET]"`)
	test.That(t, out, test.ShouldContainSubstring, `"terminal_id":"kiosk-1"`)
	test.That(t, sanitizeRequestBody([]byte("raw")), test.ShouldEqual, "[non-JSON body]")
}
