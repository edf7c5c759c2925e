package checkoutHandler

import (
	"ScanCheckout/internal/api/checkout"
	checkoutRepository "ScanCheckout/internal/api/checkout/repository"
	checkoutService "ScanCheckout/internal/api/checkout/service"
	"ScanCheckout/internal/catalog"
	"ScanCheckout/internal/entity"
	"ScanCheckout/internal/middleware"
	"ScanCheckout/internal/scanner"
	"ScanCheckout/pkg/inference"
	jwtPkg "ScanCheckout/pkg/jwt"
	"ScanCheckout/pkg/utils"
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	gorilla "github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"go.viam.com/test"
)

type loaModel struct{}

func (loaModel) TotalClasses() int { return 1 }
func (loaModel) Labels() []string { return []string{"Loa"} }
func (loaModel) Close() error { return nil }
func (loaModel) Classify(ctx context.Context, frame entity.Frame) (entity.ClassificationResult, error) {
	return entity.ClassificationResult{{Label: "Loa", Probability: 0.85}}, nil
}

type memoryReceipts struct {
	mu       sync.Mutex
	receipts map[string]entity.PaymentConfirmation
}

func (m *memoryReceipts) CreateReceipt(ctx context.Context, receipt entity.PaymentConfirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts[receipt.ReceiptID] = receipt
	return nil
}

func (m *memoryReceipts) CreateReceiptLine(ctx context.Context, receiptID string, lineNo int, line entity.ReceiptLine) error {
	return nil
}

func (m *memoryReceipts) GetReceiptByID(ctx context.Context, id string) (entity.PaymentConfirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	receipt, ok := m.receipts[id]
	if !ok {
		return entity.PaymentConfirmation{}, checkout.ErrReceiptNotFound
	}
	return receipt, nil
}

func (m *memoryReceipts) GetReceiptLines(ctx context.Context, receiptID string) ([]entity.ReceiptLine, error) {
	return []entity.ReceiptLine{}, nil
}

type memoryRepository struct {
	receipts *memoryReceipts
}

func (r memoryRepository) NewClient(tx bool) (checkoutRepository.Client, error) {
	return checkoutRepository.Client{
		Receipts: r.receipts,
		Commit:   func() error { return nil },
		Rollback: func() error { return nil },
	}, nil
}

type testServer struct {
	app   *fiber.App
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv(middleware.AccessTokenSecret, "checkout-test-secret")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c, err := catalog.Default()
	test.That(t, err, test.ShouldBeNil)

	manager, err := scanner.NewManager(scanner.ManagerConfig{
		Cooldown: time.Hour,
		Loop:     scanner.LoopConfig{TickInterval: 2 * time.Millisecond},
	}, c, inference.LoaderFunc(func(context.Context) (inference.Model, error) {
		return loaModel{}, nil
	}), logger)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() {
		_ = manager.Shutdown(context.Background())
	})

	repo := memoryRepository{receipts: &memoryReceipts{receipts: map[string]entity.PaymentConfirmation{}}}
	svc := checkoutService.NewCheckoutService(logger, manager, repo, nil, nil, utils.New())

	mw := middleware.New(logger)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(mw.NewRequestIDMiddleware())
	New(logger, validator.New(), mw, svc).Start(app.Group("/api/v1"))

	token, _, err := jwtPkg.Sign(map[string]interface{}{
		"terminal_id": "kiosk-1",
		"name":        "Kiosk One",
	}, time.Hour, middleware.AccessTokenSecret)
	test.That(t, err, test.ShouldBeNil)

	return &testServer{app: app, token: token}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := s.app.Test(req, 5000)
	test.That(t, err, test.ShouldBeNil)
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(raw)
}

func TestCheckoutRequiresToken(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/checkout/sessions", nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, fiber.StatusUnauthorized)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodPost, "/api/v1/checkout/sessions", `{"source":"bogus"}`)
	test.That(t, status, test.ShouldEqual, fiber.StatusBadRequest)
	test.That(t, body, test.ShouldContainSubstring, "VALIDATION_ERROR")

	status, body = s.do(t, fiber.MethodPost, "/api/v1/checkout/sessions", "")
	test.That(t, status, test.ShouldEqual, fiber.StatusCreated)

	var snap entity.SessionSnapshot
	test.That(t, jsoniter.UnmarshalFromString(body, &snap), test.ShouldBeNil)
	test.That(t, snap.TerminalID, test.ShouldEqual, "kiosk-1")
	test.That(t, snap.Status, test.ShouldEqual, entity.SessionRunning)

	status, body = s.do(t, fiber.MethodGet, "/api/v1/checkout/sessions", "")
	test.That(t, status, test.ShouldEqual, fiber.StatusOK)
	test.That(t, body, test.ShouldContainSubstring, snap.ID)

	status, body = s.do(t, fiber.MethodPost, "/api/v1/checkout/sessions/"+snap.ID+"/pay", `{}`)
	test.That(t, status, test.ShouldEqual, fiber.StatusOK)

	var confirmation entity.PaymentConfirmation
	test.That(t, jsoniter.UnmarshalFromString(body, &confirmation), test.ShouldBeNil)
	test.That(t, confirmation.SessionID, test.ShouldEqual, snap.ID)

	status, _ = s.do(t, fiber.MethodGet, "/api/v1/checkout/receipts/"+confirmation.ReceiptID, "")
	test.That(t, status, test.ShouldEqual, fiber.StatusOK)

	status, _ = s.do(t, fiber.MethodPost, "/api/v1/checkout/sessions/"+snap.ID+"/pay", `{"bank":"VIRTUAL_ACCOUNT_BCA"}`)
	test.That(t, status, test.ShouldEqual, fiber.StatusServiceUnavailable)

	status, _ = s.do(t, fiber.MethodDelete, "/api/v1/checkout/sessions/"+snap.ID, "")
	test.That(t, status, test.ShouldEqual, fiber.StatusOK)

	status, body = s.do(t, fiber.MethodGet, "/api/v1/checkout/sessions/"+snap.ID, "")
	test.That(t, status, test.ShouldEqual, fiber.StatusNotFound)
	test.That(t, body, test.ShouldContainSubstring, "SESSION_NOT_FOUND")
}

func TestReceiptNotFound(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodGet, "/api/v1/checkout/receipts/missing", "")
	test.That(t, status, test.ShouldEqual, fiber.StatusNotFound)
	test.That(t, body, test.ShouldContainSubstring, "RECEIPT_NOT_FOUND")
}

func TestFrameAndEventSockets(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodPost, "/api/v1/checkout/sessions", `{"source":"push"}`)
	test.That(t, status, test.ShouldEqual, fiber.StatusCreated)
	var snap entity.SessionSnapshot
	test.That(t, jsoniter.UnmarshalFromString(body, &snap), test.ShouldBeNil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	test.That(t, err, test.ShouldBeNil)
	go func() {
		_ = s.app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = s.app.Shutdown()
	})

	base := "ws://" + ln.Addr().String() + "/api/v1/checkout/sessions/" + snap.ID

	events, _, err := gorilla.DefaultDialer.Dial(base+"/events?token="+s.token, nil)
	test.That(t, err, test.ShouldBeNil)
	defer events.Close()

	frames, _, err := gorilla.DefaultDialer.Dial(base+"/frames?token="+s.token, nil)
	test.That(t, err, test.ShouldBeNil)
	defer frames.Close()

	var first entity.SessionEvent
	test.That(t, events.SetReadDeadline(time.Now().Add(5*time.Second)), test.ShouldBeNil)
	test.That(t, events.ReadJSON(&first), test.ShouldBeNil)
	test.That(t, first.Type, test.ShouldEqual, entity.EventSnapshot)

	test.That(t, frames.WriteMessage(gorilla.BinaryMessage, []byte("not an image")), test.ShouldBeNil)
	var streamErr checkout.StreamError
	test.That(t, frames.SetReadDeadline(time.Now().Add(5*time.Second)), test.ShouldBeNil)
	test.That(t, frames.ReadJSON(&streamErr), test.ShouldBeNil)
	test.That(t, streamErr.Code, test.ShouldEqual, "INVALID_FRAME")

	var buf bytes.Buffer
	test.That(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)), nil), test.ShouldBeNil)
	test.That(t, frames.WriteMessage(gorilla.BinaryMessage, buf.Bytes()), test.ShouldBeNil)

	for {
		var ev entity.SessionEvent
		test.That(t, events.ReadJSON(&ev), test.ShouldBeNil)
		if ev.Type != entity.EventRecognized {
			continue
		}
		test.That(t, ev.Item.Name, test.ShouldEqual, "Loa")
		test.That(t, ev.Snapshot.Total, test.ShouldEqual, int64(250000))
		break
	}
}
