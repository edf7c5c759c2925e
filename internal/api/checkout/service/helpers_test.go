package checkoutService

import (
	checkoutRepository "ScanCheckout/internal/api/checkout/repository"
	"ScanCheckout/internal/catalog"
	"ScanCheckout/internal/entity"
	"ScanCheckout/internal/scanner"
	"ScanCheckout/pkg/doku"
	"ScanCheckout/pkg/inference"
	"ScanCheckout/pkg/utils"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"go.viam.com/test"
)

func jpegFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	test.That(t, jpeg.Encode(&buf, img, nil), test.ShouldBeNil)
	return buf.Bytes()
}

type staticModel struct {
	result entity.ClassificationResult
}

func (m *staticModel) TotalClasses() int { return len(m.result) }

func (m *staticModel) Labels() []string {
	labels := make([]string, 0, len(m.result))
	for _, p := range m.result {
		labels = append(labels, p.Label)
	}
	return labels
}

func (m *staticModel) Classify(ctx context.Context, frame entity.Frame) (entity.ClassificationResult, error) {
	return m.result, nil
}

func (m *staticModel) Close() error { return nil }

type memoryReceipts struct {
	mu       sync.Mutex
	receipts map[string]entity.PaymentConfirmation
	lines    map[string][]entity.ReceiptLine
	failNext bool
}

func newMemoryReceipts() *memoryReceipts {
	return &memoryReceipts{
		receipts: make(map[string]entity.PaymentConfirmation),
		lines:    make(map[string][]entity.ReceiptLine),
	}
}

func (m *memoryReceipts) CreateReceipt(ctx context.Context, receipt entity.PaymentConfirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("db down")
	}
	m.receipts[receipt.ReceiptID] = receipt
	return nil
}

func (m *memoryReceipts) CreateReceiptLine(ctx context.Context, receiptID string, lineNo int, line entity.ReceiptLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[receiptID] = append(m.lines[receiptID], line)
	return nil
}

func (m *memoryReceipts) GetReceiptByID(ctx context.Context, id string) (entity.PaymentConfirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	receipt, ok := m.receipts[id]
	if !ok {
		return entity.PaymentConfirmation{}, errReceiptMissing
	}
	receipt.Lines = nil
	return receipt, nil
}

func (m *memoryReceipts) GetReceiptLines(ctx context.Context, receiptID string) ([]entity.ReceiptLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.ReceiptLine(nil), m.lines[receiptID]...), nil
}

var errReceiptMissing = errors.New("receipt not found")

type memoryRepository struct {
	receipts   *memoryReceipts
	rolledBack int
}

func (r *memoryRepository) NewClient(tx bool) (checkoutRepository.Client, error) {
	return checkoutRepository.Client{
		Receipts: r.receipts,
		Commit:   func() error { return nil },
		Rollback: func() error {
			r.rolledBack++
			return nil
		},
	}, nil
}

type fakeDoku struct {
	err  error
	reqs []doku.CreateVaRequest
}

func (f *fakeDoku) Init() error { return nil }

func (f *fakeDoku) CreateVirtualAccount(req doku.CreateVaRequest) (*doku.CreateVaResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &doku.CreateVaResponse{
		VirtualAccountNo:  "8492312345678",
		Bank:              req.Bank,
		Amount:            req.Amount,
		TransactionID:     req.TrxId,
		ExpiryDate:        "2026-10-18T10:00:00+07:00",
		VirtualAccountURL: "https://pay.example/guide",
	}, nil
}

type fakeLinker struct{}

func (fakeLinker) PresignUrl(key string) (string, error) {
	return "https://evidence.example/" + key, nil
}

type fixture struct {
	svc      ICheckoutService
	manager  *scanner.Manager
	repo     *memoryRepository
	doku     *fakeDoku
	terminal entity.TerminalLoginData
}

func newFixture(t *testing.T, withDoku bool) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c, err := catalog.Default()
	test.That(t, err, test.ShouldBeNil)

	model := &staticModel{result: entity.ClassificationResult{
		{Label: "Loa", Probability: 0.85},
		{Label: "Bút", Probability: 0.05},
	}}
	loader := inference.LoaderFunc(func(context.Context) (inference.Model, error) {
		return model, nil
	})

	manager, err := scanner.NewManager(scanner.ManagerConfig{
		Cooldown: time.Hour,
		Loop:     scanner.LoopConfig{TickInterval: 2 * time.Millisecond},
	}, c, loader, logger)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() {
		_ = manager.Shutdown(context.Background())
	})

	f := &fixture{
		manager:  manager,
		repo:     &memoryRepository{receipts: newMemoryReceipts()},
		terminal: entity.TerminalLoginData{ID: "kiosk-1", Name: "Kiosk One"},
	}

	var dokuService doku.IDokuService
	if withDoku {
		f.doku = &fakeDoku{}
		dokuService = f.doku
	}

	f.svc = NewCheckoutService(logger, manager, f.repo, dokuService, fakeLinker{}, utils.New())
	return f
}

// waitForTotal polls the session until its total reaches want.
func waitForTotal(t *testing.T, svc ICheckoutService, terminalID, sessionID string, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := svc.GetSession(context.Background(), terminalID, sessionID)
		test.That(t, err, test.ShouldBeNil)
		if snap.Total == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session %s never reached total %d", sessionID, want)
}
