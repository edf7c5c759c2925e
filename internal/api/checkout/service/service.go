package checkoutService

import (
	"ScanCheckout/internal/api/checkout"
	checkoutRepository "ScanCheckout/internal/api/checkout/repository"
	"ScanCheckout/internal/entity"
	"ScanCheckout/internal/scanner"
	"ScanCheckout/pkg/doku"
	"ScanCheckout/pkg/utils"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const virtualAccountTTL = 24 * time.Hour

// SessionManager is the part of scanner.Manager the checkout API drives.
type SessionManager interface {
	Start(ctx context.Context, terminalID, sourceKind string) (entity.SessionSnapshot, error)
	Session(id string) (*scanner.Session, error)
	Snapshot(ctx context.Context, id string) (entity.SessionSnapshot, error)
	List() []entity.SessionSnapshot
	Pay(id string) (entity.PaymentConfirmation, error)
	Publish(id string, frame entity.Frame) error
	Stop(id string) (entity.SessionSnapshot, error)
}

// EvidenceLinker turns a stored evidence key into a temporary URL.
type EvidenceLinker interface {
	PresignUrl(key string) (string, error)
}

type ICheckoutService interface {
	StartSession(ctx context.Context, terminal entity.TerminalLoginData, req checkout.StartSessionRequest) (entity.SessionSnapshot, error)
	ListSessions(ctx context.Context, terminalID string) (*checkout.SessionListResponse, error)
	GetSession(ctx context.Context, terminalID, sessionID string) (entity.SessionSnapshot, error)
	StopSession(ctx context.Context, terminalID, sessionID string) (entity.SessionSnapshot, error)
	Pay(ctx context.Context, terminal entity.TerminalLoginData, sessionID string, req checkout.PayRequest) (*entity.PaymentConfirmation, error)
	GetReceipt(ctx context.Context, terminalID, receiptID string) (*entity.PaymentConfirmation, error)

	AuthorizeSession(ctx context.Context, terminalID, sessionID string) error
	PublishFrame(ctx context.Context, sessionID string, data []byte) error
	Subscribe(ctx context.Context, terminalID, sessionID string, buffer int) (<-chan entity.SessionEvent, func(), error)
}

type checkoutService struct {
	log      *logrus.Logger
	manager  SessionManager
	repo     checkoutRepository.Repository
	doku     doku.IDokuService
	evidence EvidenceLinker
	utils    utils.IUtils
}

// NewCheckoutService wires the session manager to persistence. dokuService
// and evidence may be nil when those integrations are not configured.
func NewCheckoutService(
	log *logrus.Logger,
	manager SessionManager,
	repo checkoutRepository.Repository,
	dokuService doku.IDokuService,
	evidence EvidenceLinker,
	utils utils.IUtils,
) ICheckoutService {
	return &checkoutService{
		log:      log,
		manager:  manager,
		repo:     repo,
		doku:     dokuService,
		evidence: evidence,
		utils:    utils,
	}
}
