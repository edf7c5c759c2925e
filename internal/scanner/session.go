package scanner

import (
	"ScanCheckout/internal/entity"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/oklog/ulid/v2"
)

// Recognition is one accepted classification that is added to the bill.
type Recognition struct {
	Item        entity.CatalogItem
	Probability float64
	EvidenceKey string
	At          time.Time
}

type SessionInfo struct {
	ID         string
	TerminalID string
	Source     string
}

// Session is the running bill of one checkout. The total only ever grows by
// the price of a recognized item, and only Reset brings it back to zero.
type Session struct {
	info  SessionInfo
	clock clock.Clock
	hub   *hub

	mu        sync.RWMutex
	status    entity.SessionStatus
	total     int64
	last      *entity.CatalogItem
	lines     []entity.ReceiptLine
	lastError string
	startedAt time.Time
	updatedAt time.Time
}

func NewSession(info SessionInfo, clk clock.Clock) *Session {
	if clk == nil {
		clk = clock.New()
	}
	if info.ID == "" {
		info.ID = ulid.Make().String()
	}

	now := clk.Now()
	return &Session{
		info:      info,
		clock:     clk,
		hub:       newHub(),
		status:    entity.SessionRunning,
		startedAt: now,
		updatedAt: now,
	}
}

func (s *Session) ID() string {
	return s.info.ID
}

func (s *Session) TerminalID() string {
	return s.info.TerminalID
}

// RecordRecognition adds item to the bill.
func (s *Session) RecordRecognition(item entity.CatalogItem) {
	s.Record(Recognition{Item: item})
}

func (s *Session) Record(r Recognition) {
	if r.At.IsZero() {
		r.At = s.clock.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := r.Item
	s.total += item.Price
	s.last = &item
	s.lines = append(s.lines, entity.ReceiptLine{
		Name:         item.Name,
		Price:        item.Price,
		Probability:  r.Probability,
		EvidenceKey:  r.EvidenceKey,
		RecognizedAt: r.At,
	})
	s.updatedAt = r.At

	s.publishLocked(entity.SessionEvent{Type: entity.EventRecognized, Item: &item})
}

// Reset settles the bill: the returned confirmation lists what was charged and
// the session starts over from zero.
func (s *Session) Reset() entity.PaymentConfirmation {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	confirmation := entity.PaymentConfirmation{
		ReceiptID:  ulid.Make().String(),
		SessionID:  s.info.ID,
		TerminalID: s.info.TerminalID,
		Total:      s.total,
		Lines:      s.lines,
		PaidAt:     now,
	}
	if confirmation.Lines == nil {
		confirmation.Lines = []entity.ReceiptLine{}
	}

	s.total = 0
	s.last = nil
	s.lines = nil
	s.updatedAt = now

	s.publishLocked(entity.SessionEvent{Type: entity.EventPaymentConfirmed, Confirmation: &confirmation})
	return confirmation
}

func (s *Session) Snapshot() entity.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) Status() entity.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetStatus changes the status and publishes it when it differs from the
// current one. An empty message clears the last error.
func (s *Session) SetStatus(status entity.SessionStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == status && s.lastError == message {
		return
	}

	s.status = status
	s.lastError = message
	s.updatedAt = s.clock.Now()
	s.publishLocked(entity.SessionEvent{Type: entity.EventStatus, Message: message})
}

// ReportError marks the session degraded and publishes err. The bill is untouched.
func (s *Session) ReportError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = err.Error()
	if s.status == entity.SessionRunning {
		s.status = entity.SessionDegraded
	}
	s.updatedAt = s.clock.Now()
	s.publishLocked(entity.SessionEvent{Type: entity.EventError, Message: err.Error()})
}

// Subscribe returns a channel of events starting with the current snapshot.
// The channel is closed by the returned cancel func or when the session ends.
func (s *Session) Subscribe(buffer int) (<-chan entity.SessionEvent, func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, cancel := s.hub.subscribe(buffer)
	s.hub.publishTo(ch, s.eventLocked(entity.SessionEvent{Type: entity.EventSnapshot}))
	return ch, cancel
}

func (s *Session) DroppedEvents() uint64 {
	return s.hub.droppedEvents()
}

// Close ends every subscription.
func (s *Session) Close() {
	s.hub.close()
}

func (s *Session) snapshotLocked() entity.SessionSnapshot {
	snap := entity.SessionSnapshot{
		ID:         s.info.ID,
		TerminalID: s.info.TerminalID,
		Source:     s.info.Source,
		Status:     s.status,
		Total:      s.total,
		Lines:      make([]entity.ReceiptLine, len(s.lines)),
		LastError:  s.lastError,
		StartedAt:  s.startedAt,
		UpdatedAt:  s.updatedAt,
	}
	copy(snap.Lines, s.lines)
	if s.last != nil {
		last := *s.last
		snap.LastItem = &last
	}
	return snap
}

func (s *Session) eventLocked(ev entity.SessionEvent) entity.SessionEvent {
	ev.SessionID = s.info.ID
	ev.Snapshot = s.snapshotLocked()
	if ev.At.IsZero() {
		ev.At = s.updatedAt
	}
	return ev
}

func (s *Session) publishLocked(ev entity.SessionEvent) {
	s.hub.publish(s.eventLocked(ev))
}
