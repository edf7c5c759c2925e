package entity

import "time"

type SessionStatus string

const (
	SessionRunning  SessionStatus = "running"
	SessionDegraded SessionStatus = "degraded"
	SessionFailed   SessionStatus = "failed"
	SessionStopped  SessionStatus = "stopped"
)

type SessionSnapshot struct {
	ID         string        `json:"id"`
	TerminalID string        `json:"terminal_id"`
	Source     string        `json:"source"`
	Status     SessionStatus `json:"status"`
	Total      int64         `json:"total"`
	LastItem   *CatalogItem  `json:"last_item,omitempty"`
	Lines      []ReceiptLine `json:"lines"`
	LastError  string        `json:"last_error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type SessionEventType string

const (
	EventSnapshot         SessionEventType = "snapshot"
	EventRecognized       SessionEventType = "recognized"
	EventPaymentConfirmed SessionEventType = "payment_confirmed"
	EventError            SessionEventType = "error"
	EventStatus           SessionEventType = "status"
)

type SessionEvent struct {
	Type         SessionEventType     `json:"type"`
	SessionID    string               `json:"session_id"`
	Snapshot     SessionSnapshot      `json:"snapshot"`
	Item         *CatalogItem         `json:"item,omitempty"`
	Confirmation *PaymentConfirmation `json:"confirmation,omitempty"`
	Message      string               `json:"message,omitempty"`
	At           time.Time            `json:"at"`
}
