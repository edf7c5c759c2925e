package entity

import "time"

type ReceiptLine struct {
	Name         string    `json:"name" db:"name"`
	Price        int64     `json:"price" db:"price"`
	Probability  float64   `json:"probability" db:"probability"`
	EvidenceKey  string    `json:"evidence_key,omitempty" db:"evidence_key"`
	EvidenceURL  string    `json:"evidence_url,omitempty" db:"-"`
	RecognizedAt time.Time `json:"recognized_at" db:"recognized_at"`
}

type PaymentConfirmation struct {
	ReceiptID      string          `json:"receipt_id"`
	SessionID      string          `json:"session_id"`
	TerminalID     string          `json:"terminal_id"`
	Total          int64           `json:"total"`
	Lines          []ReceiptLine   `json:"lines"`
	PaidAt         time.Time       `json:"paid_at"`
	VirtualAccount *VirtualAccount `json:"virtual_account,omitempty"`
}

type VirtualAccount struct {
	Number          string `json:"number"`
	Bank            string `json:"bank"`
	ExpiresAt       string `json:"expires_at"`
	PaymentGuideURL string `json:"payment_guide_url"`
}
