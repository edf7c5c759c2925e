package checkout

import "ScanCheckout/internal/entity"

type StartSessionRequest struct {
	Source string `json:"source" validate:"omitempty,oneof=push snapshot"`
}

type PayRequest struct {
	Bank string `json:"bank" validate:"omitempty,max=64"`
}

type SessionListResponse struct {
	Sessions []entity.SessionSnapshot `json:"sessions"`
	Total    int                      `json:"total"`
}

// StreamError is written to a websocket before it is closed or when a single
// frame is rejected.
type StreamError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
