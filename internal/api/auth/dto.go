package auth

import "ScanCheckout/internal/entity"

type TokenRequest struct {
	TerminalID string `json:"terminal_id" validate:"required"`
	Secret     string `json:"secret" validate:"required"`
}

type TokenResponse struct {
	AccessToken string                   `json:"access_token"`
	ExpiresAt   int64                    `json:"expires_at"`
	Terminal    entity.TerminalLoginData `json:"terminal"`
}

type RegisterTerminalRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	Secret string `json:"secret" validate:"required,min=8,max=72"`
}

type RegisterTerminalResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
