package entity

import "time"

type Terminal struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	SecretHash string    `db:"secret_hash"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
}

type TerminalLoginData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
