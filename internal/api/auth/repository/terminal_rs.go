package authRepository

import (
	"ScanCheckout/internal/api/auth"
	"ScanCheckout/internal/entity"
	contextPkg "ScanCheckout/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type TerminalDB struct {
	ID         sql.NullString `db:"id"`
	Name       sql.NullString `db:"name"`
	SecretHash sql.NullString `db:"secret_hash"`
	IsActive   sql.NullBool   `db:"is_active"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r *terminalRepository) CreateTerminal(ctx context.Context, terminal entity.Terminal) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":          terminal.ID,
		"name":        terminal.Name,
		"secret_hash": terminal.SecretHash,
		"is_active":   terminal.IsActive,
		"created_at":  terminal.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateTerminal, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateTerminal")
		return err
	}

	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"name":       terminal.Name,
			}).Warn("Terminal already exists")
			return auth.ErrTerminalExists
		}

		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating terminal")
		return err
	}

	return nil
}

func (r *terminalRepository) GetByID(ctx context.Context, id string) (entity.Terminal, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var terminal TerminalDB

	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryGetTerminalByID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByID named query preparation err")
		return entity.Terminal{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&terminal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id":  requestID,
				"terminal_id": id,
			}).Warn("GetByID no rows found")
			return entity.Terminal{}, auth.ErrTerminalNotFound
		}

		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByID execution err")
		return entity.Terminal{}, err
	}

	return entity.Terminal{
		ID:         terminal.ID.String,
		Name:       terminal.Name.String,
		SecretHash: terminal.SecretHash.String,
		IsActive:   terminal.IsActive.Bool,
		CreatedAt:  terminal.CreatedAt,
	}, nil
}

func (r *terminalRepository) TouchLastLogin(ctx context.Context, id string) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":            id,
		"last_login_at": time.Now(),
	}

	query, args, err := sqlx.Named(queryTouchLastLogin, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for TouchLastLogin")
		return err
	}

	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when updating last login")
		return err
	}

	return nil
}
