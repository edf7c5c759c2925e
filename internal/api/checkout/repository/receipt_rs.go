package checkoutRepository

import (
	"ScanCheckout/internal/api/checkout"
	"ScanCheckout/internal/entity"
	contextPkg "ScanCheckout/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ReceiptDB struct {
	ID          sql.NullString `db:"id"`
	SessionID   sql.NullString `db:"session_id"`
	TerminalID  sql.NullString `db:"terminal_id"`
	Total       sql.NullInt64  `db:"total"`
	PaidAt      time.Time      `db:"paid_at"`
	VANumber    sql.NullString `db:"va_number"`
	VABank      sql.NullString `db:"va_bank"`
	VAExpiresAt sql.NullString `db:"va_expires_at"`
	VAGuideURL  sql.NullString `db:"va_guide_url"`
}

type ReceiptLineDB struct {
	Name         sql.NullString  `db:"name"`
	Price        sql.NullInt64   `db:"price"`
	Probability  sql.NullFloat64 `db:"probability"`
	EvidenceKey  sql.NullString  `db:"evidence_key"`
	RecognizedAt time.Time       `db:"recognized_at"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *receiptRepository) CreateReceipt(ctx context.Context, receipt entity.PaymentConfirmation) error {
	requestID := contextPkg.GetRequestID(ctx)

	var va entity.VirtualAccount
	if receipt.VirtualAccount != nil {
		va = *receipt.VirtualAccount
	}

	argsKV := map[string]interface{}{
		"id":            receipt.ReceiptID,
		"session_id":    receipt.SessionID,
		"terminal_id":   receipt.TerminalID,
		"total":         receipt.Total,
		"paid_at":       receipt.PaidAt,
		"va_number":     nullString(va.Number),
		"va_bank":       nullString(va.Bank),
		"va_expires_at": nullString(va.ExpiresAt),
		"va_guide_url":  nullString(va.PaymentGuideURL),
		"created_at":    time.Now(),
	}

	query, args, err := sqlx.Named(queryCreateReceipt, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateReceipt")
		return err
	}

	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"receipt_id": receipt.ReceiptID,
			"error":      err.Error(),
		}).Error("Database error when creating receipt")
		return err
	}

	return nil
}

func (r *receiptRepository) CreateReceiptLine(ctx context.Context, receiptID string, lineNo int, line entity.ReceiptLine) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"receipt_id":    receiptID,
		"line_no":       lineNo,
		"name":          line.Name,
		"price":         line.Price,
		"probability":   line.Probability,
		"evidence_key":  nullString(line.EvidenceKey),
		"recognized_at": line.RecognizedAt,
	}

	query, args, err := sqlx.Named(queryCreateReceiptLine, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateReceiptLine")
		return err
	}

	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"receipt_id": receiptID,
			"line_no":    lineNo,
			"error":      err.Error(),
		}).Error("Database error when creating receipt line")
		return err
	}

	return nil
}

func (r *receiptRepository) GetReceiptByID(ctx context.Context, id string) (entity.PaymentConfirmation, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var receipt ReceiptDB

	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryGetReceiptByID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetReceiptByID named query preparation err")
		return entity.PaymentConfirmation{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&receipt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"receipt_id": id,
			}).Warn("GetReceiptByID no rows found")
			return entity.PaymentConfirmation{}, checkout.ErrReceiptNotFound
		}

		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetReceiptByID execution err")
		return entity.PaymentConfirmation{}, err
	}

	out := entity.PaymentConfirmation{
		ReceiptID:  receipt.ID.String,
		SessionID:  receipt.SessionID.String,
		TerminalID: receipt.TerminalID.String,
		Total:      receipt.Total.Int64,
		PaidAt:     receipt.PaidAt,
		Lines:      []entity.ReceiptLine{},
	}
	if receipt.VANumber.Valid {
		out.VirtualAccount = &entity.VirtualAccount{
			Number:          receipt.VANumber.String,
			Bank:            receipt.VABank.String,
			ExpiresAt:       receipt.VAExpiresAt.String,
			PaymentGuideURL: receipt.VAGuideURL.String,
		}
	}

	return out, nil
}

func (r *receiptRepository) GetReceiptLines(ctx context.Context, receiptID string) ([]entity.ReceiptLine, error) {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"receipt_id": receiptID,
	}

	query, args, err := sqlx.Named(queryGetReceiptLines, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetReceiptLines named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	var rows []ReceiptLineDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetReceiptLines execution err")
		return nil, err
	}

	lines := make([]entity.ReceiptLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, entity.ReceiptLine{
			Name:         row.Name.String,
			Price:        row.Price.Int64,
			Probability:  row.Probability.Float64,
			EvidenceKey:  row.EvidenceKey.String,
			RecognizedAt: row.RecognizedAt,
		})
	}

	return lines, nil
}
