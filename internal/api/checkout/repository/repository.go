package checkoutRepository

import (
	"ScanCheckout/internal/entity"
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		var err error
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Receipts: &receiptRepository{q: sqlExecutor, log: r.log},
		Commit:   commitFunc,
		Rollback: rollbackFunc,
	}, nil
}

type Client struct {
	Receipts interface {
		CreateReceipt(ctx context.Context, receipt entity.PaymentConfirmation) error
		CreateReceiptLine(ctx context.Context, receiptID string, lineNo int, line entity.ReceiptLine) error
		GetReceiptByID(ctx context.Context, id string) (entity.PaymentConfirmation, error)
		GetReceiptLines(ctx context.Context, receiptID string) ([]entity.ReceiptLine, error)
	}

	Commit   func() error
	Rollback func() error
}

type receiptRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
