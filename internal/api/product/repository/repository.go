package productRepository

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
	ListProducts(ctx context.Context) ([]entity.CatalogItem, error)
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
		Products: &productRepository{q: sqlExecutor, log: r.log},
		Commit:   commitFunc,
		Rollback: rollbackFunc,
	}, nil
}

// ListProducts lets the repository act as the startup source of the catalog.
func (r *repository) ListProducts(ctx context.Context) ([]entity.CatalogItem, error) {
	client, err := r.NewClient(false)
	if err != nil {
		return nil, err
	}
	return client.Products.ListProducts(ctx)
}

type Client struct {
	Products interface {
		ListProducts(ctx context.Context) ([]entity.CatalogItem, error)
		UpsertProduct(ctx context.Context, item entity.CatalogItem, sortOrder int) error
	}

	Commit   func() error
	Rollback func() error
}

type productRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
