package productRepository

import (
	"ScanCheckout/internal/entity"
	contextPkg "ScanCheckout/pkg/context"
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ProductDB struct {
	Name        sql.NullString `db:"name"`
	Description sql.NullString `db:"description"`
	Price       sql.NullInt64  `db:"price"`
	Category    sql.NullString `db:"category"`
}

func (r *productRepository) ListProducts(ctx context.Context) ([]entity.CatalogItem, error) {
	requestID := contextPkg.GetRequestID(ctx)

	var rows []ProductDB
	if err := r.q.SelectContext(ctx, &rows, r.q.Rebind(queryListProducts)); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListProducts execution err")
		return nil, err
	}

	items := make([]entity.CatalogItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, entity.CatalogItem{
			Name:        row.Name.String,
			Description: row.Description.String,
			Price:       row.Price.Int64,
			Category:    row.Category.String,
		})
	}

	return items, nil
}

// UpsertProduct stores an item keyed by its name.
func (r *productRepository) UpsertProduct(ctx context.Context, item entity.CatalogItem, sortOrder int) error {
	requestID := contextPkg.GetRequestID(ctx)
	now := time.Now()

	argsKV := map[string]interface{}{
		"name":        item.Name,
		"description": item.Description,
		"price":       item.Price,
		"category":    item.Category,
		"sort_order":  sortOrder,
		"created_at":  now,
		"updated_at":  now,
	}

	query, args, err := sqlx.Named(queryUpsertProduct, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for UpsertProduct")
		return err
	}

	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"product":    item.Name,
			"error":      err.Error(),
		}).Error("Database error when upserting product")
		return err
	}

	return nil
}
