package productService

import (
	"ScanCheckout/internal/api/product"
	"ScanCheckout/internal/entity"
	contextPkg "ScanCheckout/pkg/context"
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

func (s *productService) ListProducts(ctx context.Context) (*product.ProductListResponse, error) {
	if s.catalog == nil {
		return nil, product.ErrCatalogNotLoaded
	}

	items := s.catalog.Items()
	return &product.ProductListResponse{
		Products: items,
		Total:    len(items),
	}, nil
}

func (s *productService) GetProduct(ctx context.Context, name string) (*entity.CatalogItem, error) {
	if s.catalog == nil {
		return nil, product.ErrCatalogNotLoaded
	}
	if strings.TrimSpace(name) == "" {
		return nil, product.ErrInvalidName
	}

	item, ok := s.catalog.Lookup(name)
	if !ok {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"name":       name,
		}).Debug("Product lookup missed")
		return nil, product.ErrProductNotFound
	}

	return &item, nil
}
