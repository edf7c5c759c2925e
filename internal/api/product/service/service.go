package productService

import (
	"ScanCheckout/internal/api/product"
	productRepository "ScanCheckout/internal/api/product/repository"
	"ScanCheckout/internal/catalog"
	"ScanCheckout/internal/entity"
	"context"

	"github.com/sirupsen/logrus"
)

type IProductService interface {
	ListProducts(ctx context.Context) (*product.ProductListResponse, error)
	GetProduct(ctx context.Context, name string) (*entity.CatalogItem, error)
}

type productService struct {
	log     *logrus.Logger
	catalog *catalog.Catalog
}

func NewProductService(log *logrus.Logger, c *catalog.Catalog) IProductService {
	return &productService{
		log:     log,
		catalog: c,
	}
}

// LoadCatalog reads the catalog from the products table, seeding the table
// with the built-in products first when it is empty.
func LoadCatalog(ctx context.Context, repo productRepository.Repository, log *logrus.Logger) (*catalog.Catalog, error) {
	items, err := repo.ListProducts(ctx)
	if err != nil {
		return nil, product.ErrListProducts
	}

	if len(items) > 0 {
		return catalog.New(items)
	}

	defaults, err := catalog.Default()
	if err != nil {
		return nil, err
	}

	client, err := repo.NewClient(true)
	if err != nil {
		return nil, product.ErrSeedProducts
	}

	for i, item := range defaults.Items() {
		if err := client.Products.UpsertProduct(ctx, item, i); err != nil {
			if rbErr := client.Rollback(); rbErr != nil {
				log.WithError(rbErr).Error("Failed to rollback product seed")
			}
			return nil, product.ErrSeedProducts
		}
	}

	if err := client.Commit(); err != nil {
		log.WithError(err).Error("Failed to commit product seed")
		return nil, product.ErrSeedProducts
	}

	log.WithField("products", defaults.Len()).Info("Seeded products table with built-in catalog")

	return defaults, nil
}
