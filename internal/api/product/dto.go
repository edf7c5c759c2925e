package product

import "ScanCheckout/internal/entity"

type ProductListResponse struct {
	Products []entity.CatalogItem `json:"products"`
	Total    int                  `json:"total"`
}
