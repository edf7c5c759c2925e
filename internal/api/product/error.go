package product

import (
	"ScanCheckout/pkg/response"
)

var (
	ErrProductNotFound  = response.NewError(404, "product not found")
	ErrInvalidName      = response.NewError(400, "invalid product name")
	ErrListProducts     = response.NewError(500, "failed to list products")
	ErrSeedProducts     = response.NewError(500, "failed to seed products")
	ErrCatalogNotLoaded = response.NewError(503, "catalog not loaded")
)
