package productHandler

import (
	productService "ScanCheckout/internal/api/product/service"
	"ScanCheckout/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ProductHandler struct {
	log            *logrus.Logger
	middleware     middleware.Middleware
	productService productService.IProductService
}

func New(
	log *logrus.Logger,
	middleware middleware.Middleware,
	ps productService.IProductService,
) *ProductHandler {
	return &ProductHandler{
		log:            log,
		middleware:     middleware,
		productService: ps,
	}
}

func (h *ProductHandler) Start(srv fiber.Router) {
	catalog := srv.Group("/catalog")

	catalog.Get("/", h.ListProducts)
	catalog.Get("/:name", h.GetProduct)
}
