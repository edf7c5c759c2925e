package productHandler

import (
	"ScanCheckout/internal/api/product"
	productService "ScanCheckout/internal/api/product/service"
	"ScanCheckout/internal/catalog"
	"ScanCheckout/internal/entity"
	"ScanCheckout/internal/middleware"
	"io"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"go.viam.com/test"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c, err := catalog.Default()
	test.That(t, err, test.ShouldBeNil)

	mw := middleware.New(logger)
	app := fiber.New()
	app.Use(mw.NewRequestIDMiddleware())
	New(logger, mw, productService.NewProductService(logger, c)).Start(app.Group("/api/v1"))
	return app
}

func TestListProducts(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/catalog", nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, fiber.StatusOK)

	var body product.ProductListResponse
	test.That(t, jsoniter.NewDecoder(resp.Body).Decode(&body), test.ShouldBeNil)
	test.That(t, body.Total, test.ShouldEqual, 9)
	test.That(t, body.Products, test.ShouldHaveLength, 9)
}

func TestGetProductDecodesName(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/catalog/"+url.PathEscape("Máy Tính Casio"), nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, fiber.StatusOK)

	var item entity.CatalogItem
	test.That(t, jsoniter.NewDecoder(resp.Body).Decode(&item), test.ShouldBeNil)
	test.That(t, item.Name, test.ShouldEqual, "Máy Tính Casio")
	test.That(t, item.Price, test.ShouldEqual, int64(150000))
}

func TestGetProductIsCaseSensitive(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/catalog/loa", nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, fiber.StatusNotFound)

	body, _ := io.ReadAll(resp.Body)
	test.That(t, string(body), test.ShouldContainSubstring, "product not found")
}
