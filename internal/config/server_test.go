package config

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"go.viam.com/test"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewServerRequiresEngine(t *testing.T) {
	_, err := NewServer(WithLogger(quietLogger()))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "fiber app is required")
}

func TestWithCatalogSources(t *testing.T) {
	t.Run("embedded by default", func(t *testing.T) {
		t.Setenv("CATALOG_SOURCE", "")
		s := &Server{log: quietLogger()}

		test.That(t, WithCatalog()(s), test.ShouldBeNil)
		test.That(t, s.catalog.Len(), test.ShouldEqual, 9)
	})

	t.Run("postgres needs a database", func(t *testing.T) {
		t.Setenv("CATALOG_SOURCE", "postgres")
		s := &Server{log: quietLogger()}

		test.That(t, WithCatalog()(s), test.ShouldNotBeNil)
	})

	t.Run("unknown source", func(t *testing.T) {
		t.Setenv("CATALOG_SOURCE", "spreadsheet")
		s := &Server{log: quietLogger()}

		test.That(t, WithCatalog()(s), test.ShouldNotBeNil)
	})
}

func TestWithInferenceLoaderNeedsCatalog(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "")
	t.Setenv("INFERENCE_BACKEND", "")
	s := &Server{log: quietLogger()}

	test.That(t, WithInferenceLoader()(s), test.ShouldNotBeNil)

	test.That(t, WithCatalog()(s), test.ShouldBeNil)
	test.That(t, WithInferenceLoader()(s), test.ShouldBeNil)
	test.That(t, s.loader, test.ShouldNotBeNil)
}

func TestWithInferenceLoaderUnknownBackend(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "")
	t.Setenv("INFERENCE_BACKEND", "tflite")
	s := &Server{log: quietLogger()}
	test.That(t, WithCatalog()(s), test.ShouldBeNil)

	test.That(t, WithInferenceLoader()(s), test.ShouldNotBeNil)
}

func TestServerHealthCheck(t *testing.T) {
	clearScannerEnv(t)
	t.Setenv("CATALOG_SOURCE", "")
	t.Setenv("INFERENCE_BACKEND", "websocket")
	t.Setenv("AWS_BUCKET_NAME", "")
	t.Setenv("DOKU_CLIENT_ID", "")

	logger := quietLogger()
	server, err := NewServer(
		WithFiber(NewFiber(logger)),
		WithLogger(logger),
		WithValidator(NewValidator()),
		WithMiddleware(),
		WithUtils(),
		WithBcryptUtils(),
		WithS3Client(),
		WithDokuClient(),
		WithCatalog(),
		WithInferenceLoader(),
		WithScanner(),
	)
	test.That(t, err, test.ShouldBeNil)
	defer server.manager.Shutdown(context.Background())

	test.That(t, server.s3Client, test.ShouldBeNil)
	test.That(t, server.dokuClient, test.ShouldBeNil)

	server.RegisterHandler()
	test.That(t, server.handlers, test.ShouldHaveLength, 3)

	resp, err := server.engine.Test(httptest.NewRequest("GET", "/", nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, 200)

	body, err := io.ReadAll(resp.Body)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(body), test.ShouldContainSubstring, `"products":9`)
	test.That(t, string(body), test.ShouldContainSubstring, `"sessions":0`)
}
