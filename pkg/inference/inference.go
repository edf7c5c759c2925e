// Package inference defines the classifier contract used by the capture loop.
package inference

import (
	"ScanCheckout/internal/entity"
	"context"
	"errors"
)

var ErrModelClosed = errors.New("model is closed")

// Model is a loaded image classifier. A Model is owned by one session and
// Classify is never called concurrently on the same handle.
type Model interface {
	TotalClasses() int
	Labels() []string
	// Classify returns one entry per known class in model order.
	Classify(ctx context.Context, frame entity.Frame) (entity.ClassificationResult, error)
	Close() error
}

type Loader interface {
	Load(ctx context.Context) (Model, error)
}

type LoaderFunc func(ctx context.Context) (Model, error)

func (f LoaderFunc) Load(ctx context.Context) (Model, error) {
	return f(ctx)
}
