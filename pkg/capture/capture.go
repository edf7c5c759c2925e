// Package capture provides frame sources for a scanning session.
//
// A Source keeps at most one pending frame. A newer frame overwrites an
// unconsumed older one and the overwrite is counted as a drop, never as an error.
package capture

import (
	"ScanCheckout/internal/entity"
	"context"
	"errors"
	"time"
)

var (
	ErrUnavailable = errors.New("capture source unavailable")
	ErrStopped     = errors.New("capture source stopped")
)

type Source interface {
	// Start returns once the source is ready to deliver frames.
	Start(ctx context.Context) error
	// Next hands over the newest unconsumed frame, if any.
	Next() (entity.Frame, bool)
	Stats() Stats
	// Stop is idempotent.
	Stop() error
}

// Publisher is implemented by sources that accept frames pushed from outside.
type Publisher interface {
	Publish(frame entity.Frame) error
}

type Stats struct {
	Published   uint64    `json:"published"`
	Consumed    uint64    `json:"consumed"`
	Dropped     uint64    `json:"dropped"`
	LastFrameAt time.Time `json:"last_frame_at"`
}
