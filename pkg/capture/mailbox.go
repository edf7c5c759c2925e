package capture

import (
	"ScanCheckout/internal/entity"
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Mailbox is a push source holding the single newest frame.
type Mailbox struct {
	clock clock.Clock

	mu      sync.Mutex
	pending *entity.Frame
	seq     uint64
	stats   Stats
	stopped bool
}

func NewMailbox(clk clock.Clock) *Mailbox {
	if clk == nil {
		clk = clock.New()
	}
	return &Mailbox{clock: clk}
}

func (m *Mailbox) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrStopped
	}
	return ctx.Err()
}

func (m *Mailbox) Publish(frame entity.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrStopped
	}

	if m.pending != nil {
		m.stats.Dropped++
	}

	m.seq++
	frame.Seq = m.seq
	if frame.CapturedAt.IsZero() {
		frame.CapturedAt = m.clock.Now()
	}
	if frame.ContentType == "" {
		frame.ContentType = "image/jpeg"
	}

	m.pending = &frame
	m.stats.Published++
	m.stats.LastFrameAt = frame.CapturedAt
	return nil
}

func (m *Mailbox) Next() (entity.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return entity.Frame{}, false
	}

	frame := *m.pending
	m.pending = nil
	m.stats.Consumed++
	return frame, true
}

func (m *Mailbox) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// LastFrameAt reports when the newest frame arrived, zero if none has.
func (m *Mailbox) LastFrameAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats.LastFrameAt
}

func (m *Mailbox) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true
	m.pending = nil
	return nil
}
