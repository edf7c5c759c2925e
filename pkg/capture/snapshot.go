package capture

import (
	"ScanCheckout/internal/entity"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

type SnapshotConfig struct {
	URL          string
	PollInterval time.Duration
	Timeout      time.Duration
	Clock        clock.Clock
}

// SnapshotSource polls a still-image endpoint such as an IP camera's
// snapshot URL and keeps the newest image in a Mailbox.
type SnapshotSource struct {
	cfg   SnapshotConfig
	log   *logrus.Logger
	inbox *Mailbox

	fetch func(ctx context.Context) ([]byte, error)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

func NewSnapshotSource(cfg SnapshotConfig, log *logrus.Logger) *SnapshotSource {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	s := &SnapshotSource{
		cfg:   cfg,
		log:   log,
		inbox: NewMailbox(cfg.Clock),
	}
	s.fetch = s.fetchHTTP
	return s
}

func (s *SnapshotSource) fetchHTTP(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agent := fiber.Get(s.cfg.URL)
	agent.Set(fiber.HeaderAccept, "image/jpeg")
	agent.Timeout(s.cfg.Timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, multierr.Combine(errs...)
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("snapshot endpoint returned status %d", code)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("snapshot endpoint returned an empty body")
	}
	return body, nil
}

// Start performs one fetch synchronously so an unreachable camera fails
// session setup instead of the first tick.
func (s *SnapshotSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	data, err := s.fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := s.inbox.Publish(entity.Frame{Data: data}); err != nil {
		return err
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	go s.poll(pollCtx)
	return nil
}

func (s *SnapshotSource) poll(ctx context.Context) {
	defer close(s.done)

	ticker := s.cfg.Clock.Ticker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			data, err := s.fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.WithFields(logrus.Fields{
					"url":   s.cfg.URL,
					"error": err.Error(),
				}).Warn("[capture.SnapshotSource] snapshot fetch failed")
				continue
			}
			_ = s.inbox.Publish(entity.Frame{Data: data})
		}
	}
}

func (s *SnapshotSource) Next() (entity.Frame, bool) {
	return s.inbox.Next()
}

func (s *SnapshotSource) Stats() Stats {
	return s.inbox.Stats()
}

func (s *SnapshotSource) LastFrameAt() time.Time {
	return s.inbox.LastFrameAt()
}

func (s *SnapshotSource) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return s.inbox.Stop()
}
