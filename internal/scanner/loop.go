package scanner

import (
	"ScanCheckout/internal/entity"
	"ScanCheckout/pkg/capture"
	"ScanCheckout/pkg/inference"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

var ErrTooManyFailures = errors.New("classifier failed too many times in a row")

type LoopConfig struct {
	TickInterval     time.Duration
	InferenceTimeout time.Duration
	BackoffInitial   time.Duration
	BackoffMax       time.Duration
	MaxFailures      int
	Clock            clock.Clock
}

func (c LoopConfig) withDefaults() LoopConfig {
	if c.TickInterval <= 0 {
		c.TickInterval = 16 * time.Millisecond
	}
	if c.InferenceTimeout <= 0 {
		c.InferenceTimeout = 5 * time.Second
	}
	if c.BackoffInitial <= 0 {
		c.BackoffInitial = 200 * time.Millisecond
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = 10 * time.Second
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return c
}

// EvidenceSink stores the frame behind an accepted recognition and returns
// the key it will be stored under.
type EvidenceSink interface {
	Submit(sessionID string, frame entity.Frame, item entity.CatalogItem) string
}

// Loop pulls frames from its source, classifies them one at a time and feeds
// the results through the gate into the session.
type Loop struct {
	cfg      LoopConfig
	session  *Session
	source   capture.Source
	model    inference.Model
	gate     *Gate
	evidence EvidenceSink
	log      *logrus.Entry

	failures  int
	notBefore time.Time
}

func NewLoop(cfg LoopConfig, session *Session, source capture.Source, model inference.Model, gate *Gate, evidence EvidenceSink, log *logrus.Entry) *Loop {
	return &Loop{
		cfg:      cfg.withDefaults(),
		session:  session,
		source:   source,
		model:    model,
		gate:     gate,
		evidence: evidence,
		log:      log,
	}
}

// Run ticks until ctx is cancelled, which is not an error, or until the
// classifier fails MaxFailures times in a row.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.cfg.Clock.Ticker(l.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := l.Step(ctx); err != nil {
				return err
			}
		}
	}
}

// Step runs a single tick.
func (l *Loop) Step(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	now := l.cfg.Clock.Now()

	frame, ok := l.source.Next()
	if !ok {
		return nil
	}

	if now.Before(l.notBefore) || !l.gate.Ready(now) {
		return nil
	}

	inferCtx, cancel := l.cfg.Clock.WithTimeout(ctx, l.cfg.InferenceTimeout)
	result, err := l.model.Classify(inferCtx, frame)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, inference.ErrUnreadableFrame) {
			l.log.WithField("error", err.Error()).Warn("[scanner.Loop] dropping unreadable frame")
			return nil
		}
		return l.fail(now, err)
	}

	if l.failures > 0 {
		l.failures = 0
		l.notBefore = time.Time{}
		l.session.SetStatus(entity.SessionRunning, "")
	}

	// one upload per frame, shared by every line it produced
	var key string
	for i, m := range l.gate.Evaluate(now, result) {
		if i == 0 && l.evidence != nil {
			key = l.evidence.Submit(l.session.ID(), frame, m.Item)
		}

		l.session.Record(Recognition{
			Item:        m.Item,
			Probability: m.Probability,
			EvidenceKey: key,
			At:          now,
		})

		l.log.WithFields(logrus.Fields{
			"item":        m.Item.Name,
			"price":       m.Item.Price,
			"probability": m.Probability,
		}).Info("[scanner.Loop] item recognized")
	}

	return nil
}

func (l *Loop) fail(now time.Time, err error) error {
	l.failures++
	err = fmt.Errorf("classification failed: %w", err)

	l.log.WithFields(logrus.Fields{
		"failures": l.failures,
		"error":    err.Error(),
	}).Warn("[scanner.Loop] classifier call failed")

	l.session.ReportError(err)

	if l.failures >= l.cfg.MaxFailures {
		l.session.SetStatus(entity.SessionFailed, err.Error())
		return fmt.Errorf("%w: %v", ErrTooManyFailures, err)
	}

	l.notBefore = now.Add(backoff(l.cfg.BackoffInitial, l.cfg.BackoffMax, l.failures))
	return nil
}

// backoff doubles initial for every failure after the first, capped at max.
func backoff(initial, max time.Duration, failures int) time.Duration {
	d := initial
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
