package scanner

import (
	"ScanCheckout/internal/entity"
	"ScanCheckout/pkg/capture"
	"ScanCheckout/pkg/inference"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrCaptureUnavailable = errors.New("capture source unavailable")
	ErrModelLoad          = errors.New("failed to load classifier model")
	ErrUnknownSource      = errors.New("unknown capture source")
	ErrSourceNotPushable  = errors.New("session source does not accept pushed frames")
)

const (
	SourcePush     = "push"
	SourceSnapshot = "snapshot"
)

// SourceFactory creates a fresh, not yet started source for one session.
type SourceFactory func() (capture.Source, error)

// SnapshotStore keeps session snapshots around after the session is gone.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap entity.SessionSnapshot) error
	GetSnapshot(ctx context.Context, id string) (entity.SessionSnapshot, bool, error)
}

type ManagerConfig struct {
	Loop             LoopConfig
	Cooldown         time.Duration
	Policy           AcceptPolicy
	IdleTimeout      time.Duration
	ReapInterval     time.Duration
	SubscriberBuffer int
}

type ManagerOption func(*Manager)

func WithSource(kind string, factory SourceFactory) ManagerOption {
	return func(m *Manager) {
		m.sources[kind] = factory
	}
}

func WithEvidenceSink(sink EvidenceSink) ManagerOption {
	return func(m *Manager) {
		m.evidence = sink
	}
}

func WithSnapshotStore(store SnapshotStore) ManagerOption {
	return func(m *Manager) {
		m.store = store
	}
}

type liveSession struct {
	session *Session
	source  capture.Source
	model   inference.Model
	cancel  context.CancelFunc
	done    chan struct{}
	mirror  sync.WaitGroup
}

// Manager owns every live session together with its source and model handles.
type Manager struct {
	cfg      ManagerConfig
	catalog  Lookup
	loader   inference.Loader
	log      *logrus.Logger
	sources  map[string]SourceFactory
	evidence EvidenceSink
	store    SnapshotStore

	scheduler gocron.Scheduler

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

func NewManager(cfg ManagerConfig, catalog Lookup, loader inference.Loader, log *logrus.Logger, opts ...ManagerOption) (*Manager, error) {
	cfg.Loop = cfg.Loop.withDefaults()
	if cfg.Policy == "" {
		cfg.Policy = PolicyAll
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = time.Minute
	}

	m := &Manager{
		cfg:      cfg,
		catalog:  catalog,
		loader:   loader,
		log:      log,
		sources:  make(map[string]SourceFactory),
		sessions: make(map[string]*liveSession),
	}

	m.sources[SourcePush] = func() (capture.Source, error) {
		return capture.NewMailbox(cfg.Loop.Clock), nil
	}

	for _, opt := range opts {
		opt(m)
	}

	if cfg.IdleTimeout > 0 {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return nil, err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.ReapInterval),
			gocron.NewTask(m.reapIdle),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, err
		}

		scheduler.Start()
		m.scheduler = scheduler
	}

	return m, nil
}

// Start acquires a source and a model and starts a capture loop. Nothing is
// left running when an error is returned.
func (m *Manager) Start(ctx context.Context, terminalID, sourceKind string) (entity.SessionSnapshot, error) {
	if sourceKind == "" {
		sourceKind = SourcePush
	}

	factory, ok := m.sources[sourceKind]
	if !ok {
		return entity.SessionSnapshot{}, fmt.Errorf("%w: %q", ErrUnknownSource, sourceKind)
	}

	source, err := factory()
	if err != nil {
		return entity.SessionSnapshot{}, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	if err := source.Start(ctx); err != nil {
		return entity.SessionSnapshot{}, multierr.Combine(
			fmt.Errorf("%w: %v", ErrCaptureUnavailable, err),
			source.Stop(),
		)
	}

	model, err := m.loader.Load(ctx)
	if err != nil {
		return entity.SessionSnapshot{}, multierr.Combine(
			fmt.Errorf("%w: %v", ErrModelLoad, err),
			source.Stop(),
		)
	}

	session := NewSession(SessionInfo{
		ID:         ulid.Make().String(),
		TerminalID: terminalID,
		Source:     sourceKind,
	}, m.cfg.Loop.Clock)

	log := m.log.WithFields(logrus.Fields{
		"session_id":  session.ID(),
		"terminal_id": terminalID,
	})
	m.checkLabels(log, model)

	loopCtx, cancel := context.WithCancel(context.Background())
	live := &liveSession{
		session: session,
		source:  source,
		model:   model,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	if m.store != nil {
		events, _ := session.Subscribe(m.cfg.SubscriberBuffer)
		live.mirror.Add(1)
		go m.mirror(live, events, log)
	}

	gate := NewGate(m.catalog, m.cfg.Cooldown, m.cfg.Policy, log)
	loop := NewLoop(m.cfg.Loop, session, source, model, gate, m.evidence, log)

	go func() {
		defer close(live.done)
		if err := loop.Run(loopCtx); err != nil {
			log.WithField("error", err.Error()).Error("[scanner.Manager] capture loop stopped")
		}
	}()

	m.mu.Lock()
	m.sessions[session.ID()] = live
	m.mu.Unlock()

	log.WithField("source", sourceKind).Info("[scanner.Manager] session started")
	return session.Snapshot(), nil
}

func (m *Manager) checkLabels(log *logrus.Entry, model inference.Model) {
	labels := model.Labels()
	log.WithFields(logrus.Fields{
		"total_classes": model.TotalClasses(),
		"labels":        labels,
	}).Info("[scanner.Manager] classifier loaded")

	for _, label := range labels {
		if _, ok := m.catalog.Lookup(label); !ok {
			log.WithField("label", label).Warn("[scanner.Manager] classifier label has no catalog entry")
		}
	}
}

func (m *Manager) mirror(live *liveSession, events <-chan entity.SessionEvent, log *logrus.Entry) {
	defer live.mirror.Done()

	for ev := range events {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := m.store.SaveSnapshot(ctx, ev.Snapshot); err != nil {
			log.WithField("error", err.Error()).Warn("[scanner.Manager] failed to mirror session snapshot")
		}
		cancel()
	}
}

func (m *Manager) live(id string) (*liveSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	live, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return live, nil
}

func (m *Manager) Session(id string) (*Session, error) {
	live, err := m.live(id)
	if err != nil {
		return nil, err
	}
	return live.session, nil
}

// Snapshot returns the live state of a session, or the last mirrored state
// of one that has ended.
func (m *Manager) Snapshot(ctx context.Context, id string) (entity.SessionSnapshot, error) {
	if live, err := m.live(id); err == nil {
		return live.session.Snapshot(), nil
	}

	if m.store == nil {
		return entity.SessionSnapshot{}, ErrSessionNotFound
	}

	snap, ok, err := m.store.GetSnapshot(ctx, id)
	if err != nil {
		return entity.SessionSnapshot{}, err
	}
	if !ok {
		return entity.SessionSnapshot{}, ErrSessionNotFound
	}
	return snap, nil
}

func (m *Manager) List() []entity.SessionSnapshot {
	m.mu.RLock()
	out := make([]entity.SessionSnapshot, 0, len(m.sessions))
	for _, live := range m.sessions {
		out = append(out, live.session.Snapshot())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *Manager) Pay(id string) (entity.PaymentConfirmation, error) {
	live, err := m.live(id)
	if err != nil {
		return entity.PaymentConfirmation{}, err
	}
	return live.session.Reset(), nil
}

func (m *Manager) Publish(id string, frame entity.Frame) error {
	live, err := m.live(id)
	if err != nil {
		return err
	}

	pub, ok := live.source.(capture.Publisher)
	if !ok {
		return ErrSourceNotPushable
	}
	return pub.Publish(frame)
}

// Stop tears a session down: the loop is cancelled and awaited before the
// source and model are released.
func (m *Manager) Stop(id string) (entity.SessionSnapshot, error) {
	m.mu.Lock()
	live, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return entity.SessionSnapshot{}, ErrSessionNotFound
	}

	return m.teardown(live)
}

func (m *Manager) teardown(live *liveSession) (entity.SessionSnapshot, error) {
	live.cancel()
	<-live.done

	err := multierr.Combine(
		live.source.Stop(),
		live.model.Close(),
	)

	session := live.session
	if session.Status() != entity.SessionFailed {
		session.SetStatus(entity.SessionStopped, "")
	}
	snap := session.Snapshot()

	session.Close()
	live.mirror.Wait()

	if m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = multierr.Append(err, m.store.SaveSnapshot(ctx, snap))
		cancel()
	}

	m.log.WithFields(logrus.Fields{
		"session_id": session.ID(),
		"total":      snap.Total,
	}).Info("[scanner.Manager] session stopped")

	if err != nil {
		return snap, fmt.Errorf("failed to tear down session: %w", err)
	}
	return snap, nil
}

type frameClock interface {
	LastFrameAt() time.Time
}

func (m *Manager) reapIdle() {
	now := m.cfg.Loop.Clock.Now()

	m.mu.RLock()
	var idle []string
	for id, live := range m.sessions {
		last := live.session.Snapshot().StartedAt
		if fc, ok := live.source.(frameClock); ok {
			if at := fc.LastFrameAt(); at.After(last) {
				last = at
			}
		}
		if now.Sub(last) >= m.cfg.IdleTimeout {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range idle {
		m.log.WithField("session_id", id).Info("[scanner.Manager] reaping idle session")
		if _, err := m.Stop(id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			m.log.WithFields(logrus.Fields{
				"session_id": id,
				"error":      err.Error(),
			}).Warn("[scanner.Manager] failed to reap idle session")
		}
	}
}

// Shutdown stops the reaper and every live session.
func (m *Manager) Shutdown(ctx context.Context) error {
	var err error
	if m.scheduler != nil {
		err = multierr.Append(err, m.scheduler.Shutdown())
	}

	m.mu.Lock()
	live := make([]*liveSession, 0, len(m.sessions))
	for id, l := range m.sessions {
		live = append(live, l)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		var stopErr error
		for _, l := range live {
			_, e := m.teardown(l)
			stopErr = multierr.Append(stopErr, e)
		}
		done <- stopErr
	}()

	select {
	case e := <-done:
		return multierr.Append(err, e)
	case <-ctx.Done():
		return multierr.Append(err, ctx.Err())
	}
}
