// Package wsmodel talks to a remote image classifier over a websocket.
//
// Protocol: a text message {"op":"metadata"} is answered with the model's
// labels; every binary message is an encoded frame answered with
// {"predictions":[{"label":..,"probability":..}],"error":""}.
package wsmodel

import (
	"ScanCheckout/internal/entity"
	"ScanCheckout/pkg/inference"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultURL = "ws://localhost:8000/api/v1/classify/ws"

type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
}

func ConfigFromEnv() Config {
	url := os.Getenv("INFERENCE_WS_URL")
	if url == "" {
		url = defaultURL
	}
	return Config{URL: url}
}

func (c Config) withDefaults() Config {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	return c
}

type metadataRequest struct {
	Op string `json:"op"`
}

type metadataResponse struct {
	Labels       []string `json:"labels"`
	TotalClasses int      `json:"total_classes"`
	Error        string   `json:"error"`
}

type classifyResponse struct {
	Predictions []entity.Prediction `json:"predictions"`
	Error       string              `json:"error"`
}

type Loader struct {
	cfg Config
	log *logrus.Logger
}

func NewLoader(cfg Config, log *logrus.Logger) *Loader {
	return &Loader{cfg: cfg.withDefaults(), log: log}
}

// Load dials the classifier and fetches its label set. Each call opens its own
// connection so a session never shares a socket with another.
func (l *Loader) Load(ctx context.Context) (inference.Model, error) {
	m := &model{
		cfg:  l.cfg,
		log:  l.log,
		stop: make(chan struct{}),
	}

	if err := m.connect(ctx); err != nil {
		return nil, err
	}

	meta, err := m.fetchMetadata(ctx)
	if err != nil {
		m.Close()
		return nil, err
	}

	m.labels = meta.Labels
	m.totalClasses = meta.TotalClasses
	if m.totalClasses == 0 {
		m.totalClasses = len(meta.Labels)
	}

	return m, nil
}

type model struct {
	cfg Config
	log *logrus.Logger

	labels       []string
	totalClasses int

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	stop   chan struct{}
	once   sync.Once
}

func (m *model) TotalClasses() int {
	return m.totalClasses
}

func (m *model) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

func (m *model) connect(ctx context.Context) error {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = m.cfg.HandshakeTimeout

	conn, _, err := dialer.DialContext(ctx, m.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", m.cfg.URL, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(m.cfg.WriteTimeout))
		if err != nil {
			m.log.WithField("error", err.Error()).Debug("[wsmodel] failed to send pong")
		}
		return nil
	})

	m.conn = conn
	go m.keepAlive(conn)
	return nil
}

func (m *model) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(m.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
		}

		m.mu.Lock()
		if m.conn != conn {
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(m.cfg.WriteTimeout))
		if err != nil {
			m.log.WithFields(logrus.Fields{
				"url":   m.cfg.URL,
				"error": err.Error(),
			}).Warn("[wsmodel] ping failed, dropping connection")
			m.mu.Lock()
			m.dropLocked(conn)
			m.mu.Unlock()
			return
		}
	}
}

func (m *model) dropLocked(conn *websocket.Conn) {
	if m.conn == conn {
		m.conn = nil
	}
	conn.Close()
}

// roundTrip sends one message and waits for its reply. Cancelling ctx unblocks
// a pending read by moving the read deadline into the past.
func (m *model) roundTrip(ctx context.Context, messageType int, payload []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, inference.ErrModelClosed
	}

	if m.conn == nil {
		if err := m.connect(ctx); err != nil {
			return nil, err
		}
	}
	conn := m.conn

	writeDeadline := time.Now().Add(m.cfg.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(writeDeadline) {
		writeDeadline = d
	}

	conn.SetWriteDeadline(writeDeadline)
	if err := conn.WriteMessage(messageType, payload); err != nil {
		m.dropLocked(conn)
		return nil, fmt.Errorf("error sending message: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(m.cfg.ReadTimeout))
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	_, message, err := conn.ReadMessage()
	stop()

	if err != nil {
		m.dropLocked(conn)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("error reading message: %w", err)
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})
	return message, nil
}

func (m *model) fetchMetadata(ctx context.Context) (metadataResponse, error) {
	req, err := json.Marshal(metadataRequest{Op: "metadata"})
	if err != nil {
		return metadataResponse{}, err
	}

	raw, err := m.roundTrip(ctx, websocket.TextMessage, req)
	if err != nil {
		return metadataResponse{}, fmt.Errorf("failed to fetch model metadata: %w", err)
	}

	var meta metadataResponse
	if err := json.Unmarshal(raw, &meta); err != nil {
		return metadataResponse{}, fmt.Errorf("error unmarshaling metadata: %w", err)
	}
	if meta.Error != "" {
		return metadataResponse{}, errors.New(meta.Error)
	}
	if len(meta.Labels) == 0 {
		return metadataResponse{}, errors.New("model reported no labels")
	}
	return meta, nil
}

func (m *model) Classify(ctx context.Context, frame entity.Frame) (entity.ClassificationResult, error) {
	raw, err := m.roundTrip(ctx, websocket.BinaryMessage, frame.Data)
	if err != nil {
		return nil, err
	}

	var resp classifyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("error unmarshaling classification: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("classifier error: %s", resp.Error)
	}

	return entity.ClassificationResult(resp.Predictions), nil
}

func (m *model) Close() error {
	m.once.Do(func() { close(m.stop) })

	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.conn == nil {
		return nil
	}

	conn := m.conn
	m.conn = nil
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(m.cfg.WriteTimeout),
	)
	return conn.Close()
}
