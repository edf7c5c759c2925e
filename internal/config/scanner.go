package config

import (
	"ScanCheckout/internal/scanner"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultCooldown    = 3 * time.Second
	defaultIdleTimeout = 10 * time.Minute
	defaultFrameSide   = 200
)

type ScannerSettings struct {
	Manager scanner.ManagerConfig

	// Frames are scaled down to fit FrameWidth x FrameHeight before inference.
	FrameWidth  uint
	FrameHeight uint

	SnapshotURL      string
	SnapshotInterval time.Duration
}

// LoadScannerSettings reads the SCAN_* family of variables. Unset variables
// fall back to defaults; malformed ones are an error.
func LoadScannerSettings() (ScannerSettings, error) {
	var (
		s   ScannerSettings
		err error
	)

	if s.Manager.Loop.TickInterval, err = envDuration("SCAN_TICK_INTERVAL", 16*time.Millisecond); err != nil {
		return s, err
	}
	if s.Manager.Loop.InferenceTimeout, err = envDuration("SCAN_INFERENCE_TIMEOUT", 5*time.Second); err != nil {
		return s, err
	}
	if s.Manager.Loop.BackoffMax, err = envDuration("SCAN_BACKOFF_MAX", 10*time.Second); err != nil {
		return s, err
	}
	if s.Manager.Loop.MaxFailures, err = envInt("SCAN_MAX_FAILURES", 5); err != nil {
		return s, err
	}
	if s.Manager.Cooldown, err = envDuration("SCAN_COOLDOWN", defaultCooldown); err != nil {
		return s, err
	}
	if s.Manager.Policy, err = scanner.ParseAcceptPolicy(os.Getenv("SCAN_ACCEPT_POLICY")); err != nil {
		return s, err
	}
	if s.Manager.IdleTimeout, err = envDuration("SESSION_IDLE_TIMEOUT", defaultIdleTimeout); err != nil {
		return s, err
	}

	width, err := envInt("SCAN_FRAME_WIDTH", defaultFrameSide)
	if err != nil {
		return s, err
	}
	height, err := envInt("SCAN_FRAME_HEIGHT", defaultFrameSide)
	if err != nil {
		return s, err
	}
	s.FrameWidth, s.FrameHeight = uint(width), uint(height)

	s.SnapshotURL = os.Getenv("CAMERA_SNAPSHOT_URL")
	if s.SnapshotInterval, err = envDuration("CAMERA_SNAPSHOT_INTERVAL", 200*time.Millisecond); err != nil {
		return s, err
	}

	return s, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	// A bare zero is accepted so SCAN_COOLDOWN=0 disables the cooldown.
	if raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a non-negative duration", key, raw)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a non-negative integer", key, raw)
	}
	return n, nil
}
