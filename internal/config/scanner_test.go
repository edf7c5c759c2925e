package config

import (
	"ScanCheckout/internal/scanner"
	"testing"
	"time"

	"go.viam.com/test"
)

var scannerKeys = []string{
	"SCAN_TICK_INTERVAL", "SCAN_INFERENCE_TIMEOUT", "SCAN_BACKOFF_MAX", "SCAN_MAX_FAILURES",
	"SCAN_COOLDOWN", "SCAN_ACCEPT_POLICY", "SESSION_IDLE_TIMEOUT", "SCAN_FRAME_WIDTH",
	"SCAN_FRAME_HEIGHT", "CAMERA_SNAPSHOT_URL", "CAMERA_SNAPSHOT_INTERVAL",
}

func clearScannerEnv(t *testing.T) {
	t.Helper()
	for _, key := range scannerKeys {
		t.Setenv(key, "")
	}
}

func TestLoadScannerSettingsDefaults(t *testing.T) {
	clearScannerEnv(t)

	s, err := LoadScannerSettings()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Manager.Loop.TickInterval, test.ShouldEqual, 16*time.Millisecond)
	test.That(t, s.Manager.Loop.InferenceTimeout, test.ShouldEqual, 5*time.Second)
	test.That(t, s.Manager.Loop.BackoffMax, test.ShouldEqual, 10*time.Second)
	test.That(t, s.Manager.Loop.MaxFailures, test.ShouldEqual, 5)
	test.That(t, s.Manager.Cooldown, test.ShouldEqual, 3*time.Second)
	test.That(t, s.Manager.Policy, test.ShouldEqual, scanner.PolicyAll)
	test.That(t, s.Manager.IdleTimeout, test.ShouldEqual, 10*time.Minute)
	test.That(t, s.FrameWidth, test.ShouldEqual, uint(200))
	test.That(t, s.FrameHeight, test.ShouldEqual, uint(200))
	test.That(t, s.SnapshotURL, test.ShouldBeEmpty)
}

func TestLoadScannerSettingsOverrides(t *testing.T) {
	clearScannerEnv(t)
	t.Setenv("SCAN_TICK_INTERVAL", "33ms")
	t.Setenv("SCAN_COOLDOWN", "0")
	t.Setenv("SCAN_ACCEPT_POLICY", "best")
	t.Setenv("SCAN_MAX_FAILURES", "2")
	t.Setenv("SCAN_FRAME_WIDTH", "224")
	t.Setenv("CAMERA_SNAPSHOT_URL", "http://camera.local/snapshot.jpg")

	s, err := LoadScannerSettings()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Manager.Loop.TickInterval, test.ShouldEqual, 33*time.Millisecond)
	test.That(t, s.Manager.Cooldown, test.ShouldEqual, time.Duration(0))
	test.That(t, s.Manager.Policy, test.ShouldEqual, scanner.PolicyBest)
	test.That(t, s.Manager.Loop.MaxFailures, test.ShouldEqual, 2)
	test.That(t, s.FrameWidth, test.ShouldEqual, uint(224))
	test.That(t, s.FrameHeight, test.ShouldEqual, uint(200))
	test.That(t, s.SnapshotURL, test.ShouldEqual, "http://camera.local/snapshot.jpg")
}

func TestLoadScannerSettingsRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"SCAN_COOLDOWN":      "soon",
		"SCAN_TICK_INTERVAL": "-5ms",
		"SCAN_MAX_FAILURES":  "many",
		"SCAN_ACCEPT_POLICY": "first",
		"SCAN_FRAME_HEIGHT":  "-1",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearScannerEnv(t)
			t.Setenv(key, value)

			_, err := LoadScannerSettings()
			test.That(t, err, test.ShouldNotBeNil)
		})
	}
}

func TestValidatorUsesJSONNames(t *testing.T) {
	type request struct {
		TerminalID string `json:"terminal_id" validate:"required"`
	}

	err := NewValidator().Struct(request{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "terminal_id")
}
