package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/cic64/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestTemplatesLoad(t *testing.T) {
	testlog.Start(t)
	for _, kind := range []string{"gpio", "sim"} {
		path := filepath.Join(t.TempDir(), kind+".toml")
		if err := WriteTemplate(path, kind, false); err != nil {
			t.Fatalf("write %s template: %v", kind, err)
		}
		cfg, err := LoadCicConfig(path)
		if err != nil {
			t.Fatalf("load %s template: %v", kind, err)
		}
		if cfg.Backend != kind {
			t.Fatalf("unexpected backend %q", cfg.Backend)
		}
		if err := WriteTemplate(path, kind, false); err == nil {
			t.Fatalf("expected refusal to overwrite %s", path)
		}
		if err := WriteTemplate(path, kind, true); err != nil {
			t.Fatalf("forced overwrite: %v", err)
		}
	}
	if _, err := Template("serial"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestLoadDefaultsAndFields(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
[pins]
clock = "GPIO2"
data = "GPIO3"
reset = "GPIO4"
`)
	cfg, err := LoadCicConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Region != "ntsc" || cfg.Backend != "gpio" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Pins.Data != "GPIO3" {
		t.Fatalf("unexpected pins: %+v", cfg.Pins)
	}
}

func TestValidateErrors(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name string
		body string
		want error
	}{
		{name: "region", body: `region = "secam"` + "\nbackend = \"sim\"", want: ErrInvalidRegion},
		{name: "backend", body: `backend = "serial"`, want: ErrInvalidBackend},
		{name: "gpio pins", body: `backend = "gpio"`, want: ErrMissingPin},
		{name: "duration", body: "backend = \"sim\"\nopen_backoff_max = \"soon\"", want: ErrInvalidDuration},
		{name: "sessions", body: "backend = \"sim\"\nmax_sessions = -1", want: ErrNegativeCount},
		{name: "attempts", body: "backend = \"sim\"\nopen_max_attempts = -1", want: ErrNegativeCount},
		{name: "empty pin", body: "backend = \"gpio\"\n[pins]\nclock = \"\"\ndata = \"GPIO3\"\nreset = \"GPIO4\"", want: ErrMissingPin},
		{name: "log level", body: "backend = \"sim\"\nlog_level = \"loud\"", want: ErrInvalidLogLevel},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadCicConfig(writeConfig(t, tc.body))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	testlog.Start(t)
	if _, err := LoadCicConfig(filepath.Join(t.TempDir(), "absent.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}

func TestParseDuration(t *testing.T) {
	if d, err := ParseDuration(""); err != nil || d != 0 {
		t.Fatalf("empty duration: %v %v", d, err)
	}
	if d, err := ParseDuration(" 1.5s "); err != nil || d != 1500*time.Millisecond {
		t.Fatalf("unexpected duration: %v %v", d, err)
	}
	if _, err := ParseDuration("-1s"); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("negative durations must be rejected")
	}
}
