package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/cic64/internal/cic"
	"github.com/danmuck/cic64/internal/config"
	"github.com/danmuck/cic64/internal/service"
)

type fileConfig struct {
	Region             string   `toml:"region"`
	Backend            string   `toml:"backend"`
	Pins               filePins `toml:"pins"`
	ResetActiveLow     bool     `toml:"reset_active_low"`
	AdminListenAddr    string   `toml:"admin_listen_addr"`
	AdminToken         string   `toml:"admin_token"`
	CorsOrigins        []string `toml:"cors_origins"`
	KeyboardExit       bool     `toml:"keyboard_exit"`
	MaxSessions        int      `toml:"max_sessions"`
	OpenMaxAttempts    int      `toml:"open_max_attempts"`
	OpenBackoffInitial string   `toml:"open_backoff_initial"`
	OpenBackoffMax     string   `toml:"open_backoff_max"`
	LogLevel           string   `toml:"log_level"`
}

type filePins struct {
	Clock string `toml:"clock"`
	Data  string `toml:"data"`
	Reset string `toml:"reset"`
}

// cicctlConfig is the service configuration plus the process-level keys.
type cicctlConfig struct {
	service.ServiceConfig
	LogLevel string
}

func defaultCicctlConfig() cicctlConfig {
	return cicctlConfig{ServiceConfig: service.DefaultServiceConfig()}
}

// loadServiceConfig overlays the keys present in path onto the defaults and
// validates the merged result with the same rules configgen applies.
func loadServiceConfig(path string) (cicctlConfig, error) {
	cfg := defaultCicctlConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cicctlConfig{}, fmt.Errorf("load cicctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cicctlConfig{}, fmt.Errorf("load cicctl config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("region") {
		r, err := cic.ParseRegion(raw.Region)
		if err != nil {
			return cicctlConfig{}, fmt.Errorf("%w: %q", config.ErrInvalidRegion, raw.Region)
		}
		cfg.Region = r
	}

	if meta.IsDefined("backend") {
		cfg.Backend = strings.ToLower(strings.TrimSpace(raw.Backend))
	}

	if meta.IsDefined("pins", "clock") {
		cfg.Pins.Clock = strings.TrimSpace(raw.Pins.Clock)
	}
	if meta.IsDefined("pins", "data") {
		cfg.Pins.Data = strings.TrimSpace(raw.Pins.Data)
	}
	if meta.IsDefined("pins", "reset") {
		cfg.Pins.Reset = strings.TrimSpace(raw.Pins.Reset)
	}

	if meta.IsDefined("reset_active_low") {
		cfg.ResetActiveLow = raw.ResetActiveLow
	}

	if meta.IsDefined("admin_listen_addr") {
		cfg.AdminListenAddr = strings.TrimSpace(raw.AdminListenAddr)
	}

	if meta.IsDefined("admin_token") {
		cfg.AdminToken = strings.TrimSpace(raw.AdminToken)
	}

	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}

	if meta.IsDefined("keyboard_exit") {
		cfg.KeyboardExit = raw.KeyboardExit
	}

	if meta.IsDefined("max_sessions") {
		cfg.MaxSessions = raw.MaxSessions
	}

	if meta.IsDefined("open_max_attempts") {
		cfg.OpenMaxAttempts = raw.OpenMaxAttempts
	}

	if meta.IsDefined("open_backoff_initial") {
		d, err := config.ParseDuration(raw.OpenBackoffInitial)
		if err != nil {
			return cicctlConfig{}, fmt.Errorf("parse open_backoff_initial: %w", err)
		}
		cfg.OpenBackoff.InitialDelay = d
	}

	if meta.IsDefined("open_backoff_max") {
		d, err := config.ParseDuration(raw.OpenBackoffMax)
		if err != nil {
			return cicctlConfig{}, fmt.Errorf("parse open_backoff_max: %w", err)
		}
		cfg.OpenBackoff.MaxDelay = d
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if err := config.ValidateCicConfig(cfg.fileView()); err != nil {
		return cicctlConfig{}, fmt.Errorf("load cicctl config: %w", err)
	}
	return cfg, nil
}

// fileView maps the merged config back onto the file schema for validation.
// Durations are already parsed, so they are left empty.
func (c cicctlConfig) fileView() config.CicConfig {
	return config.CicConfig{
		Region:  c.Region.String(),
		Backend: c.Backend,
		Pins: config.PinConfig{
			Clock: c.Pins.Clock,
			Data:  c.Pins.Data,
			Reset: c.Pins.Reset,
		},
		ResetActiveLow:  c.ResetActiveLow,
		AdminListenAddr: c.AdminListenAddr,
		AdminToken:      c.AdminToken,
		CorsOrigins:     c.CorsOrigins,
		KeyboardExit:    c.KeyboardExit,
		MaxSessions:     c.MaxSessions,
		OpenMaxAttempts: c.OpenMaxAttempts,
		LogLevel:        c.LogLevel,
	}
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
