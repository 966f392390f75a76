package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/cic64/internal/cic"
	"github.com/danmuck/cic64/internal/logging"
	"github.com/pelletier/go-toml/v2"
)

var (
	ErrInvalidRegion   = errors.New("config: invalid region")
	ErrInvalidBackend  = errors.New("config: invalid backend")
	ErrInvalidDuration = errors.New("config: invalid duration")
	ErrMissingPin      = errors.New("config: missing pin")
	ErrNegativeCount   = errors.New("config: negative count")
	ErrInvalidLogLevel = errors.New("config: invalid log level")
)

// CicConfig mirrors the cicctl TOML file.
type CicConfig struct {
	Region             string    `toml:"region"`
	Backend            string    `toml:"backend"`
	Pins               PinConfig `toml:"pins"`
	ResetActiveLow     bool      `toml:"reset_active_low"`
	AdminListenAddr    string    `toml:"admin_listen_addr"`
	AdminToken         string    `toml:"admin_token"`
	CorsOrigins        []string  `toml:"cors_origins"`
	KeyboardExit       bool      `toml:"keyboard_exit"`
	MaxSessions        int       `toml:"max_sessions"`
	OpenMaxAttempts    int       `toml:"open_max_attempts"`
	OpenBackoffInitial string    `toml:"open_backoff_initial"`
	OpenBackoffMax     string    `toml:"open_backoff_max"`
	LogLevel           string    `toml:"log_level"`
}

type PinConfig struct {
	Clock string `toml:"clock"`
	Data  string `toml:"data"`
	Reset string `toml:"reset"`
}

func LoadCicConfig(path string) (CicConfig, error) {
	var cfg CicConfig
	if err := loadToml(path, &cfg); err != nil {
		return CicConfig{}, err
	}
	if cfg.Region == "" {
		cfg.Region = "ntsc"
	}
	if cfg.Backend == "" {
		cfg.Backend = "gpio"
	}
	if err := ValidateCicConfig(cfg); err != nil {
		return CicConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateCicConfig(cfg CicConfig) error {
	if _, err := cic.ParseRegion(cfg.Region); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRegion, cfg.Region)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "sim":
	case "gpio":
		if err := validatePins(cfg.Pins); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, cfg.Backend)
	}
	for key, raw := range map[string]string{
		"open_backoff_initial": cfg.OpenBackoffInitial,
		"open_backoff_max":     cfg.OpenBackoffMax,
	} {
		if _, err := ParseDuration(raw); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if cfg.MaxSessions < 0 {
		return fmt.Errorf("%w: max_sessions = %d", ErrNegativeCount, cfg.MaxSessions)
	}
	if cfg.OpenMaxAttempts < 0 {
		return fmt.Errorf("%w: open_max_attempts = %d", ErrNegativeCount, cfg.OpenMaxAttempts)
	}
	if strings.TrimSpace(cfg.LogLevel) != "" {
		if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
		}
	}
	return nil
}

func validatePins(p PinConfig) error {
	for role, name := range map[string]string{"clock": p.Clock, "data": p.Data, "reset": p.Reset} {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: pins.%s", ErrMissingPin, role)
		}
	}
	return nil
}

// ParseDuration accepts "" (zero) or a time.ParseDuration string.
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
	}
	return d, nil
}
