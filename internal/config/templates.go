package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "gpio", "":
		return gpioTemplate, nil
	case "sim":
		return simTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const gpioTemplate = `region = "ntsc"
backend = "gpio"
reset_active_low = true
keyboard_exit = true
open_max_attempts = 5
open_backoff_initial = "250ms"
open_backoff_max = "5s"
log_level = "info"

admin_listen_addr = "127.0.0.1:7064"
admin_token = "change-me"
cors_origins = ["http://localhost:3000"]

[pins]
clock = "GPIO17"
data = "GPIO27"
reset = "GPIO22"
`

const simTemplate = `region = "pal"
backend = "sim"
max_sessions = 2
keyboard_exit = false
log_level = "debug"
admin_listen_addr = ""
`
