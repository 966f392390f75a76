package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger derives the process logger from the configured global logger,
// tagging every line with the app, region and variant.
func InitLogger(app, region, variant string) zerolog.Logger {
	logger := log.Logger.With().
		Str("app", app).
		Str("region", region).
		Str("variant", variant).
		Logger()
	log.Logger = logger
	return logger
}
