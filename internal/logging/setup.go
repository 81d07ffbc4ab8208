package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"firewatch-worker-go/internal/config"
)

// Setup configures the global logger from cfg. It returns the Logdy UI URL
// when the embedded viewer was started.
func Setup(cfg *config.Config) string {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stderr
	if cfg.LogFormat != "json" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	var logdyURL string
	if cfg.LogdyEnabled {
		w, url, err := StartLogdy(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Logdy UI could not be started")
		} else {
			// Logdy receives raw JSON lines so its filters can work on fields
			out = zerolog.MultiLevelWriter(out, w)
			logdyURL = url
		}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	return logdyURL
}
