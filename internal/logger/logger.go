package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// serviceName tags every line so aggregated output from multiple
// deployments stays attributable.
const serviceName = "ranklift-backend"

// Setup builds the root logger. Components derive their own loggers
// from it with With().Str("component", ...).
//   - level: trace, debug, info, warn, error, fatal, panic
//   - format: "json" for production, "pretty" for local development
func Setup(level, format string) zerolog.Logger {
	var writer io.Writer
	if format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	} else {
		writer = os.Stdout
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(writer).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Logger()
}
