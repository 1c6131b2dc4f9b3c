// Package logger provides the configured zerolog logger for the CLI.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a logger writing JSON to stderr at the given level so command
// output on stdout stays machine-readable. Unknown levels fall back to info.
func New(service, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().
		Str("service", service).
		Timestamp().
		Logger()
}
