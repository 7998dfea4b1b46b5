package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the process logger. Development gets human readable output at
// debug level; everything else is JSON at info.
func New(env string) zerolog.Logger {
	base := zerolog.New(os.Stderr).With().
		Timestamp().
		Str("service", "complaint-service").
		Logger()
	if env == "development" {
		return base.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel)
	}
	return base.Level(zerolog.InfoLevel)
}
