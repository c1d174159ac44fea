// Package logging configures the process-wide zerolog logger:
// console-friendly formatting with structured fields.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger at the given level name
// (trace/debug/info/warn/error; unrecognized values fall back to info).
// jsonOutput switches from console formatting to newline-delimited JSON.
func New(levelName string, jsonOutput bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if jsonOutput {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
