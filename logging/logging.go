// Package logging configures structured logging for gflow via zerolog.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// CreateLogger produces a zerolog console Logger writing to the given
// stream at the given level
func CreateLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}

// CreateDefaultLogger produces the Logger used when an Executor is not
// handed one: a console writer on stderr at the Info level
func CreateDefaultLogger() zerolog.Logger {
	return CreateLogger(os.Stderr, zerolog.InfoLevel)
}

// Nop produces a Logger which discards everything, useful in tests
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
