// ABOUTME: Structured logger construction
// ABOUTME: Console output for the CLI, JSON when writing to a non-terminal sink

package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w. Debug level is enabled when verbose is set.
// When pretty is set, output is human-readable console text; otherwise JSON lines.
func New(w io.Writer, verbose, pretty bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Default returns the CLI logger on stderr.
func Default(verbose bool) zerolog.Logger {
	return New(os.Stderr, verbose, true)
}
