package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// LogOptions controls the CLI logger.
type LogOptions struct {
	// Level is the configured level name (log.level).
	Level string
	// Verbosity lowers the level by one step per -v.
	Verbosity int
	// Quiet limits output to errors, regardless of Level and Verbosity.
	Quiet bool
	// Console selects human-readable output instead of JSON lines.
	Console bool
}

// ParseLevel maps a log level name to its zerolog level.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(name) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "", "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// NewLogger builds the logger commands trace to, writing to w.
func NewLogger(w io.Writer, opts LogOptions) (zerolog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	if level != zerolog.Disabled {
		level -= zerolog.Level(opts.Verbosity)
		if level < zerolog.TraceLevel {
			level = zerolog.TraceLevel
		}
	}
	if opts.Quiet {
		level = zerolog.ErrorLevel
	}

	if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
