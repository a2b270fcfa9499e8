// Package logging builds the process zerolog.Logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"wearrelay/internal/common/fsutil"
)

// Options controls logger construction. Zero values pick sane defaults.
type Options struct {
	Level  string
	Format string // console|json
	// File, when set, receives JSON lines rotated by lumberjack.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Stderr overrides the terminal writer (tests).
	Stderr io.Writer
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New returns a logger and a close func releasing the rotated file, if any.
// A log file that cannot be prepared is skipped with a warning on stderr.
func New(opts Options) (zerolog.Logger, func() error) {
	out := opts.Stderr
	if out == nil {
		out = os.Stderr
	}
	if !strings.EqualFold(opts.Format, "json") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	closer := func() error { return nil }
	var fileErr error
	if opts.File != "" {
		var path string
		if path, fileErr = fsutil.PrepareFile(opts.File); fileErr == nil {
			lj := &lumberjack.Logger{
				Filename:   path,
				MaxSize:    orDefault(opts.MaxSizeMB, 50),
				MaxBackups: orDefault(opts.MaxBackups, 3),
				MaxAge:     orDefault(opts.MaxAgeDays, 14),
				Compress:   true,
			}
			out = zerolog.MultiLevelWriter(out, lj)
			closer = lj.Close
		}
	}

	l := zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
	if fileErr != nil {
		l.Warn().Err(fileErr).Str("file", opts.File).Msg("log file disabled")
	}
	return l, closer
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
