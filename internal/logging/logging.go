// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	debugEnv    = os.Getenv("SPRINTSYNC_DEBUG") != ""
	verboseMode = false
)

// Enabled reports whether debug output is on (SPRINTSYNC_DEBUG or --verbose).
func Enabled() bool {
	return debugEnv || verboseMode
}

// SetVerbose enables debug-level logging.
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// Options control handler format and destination.
type Options struct {
	// Format is "text" (default) or "json".
	Format string `mapstructure:"format"`
	// File, when set, receives the log instead of stderr and is rotated.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// New returns a logger writing to stderr or to a rotated file, and a closer
// for the file (a no-op for stderr).
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		out, closer = lj, lj
	}
	h, err := NewHandler(out, opts.Format, Level())
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return slog.New(h), closer, nil
}

// Level is Debug when debug output is enabled, Info otherwise.
func Level() slog.Level {
	if Enabled() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// NewHandler builds a text or JSON handler at the given level.
func NewHandler(w io.Writer, format string, level slog.Leveler) (slog.Handler, error) {
	hopts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.NewTextHandler(w, hopts), nil
	case "json":
		return slog.NewJSONHandler(w, hopts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
