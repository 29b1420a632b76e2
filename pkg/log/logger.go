// Package log builds the process logger from the application config and hands
// out component-scoped child loggers.
//
// Until Install runs, Base falls back to an info-level JSON logger whose level
// can be raised with $LOG_LEVEL, so code running before the config is loaded
// still logs somewhere sensible.
package log

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/config"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// LevelEnv is read when neither the options nor the config name a level.
const LevelEnv = "LOG_LEVEL"

// Options describes the logger built by New.
type Options struct {
	Level   string    // zerolog level name, default info
	Format  string    // "json" (default) or "console"
	Service string    // attached to every entry, default chdata
	Output  io.Writer // default os.Stderr
}

// Module installs the logger described by the `clickhouse-data` block of the
// application config. It must come before modules whose invokes log.
var Module = fx.Module("log", fx.Invoke(Install))

var current atomic.Pointer[zerolog.Logger]

// New builds a logger. Unknown levels and formats are errors.
func New(opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
		if err != nil {
			return zerolog.Nop(), errors.Wrapf(err, "invalid log level %q", opts.Level)
		}
		level = l
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(opts.Format) {
	case "", "json":
	case "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), errors.Errorf("unknown log format %q", opts.Format)
	}

	service := opts.Service
	if service == "" {
		service = "chdata"
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger(), nil
}

// Install replaces the process logger with one built from cfg. $LOG_LEVEL is
// used when the config leaves the level empty.
func Install(cfg *config.Config) error {
	opts := Options{
		Level:  cfg.ClickHouseData.LogLevel,
		Format: cfg.ClickHouseData.LogFormat,
	}

	if opts.Level == "" {
		opts.Level = os.Getenv(LevelEnv)
	}

	l, err := New(opts)
	if err != nil {
		return errors.Wrap(err, "failed to configure logging")
	}

	SetBase(l)
	return nil
}

// SetBase replaces the process logger and returns the previous one.
func SetBase(l zerolog.Logger) zerolog.Logger {
	prev := Base()
	current.Store(&l)
	return prev
}

// Base returns the process logger.
func Base() zerolog.Logger {
	if l := current.Load(); l != nil {
		return *l
	}

	l, err := New(Options{Level: os.Getenv(LevelEnv)})
	if err != nil {
		l, _ = New(Options{})
	}

	current.CompareAndSwap(nil, &l)
	return *current.Load()
}

// WithComponent returns a child of the process logger tagged with component.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}
