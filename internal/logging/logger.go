// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

// Package logging provides centralized zerolog-based logging for StageTrace.
//
// Initialize once at startup:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
// Then log through the package-level helpers:
//
//	logging.Info().Str("camera", id).Msg("query complete")
//	logging.Error().Err(err).Msg("warehouse query failed")
//
// Always terminate log chains with .Msg() or .Send(), otherwise the event
// is never emitted.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string

	// Format is the output format: json or console.
	Format string

	// Caller includes caller file and line number in logs.
	Caller bool

	// Output is the writer for log output. Defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Caller: false,
		Output: os.Stderr,
	}
}

var (
	log     zerolog.Logger
	initMu  sync.Mutex
	inited  bool
	initErr error
)

func init() {
	// A usable logger exists even before Init is called, so early startup
	// failures are still visible.
	log = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Init configures the global logger. Safe to call more than once; the last
// call wins.
func Init(cfg Config) error {
	initMu.Lock()
	defer initMu.Unlock()

	level, err := parseLevel(cfg.Level)
	if err != nil {
		initErr = err
		return err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}

	log = ctx.Logger()
	inited = true
	initErr = nil
	return nil
}

func parseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// Logger returns the configured global logger.
func Logger() zerolog.Logger {
	return log
}

// Trace starts a trace-level log event.
func Trace() *zerolog.Event { return log.Trace() }

// Debug starts a debug-level log event.
func Debug() *zerolog.Event { return log.Debug() }

// Info starts an info-level log event.
func Info() *zerolog.Event { return log.Info() }

// Warn starts a warn-level log event.
func Warn() *zerolog.Event { return log.Warn() }

// Error starts an error-level log event.
func Error() *zerolog.Event { return log.Error() }

// Fatal starts a fatal-level log event. The process exits after Msg.
func Fatal() *zerolog.Event { return log.Fatal() }

// With returns a child logger context for attaching fields once.
func With() zerolog.Context { return log.With() }
