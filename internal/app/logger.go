package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/w8kerr/rtmbot/internal/infrastructure/config"
)

// AtomicLogger holds the process logger behind an atomic pointer so hot
// config reloads can swap handler or level without racing readers.
type AtomicLogger struct {
	logger atomic.Pointer[slog.Logger]
	level  *slog.LevelVar
	output io.Writer
}

// NewAtomicLogger builds the logger from the logging configuration.
func NewAtomicLogger(cfg config.LoggingConfig) (*AtomicLogger, error) {
	al := &AtomicLogger{level: new(slog.LevelVar)}

	output, err := openLogOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	al.output = output

	if err := al.Apply(cfg); err != nil {
		return nil, err
	}
	return al, nil
}

// Get returns the current logger.
func (al *AtomicLogger) Get() *slog.Logger {
	return al.logger.Load()
}

// Apply swaps in a logger matching the given logging configuration. Only
// level and format are applied at runtime; the output destination is fixed
// at startup.
func (al *AtomicLogger) Apply(cfg config.LoggingConfig) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}
	al.level.Set(level)

	opts := &slog.HandlerOptions{Level: al.level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(al.output, opts)
	case "json", "":
		handler = slog.NewJSONHandler(al.output, opts)
	default:
		return fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	al.logger.Store(slog.New(handler))
	return nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}

func openLogOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log output %s: %w", output, err)
		}
		return f, nil
	}
}

// slogAdapter bridges *slog.Logger to the domain logger interface handed
// to use cases.
type slogAdapter struct {
	al *AtomicLogger
}

func (a *slogAdapter) Info(msg string, fields ...any)  { a.al.Get().Info(msg, fields...) }
func (a *slogAdapter) Warn(msg string, fields ...any)  { a.al.Get().Warn(msg, fields...) }
func (a *slogAdapter) Error(msg string, fields ...any) { a.al.Get().Error(msg, fields...) }
func (a *slogAdapter) Debug(msg string, fields ...any) { a.al.Get().Debug(msg, fields...) }
