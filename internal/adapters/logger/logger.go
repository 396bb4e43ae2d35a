// Package logger implements a logging adapter using zerolog.
package logger

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// LevelEnv names the environment variable holding the minimum log level.
const LevelEnv = "KILN_LOG_LEVEL"

var _ ports.Logger = (*Logger)(nil)

// Logger implements ports.Logger using a zerolog console writer.
type Logger struct {
	mu     sync.RWMutex
	logger zerolog.Logger
}

// New creates a Logger writing to stderr.
func New() *Logger {
	return NewWithWriter(os.Stderr)
}

// NewWithWriter creates a Logger writing to w.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{logger: newZerolog(w)}
}

func newZerolog(w io.Writer) zerolog.Logger {
	_, noColor := os.LookupEnv("NO_COLOR")
	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(cw).Level(levelFromEnv()).With().Timestamp().Logger()
}

func levelFromEnv() zerolog.Level {
	raw := os.Getenv(LevelEnv)
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// SetOutput updates the logger's output destination.
func (l *Logger) SetOutput(w io.Writer) {
	zl := newZerolog(w)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = zl
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info().Msg(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn().Msg(msg)
}

// Error logs err together with the metadata attached anywhere in its chain.
func (l *Logger) Error(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ev := l.logger.Error().Err(err)
	for k, v := range metadata(err) {
		ev = ev.Interface(k, v)
	}
	ev.Msg("operation failed")
}

// metadata collects zerr metadata along the unwrap chain. Outer values win.
func metadata(err error) map[string]any {
	fields := make(map[string]any)
	for err != nil {
		var zErr *zerr.Error
		if !errors.As(err, &zErr) {
			break
		}
		for k, v := range zErr.Metadata() {
			if _, ok := fields[k]; !ok {
				fields[k] = v
			}
		}
		err = zErr.Unwrap()
	}
	return fields
}
