// Package logger provides structured logging with a per-service prefix,
// backed by zerolog. It also supports logging function execution time.
package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	root   zerolog.Logger
	inited bool
)

func get() zerolog.Logger {
	mu.RLock()
	if inited {
		l := root
		mu.RUnlock()
		return l
	}
	mu.RUnlock()
	mu.Lock()
	defer mu.Unlock()
	if !inited {
		root = newRoot("")
		inited = true
	}
	return root
}

func newRoot(prefix string) zerolog.Logger {
	level := zerolog.InfoLevel
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "trace":
		level = zerolog.DebugLevel
	}
	l := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if prefix != "" {
		l = l.With().Str("service", prefix).Logger()
	}
	return l
}

// SetPrefix sets the service prefix for all subsequent log lines (e.g. "api").
func SetPrefix(p string) {
	mu.Lock()
	defer mu.Unlock()
	root = newRoot(p)
	inited = true
}

// Info logs at info level.
func Info(v ...any) {
	l := get()
	l.Info().Msg(fmt.Sprint(v...))
}

// Infof formats and logs at info level.
func Infof(format string, v ...any) {
	l := get()
	l.Info().Msgf(format, v...)
}

// Error logs at error level.
func Error(v ...any) {
	l := get()
	l.Error().Msg(fmt.Sprint(v...))
}

// Errorf formats and logs at error level.
func Errorf(format string, v ...any) {
	l := get()
	l.Error().Msgf(format, v...)
}

// Debugf formats and logs at debug level (dropped unless LOG_LEVEL=debug).
func Debugf(format string, v ...any) {
	l := get()
	l.Debug().Msgf(format, v...)
}

// LogDuration logs a function name and its execution time in milliseconds.
// At info level only calls slower than 100ms are logged; at debug level all of them.
func LogDuration(fn string, start time.Time) {
	elapsed := time.Since(start)
	l := get()
	if elapsed >= 100*time.Millisecond {
		l.Info().Str("fn", fn).Int64("duration_ms", elapsed.Milliseconds()).Send()
		return
	}
	l.Debug().Str("fn", fn).Int64("duration_ms", elapsed.Milliseconds()).Send()
}

// DeferLogDuration returns a function for use in defer:
// defer logger.DeferLogDuration("HandlerName", time.Now())().
func DeferLogDuration(fn string, start time.Time) func() {
	return func() { LogDuration(fn, start) }
}
