// Package logger is the compiler's structured log. It stays silent until
// Init installs a handler.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

var std = slog.New(slog.NewTextHandler(io.Discard, nil))

type Config struct {
	Level  slog.Level
	Format string // text or json
	Output io.Writer
}

// DefaultConfig reports warnings and errors as text on stderr.
func DefaultConfig() Config {
	return Config{Level: slog.LevelWarn, Format: "text", Output: os.Stderr}
}

// Init replaces the global logger. An unknown format leaves the current
// one in place.
func Init(cfg Config) error {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	switch cfg.Format {
	case "", "text":
		std = slog.New(slog.NewTextHandler(out, opts))
	case "json":
		std = slog.New(slog.NewJSONHandler(out, opts))
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return nil
}

func Debug(msg string, args ...any) { std.Debug(msg, args...) }
func Error(msg string, args ...any) { std.Error(msg, args...) }

// LogPhase records the start of a compiler phase and returns the time it
// started.
func LogPhase(phase string, args ...any) time.Time {
	std.Info("starting phase", append([]any{"phase", phase}, args...)...)
	return time.Now()
}

func LogPhaseComplete(phase string, start time.Time, args ...any) {
	std.Info("completed phase", append([]any{"phase", phase, "elapsed", time.Since(start)}, args...)...)
}

// LogDiagnostic echoes a user-facing error at debug level. The driver
// prints the message itself.
func LogDiagnostic(phase, msg string) {
	std.Debug("diagnostic", "phase", phase, "message", msg)
}
