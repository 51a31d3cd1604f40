// Package log configures the process-wide slog logger. Records go to a
// size-rotated JSON file so stdout stays free for command output and the
// MCP stdio transport.
package log

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
)

// Setup installs a JSON slog handler writing to logFile as the default
// logger. Only the first call has any effect.
func Setup(logFile string, level string) {
	initOnce.Do(func() {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     30,
		}

		handler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{
			Level:     ParseLevel(level),
			AddSource: ParseLevel(level) == slog.LevelDebug,
		})
		slog.SetDefault(slog.New(handler))
		initialized.Store(true)
	})
}

// Initialized reports whether Setup has run.
func Initialized() bool {
	return initialized.Load()
}

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RecoverPanic logs a recovered panic with its stack and runs cleanup.
// Call it deferred.
func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		slog.Error("panic recovered",
			"name", name,
			"panic", fmt.Sprint(r),
			"stack", string(debug.Stack()),
		)
		if cleanup != nil {
			cleanup()
		}
	}
}
