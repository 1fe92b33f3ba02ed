package colog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]
var currentLevel atomic.Int64

func init() {
	SetOutput(os.Stderr, LevelInfo)
}

// SetOutput reconfigures the global logger, matching the way the teacher's
// daemons reconfigure logging once their config file/env has been parsed
// at startup.
func SetOutput(w *os.File, level Level) {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.Level(level),
	})
	current.Store(slog.New(h))
	currentLevel.Store(int64(level))
}

// Enabled reports whether a message at the given level would currently be
// emitted; callers on a hot path (e.g. per-packet Trace logging) check this
// before formatting arguments they would otherwise discard.
func Enabled(level Level) bool {
	return int64(level) >= currentLevel.Load()
}

func logAt(level Level, subsystem fmt.Stringer, msg string, kv []any) {
	if !Enabled(level) {
		return
	}
	l := current.Load()
	args := make([]any, 0, len(kv)+2)
	args = append(args, "subsystem", subsystem.String())
	args = append(args, kv...)
	l.Log(context.Background(), slog.Level(level), msg, args...)
}

func Trace(subsystem fmt.Stringer, msg string, kv ...any) { logAt(LevelTrace, subsystem, msg, kv) }
func Debug(subsystem fmt.Stringer, msg string, kv ...any) { logAt(LevelDebug, subsystem, msg, kv) }
func Info(subsystem fmt.Stringer, msg string, kv ...any)  { logAt(LevelInfo, subsystem, msg, kv) }
func Warn(subsystem fmt.Stringer, msg string, kv ...any)  { logAt(LevelWarn, subsystem, msg, kv) }
func Error(subsystem fmt.Stringer, msg string, kv ...any) { logAt(LevelError, subsystem, msg, kv) }
func Fatal(subsystem fmt.Stringer, msg string, kv ...any) { logAt(LevelFatal, subsystem, msg, kv) }
