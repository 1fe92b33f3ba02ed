// Package colog is the structured logging wrapper shared by every
// subsystem in this module, mirroring the teacher's std/log package: a
// small Level enum plus a thin wrapper over the standard library's
// log/slog.
package colog

import "fmt"

type Level int

const (
	LevelTrace Level = -8
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
	LevelFatal Level = 12
)

// ParseLevel parses a symbolic log level name. It accepts both this
// module's own names and the repository's CCNR_DEBUG symbolic names
// (§6), mapped onto the nearest equivalent.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "TRACE", "FINEST", "FINER":
		return LevelTrace, nil
	case "DEBUG", "FINE":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL", "SEVERE":
		return LevelFatal, nil
	case "NONE":
		return LevelFatal + 1, nil
	}
	return LevelInfo, fmt.Errorf("invalid log level: %s", s)
}

func (level Level) String() string {
	switch level {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}
