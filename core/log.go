// Package core holds the daemon's ambient concerns: configuration and
// logging, shared by every other package.
package core

import (
	"fmt"
	"log/slog"
	"os"
)

// Level mirrors std/log/level.go's six-level scheme (TRACE..FATAL)
// layered over the standard library's slog.
type Level int

const (
	LevelTrace Level = -8
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
	LevelFatal Level = 12
)

// ParseLevel parses a level name, defaulting to INFO on error.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
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

// Logger wraps slog.Logger with the level scheme above and the
// "module, message, key, value..." call shape used throughout
// fw/face/*.go (core.Log.Warn(t, "...", "err", err)).
type Logger struct {
	inner *slog.Logger
	level Level
}

// Log is the process-wide logger, initialized by core.InitLog.
var Log = NewLogger(LevelInfo)

// NewLogger builds a Logger writing to stderr at the given level.
func NewLogger(level Level) *Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(level),
	})
	return &Logger{inner: slog.New(h), level: level}
}

// InitLog reinitializes the process-wide logger, honoring $CCND_DEBUG
// per spec.md §6.
func InitLog(level Level) {
	if os.Getenv("CCND_DEBUG") != "" {
		level = LevelTrace
	}
	Log = NewLogger(level)
}

func (l *Logger) log(level Level, who fmt.Stringer, msg string, args ...any) {
	if level < l.level {
		return
	}
	name := "?"
	if who != nil {
		name = who.String()
	}
	l.inner.Log(nil, slog.Level(level), msg, append([]any{"module", name}, args...)...)
}

func (l *Logger) Trace(who fmt.Stringer, msg string, args ...any) { l.log(LevelTrace, who, msg, args...) }
func (l *Logger) Debug(who fmt.Stringer, msg string, args ...any) { l.log(LevelDebug, who, msg, args...) }
func (l *Logger) Info(who fmt.Stringer, msg string, args ...any)  { l.log(LevelInfo, who, msg, args...) }
func (l *Logger) Warn(who fmt.Stringer, msg string, args ...any)  { l.log(LevelWarn, who, msg, args...) }
func (l *Logger) Error(who fmt.Stringer, msg string, args ...any) { l.log(LevelError, who, msg, args...) }

// Fatal logs at FATAL and exits, matching spec.md §7's "terminates
// only on its own resource exhaustion during startup or on fatal
// signals" — callers use this only from startup code, never from
// remote-input handling paths.
func (l *Logger) Fatal(who fmt.Stringer, msg string, args ...any) {
	l.log(LevelFatal, who, msg, args...)
	os.Exit(1)
}
