// Package logger provides the levelled logger shared by the HTTP server, the
// background jobs and the CLI.
package logger

import (
	"io"
	"strings"

	"github.com/labstack/gommon/log"
)

const header = `${time_rfc3339} ${level} ${prefix} ${short_file}:${line}`

// Logger is a thin wrapper around gommon's logger so callers don't import it directly.
type Logger struct {
	*log.Logger
}

// New returns a logger writing to stderr at the given level ("debug", "info", "warn", "error", "off").
func New(prefix, level string) *Logger {
	l := log.New(prefix)
	l.SetHeader(header)
	l.SetLevel(ParseLevel(level))
	return &Logger{Logger: l}
}

// Discard returns a logger that drops everything, for tests.
func Discard() *Logger {
	l := New("test", "off")
	l.SetOutput(io.Discard)
	return l
}

// ParseLevel maps a level name to gommon's level. Unknown names mean info.
func ParseLevel(level string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// With returns a logger sharing the same output and level under another prefix.
func (l *Logger) With(prefix string) *Logger {
	child := log.New(prefix)
	child.SetHeader(header)
	child.SetLevel(l.Level())
	child.SetOutput(l.Output())
	return &Logger{Logger: child}
}
