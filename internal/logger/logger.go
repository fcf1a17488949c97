// Package logger provides the process-wide structured logger.
package logger

import (
	"strings"
	"sync"
)

// Log levels accepted by the log_level config key.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Output encodings accepted by the log_format config key.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options selects the level and encoding of the process logger.
type Options struct {
	Level  string
	Format string
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process logger. The first call fixes the options; later
// calls return the same instance regardless of the argument.
func Get(opts Options) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(opts)
	})
	return globalLogger
}

// ValidLevel reports whether s names one of the supported levels.
func ValidLevel(s string) bool {
	switch normalize(s) {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return true
	}
	return false
}

// ValidFormat reports whether s names a supported encoding. Empty means console.
func ValidFormat(s string) bool {
	switch normalize(s) {
	case "", FormatConsole, FormatJSON:
		return true
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
