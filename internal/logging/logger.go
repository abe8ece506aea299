// Package logging builds the charmbracelet loggers used by mipsdis.
// Level, prefix and destination come from MIPSDIS_* environment variables.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/xyproto/env/v2"
)

// LoggerCloser wraps a logger and provides a Close method for cleanup
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the underlying writer if it's closeable
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// ParseLevel maps a level name to a log level. Unknown names yield info.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// NewLoggerWithWriter creates a new logger with the provided writer
func NewLoggerWithWriter(w io.Writer) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           ParseLevel(env.Str("MIPSDIS_LOG_LEVEL")),
		Prefix:          env.Str("MIPSDIS_LOG_PREFIX", "mipsdis"),
	})

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr && w != os.Stdout {
		closer = c
	}
	return &LoggerCloser{Logger: lg, closer: closer}
}

// NewLogger creates a new logger based on environment variables
// MIPSDIS_LOG_LEVEL: debug, info, warn, error (default: info)
// MIPSDIS_LOG_PREFIX: prefix for log messages (default: "mipsdis")
// MIPSDIS_LOG_TO_FILE: when set, logs to a timestamped file instead of stderr
func NewLogger() *LoggerCloser {
	output := io.Writer(os.Stderr)

	if env.Bool("MIPSDIS_LOG_TO_FILE") {
		logFile := fmt.Sprintf("mipsdis-%s-debug.log", time.Now().Format("20060102-150405"))
		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err == nil {
			output = f
		}
		// If file creation fails, fall back to stderr
	}

	return NewLoggerWithWriter(output)
}

// IsDebug returns true if debug logging is enabled
func IsDebug() bool {
	return ParseLevel(env.Str("MIPSDIS_LOG_LEVEL")) == log.DebugLevel
}
