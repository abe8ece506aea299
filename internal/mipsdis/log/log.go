// Package log installs the process-wide slog logger.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"mipsdis/internal/logging"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
	closer      io.Closer
)

// Setup routes slog through a charmbracelet logger. Records go to logFile
// when it is set, to stderr otherwise. Only the first call has effect.
func Setup(logFile string, debug bool) {
	initOnce.Do(func() {
		var lg *logging.LoggerCloser
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if err != nil {
				lg = logging.NewLogger()
				lg.Warn("cannot open log file, using stderr", "path", logFile, "err", err)
			} else {
				lg = logging.NewLoggerWithWriter(f)
			}
		} else {
			lg = logging.NewLogger()
		}
		if debug {
			lg.SetLevel(logging.ParseLevel("debug"))
			lg.SetReportCaller(true)
		}
		closer = lg

		slog.SetDefault(slog.New(lg.Logger))
		initialized.Store(true)
	})
}

func Initialized() bool {
	return initialized.Load()
}

// Close releases the log file opened by Setup.
func Close() error {
	if closer == nil {
		return nil
	}
	return closer.Close()
}

func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		if Initialized() {
			slog.Error(fmt.Sprintf("Panic in %s", name),
				"panic", r,
				"stack", string(debug.Stack()))
		}
		if cleanup != nil {
			cleanup()
		}
	}
}
