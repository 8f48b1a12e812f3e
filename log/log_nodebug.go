//go:build !debug

package log

import "log/slog"

func Debug(_ string, _ ...any) {}

// SetHandler sets the default logger's handler to the one given.
func SetHandler(h Handler) {
	defaultLogger.Logger = slog.New(h).With(defaultLogger.with...)
}

// DebugLogger returns a [Logger] that discards everything outside debug
// builds.
func DebugLogger() Logger {
	return debugLogger{}
}

type debugLogger struct{}

func (debugLogger) Println(v ...any)               {}
func (debugLogger) Printf(format string, v ...any) {}
