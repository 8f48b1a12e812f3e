// Package log is the logging facade used throughout brewsignal. It wraps
// [log/slog] with a package-level default logger and provides the small
// Println/Printf adapters the backing MQTT client expects.
package log

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
)

type (
	Attr    = slog.Attr
	Handler = slog.Handler
)

var DiscardHandler Handler = slog.NewTextHandler(io.Discard, nil)

// Logger is the interface expected by [mqtt.Logger].
type Logger interface {
	Println(v ...any)
	Printf(format string, v ...any)
}

type logger struct {
	*slog.Logger
	with []any
}

var (
	level         = new(slog.LevelVar)
	defaultLogger = &logger{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
)

// With adds the given attributes to every record logged by the default
// logger.
func With(args ...any) {
	defaultLogger.Logger = defaultLogger.Logger.With(args...)
	defaultLogger.with = append(defaultLogger.with, args...)
}

// DefaultLogger returns the default logger as a [Logger].
func DefaultLogger() Logger {
	return defaultLogger
}

// SetLogLevel sets the minimum level logged by the default logger.
func SetLogLevel(l Level) {
	level.Set(slog.Level(l))
}

// SetOutput sets the output of the standard library's default logger, which
// third-party packages may still write to.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// SetJSONHandler replaces the default logger's handler with a JSON handler
// writing to w.
func SetJSONHandler(w io.Writer) {
	SetHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetTextHandler replaces the default logger's handler with a text handler
// writing to w.
func SetTextHandler(w io.Writer) {
	SetHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Error logs msg at [LevelError]. A non-nil err is included as the "cause"
// attribute.
func Error(msg string, err error, args ...any) {
	if err != nil {
		args = append([]any{"cause", err}, args...)
	}
	defaultLogger.Error(msg, args...)
}

// Fatal logs like [Error] and exits.
func Fatal(msg string, err error, args ...any) {
	Error(msg, err, args...)
	os.Exit(1)
}

// Warn logs msg at [LevelWarn].
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Info logs msg at [LevelInfo].
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

func (l *logger) Println(v ...any) {
	l.Info(fmt.Sprintln(v...))
}

func (l *logger) Printf(format string, v ...any) {
	l.Info(fmt.Sprintf(format, v...))
}

type warnLogger struct{}

// WarnLogger returns a [Logger] that logs at [LevelWarn].
func WarnLogger() Logger {
	return warnLogger{}
}

func (warnLogger) Println(v ...any)               { Warn(fmt.Sprintln(v...)) }
func (warnLogger) Printf(format string, v ...any) { Warn(fmt.Sprintf(format, v...)) }

type errorLogger struct{}

// ErrorLogger returns a [Logger] that logs at [LevelError].
func ErrorLogger() Logger {
	return errorLogger{}
}

func (errorLogger) Println(v ...any)               { defaultLogger.Error(fmt.Sprintln(v...)) }
func (errorLogger) Printf(format string, v ...any) { defaultLogger.Error(fmt.Sprintf(format, v...)) }
