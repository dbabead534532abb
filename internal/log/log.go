package log

import (
	"github.com/anchore/go-logger"
	"github.com/anchore/go-logger/adapter/discard"
	"github.com/anchore/go-logger/adapter/redact"
)

var (
	// log is the singleton used in all logging calls
	log = discard.New()

	// store is the shared set of values that should never appear in log output
	store = redact.NewStore()

	// Log is the redaction-aware logger used by the package-level helpers
	Log logger.Logger = redact.New(log, store)
)

// Redactable values know how to register their own sensitive fields with the redaction store.
type Redactable interface {
	Redact()
}

func Set(l logger.Logger) {
	// maintain all existing redactions for the new logger
	Log = redact.New(l, store)
}

func Get() logger.Logger {
	return Log
}

func Redact(values ...string) {
	store.Add(values...)
}

// Errorf takes a formatted template string and template arguments for the error logging level.
func Errorf(format string, args ...interface{}) {
	Log.Errorf(format, args...)
}

// Error logs the given arguments at the error logging level.
func Error(args ...interface{}) {
	Log.Error(args...)
}

// Warnf takes a formatted template string and template arguments for the warning logging level.
func Warnf(format string, args ...interface{}) {
	Log.Warnf(format, args...)
}

// Warn logs the given arguments at the warning logging level.
func Warn(args ...interface{}) {
	Log.Warn(args...)
}

// Infof takes a formatted template string and template arguments for the info logging level.
func Infof(format string, args ...interface{}) {
	Log.Infof(format, args...)
}

// Info logs the given arguments at the info logging level.
func Info(args ...interface{}) {
	Log.Info(args...)
}

// Debugf takes a formatted template string and template arguments for the debug logging level.
func Debugf(format string, args ...interface{}) {
	Log.Debugf(format, args...)
}

// Debug logs the given arguments at the debug logging level.
func Debug(args ...interface{}) {
	Log.Debug(args...)
}

// Tracef takes a formatted template string and template arguments for the trace logging level.
func Tracef(format string, args ...interface{}) {
	Log.Tracef(format, args...)
}

// Trace logs the given arguments at the trace logging level.
func Trace(args ...interface{}) {
	Log.Trace(args...)
}

// WithFields returns a message logger with multiple key-value fields.
func WithFields(fields ...interface{}) logger.MessageLogger {
	return Log.WithFields(fields...)
}

// Nested returns a new logger with a given set of fields attached to every message.
func Nested(fields ...interface{}) logger.Logger {
	return Log.Nested(fields...)
}
