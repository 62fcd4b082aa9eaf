// Package dcontext carries a structured logger on a context.Context, the way
// gc, push/pull and the blob store's enumeration report progress without
// every call site threading a *logrus.Logger by hand. Ingest and restore
// take a context but log nothing through it.
package dcontext

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	defaultLogger   = logrus.StandardLogger().WithField("component", "vekt")
	defaultLoggerMu sync.RWMutex
)

// Logger is a leveled-logging interface, satisfied by *logrus.Entry.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)

	Info(args ...any)
	Infof(format string, args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)

	WithError(err error) *logrus.Entry
	WithField(key string, value any) *logrus.Entry
}

type loggerKey struct{}

// WithLogger returns a new context carrying the given logger.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger returns the logger attached to ctx, or the package default if
// none was attached.
func GetLogger(ctx context.Context) Logger {
	if v := ctx.Value(loggerKey{}); v != nil {
		if lgr, ok := v.(Logger); ok {
			return lgr
		}
	}
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// GetLoggerWithField returns a logger derived from ctx's logger with one
// extra field, without affecting ctx itself.
func GetLoggerWithField(ctx context.Context, key string, value any) Logger {
	return GetLogger(ctx).WithField(key, fmt.Sprint(value))
}

// SetDefaultLogger replaces the package default logger, used by the CLI to
// apply --verbose/--quiet before any subcommand runs.
func SetDefaultLogger(logger *logrus.Entry) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}
