// Package logger provides the zap-backed implementation of the logging
// interface the application packages declare for themselves.
package logger

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap.Logger to the application's logging interface.
// Field maps are emitted in key order so log lines stay diffable.
type ZapLogger struct {
	log *zap.Logger
}

// New creates a production ZapLogger with ISO8601 timestamps.
// Verbose lowers the level from info to debug.
func New(verbose bool) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{log: log}, nil
}

// NewWithZap wraps an existing zap.Logger. Tests use this with an
// observed core to assert on emitted entries.
func NewWithZap(log *zap.Logger) *ZapLogger {
	return &ZapLogger{log: log}
}

// Sync flushes any buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.log.Sync()
}

// Info logs an info message.
func (l *ZapLogger) Info(_ context.Context, msg string, fields map[string]any) {
	l.log.Info(msg, zapFields(fields)...)
}

// Debug logs a debug message.
func (l *ZapLogger) Debug(_ context.Context, msg string, fields map[string]any) {
	l.log.Debug(msg, zapFields(fields)...)
}

// Warn logs a warning message.
func (l *ZapLogger) Warn(_ context.Context, msg string, fields map[string]any) {
	l.log.Warn(msg, zapFields(fields)...)
}

// Error logs an error message with the error attached as a structured field.
func (l *ZapLogger) Error(_ context.Context, msg string, err error, fields map[string]any) {
	zs := zapFields(fields)
	if err != nil {
		zs = append(zs, zap.Error(err))
	}
	l.log.Error(msg, zs...)
}

func zapFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	zs := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		zs = append(zs, zap.Any(k, fields[k]))
	}
	return zs
}
