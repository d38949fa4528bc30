package logger

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type implLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

type ctxKey struct{}

// New creates a Logger writing to stdout. format is "text" (console) or "json".
// Unknown levels fall back to info.
func New(level, format string) Logger {
	lvl := zap.NewAtomicLevelAt(parseLevel(level))

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Sampling = nil
	cfg.OutputPaths = []string{"stdout"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if strings.ToLower(format) != "json" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	zl, err := cfg.Build()
	if err != nil {
		zl = zap.NewNop()
	}

	return &implLogger{
		sugar: zl.Sugar(),
		level: lvl,
	}
}

// NewNop returns a Logger that discards everything. Used by tests.
func NewNop() Logger {
	return &implLogger{
		sugar: zap.NewNop().Sugar(),
		level: zap.NewAtomicLevelAt(zapcore.InfoLevel),
	}
}

// WithContext stores key/value pairs (run id, fingerprint) that every entry logged with ctx carries.
func WithContext(ctx context.Context, keysAndValues ...interface{}) context.Context {
	prev, _ := ctx.Value(ctxKey{}).([]interface{})
	kv := append(append([]interface{}{}, prev...), keysAndValues...)
	return context.WithValue(ctx, ctxKey{}, kv)
}

func parseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func (l *implLogger) shouldLog(level string) bool {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return true
	}
	return l.level.Enabled(lvl)
}

func (l *implLogger) from(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return l.sugar
	}
	if kv, ok := ctx.Value(ctxKey{}).([]interface{}); ok && len(kv) > 0 {
		return l.sugar.With(kv...)
	}
	return l.sugar
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("debug") {
		l.from(ctx).Debugf(msg, args...)
	}
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("info") {
		l.from(ctx).Infof(msg, args...)
	}
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("warn") {
		l.from(ctx).Warnf(msg, args...)
	}
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("error") {
		l.from(ctx).Errorf(msg, args...)
	}
}

func (l *implLogger) With(keysAndValues ...interface{}) Logger {
	return &implLogger{
		sugar: l.sugar.With(keysAndValues...),
		level: l.level,
	}
}

func (l *implLogger) Sync() {
	_ = l.sugar.Sync()
}
