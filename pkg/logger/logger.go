package logger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger so services share one structured logger type.
type Logger struct {
	*zap.Logger
}

// New builds a logger for the given level ("debug", "info", ...) and encoding ("json" or "console").
func New(level string, encoding string) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	cfg.Sampling = nil

	switch strings.ToLower(encoding) {
	case "", "json":
		cfg.Encoding = "json"
	case "console":
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unsupported log encoding %q", encoding)
	}

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &Logger{Logger: z}, nil
}

// NewFromZap wraps an existing zap logger. Tests use it with zaptest/observer.
func NewFromZap(z *zap.Logger) *Logger {
	return &Logger{Logger: z}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// DebugContext logs at debug level. The context is accepted for call-site symmetry with the
// request-scoped helpers; no values are extracted from it yet.
func (l *Logger) DebugContext(_ context.Context, msg string, fields ...zap.Field) {
	l.Logger.Debug(msg, fields...)
}

func (l *Logger) InfoContext(_ context.Context, msg string, fields ...zap.Field) {
	l.Logger.Info(msg, fields...)
}

func (l *Logger) WarnContext(_ context.Context, msg string, fields ...zap.Field) {
	l.Logger.Warn(msg, fields...)
}

func (l *Logger) ErrorContext(_ context.Context, msg string, fields ...zap.Field) {
	l.Logger.Error(msg, fields...)
}

// Field creates a field of any type.
func Field(key string, value interface{}) zap.Field {
	return zap.Any(key, value)
}

func StringField(key string, value string) zap.Field {
	return zap.String(key, value)
}

func IntField(key string, value int) zap.Field {
	return zap.Int(key, value)
}

func FloatField(key string, value float64) zap.Field {
	return zap.Float64(key, value)
}

func DurationField(key string, value time.Duration) zap.Field {
	return zap.Duration(key, value)
}

// ErrorField creates the standard "error" field.
func ErrorField(err error) zap.Field {
	return zap.Error(err)
}
