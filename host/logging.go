package host

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerFactory hands out named loggers that share one pipeline.
type LoggerFactory interface {
	Logger(name string) *zap.Logger
}

// ZapLoggerFactory is a [LoggerFactory] backed by a root zap logger.
type ZapLoggerFactory struct {
	root *zap.Logger
}

// NewLoggerFactory creates a factory configured from the environment.
// Uses JSON encoding, the level comes from APP_LOG_LEVEL.
func NewLoggerFactory(env Environment) (*ZapLoggerFactory, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.LogLevel)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return NewLoggerFactoryFrom(l.With(zap.String("service", env.ServiceName))), nil
}

// NewLoggerFactoryFrom wraps an existing logger.
func NewLoggerFactoryFrom(l *zap.Logger) *ZapLoggerFactory {
	return &ZapLoggerFactory{root: l}
}

// Logger returns a child logger with the given name.
func (f *ZapLoggerFactory) Logger(name string) *zap.Logger {
	if name == "" {
		return f.root
	}

	return f.root.Named(name)
}

// Close flushes buffered log entries.
func (f *ZapLoggerFactory) Close() error {
	_ = f.root.Sync() // stderr cannot be synced on every platform
	return nil
}
