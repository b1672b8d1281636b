package logx

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter adapts a *zap.Logger to the logx.Logger interface.
type ZapAdapter struct {
	l *zap.Logger
}

// NewZapAdapter returns a Logger implementation backed by the provided *zap.Logger.
func NewZapAdapter(l *zap.Logger) Logger {
	return &ZapAdapter{l: l}
}

// NewZap builds a production zap logger (JSON, ISO8601 time) at the given level.
func NewZap(level string) (Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapAdapter(l), nil
}

func (z *ZapAdapter) Debug(msg string, fields ...Field) { z.l.Debug(msg, toZapFields(fields)...) }
func (z *ZapAdapter) Info(msg string, fields ...Field)  { z.l.Info(msg, toZapFields(fields)...) }
func (z *ZapAdapter) Warn(msg string, fields ...Field)  { z.l.Warn(msg, toZapFields(fields)...) }
func (z *ZapAdapter) Error(msg string, fields ...Field) { z.l.Error(msg, toZapFields(fields)...) }

// With returns a child logger carrying fields.
func (z *ZapAdapter) With(fields ...Field) Logger {
	return &ZapAdapter{l: z.l.With(toZapFields(fields)...)}
}

// Sync flushes buffered entries.
func (z *ZapAdapter) Sync() error { return z.l.Sync() }

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}
