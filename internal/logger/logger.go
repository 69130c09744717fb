// Package logger provides the structured logger used across the service.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a leveled, key/value structured logger.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	With(fields ...any) Logger
}

type zapLogger struct {
	logger *zap.SugaredLogger
}

// Config selects the level and encoding of the logger.
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// New builds a zap-backed logger writing to stderr. Format "console" gives
// human-readable output, anything else JSON.
func New(cfg Config) Logger {
	return build(cfg, "stderr")
}

// NewFile is New writing to the file at path.
func NewFile(cfg Config, path string) Logger {
	return build(cfg, path)
}

func build(cfg Config, output string) Logger {
	config := zap.NewProductionConfig()

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)

	if cfg.Format == "console" {
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		if output == "stderr" {
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	} else {
		config.Encoding = "json"
	}
	config.OutputPaths = []string{output}
	config.ErrorOutputPaths = []string{output}
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewExample()
	}
	return &zapLogger{logger: l.Sugar()}
}

// NewDefault returns an info-level JSON logger.
func NewDefault() Logger {
	return New(Config{Level: "info", Format: "json"})
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return &zapLogger{logger: zap.NewNop().Sugar()}
}

func (l *zapLogger) Debug(msg string, fields ...any) { l.logger.Debugw(msg, fields...) }

func (l *zapLogger) Info(msg string, fields ...any) { l.logger.Infow(msg, fields...) }

func (l *zapLogger) Warn(msg string, fields ...any) { l.logger.Warnw(msg, fields...) }

func (l *zapLogger) Error(msg string, fields ...any) { l.logger.Errorw(msg, fields...) }

func (l *zapLogger) With(fields ...any) Logger {
	return &zapLogger{logger: l.logger.With(fields...)}
}

