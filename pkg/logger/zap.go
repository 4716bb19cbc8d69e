package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger - реализация логгера на основе zap
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger создает логгер zap; в продакшене JSON, иначе консольный вывод
func NewZapLogger(level string, isJSON bool) *ZapLogger {
	var cfg zap.Config
	if isJSON {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}

	return &ZapLogger{logger: logger}
}

// Debug логирует отладочное сообщение
func (l *ZapLogger) Debug(msg string, fields ...map[string]interface{}) {
	l.logger.Debug(msg, zapFields(nil, fields)...)
}

// Info логирует информационное сообщение
func (l *ZapLogger) Info(msg string, fields ...map[string]interface{}) {
	l.logger.Info(msg, zapFields(nil, fields)...)
}

// Warn логирует предупреждение
func (l *ZapLogger) Warn(msg string, fields ...map[string]interface{}) {
	l.logger.Warn(msg, zapFields(nil, fields)...)
}

// Error логирует ошибку
func (l *ZapLogger) Error(msg string, err error, fields ...map[string]interface{}) {
	l.logger.Error(msg, zapFields(err, fields)...)
}

// Fatal логирует критическую ошибку и завершает программу
func (l *ZapLogger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	l.logger.Fatal(msg, zapFields(err, fields)...)
}

// With добавляет постоянное поле к логгеру
func (l *ZapLogger) With(key string, value interface{}) Logger {
	return &ZapLogger{logger: l.logger.With(zap.Any(key, value))}
}

// Sync сбрасывает буферы zap
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func zapFields(err error, fields []map[string]interface{}) []zap.Field {
	var out []zap.Field
	if err != nil {
		out = append(out, zap.Error(err))
	}
	for _, set := range fields {
		for k, v := range set {
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
