package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger - интерфейс для логирования
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
	With(key string, value interface{}) Logger
}

// Поддерживаемые реализации логгера
const (
	BackendZerolog = "zerolog"
	BackendZap     = "zap"
)

// New создает логгер выбранной реализации
func New(backend, level string, isJSON bool) Logger {
	if strings.ToLower(backend) == BackendZap {
		return NewZapLogger(level, isJSON)
	}
	return NewLogger(level, isJSON)
}

// ZeroLogger - реализация логгера на основе zerolog
type ZeroLogger struct {
	logger zerolog.Logger
}

// NewLogger создает новый экземпляр логгера
func NewLogger(level string, isJSON bool) *ZeroLogger {
	return newZeroLogger(os.Stdout, level, isJSON)
}

// NewNopLogger создает логгер, который ничего не пишет
func NewNopLogger() *ZeroLogger {
	return &ZeroLogger{logger: zerolog.Nop()}
}

func newZeroLogger(out io.Writer, level string, isJSON bool) *ZeroLogger {
	// Настройка уровня логирования
	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || logLevel == zerolog.NoLevel {
		logLevel = zerolog.InfoLevel
	}

	// Настройка формата времени
	zerolog.TimeFieldFormat = time.RFC3339

	var logger zerolog.Logger
	if isJSON {
		logger = zerolog.New(out).Level(logLevel).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02 15:04:05",
		}
		logger = zerolog.New(output).Level(logLevel).With().Timestamp().Logger()
	}

	return &ZeroLogger{
		logger: logger,
	}
}

// Debug логирует отладочное сообщение
func (l *ZeroLogger) Debug(msg string, fields ...map[string]interface{}) {
	withFields(l.logger.Debug(), fields).Msg(msg)
}

// Info логирует информационное сообщение
func (l *ZeroLogger) Info(msg string, fields ...map[string]interface{}) {
	withFields(l.logger.Info(), fields).Msg(msg)
}

// Warn логирует предупреждение
func (l *ZeroLogger) Warn(msg string, fields ...map[string]interface{}) {
	withFields(l.logger.Warn(), fields).Msg(msg)
}

// Error логирует ошибку
func (l *ZeroLogger) Error(msg string, err error, fields ...map[string]interface{}) {
	event := l.logger.Error()
	if err != nil {
		event = event.Err(err)
	}
	withFields(event, fields).Msg(msg)
}

// Fatal логирует критическую ошибку и завершает программу
func (l *ZeroLogger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	event := l.logger.Fatal()
	if err != nil {
		event = event.Err(err)
	}
	withFields(event, fields).Msg(msg)
}

// With добавляет постоянное поле к логгеру
func (l *ZeroLogger) With(key string, value interface{}) Logger {
	return &ZeroLogger{
		logger: l.logger.With().Interface(key, value).Logger(),
	}
}

func withFields(event *zerolog.Event, fields []map[string]interface{}) *zerolog.Event {
	for _, set := range fields {
		for k, v := range set {
			event = event.Interface(k, v)
		}
	}
	return event
}
