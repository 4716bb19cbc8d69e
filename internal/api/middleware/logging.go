package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nurlyy/guestbook/pkg/logger"
)

// RequestIDHeader - заголовок с идентификатором запроса
const RequestIDHeader = "X-Request-ID"

// LoggingMiddleware предоставляет middleware для логирования HTTP запросов
type LoggingMiddleware struct {
	logger logger.Logger
}

// NewLoggingMiddleware создает новый экземпляр LoggingMiddleware
func NewLoggingMiddleware(logger logger.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: logger,
	}
}

// LogRequest логирует информацию о входящих HTTP запросах и ответах
func (m *LoggingMiddleware) LogRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// chi.RequestID уже мог выдать идентификатор
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rw := newResponseWriterWithStatus(w)
		startTime := time.Now()

		m.logger.Debug("Incoming request", map[string]interface{}{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"query":       r.URL.RawQuery,
			"remote_addr": r.RemoteAddr,
			"user_agent":  r.UserAgent(),
		})

		next.ServeHTTP(rw, r)

		duration := time.Since(startTime)
		fields := map[string]interface{}{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"bytes":       rw.written,
			"duration":    duration.String(),
			"duration_ms": duration.Milliseconds(),
		}

		// Пользователь известен, только если аутентификация прошла до логирования
		if principal, ok := PrincipalFromContext(r.Context()); ok {
			fields["user_id"] = principal.UserID
		}

		// Выбираем уровень логирования в зависимости от кода статуса
		switch {
		case rw.statusCode >= 500:
			m.logger.Error("Request completed with server error", nil, fields)
		case rw.statusCode >= 400:
			m.logger.Warn("Request completed with client error", fields)
		default:
			m.logger.Info("Request completed successfully", fields)
		}
	})
}

// responseWriterWithStatus - обертка для http.ResponseWriter, которая отслеживает код статуса
type responseWriterWithStatus struct {
	http.ResponseWriter
	statusCode  int
	written     int
	wroteHeader bool
}

func newResponseWriterWithStatus(w http.ResponseWriter) *responseWriterWithStatus {
	return &responseWriterWithStatus{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader переопределяет метод для отслеживания кода статуса
func (rw *responseWriterWithStatus) WriteHeader(statusCode int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriterWithStatus) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

// Hijack и Flush пробрасываются, если их поддерживает исходный ResponseWriter
func (rw *responseWriterWithStatus) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not support Hijack")
}

func (rw *responseWriterWithStatus) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
