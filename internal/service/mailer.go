package service

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/nurlyy/guestbook/pkg/config"
	"github.com/nurlyy/guestbook/pkg/logger"
)

// Mailer отправляет письмо одному получателю
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer отправляет письма через SMTP-сервер
type SMTPMailer struct {
	config config.SMTPConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer создает новый экземпляр SMTPMailer
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		config: cfg,
		send:   smtp.SendMail,
	}
}

// Send отправляет письмо. Аутентификация используется, только если задан пользователь.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	addr := fmt.Sprintf("%s:%s", m.config.Host, m.config.Port)
	msg := buildEmail(m.config.From, to, subject, body, time.Now())
	if err := m.send(addr, auth, m.config.From, []string{to}, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// LogMailer только пишет письмо в лог (режим разработки)
type LogMailer struct {
	logger logger.Logger
}

// NewLogMailer создает новый экземпляр LogMailer
func NewLogMailer(logger logger.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send записывает письмо в лог
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("[DEV] Email", map[string]interface{}{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	return nil
}

func buildEmail(from, to, subject, body string, date time.Time) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject)))
	sb.WriteString(fmt.Sprintf("Date: %s\r\n", date.Format(time.RFC1123Z)))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(sb.String())
}
