// File: internal/mail/service.go
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"afyaclinic_backend/internal/config"

	"go.uber.org/zap"
)

// Sender defines the interface for dispatching outbound mail.
type Sender interface {
	SendPasswordReset(ctx context.Context, to, resetLink string) error
}

type smtpSender struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSMTPSender creates a Sender backed by a plain SMTP relay.
func NewSMTPSender(cfg *config.Config, logger *zap.Logger) Sender {
	return &smtpSender{cfg: cfg, logger: logger.Named("SMTPSender")}
}

func (s *smtpSender) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	subject := "Password Reset Request"
	body := fmt.Sprintf("Click the link to reset your password: %s", resetLink)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n",
		s.cfg.SMTPFrom, to, subject, body,
	))

	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.SMTPFrom, []string{to}, msg); err != nil {
		s.logger.Error("Failed to send password reset mail", zap.Error(err), zap.String("to", to))
		return fmt.Errorf("failed to send password reset mail: %w", err)
	}
	s.logger.Info("Password reset mail dispatched", zap.String("to", to))
	return nil
}
