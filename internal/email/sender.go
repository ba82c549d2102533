package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/mpiyush15/pixels-official-sub001/internal/config"
)

// Sender delivers a fully formatted message, headers included.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

// SMTPSender delivers through the configured SMTP relay.
type SMTPSender struct {
	cfg  *config.Config
	auth smtp.Auth
	addr string
}

// NewSMTPSender returns an SMTP sender, or a logging sender when no host is configured.
func NewSMTPSender(cfg *config.Config) Sender {
	if cfg.SmtpHost == "" {
		slog.Warn("SMTP host not configured, using logging email sender")
		return &LoggingSender{cfg: cfg}
	}
	return &SMTPSender{
		cfg:  cfg,
		auth: smtp.PlainAuth("", cfg.SmtpUsername, cfg.SmtpPassword, cfg.SmtpHost),
		addr: fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort),
	}
}

func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if err := smtp.SendMail(s.addr, s.auth, s.cfg.SmtpFromAddress, to, rawMessage); err != nil {
		slog.ErrorContext(ctx, "smtp send failed", "to", to, "error", err)
		return fmt.Errorf("smtp error: %w", err)
	}
	slog.InfoContext(ctx, "email sent", "to", to, "subject", subject)
	return nil
}

// LoggingSender only logs. Used in development.
type LoggingSender struct {
	cfg *config.Config
}

func (s *LoggingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	slog.InfoContext(ctx, "email (logged only)",
		"to", to,
		"from", s.cfg.SmtpFromAddress,
		"subject", subject,
		"message", string(rawMessage),
	)
	return nil
}
