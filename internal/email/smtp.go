package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/nbatrivia/pkg/logger"
	"github.com/go-mail/mail"
)

// SMTPSender delivers through any SMTP relay.
type SMTPSender struct {
	dialer *mail.Dialer
	from   string
	logger *slog.Logger
}

func NewSMTPSender(host string, port int, username, password, from string, log *slog.Logger) *SMTPSender {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 10 * time.Second
	return &SMTPSender{dialer: dialer, from: from, logger: log}
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, resetURL string, expiresAt time.Time) error {
	rendered, err := RenderPasswordReset(resetURL, expiresAt)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetAddressHeader("From", s.from, "NBA Trivia")
	msg.SetAddressHeader("To", to, "")
	msg.SetHeader("Subject", rendered.Subject)
	msg.SetBody("text/plain", rendered.Text)
	msg.AddAlternative("text/html", rendered.HTML)

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(msg); err != nil {
		s.logger.Error("failed to send password reset email via SMTP",
			slog.String("email", logger.SanitizedEmail(to)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("password reset email sent", slog.String("email", logger.SanitizedEmail(to)))
	return nil
}
