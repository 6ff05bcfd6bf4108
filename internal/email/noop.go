package email

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/nbatrivia/pkg/logger"
)

// NoopSender logs instead of sending. Used in development.
type NoopSender struct {
	logger *slog.Logger
}

func NewNoopSender(log *slog.Logger) *NoopSender {
	return &NoopSender{logger: log}
}

func (s *NoopSender) SendPasswordReset(ctx context.Context, to, resetURL string, expiresAt time.Time) error {
	s.logger.Info("skipping password reset email because noop is configured",
		slog.String("email", logger.SanitizedEmail(to)),
		slog.Time("expires_at", expiresAt))
	return nil
}
