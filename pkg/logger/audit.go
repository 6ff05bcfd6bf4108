package logger

import (
	"context"
	"log/slog"
	"time"
)

// Audit event types
const (
	EventLogin             = "login"
	EventRegister          = "register"
	EventAccountLocked     = "account_locked"
	EventSecurityAnswer    = "security_answer"
	EventResetIssued       = "password_reset_issued"
	EventPasswordReset     = "password_reset"
	EventQuestionCreated   = "question_created"
	EventQuestionUpdated   = "question_updated"
	EventQuestionDeleted   = "question_deleted"
	EventGameSubmitted     = "game_submitted"
	EventResetTokensPurged = "password_reset_tokens_purged"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	Username      string
	Email         string // masked before logging
	IPAddress     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes security events as structured slog records.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// Log records an audit event. Failures are logged at warn level.
func (al *AuditLogger) Log(ctx context.Context, event AuditEvent) {
	if al == nil || al.logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("audit_type", auditType(event.EventType)),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Username != "" {
		attrs = append(attrs, slog.String("username", NoLineBreaks(event.Username)))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, NoLineBreaks(val)))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

func auditType(eventType string) string {
	switch eventType {
	case EventLogin, EventRegister, EventAccountLocked:
		return "auth"
	case EventSecurityAnswer, EventResetIssued, EventPasswordReset, EventResetTokensPurged:
		return "password"
	case EventQuestionCreated, EventQuestionUpdated, EventQuestionDeleted:
		return "admin"
	default:
		return "account"
	}
}
