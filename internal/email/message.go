// Package email delivers password-reset links.
package email

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/nbatrivia/internal/config"
	"github.com/jaytaylor/html2text"
)

const resetSubject = "NBA Trivia - Password Reset"

// Sender delivers a reset link to a user.
type Sender interface {
	SendPasswordReset(ctx context.Context, to, resetURL string, expiresAt time.Time) error
}

// Message is a rendered email with HTML and plain-text bodies.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #1d1d1d; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #1d428a; color: #ffffff; padding: 20px; text-align: center; border-radius: 4px; }
        .button { display: inline-block; background-color: #c8102e; color: #ffffff; padding: 12px 24px; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>Password Reset</h1></div>
        <p>You requested a password reset for your NBA Trivia account.</p>
        <p><a href="{{.URL}}" class="button">Reset Password</a></p>
        <p>Or copy and paste this link in your browser:<br><code>{{.URL}}</code></p>
        <p>This link expires at {{.Expires}}.</p>
        <p>If you did not request this, you can ignore this email. Your password will not change.</p>
        <div class="footer"><p>This is an automated message. Please do not reply to this email.</p></div>
    </div>
</body>
</html>
`))

// RenderPasswordReset builds the reset email. The text body is derived from the HTML.
func RenderPasswordReset(resetURL string, expiresAt time.Time) (Message, error) {
	var buf strings.Builder
	err := resetTemplate.Execute(&buf, map[string]string{
		"URL":     resetURL,
		"Expires": expiresAt.UTC().Format("Jan 2, 2006 15:04 MST"),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render reset email: %w", err)
	}

	html := buf.String()
	text, err := html2text.FromString(html, html2text.Options{PrettyTables: true})
	if err != nil {
		return Message{}, fmt.Errorf("convert reset email to text: %w", err)
	}

	return Message{Subject: resetSubject, HTML: html, Text: text}, nil
}

// ResetURL joins the frontend base URL and a token.
func ResetURL(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + "/reset-password?token=" + token
}

// New picks the sender configured by EMAIL_PROVIDER.
func New(ctx context.Context, cfg *config.EmailConfig, logger *slog.Logger) (Sender, error) {
	switch cfg.Provider {
	case config.EmailProviderSES:
		return NewSESSender(ctx, cfg.AWSRegion, cfg.From, logger)
	case config.EmailProviderSMTP:
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.From, logger), nil
	case config.EmailProviderNoop:
		return NewNoopSender(logger), nil
	}
	return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
}
