// Package notify delivers plain-text notices to the logistics team.
package notify

import (
	"context"
	"log/slog"

	"github.com/diewo77/go-materiel/internal/config"
)

// Sender delivers one plain-text message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New returns the SMTP sender when a relay is configured, the log sender otherwise.
func New(cfg config.MailConfig, log *slog.Logger) (Sender, error) {
	if cfg.Host == "" {
		log.Warn("MAIL_SERVER not set, notifications will only be logged")
		return NewLogSender(log), nil
	}
	return NewSMTPSender(cfg)
}

// LogSender writes notices to the structured log instead of sending them.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender { return &LogSender{log: log} }

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.log.InfoContext(ctx, "notification",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}
