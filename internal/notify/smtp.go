package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/diewo77/go-materiel/internal/config"
	"github.com/wneessen/go-mail"
)

// SMTPSender sends notices through an SMTP relay.
type SMTPSender struct {
	mu     sync.Mutex // the client holds one connection at a time
	client *mail.Client
	from   string
}

// NewSMTPSender builds the client from the mail settings. Nothing is dialled yet.
func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	switch {
	case cfg.SSL:
		opts = append(opts, mail.WithSSL())
	case cfg.StartTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{client: c, from: cfg.From}, nil
}

// Send dials the relay, delivers the message and hangs up.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := m.To(to); err != nil {
		return fmt.Errorf("recipient address: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
