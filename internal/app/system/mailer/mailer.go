// Package mailer builds and sends member notification email.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Email is one outgoing message. HTMLBody is optional.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Config holds SMTP settings. An empty Host selects the log sender.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

var ErrNoRecipient = errors.New("mailer: email has no recipient")

// New returns an SMTP sender, or a LogSender when no host is configured.
func New(cfg Config, log *zap.Logger) (Sender, error) {
	if cfg.Host == "" {
		log.Warn("mail host not configured; email will be logged, not sent")
		return LogSender{Log: log}, nil
	}
	if cfg.From == "" {
		return nil, errors.New("mailer: from address is required")
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: new client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.From, fromName: cfg.FromName}, nil
}

// SMTPSender sends through an SMTP relay.
type SMTPSender struct {
	client   *mail.Client
	from     string
	fromName string
}

func (s *SMTPSender) Send(ctx context.Context, e Email) error {
	msg, err := s.message(e)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", e.To, err)
	}
	return nil
}

func (s *SMTPSender) message(e Email) (*mail.Msg, error) {
	if e.To == "" {
		return nil, ErrNoRecipient
	}
	m := mail.NewMsg()
	var err error
	if s.fromName != "" {
		err = m.FromFormat(s.fromName, s.from)
	} else {
		err = m.From(s.from)
	}
	if err != nil {
		return nil, fmt.Errorf("mailer: from: %w", err)
	}
	if err := m.To(e.To); err != nil {
		return nil, fmt.Errorf("mailer: to: %w", err)
	}
	m.Subject(e.Subject)
	m.SetBodyString(mail.TypeTextPlain, e.TextBody)
	if e.HTMLBody != "" {
		m.AddAlternativeString(mail.TypeTextHTML, e.HTMLBody)
	}
	return m, nil
}

// LogSender writes email to the log instead of sending it. Used in
// development and when SMTP is not configured.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(_ context.Context, e Email) error {
	if e.To == "" {
		return ErrNoRecipient
	}
	s.Log.Info("email (not sent)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.Int("text_len", len(e.TextBody)))
	return nil
}
