package mailer

import (
	"context"
	"fmt"
	"time"

	mail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// SMTPSender отправляет письма через SMTP с STARTTLS, если сервер его поддерживает.
type SMTPSender struct {
	cfg    SMTPConfig
	logger *zap.Logger
}

var _ Sender = (*SMTPSender)(nil)

// NewSMTPSender creates a sender.
func NewSMTPSender(cfg SMTPConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: logger.Named("SMTPSender")}
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10 * time.Second),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := BuildMessage(s.cfg.From, msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send to %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}
	s.logger.Debug("Mail delivered", zap.String("id", msg.ID), zap.String("kind", msg.Kind))
	return nil
}

// BuildMessage собирает multipart/alternative письмо (text + html).
func BuildMessage(from string, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", from, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(msg.CreatedAt)
	if msg.ID != "" {
		m.SetMessageIDWithValue(msg.ID + "@novel-stella")
	}
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}
