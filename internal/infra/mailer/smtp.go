package mailer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/totegamma/timepulse/internal/config"
	"github.com/totegamma/timepulse/internal/domain"
)

// SMTP sends reminder mail. With no host configured it only logs what it
// would have sent.
type SMTP struct {
	cfg    config.SMTP
	logger *zap.Logger
}

func New(cfg config.SMTP, logger *zap.Logger) *SMTP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTP{cfg: cfg, logger: logger}
}

func (m *SMTP) message(email domain.Email) (*mail.Msg, error) {
	if len(email.To) == 0 {
		return nil, errors.New("mail has no recipients")
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, errors.Wrap(err, "invalid sender")
	}
	if err := msg.To(email.To...); err != nil {
		return nil, errors.Wrap(err, "invalid recipient")
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextHTML, email.Body)
	msg.SetCharset(mail.CharsetUTF8)
	return msg, nil
}

func (m *SMTP) Send(ctx context.Context, email domain.Email) error {
	msg, err := m.message(email)
	if err != nil {
		return err
	}

	if m.cfg.Host == "" {
		m.logger.Info("smtp disabled, mail not sent",
			zap.Strings("to", email.To),
			zap.String("subject", email.Subject),
		)
		return nil
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
		)
	}
	if m.cfg.NoTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return errors.Wrap(err, "Mailer.SMTP.Send")
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrap(err, "Mailer.SMTP.Send")
	}

	m.logger.Info("mail sent",
		zap.Strings("to", email.To),
		zap.String("subject", email.Subject),
	)
	return nil
}

