package mysmtp

import (
	"gopkg.in/gomail.v2"

	"github.com/sdghub/backend/pkg/config"
)

// Sender is what the reminder job depends on.
type Sender interface {
	SendEmail(receivers []string, subject, htmlBody string) error
}

type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(conf *config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(conf.Host, conf.Port, conf.User, conf.Password),
		from:   conf.From,
	}
}

func (m *Mailer) SendEmail(receivers []string, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", receivers...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}
