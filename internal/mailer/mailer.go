// Package mailer отвечает за отправку писем с кодами подтверждения.
package mailer

import (
	"fmt"
	"log"

	gomail "gopkg.in/gomail.v2"
)

// Mailer определяет интерфейс отправки письма.
type Mailer interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPConfig содержит параметры подключения к SMTP-серверу.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // Адрес отправителя, например `"PassVault" <noreply@example.com>`
}

// smtpMailer реализует Mailer поверх gomail.
var _ Mailer = (*smtpMailer)(nil)

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer создает мейлер, отправляющий письма через SMTP (STARTTLS).
func NewSMTPMailer(cfg SMTPConfig) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send отправляет письмо с текстовой и HTML-версиями.
func (m *smtpMailer) Send(to, subject, htmlBody, textBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		log.Printf("[Mailer] Ошибка отправки письма на '%s': %v", to, err)
		return fmt.Errorf("ошибка отправки письма: %w", err)
	}

	log.Printf("[Mailer] Письмо '%s' успешно отправлено на '%s'", subject, to)
	return nil
}
