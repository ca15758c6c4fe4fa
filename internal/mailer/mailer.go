package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Host     string
	Port     string
	From     string
	Password string
}

type Mailer struct {
	cfg Config
	log *zerolog.Logger
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// SendModerationEmail tells an organizer whether their concert proposal was
// published or rejected.
func (m *Mailer) SendModerationEmail(recipientEmail, concertTitle, status string) error {
	var subject, body string
	switch status {
	case "published":
		subject = "Your concert has been published"
		body = fmt.Sprintf("Hello!\n\nYour concert \"%s\" passed moderation and is now on sale.", concertTitle)
	case "rejected":
		subject = "Your concert has been rejected"
		body = fmt.Sprintf("Hello!\n\nYour concert \"%s\" did not pass moderation. Please review the listing and submit it again.", concertTitle)
	default:
		return fmt.Errorf("unknown moderation status %q", status)
	}

	return m.send(recipientEmail, subject, body)
}

// SendReceiptEmail delivers the purchase receipt with the ticket barcodes.
func (m *Mailer) SendReceiptEmail(recipientEmail, concertTitle string, concertDate time.Time, barcodes []string, totalPrice string) error {
	subject := fmt.Sprintf("Your tickets for %s", concertTitle)
	body := fmt.Sprintf(
		"Hello!\n\nThank you for your purchase.\n\nConcert: %s\nDate: %s\nTickets: %d\nTotal: %s\n\nBarcodes:\n%s",
		concertTitle,
		concertDate.Format("Mon, 02 Jan 2006 15:04 MST"),
		len(barcodes),
		totalPrice,
		strings.Join(barcodes, "\n"),
	)

	return m.send(recipientEmail, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, to, subject, body,
	)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		m.log.Warn().Msgf("failed to send email to %s: %v", to, err)
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Msgf("email sent to %s (%s)", to, subject)
	return nil
}
