// Package mailer is the outbound email boundary.  Delivery is
// fire-and-forget from the workflows' perspective: a failed send never
// unwinds state that has already been committed.
package mailer

import (
	"fmt"
	"log"
	"net"
	"net/smtp"
)

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Mailer delivers messages.  Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(msg Message) error
}

// SMTPMailer delivers mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	addr string // host:port
	user string // username, also the From address
	pass string
}

// NewSMTPMailer returns a Mailer backed by the given SMTP relay.  If
// addr is empty a log-only mailer is returned instead, so local
// development works without a mail server.
func NewSMTPMailer(addr, user, pass string) Mailer {
	if addr == "" {
		log.Printf("mailer: SMTP_ADDR not set, outbound mail will only be logged")
		return logMailer{}
	}
	return &SMTPMailer{addr: addr, user: user, pass: pass}
}

// Send delivers the message.  Headers follow RFC 822 with CRLF line
// endings; the body is sent as HTML.
func (m *SMTPMailer) Send(msg Message) error {
	host, _, err := net.SplitHostPort(m.addr)
	if err != nil {
		return fmt.Errorf("invalid SMTP_ADDR format (expected host:port): %w", err)
	}
	auth := smtp.PlainAuth("", m.user, m.pass, host)

	raw := []byte("From: " + m.user + "\r\n" +
		"To: " + msg.To + "\r\n" +
		"Subject: " + msg.Subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		msg.HTMLBody + "\r\n")

	if err := smtp.SendMail(m.addr, auth, m.user, []string{msg.To}, raw); err != nil {
		return fmt.Errorf("send mail via %s: %w", m.addr, err)
	}
	return nil
}

// logMailer writes the message to the application log instead of
// delivering it.  Used when no SMTP relay is configured.
type logMailer struct{}

func (logMailer) Send(msg Message) error {
	log.Printf("mailer: [dry-run] to=%s subject=%q", msg.To, msg.Subject)
	return nil
}
