package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/docker-watchman/internal/config"
)

// Mailer delivers notifications over SMTP with optional STARTTLS and PLAIN
// auth. One SMTP conversation is performed per notification.
type Mailer struct {
	// cfg holds relay address, credentials and timeout.
	cfg *config.SMTP
}

// NewMailer creates a Mailer from the SMTP settings.
func NewMailer(cfg *config.SMTP) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send performs the SMTP conversation for one message. The configured
// timeout bounds the whole exchange via a connection deadline.
func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	dialer := net.Dialer{Timeout: m.cfg.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", addr, err)
	}

	if deadline := time.Now().Add(m.cfg.Timeout); m.cfg.Timeout > 0 {
		_ = conn.SetDeadline(deadline)
	}

	cl, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()

		return fmt.Errorf("smtp handshake: %w", err)
	}

	defer func() {
		_ = cl.Close()
	}()

	if m.cfg.StartTLS {
		if err = cl.StartTLS(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if m.cfg.User != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
		if err = cl.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err = cl.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}

	for _, rcpt := range m.cfg.To {
		if err = cl.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}

	wc, err := cl.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	if _, err = wc.Write(composeMessage(m.cfg.From, m.cfg.To, subject, body)); err != nil {
		_ = wc.Close()

		return fmt.Errorf("smtp write: %w", err)
	}

	if err = wc.Close(); err != nil {
		return fmt.Errorf("smtp finish: %w", err)
	}

	return cl.Quit()
}

// composeMessage renders a minimal RFC 5322 message.
func composeMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	return []byte(b.String())
}
