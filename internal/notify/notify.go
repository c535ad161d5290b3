// Package notify delivers claimed-org credentials to a third party. The pool
// core only sees the Notifier interface; delivery transport is an external
// collaborator concern.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Credentials is what gets delivered for one claimed org.
type Credentials struct {
	Username       string
	Password       string
	LoginURL       string
	ExpirationDate string
}

// Notifier sends credentials to a recipient.
type Notifier interface {
	SendCredentials(ctx context.Context, to string, creds Credentials) error
}

// SMTPNotifier delivers over plain SMTP. Host, port and sender come from the
// environment; missing configuration disables delivery rather than failing
// the claim.
type SMTPNotifier struct {
	Addr string
	From string
	Log  zerolog.Logger
}

// FromEnv builds a notifier from SMTP_HOST, SMTP_PORT and SMTP_FROM.
// Returns nil when SMTP_HOST is unset.
func FromEnv(log zerolog.Logger) *SMTPNotifier {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "25"
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "orgpool@localhost"
	}
	return &SMTPNotifier{Addr: host + ":" + port, From: from, Log: log}
}

// SendCredentials mails the claimed org's login details.
func (n *SMTPNotifier) SendCredentials(ctx context.Context, to string, creds Credentials) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: Scratch org %s assigned to you\r\n\r\n", creds.Username)
	fmt.Fprintf(&b, "Username: %s\r\n", creds.Username)
	fmt.Fprintf(&b, "Password: %s\r\n", creds.Password)
	fmt.Fprintf(&b, "Login URL: %s\r\n", creds.LoginURL)
	if creds.ExpirationDate != "" {
		fmt.Fprintf(&b, "Expires: %s\r\n", creds.ExpirationDate)
	}

	if err := smtp.SendMail(n.Addr, nil, n.From, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("sending credentials to %s: %w", to, err)
	}
	n.Log.Info().Str("to", to).Str("org", creds.Username).Msg("credentials sent")
	return nil
}
