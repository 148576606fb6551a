package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

const plainFallback = "Your email client does not support HTML emails. Please view this message in a modern client."

// Options configures SMTP delivery.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// SSL forces an implicit TLS handshake on connect. Port 465 always gets
	// it; a cleartext dialog on that port can never reach a banner.
	SSL bool

	Logger zerolog.Logger
}

// Mailer sends the result summary over SMTP. A mailer without a host or
// sender is disabled; sending through it is a no-op error the caller logs.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	ssl      bool
	logger   zerolog.Logger
}

// New builds a Mailer; it never fails so the service can boot without SMTP
// configured and simply skip notifications.
func New(opts Options) *Mailer {
	return &Mailer{
		host:     strings.TrimSpace(opts.Host),
		port:     opts.Port,
		username: strings.TrimSpace(opts.Username),
		password: opts.Password,
		from:     strings.TrimSpace(opts.From),
		ssl:      opts.SSL || opts.Port == 465,
		logger:   opts.Logger,
	}
}

// Enabled reports whether delivery is configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.host != "" && m.from != ""
}

// Send delivers one HTML message.
func (m *Mailer) Send(ctx context.Context, to, subject, bodyHTML string) error {
	if !m.Enabled() {
		return errors.New("mailer: not configured")
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mailer: sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mailer: recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, plainFallback)
	msg.AddAlternativeString(mail.TypeTextHTML, bodyHTML)

	opts := []mail.Option{mail.WithPort(m.port)}
	if m.ssl {
		opts = append(opts, mail.WithSSL())
	}
	if m.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.username),
			mail.WithPassword(m.password),
		)
	}
	client, err := mail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("mailer: smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	m.logger.Info().Str("to", to).Msg("mailer: email sent")
	return nil
}
