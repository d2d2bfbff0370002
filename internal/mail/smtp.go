// Package mail sends research digests over SMTP with optional STARTTLS.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

var (
	// ErrNoRecipient is returned when neither the message nor the config
	// names a recipient.
	ErrNoRecipient = errors.New("No recipient email specified. Please set SMTP_TO_EMAIL in config or provide to_email.")
)

// ConfigError lists missing required SMTP settings.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Missing required email configuration: %s. Please check your .env file.", strings.Join(e.Missing, ", "))
}

// AuthError is returned when the server rejects the credentials.
type AuthError struct{ Err error }

func (e *AuthError) Error() string { return e.Err.Error() }
func (e *AuthError) Unwrap() error { return e.Err }

// ConnectError is returned when the server cannot be reached.
type ConnectError struct{ Err error }

func (e *ConnectError) Error() string { return e.Err.Error() }
func (e *ConnectError) Unwrap() error { return e.Err }

// ProtocolError wraps any other SMTP failure.
type ProtocolError struct{ Err error }

func (e *ProtocolError) Error() string { return e.Err.Error() }
func (e *ProtocolError) Unwrap() error { return e.Err }

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	UseTLS   bool
	Timeout  time.Duration
}

// Message is one outbound email.
type Message struct {
	Subject string
	Body    string
	// To overrides the configured recipient.
	To   string
	HTML bool
}

// Sender delivers messages and returns the recipient used.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Client is an SMTP Sender.
type Client struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewClient creates an SMTP client. Validation happens on Send so that a
// missing configuration surfaces as a tool observation, not a startup error.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Client{cfg: cfg, logger: logger.Named("mail"), now: time.Now}
}

// Validate checks the required settings.
func (c *Client) Validate() error {
	var missing []string
	if c.cfg.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if c.cfg.Username == "" {
		missing = append(missing, "SMTP_USERNAME")
	}
	if c.cfg.Password == "" {
		missing = append(missing, "SMTP_PASSWORD")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// Send delivers msg and returns the recipient address.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	to := msg.To
	if to == "" {
		to = c.cfg.To
	}
	if to == "" {
		return "", ErrNoRecipient
	}

	data := c.build(msg, to)
	if err := c.deliver(ctx, to, data); err != nil {
		c.logger.Warn("email delivery failed", zap.String("to", to), zap.Error(err))
		return "", err
	}
	c.logger.Info("email sent", zap.String("to", to), zap.String("subject", msg.Subject))
	return to, nil
}

func (c *Client) deliver(ctx context.Context, to string, data []byte) error {
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	dialer := &net.Dialer{Timeout: c.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &ConnectError{Err: err}
	}
	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, c.cfg.Host)
	if err != nil {
		conn.Close()
		return &ConnectError{Err: err}
	}
	defer client.Close()

	if c.cfg.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return &ProtocolError{Err: errors.New("server does not support STARTTLS")}
		}
		if err := client.StartTLS(&tls.Config{ServerName: c.cfg.Host}); err != nil {
			return &ProtocolError{Err: err}
		}
	}

	if c.cfg.Username != "" && c.cfg.Password != "" {
		if err := client.Auth(smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)); err != nil {
			return &AuthError{Err: err}
		}
	}

	if err := client.Mail(c.cfg.From); err != nil {
		return &ProtocolError{Err: err}
	}
	if err := client.Rcpt(to); err != nil {
		return &ProtocolError{Err: err}
	}
	w, err := client.Data()
	if err != nil {
		return &ProtocolError{Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return &ProtocolError{Err: err}
	}
	if err := w.Close(); err != nil {
		return &ProtocolError{Err: err}
	}
	return client.Quit()
}

func (c *Client) build(msg Message, to string) []byte {
	subtype := "plain"
	if msg.HTML {
		subtype = "html"
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", c.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", c.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: text/%s; charset=\"utf-8\"\r\n", subtype)
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n"))
	return b.Bytes()
}

// Describe turns a Send error into the observation text shown to the model.
func Describe(err error) string {
	var cfgErr *ConfigError
	var authErr *AuthError
	var connErr *ConnectError
	var protoErr *ProtocolError
	switch {
	case errors.As(err, &cfgErr), errors.Is(err, ErrNoRecipient):
		return "Configuration error: " + err.Error()
	case errors.As(err, &authErr):
		return fmt.Sprintf("Email authentication failed: %s. Please check SMTP credentials.", authErr.Err)
	case errors.As(err, &connErr):
		return fmt.Sprintf("Failed to connect to SMTP server: %s. Please check SMTP_HOST and SMTP_PORT.", connErr.Err)
	case errors.As(err, &protoErr):
		return "SMTP error occurred: " + protoErr.Err.Error()
	default:
		return "Error sending email: " + err.Error()
	}
}
