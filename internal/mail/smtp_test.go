package mail

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

func TestValidate_MissingFields(t *testing.T) {
	c := NewClient(Config{Host: "smtp.example.com"}, nil)
	err := c.Validate()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
	want := "Missing required email configuration: SMTP_USERNAME, SMTP_PASSWORD. Please check your .env file."
	if err.Error() != want {
		t.Errorf("Error() = %q\nwant %q", err.Error(), want)
	}
}

func TestSend_NoRecipient(t *testing.T) {
	c := NewClient(Config{Host: "h", Username: "u", Password: "p"}, nil)
	_, err := c.Send(context.Background(), Message{Subject: "s", Body: "b"})
	if !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("err = %v, want ErrNoRecipient", err)
	}
	if got := Describe(err); !strings.HasPrefix(got, "Configuration error: No recipient email specified.") {
		t.Errorf("Describe = %q", got)
	}
}

func TestSend_ConnectFailure(t *testing.T) {
	// Reserve a port and close it so the dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	c := NewClient(Config{
		Host: "127.0.0.1", Port: port, Username: "u", Password: "p", To: "me@example.com",
		Timeout: time.Second,
	}, nil)
	_, err = c.Send(context.Background(), Message{Subject: "s", Body: "b"})
	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("err = %v, want *ConnectError", err)
	}
	if got := Describe(err); !strings.HasPrefix(got, "Failed to connect to SMTP server:") ||
		!strings.HasSuffix(got, "Please check SMTP_HOST and SMTP_PORT.") {
		t.Errorf("Describe = %q", got)
	}
}

func TestBuild_Headers(t *testing.T) {
	c := NewClient(Config{Username: "bot@example.com"}, nil)
	c.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	raw := string(c.build(Message{Subject: "AI Research Digest - January 02, 2025", Body: "line1\nline2", HTML: true}, "me@example.com"))

	for _, want := range []string{
		"From: bot@example.com\r\n",
		"To: me@example.com\r\n",
		"Subject: AI Research Digest - January 02, 2025\r\n",
		"Content-Type: text/html; charset=\"utf-8\"\r\n",
		"Date: Thu, 02 Jan 2025 03:04:05 +0000\r\n",
		"\r\n\r\nline1\r\nline2",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&AuthError{Err: errors.New("535 bad creds")}, "Email authentication failed: 535 bad creds. Please check SMTP credentials."},
		{&ProtocolError{Err: errors.New("550 rejected")}, "SMTP error occurred: 550 rejected"},
		{errors.New("boom"), "Error sending email: boom"},
	}
	for _, tt := range tests {
		if got := Describe(tt.err); got != tt.want {
			t.Errorf("Describe(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
