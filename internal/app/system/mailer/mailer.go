// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Email is one outgoing message. TextBody is required; HTMLBody is optional
// and, when set, is sent as the alternative part of a multipart message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
	ReplyTo  string
	FromName string // overrides Config.FromName for this message
}

// Sender delivers a single email.
type Sender interface {
	Send(e Email) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
	Timeout  time.Duration
}

// Mailer sends email over SMTP, upgrading with STARTTLS when the server
// offers it and authenticating with PLAIN when a user is configured.
type Mailer struct {
	cfg Config
	log *zap.Logger
}

var ErrNoRecipient = errors.New("mailer: missing recipient")

func New(cfg Config, logger *zap.Logger) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Mailer{cfg: cfg, log: logger}
}

// Send delivers e synchronously.
func (m *Mailer) Send(e Email) error {
	to, err := mail.ParseAddress(e.To)
	if err != nil || e.To == "" {
		return ErrNoRecipient
	}
	msg, err := m.compose(e, to)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	conn, err := net.DialTimeout("tcp", addr, m.cfg.Timeout)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Now().Add(m.cfg.Timeout))

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if m.cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(m.fromAddress()); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := c.Rcpt(to.Address); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return c.Quit()
}

func (m *Mailer) fromAddress() string {
	if m.cfg.From != "" {
		return m.cfg.From
	}
	return m.cfg.User
}

func (m *Mailer) compose(e Email, to *mail.Address) ([]byte, error) {
	name := e.FromName
	if name == "" {
		name = m.cfg.FromName
	}
	from := mail.Address{Name: name, Address: m.fromAddress()}

	var buf bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }
	header("From", from.String())
	header("To", to.String())
	if e.ReplyTo != "" {
		header("Reply-To", e.ReplyTo)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", e.Subject))
	header("Date", time.Now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")

	if e.HTMLBody == "" {
		header("Content-Type", `text/plain; charset="utf-8"`)
		header("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQP(&buf, e.TextBody); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	boundary := randomBoundary()
	header("Content-Type", `multipart/alternative; boundary="`+boundary+`"`)
	buf.WriteString("\r\n")
	for _, part := range []struct{ ctype, body string }{
		{"text/plain", e.TextBody},
		{"text/html", e.HTMLBody},
	} {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s; charset=\"utf-8\"\r\n", part.ctype)
		buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		if err := writeQP(&buf, part.body); err != nil {
			return nil, err
		}
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes(), nil
}

func writeQP(buf *bytes.Buffer, s string) error {
	w := quotedprintable.NewWriter(buf)
	if _, err := w.Write([]byte(strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n"))); err != nil {
		return err
	}
	return w.Close()
}

func randomBoundary() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return "standup-" + hex.EncodeToString(b[:])
}

// LogSender is used when mail is disabled: it logs each message and
// reports success.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(e Email) error {
	s.Log.Info("mail disabled; not sending",
		zap.String("to", e.To),
		zap.String("subject", e.Subject))
	return nil
}
