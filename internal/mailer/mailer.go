// Package mailer delivers transactional mail (welcome, password reset).
// Delivery failures never roll back the mutation that triggered them;
// callers log and carry on.
package mailer

import (
	"fmt"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Mailer is the narrow send contract the services depend on.
type Mailer interface {
	Send(to, subject, body string, isHTML bool) error
}

// Config carries SMTP settings read from the environment.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	DryRun   bool
	OutDir   string // dry-run output directory
}

// ConfigFromEnv builds a Config from SMTP_* variables. MAIL_DRY_RUN=true
// (or an unset SMTP_HOST) switches to file output.
func ConfigFromEnv() Config {
	cfg := Config{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
		DryRun:   os.Getenv("MAIL_DRY_RUN") == "true",
		OutDir:   os.Getenv("MAIL_OUT_DIR"),
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "mail-out"
	}
	if cfg.Host == "" {
		cfg.DryRun = true
	}
	return cfg
}

// New returns an SMTP mailer, or a file-writing mailer in dry-run mode.
func New(cfg Config) Mailer {
	if cfg.DryRun {
		return &dryRunMailer{dir: cfg.OutDir, from: cfg.From}
	}
	return &smtpMailer{cfg: cfg}
}

type smtpMailer struct {
	cfg Config
}

func (m *smtpMailer) Send(to, subject, body string, isHTML bool) error {
	msg := buildMessage(m.cfg.From, to, subject, body, isHTML)
	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// dryRunMailer writes each message to a local file instead of sending it.
type dryRunMailer struct {
	dir  string
	from string
}

func (m *dryRunMailer) Send(to, subject, body string, isHTML bool) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("%d_%s.eml", time.Now().UnixNano(), sanitize(to))
	msg := buildMessage(m.from, to, subject, body, isHTML)
	return os.WriteFile(filepath.Join(m.dir, name), msg, 0o644)
}

func buildMessage(from, to, subject, body string, isHTML bool) []byte {
	contentType := "text/plain; charset=UTF-8"
	if isHTML {
		contentType = "text/html; charset=UTF-8"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\nContent-Type: %s\r\n\r\n", contentType)
	b.WriteString(body)
	return []byte(b.String())
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
}
