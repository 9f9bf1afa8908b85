package repository

import (
	"context"
	"crypto/tls"
	"fmt"

	gomail "gopkg.in/mail.v2"

	"github.com/reeeportnewsss/nww/internal/news/config"
	"github.com/reeeportnewsss/nww/pkg/logger"
)

// ReportSender delivers a finished report.
type ReportSender interface {
	Send(ctx context.Context, report Report) error
}

// Report is a plain-text document with a subject line and a file name, so every sender can
// use whichever it needs.
type Report struct {
	Subject  string
	FileName string
	Body     string
}

// mailDialer is the part of gomail.Dialer the sender uses.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailSender struct {
	cfg  config.Email
	log  *logger.Logger
	dial func(cfg config.Email) mailDialer
}

// NewEmailSender creates a ReportSender that mails reports over SMTP. Port 465 uses
// implicit TLS.
func NewEmailSender(cfg config.Email, log *logger.Logger) ReportSender {
	return &emailSender{
		cfg: cfg,
		log: log,
		dial: func(cfg config.Email) mailDialer {
			return newDialer(cfg)
		},
	}
}

func newDialer(cfg config.Email) *gomail.Dialer {
	dialer := gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.User, cfg.Password)
	dialer.Timeout = cfg.Timeout
	dialer.SSL = cfg.SMTPPort == 465
	dialer.TLSConfig = &tls.Config{ServerName: cfg.SMTPServer, MinVersion: tls.VersionTLS12}
	return dialer
}

func (s *emailSender) Send(ctx context.Context, report Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.To)
	m.SetHeader("Subject", report.Subject)
	m.SetBody("text/plain", report.Body)

	if err := s.dial(s.cfg).DialAndSend(m); err != nil {
		s.log.ErrorContext(ctx, "Failed to send email",
			logger.ErrorField(err),
			logger.StringField("to", s.cfg.To),
			logger.StringField("subject", report.Subject),
		)
		return fmt.Errorf("failed to send email to %s: %w", s.cfg.To, err)
	}

	s.log.InfoContext(ctx, "Email sent", logger.StringField("subject", report.Subject))
	return nil
}
