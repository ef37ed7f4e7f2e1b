package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Config of the outgoing SMTP relay.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	SenderEmail string
}

// ErrIncompleteConfig is returned when the relay cannot be used.
var ErrIncompleteConfig = errors.New("SMTP configuration is incomplete")

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends transactional mail through gomail.
type SMTPSender struct {
	cfg    Config
	dialer dialer
	logger *logger.Logger
}

func NewSMTPSender(cfg Config, log *logger.Logger) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.SenderEmail == "" {
		return nil, ErrIncompleteConfig
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	if cfg.Port == 465 {
		d.SSL = true
	}
	return &SMTPSender{cfg: cfg, dialer: d, logger: log.Named("SMTPSender")}, nil
}

func (s *SMTPSender) welcomeMessage(to, firstName string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.SenderEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Welcome to the drink collection")
	m.SetBody("text/plain", fmt.Sprintf("Hi %s,\n\nyour account %s is ready. Start adding drinks and reviewing the ones you tried.\n", firstName, to))
	return m
}

// SendWelcome mails a new user. ctx bounds how long the caller waits, the
// dial itself runs to completion in the background.
func (s *SMTPSender) SendWelcome(ctx context.Context, to, firstName string) error {
	m := s.welcomeMessage(to, firstName)

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case <-ctx.Done():
		s.logger.Warn("Welcome email cancelled", zap.String("to", to), zap.Error(ctx.Err()))
		return fmt.Errorf("email sending cancelled or timed out: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			s.logger.Error("Failed to send welcome email", zap.String("to", to), zap.Error(err))
			return fmt.Errorf("failed to send email: %w", err)
		}
	}
	s.logger.Info("Welcome email sent", zap.String("to", to))
	return nil
}
