package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent  []*gomail.Message
	err   error
	delay time.Duration
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	time.Sleep(f.delay)
	f.sent = append(f.sent, m...)
	return f.err
}

func newTestSender(d dialer) *SMTPSender {
	return &SMTPSender{
		cfg:    Config{Host: "smtp.example.com", Port: 587, SenderEmail: "noreply@example.com"},
		dialer: d,
		logger: logger.NewNop(),
	}
}

func TestNewSMTPSenderIncompleteConfig(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
	}{
		{name: "Missing Host", cfg: Config{Port: 587, SenderEmail: "sender@example.com"}},
		{name: "Missing Port", cfg: Config{Host: "smtp.example.com", SenderEmail: "sender@example.com"}},
		{name: "Missing SenderEmail", cfg: Config{Host: "smtp.example.com", Port: 587}},
		{name: "All Missing", cfg: Config{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSMTPSender(tc.cfg, logger.NewNop())
			assert.ErrorIs(t, err, ErrIncompleteConfig)
		})
	}
}

func TestNewSMTPSenderImplicitTLS(t *testing.T) {
	s, err := NewSMTPSender(Config{Host: "smtp.example.com", Port: 465, SenderEmail: "a@example.com"}, logger.NewNop())
	require.NoError(t, err)
	d, ok := s.dialer.(*gomail.Dialer)
	require.True(t, ok)
	assert.True(t, d.SSL)
	assert.Equal(t, "smtp.example.com", d.TLSConfig.ServerName)
}

func TestSendWelcome(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSender(d)

	require.NoError(t, s.SendWelcome(context.Background(), "ann@example.com", "Ann"))
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"ann@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"noreply@example.com"}, m.GetHeader("From"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Hi Ann")
}

func TestSendWelcomeDialError(t *testing.T) {
	s := newTestSender(&fakeDialer{err: errors.New("connection refused")})

	err := s.SendWelcome(context.Background(), "ann@example.com", "Ann")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSendWelcomeContextTimeout(t *testing.T) {
	s := newTestSender(&fakeDialer{delay: 200 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := s.SendWelcome(ctx, "ann@example.com", "Ann")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
