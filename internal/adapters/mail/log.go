package mail

import (
	"context"
	"log/slog"
	"sync"

	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
)

// Sent is a message accepted by the log mailer.
type Sent struct {
	To      string
	Subject string
}

type logSender struct {
	logger *slog.Logger
	mu     sync.Mutex
	sent   []Sent
}

// LogMailer writes a line per message instead of sending it. Bodies carry tokens and
// are never logged.
type LogMailer struct {
	portssvc.Mailer
	sender *logSender
}

// NewLogMailer creates a mailer for development setups without SMTP.
func NewLogMailer(logger *slog.Logger, links Links) *LogMailer {
	sender := &logSender{logger: logger}
	return &LogMailer{
		Mailer: &templateMailer{links: links, sender: sender},
		sender: sender,
	}
}

// Sent returns the messages accepted so far.
func (m *LogMailer) Sent() []Sent {
	m.sender.mu.Lock()
	defer m.sender.mu.Unlock()
	return append([]Sent(nil), m.sender.sent...)
}

func (s *logSender) send(ctx context.Context, to, subject, htmlBody string) error {
	s.mu.Lock()
	s.sent = append(s.sent, Sent{To: to, Subject: subject})
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Mail not delivered, no SMTP host configured", slog.String("to", to), slog.String("subject", subject))
	return nil
}
