// Package notify delivers account emails: verification links, email change
// confirmations, password reset links and welcome notes.
//
// Bodies are rendered from HTML templates looked up in a TemplateSource; when
// a template is missing the plain-text fallback carried by the Message is sent
// instead.
package notify

import (
	"context"

	"github.com/dmitrijs2005/credkeeper/internal/logging"
)

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	Template string
	Data     map[string]any
	// FallbackBody is sent as text/plain when Template cannot be found, and
	// as the plain alternative otherwise.
	FallbackBody string
}

// Notifier delivers a message.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier records messages in the log instead of sending them. It is used
// when no SMTP server is configured. Bodies are not logged since they carry
// confirmation links.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.Info(ctx, "email delivery disabled, message dropped",
		"template", msg.Template, "subject", msg.Subject)
	return nil
}
