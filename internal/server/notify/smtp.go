package notify

import (
	"context"
	"errors"

	"gopkg.in/gomail.v2"
)

const fromName = "The credkeeper Team"

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier sends messages through an SMTP relay.
type SMTPNotifier struct {
	sender   mailSender
	from     string
	renderer *Renderer
}

func NewSMTPNotifier(host string, port int, username, password, from string, renderer *Renderer) *SMTPNotifier {
	return &SMTPNotifier{
		sender:   gomail.NewDialer(host, port, username, password),
		from:     from,
		renderer: renderer,
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("no recipient specified")
	}

	html, err := n.renderer.Render(ctx, msg)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	n.setEmailMessage(m, msg, html)

	if err := ctx.Err(); err != nil {
		return err
	}
	return n.sender.DialAndSend(m)
}

func (n *SMTPNotifier) setEmailMessage(m *gomail.Message, msg Message, html string) {
	m.SetAddressHeader("From", n.from, fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)

	if html != "" {
		m.SetBody("text/html", html)
		if msg.FallbackBody != "" {
			m.AddAlternative("text/plain", msg.FallbackBody)
		}
		return
	}
	m.SetBody("text/plain", msg.FallbackBody)
}
