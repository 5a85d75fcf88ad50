// Package notify emails the operator about new contact submissions.
// Delivery is best effort: the intake pipeline records the outcome but
// never fails a request over a lost email.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/ignite/contact-intake/internal/contact"
	"github.com/ignite/contact-intake/internal/pkg/logger"
)

// Message is one rendered notification ready for a transport.
type Message struct {
	From     string
	To       []string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers a rendered message over one transport.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
	Name() string
}

// Notifier renders submissions into operator email and hands them to a
// Sender. It satisfies the intake pipeline's notification hook.
type Notifier struct {
	sender    Sender
	templates *templateSet
	from      string
	to        []string
}

// NewNotifier builds a notifier mailing from the given address to the
// operator list.
func NewNotifier(sender Sender, from string, to []string) (*Notifier, error) {
	templates, err := newTemplateSet()
	if err != nil {
		return nil, fmt.Errorf("parsing notification templates: %w", err)
	}
	return &Notifier{sender: sender, templates: templates, from: from, to: to}, nil
}

// Notify renders and sends the notification for one submission. The
// submitter's address rides in Reply-To so the operator can answer
// without copying it out of the body.
func (n *Notifier) Notify(ctx context.Context, sub *contact.Submission) error {
	out, err := n.templates.render(sub)
	if err != nil {
		return fmt.Errorf("rendering notification: %w", err)
	}

	msg := &Message{
		From:     n.from,
		To:       n.to,
		ReplyTo:  sub.Email,
		Subject:  out.subject,
		TextBody: out.text,
		HTMLBody: out.html,
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	return nil
}

// redactAll redacts every address for log lines.
func redactAll(addrs []string) string {
	out := make([]string, len(addrs))
	for i, addr := range addrs {
		out[i] = logger.RedactEmail(addr)
	}
	return strings.Join(out, ", ")
}
