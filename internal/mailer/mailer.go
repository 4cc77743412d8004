// Package mailer delivers transactional email: verification codes,
// password-reset codes and contact-form relays.
package mailer

import (
	"context"
	"errors"
	"strings"
)

// Message is one outbound email with a plain-text body and an HTML
// alternative.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends a message or reports why it could not.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var errNoRecipients = errors.New("message has no recipients")

func validate(msg Message) error {
	if len(msg.To) == 0 {
		return errNoRecipients
	}
	for _, to := range msg.To {
		if strings.TrimSpace(to) == "" {
			return errNoRecipients
		}
	}
	return nil
}
