package mailer

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogMailer writes messages to the application log instead of sending
// them. Used in development.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"from":    msg.From,
		"to":      strings.Join(msg.To, ","),
		"subject": msg.Subject,
	}).Info("mail not sent (log backend)\n" + msg.Text)
	return nil
}
