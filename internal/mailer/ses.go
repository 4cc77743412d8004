package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
)

const charset = "UTF-8"

// SESMailer sends through Amazon SES. Credentials come from the default
// AWS provider chain.
type SESMailer struct {
	client sesiface.SESAPI
}

func NewSESMailer(region string) (*SESMailer, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return &SESMailer{client: ses.New(sess)}, nil
}

// NewSESMailerWithClient wraps an existing SES client.
func NewSESMailerWithClient(client sesiface.SESAPI) *SESMailer {
	return &SESMailer{client: client}
}

func (s *SESMailer) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	body := &ses.Body{Text: &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.Text)}}
	if msg.HTML != "" {
		body.Html = &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.HTML)}
	}
	input := &ses.SendEmailInput{
		Source:      aws.String(msg.From),
		Destination: &ses.Destination{ToAddresses: aws.StringSlice(msg.To)},
		Message: &ses.Message{
			Subject: &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.Subject)},
			Body:    body,
		},
	}
	if _, err := s.client.SendEmailWithContext(ctx, input); err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
