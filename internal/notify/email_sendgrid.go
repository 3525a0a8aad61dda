package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/spec-kit/workorder-service/internal/config"
)

// EmailMessage is one rendered email, possibly for many recipients.
type EmailMessage struct {
	Subject string
	Body    string
	To      []Recipient
}

// EmailSender delivers email. Implementations batch all recipients of
// one message into a single provider call where supported.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type sendgridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendgridSender builds the production email channel.
func NewSendgridSender(cfg config.NotifyConfig) EmailSender {
	return &sendgridSender{
		client: sendgrid.NewSendClient(cfg.SendgridAPIKey),
		from:   mail.NewEmail(cfg.EmailFromName, cfg.EmailFrom),
	}
}

func (s *sendgridSender) Send(ctx context.Context, msg EmailMessage) error {
	if len(msg.To) == 0 {
		return nil
	}

	message := mail.NewV3Mail()
	message.SetFrom(s.from)
	message.Subject = msg.Subject
	message.AddContent(mail.NewContent("text/plain", msg.Body))

	// One personalization carrying every recipient: one API call per
	// rendered template.
	personalization := mail.NewPersonalization()
	for _, recipient := range msg.To {
		personalization.AddTos(mail.NewEmail(recipient.Name, recipient.Email))
	}
	message.AddPersonalizations(personalization)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d", resp.StatusCode)
	}
	return nil
}
