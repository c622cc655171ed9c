package mail

import (
	"context"

	"github.com/resend/resend-go/v2"

	"github.com/gits-cloud/billing/internal/shared"
)

// ResendSender delivers messages through the Resend API. Without an API
// key the sender is disabled and every Send fails as an external service
// error, so a misconfigured environment surfaces loudly instead of
// silently dropping invoices.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender builds a sender. An empty apiKey yields a disabled sender.
func NewResendSender(apiKey, from string) *ResendSender {
	s := &ResendSender{from: from}
	if apiKey != "" {
		s.client = resend.NewClient(apiKey)
	}
	return s
}

// Send delivers msg and returns the Resend message id.
func (s *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	if s.client == nil {
		return "", shared.ValidationError("mail sending is not configured")
	}
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	for _, att := range msg.Attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Filename: att.Filename,
			Content:  att.Content,
		})
	}
	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", shared.ExternalError("send email", err)
	}
	return sent.Id, nil
}
