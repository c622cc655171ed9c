package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hibiken/asynq"

	"github.com/gits-cloud/billing/internal/mail"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending billing emails.
	TaskTypeSendEmail = "mail:send"
)

// SendEmailPayload describes the information required to send an email.
// Attachments are referenced by stored path and read at delivery time.
type SendEmailPayload struct {
	To              string   `json:"to"`
	Subject         string   `json:"subject"`
	HTML            string   `json:"html"`
	DocumentType    string   `json:"document_type"`
	DocumentID      int64    `json:"document_id"`
	AttachmentPaths []string `json:"attachment_paths,omitempty"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.Queue(QueueDefault)), nil
}

// NewSendEmailHandler builds the TaskTypeSendEmail handler. Delivery
// failures are returned so asynq retries them; every attempt lands in the
// email log.
func NewSendEmailHandler(sender mail.Sender, emailLog mail.LogRepository, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		msg := mail.Message{To: payload.To, Subject: payload.Subject, HTML: payload.HTML}
		for _, path := range payload.AttachmentPaths {
			content, err := os.ReadFile(path)
			if err != nil {
				logger.Error("read attachment", slog.String("path", path), slog.Any("error", err))
				return asynq.SkipRetry
			}
			msg.Attachments = append(msg.Attachments, mail.Attachment{Filename: filepath.Base(path), Content: content})
		}

		messageID, sendErr := sender.Send(ctx, msg)
		entry := mail.LogEntry{
			DocumentType: payload.DocumentType,
			DocumentID:   payload.DocumentID,
			Recipient:    msg.To,
			Subject:      msg.Subject,
			MessageID:    messageID,
			Status:       mail.LogStatusSent,
		}
		if sendErr != nil {
			entry.Status = mail.LogStatusFailed
			entry.ErrorDetail = sendErr.Error()
		}
		if emailLog != nil {
			if err := emailLog.Record(ctx, entry); err != nil {
				logger.Warn("record email log", slog.Any("error", err))
			}
		}
		return sendErr
	}
}
