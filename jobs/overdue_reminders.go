package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gits-cloud/billing/internal/invoices"
	"github.com/gits-cloud/billing/internal/masterdata"
	"github.com/gits-cloud/billing/internal/money"
	"github.com/gits-cloud/billing/internal/shared"
)

const (
	// TaskTypeOverdueReminders emails clients about sent invoices past
	// their due date, scheduled daily.
	TaskTypeOverdueReminders = "billing:overdue-reminders"

	// CronOverdueReminders fires at 08:00 UTC every day.
	CronOverdueReminders = "0 8 * * *"
)

// OverdueRemindersPayload carries scheduling metadata.
type OverdueRemindersPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewOverdueRemindersTask constructs the daily reminder task.
func NewOverdueRemindersTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(OverdueRemindersPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeOverdueReminders, body, asynq.Queue(QueueDefault)), nil
}

// InvoiceLister enumerates invoices by status.
type InvoiceLister interface {
	List(ctx context.Context, filter invoices.ListFilter) ([]invoices.Invoice, error)
}

// ClientGetter resolves a client by id.
type ClientGetter interface {
	GetClient(ctx context.Context, id int64) (*masterdata.Client, error)
}

// EmailEnqueuer hands a reminder off to the mail queue.
type EmailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// NewOverdueRemindersHandler builds the daily reminder handler. Reminders
// go through the mail:send queue so a provider outage retries per message
// instead of failing the whole scan.
func NewOverdueRemindersHandler(lister InvoiceLister, clients ClientGetter, enqueuer EmailEnqueuer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload OverdueRemindersPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		now := payload.ScheduledFor
		if now.IsZero() {
			now = time.Now().UTC()
		}

		sent, err := lister.List(ctx, invoices.ListFilter{Status: invoices.StatusSent})
		if err != nil {
			return err
		}
		var enqueued int
		for _, inv := range sent {
			if !inv.DueDate.Before(now) {
				continue
			}
			client, err := clients.GetClient(ctx, inv.ClientID)
			if err != nil {
				logger.Error("get client", slog.Int64("client_id", inv.ClientID), slog.Any("error", err))
				continue
			}
			period := shared.Period{Start: inv.PeriodStart, End: inv.PeriodEnd}
			reminder := SendEmailPayload{
				To:           client.BillingEmail,
				Subject:      fmt.Sprintf("Payment reminder: invoice %s is overdue", inv.Number),
				HTML:         overdueBody(client.Name, inv.Number, period.Label(), inv.TotalIdr, inv.DueDate),
				DocumentType: "invoice",
				DocumentID:   inv.ID,
			}
			if _, err := enqueuer.EnqueueSendEmail(ctx, reminder); err != nil {
				logger.Error("enqueue reminder", slog.String("number", inv.Number), slog.Any("error", err))
				continue
			}
			enqueued++
		}
		logger.Info("overdue invoice scan finished", slog.Int("reminders", enqueued))
		return nil
	}
}

func overdueBody(clientName, number, periodLabel string, totalIdr int64, dueDate time.Time) string {
	return fmt.Sprintf("<p>Dear %s,</p><p>Invoice <strong>%s</strong> for %s (%s) was due on %s and remains unpaid. Please arrange payment at your earliest convenience.</p>",
		clientName, number, periodLabel, money.FormatIDR(totalIdr), dueDate.Format("2006-01-02"))
}
