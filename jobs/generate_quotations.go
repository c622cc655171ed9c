package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gits-cloud/billing/internal/masterdata"
	"github.com/gits-cloud/billing/internal/quotations"
	"github.com/gits-cloud/billing/internal/shared"
	"github.com/gits-cloud/billing/internal/subscriptions"
)

const (
	// TaskTypeGenerateQuotations creates draft quotations for the previous
	// month, scheduled on the first of each month.
	TaskTypeGenerateQuotations = "billing:generate-quotations"

	// CronGenerateQuotations fires at 02:00 UTC on the 1st.
	CronGenerateQuotations = "0 2 1 * *"
)

// GenerateQuotationsPayload carries scheduling metadata.
type GenerateQuotationsPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewGenerateQuotationsTask constructs the monthly generation task.
func NewGenerateQuotationsTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(GenerateQuotationsPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeGenerateQuotations, body, asynq.Queue(QueueDefault)), nil
}

// ClientLister enumerates billing clients.
type ClientLister interface {
	ListClients(ctx context.Context) ([]masterdata.Client, error)
}

// SubscriptionLister checks which clients have billable subscriptions.
type SubscriptionLister interface {
	ListActiveOverlapping(ctx context.Context, clientID int64, periodStart, periodEnd time.Time) ([]subscriptions.Subscription, error)
}

// QuotationCreator generates a draft quotation.
type QuotationCreator interface {
	Create(ctx context.Context, input quotations.CreateInput) (*quotations.Quotation, error)
}

// NewGenerateQuotationsHandler builds the monthly generation handler. It
// creates one DRAFT quotation per client that had active subscriptions in
// the previous calendar month; drafts are reviewed before sending. A
// failure for one client is logged and does not stop the run.
func NewGenerateQuotationsHandler(clients ClientLister, subs SubscriptionLister, creator QuotationCreator, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload GenerateQuotationsPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		at := payload.ScheduledFor
		if at.IsZero() {
			at = time.Now().UTC()
		}
		period := shared.MonthOf(at.AddDate(0, -1, 0))

		all, err := clients.ListClients(ctx)
		if err != nil {
			return err
		}
		var generated, failed int
		for _, client := range all {
			active, err := subs.ListActiveOverlapping(ctx, client.ID, period.Start, period.End)
			if err != nil {
				logger.Error("list subscriptions", slog.Int64("client_id", client.ID), slog.Any("error", err))
				failed++
				continue
			}
			if len(active) == 0 {
				continue
			}
			_, err = creator.Create(ctx, quotations.CreateInput{
				ClientID:    client.ID,
				PeriodStart: period.Start.Format("2006-01-02"),
				PeriodEnd:   period.End.Format("2006-01-02"),
			})
			if err != nil {
				logger.Error("generate quotation", slog.Int64("client_id", client.ID), slog.Any("error", err))
				failed++
				continue
			}
			generated++
		}
		logger.Info("monthly quotation generation finished",
			slog.String("period", period.Label()),
			slog.Int("generated", generated),
			slog.Int("failed", failed))
		return nil
	}
}
