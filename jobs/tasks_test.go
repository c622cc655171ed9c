package jobs

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/gits-cloud/billing/internal/invoices"
	"github.com/gits-cloud/billing/internal/mail"
	"github.com/gits-cloud/billing/internal/masterdata"
	"github.com/gits-cloud/billing/internal/quotations"
	"github.com/gits-cloud/billing/internal/shared"
	"github.com/gits-cloud/billing/internal/subscriptions"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg mail.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg-789", nil
}

type fakeEmailLog struct {
	entries []mail.LogEntry
}

func (f *fakeEmailLog) Record(ctx context.Context, entry mail.LogEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeEmailLog) ListForDocument(ctx context.Context, documentType string, documentID int64) ([]mail.LogEntry, error) {
	return f.entries, nil
}

func TestSendEmailHandlerDeliversWithAttachments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "INV-1.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF fake"), 0o644))

	sender := &fakeSender{}
	emailLog := &fakeEmailLog{}
	handler := NewSendEmailHandler(sender, emailLog, testLogger)

	task, err := NewSendEmailTask(SendEmailPayload{
		To:              "billing@majujaya.co.id",
		Subject:         "Invoice INV-1",
		HTML:            "<p>hello</p>",
		DocumentType:    "invoice",
		DocumentID:      1,
		AttachmentPaths: []string{path},
	})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	require.Len(t, sender.sent, 1)
	require.Len(t, sender.sent[0].Attachments, 1)
	require.Equal(t, "INV-1.pdf", sender.sent[0].Attachments[0].Filename)

	require.Len(t, emailLog.entries, 1)
	require.Equal(t, mail.LogStatusSent, emailLog.entries[0].Status)
}

func TestSendEmailHandlerFailureIsRetriedAndLogged(t *testing.T) {
	sender := &fakeSender{err: shared.ExternalError("send email", os.ErrDeadlineExceeded)}
	emailLog := &fakeEmailLog{}
	handler := NewSendEmailHandler(sender, emailLog, testLogger)

	task, err := NewSendEmailTask(SendEmailPayload{To: "x@y.z", Subject: "s"})
	require.NoError(t, err)

	err = handler(context.Background(), task)
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
	require.Len(t, emailLog.entries, 1)
	require.Equal(t, mail.LogStatusFailed, emailLog.entries[0].Status)
}

type fakeClientLister struct {
	clients []masterdata.Client
}

func (f *fakeClientLister) ListClients(ctx context.Context) ([]masterdata.Client, error) {
	return f.clients, nil
}

func (f *fakeClientLister) GetClient(ctx context.Context, id int64) (*masterdata.Client, error) {
	for i := range f.clients {
		if f.clients[i].ID == id {
			return &f.clients[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

type fakeSubLister struct {
	byClient map[int64][]subscriptions.Subscription
}

func (f *fakeSubLister) ListActiveOverlapping(ctx context.Context, clientID int64, periodStart, periodEnd time.Time) ([]subscriptions.Subscription, error) {
	return f.byClient[clientID], nil
}

type fakeCreator struct {
	inputs []quotations.CreateInput
}

func (f *fakeCreator) Create(ctx context.Context, input quotations.CreateInput) (*quotations.Quotation, error) {
	f.inputs = append(f.inputs, input)
	return &quotations.Quotation{ID: int64(len(f.inputs)), Status: quotations.StatusDraft}, nil
}

func TestGenerateQuotationsSkipsClientsWithoutSubscriptions(t *testing.T) {
	clients := &fakeClientLister{clients: []masterdata.Client{{ID: 1}, {ID: 2}}}
	subs := &fakeSubLister{byClient: map[int64][]subscriptions.Subscription{
		1: {{ID: 100, ClientID: 1}},
	}}
	creator := &fakeCreator{}
	handler := NewGenerateQuotationsHandler(clients, subs, creator, testLogger)

	task, err := NewGenerateQuotationsTask(time.Date(2025, 2, 1, 2, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))

	require.Len(t, creator.inputs, 1)
	require.Equal(t, int64(1), creator.inputs[0].ClientID)
	// The run on Feb 1 bills January.
	require.Equal(t, "2025-01-01", creator.inputs[0].PeriodStart)
	require.Equal(t, "2025-01-31", creator.inputs[0].PeriodEnd)
}

type fakeInvoiceLister struct {
	invoices []invoices.Invoice
}

func (f *fakeInvoiceLister) List(ctx context.Context, filter invoices.ListFilter) ([]invoices.Invoice, error) {
	var out []invoices.Invoice
	for _, inv := range f.invoices {
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

type fakeEnqueuer struct {
	payloads []SendEmailPayload
}

func (f *fakeEnqueuer) EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error) {
	f.payloads = append(f.payloads, payload)
	return &asynq.TaskInfo{}, nil
}

func TestOverdueRemindersOnlyPastDueSentInvoices(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	clients := &fakeClientLister{clients: []masterdata.Client{{ID: 10, Name: "PT Maju Jaya", BillingEmail: "billing@majujaya.co.id"}}}
	lister := &fakeInvoiceLister{invoices: []invoices.Invoice{
		{ID: 1, Number: "INV-A", ClientID: 10, Status: invoices.StatusSent, DueDate: now.AddDate(0, 0, -5), TotalIdr: 1953600},
		{ID: 2, Number: "INV-B", ClientID: 10, Status: invoices.StatusSent, DueDate: now.AddDate(0, 0, 5)},
		{ID: 3, Number: "INV-C", ClientID: 10, Status: invoices.StatusReadyToSend, DueDate: now.AddDate(0, 0, -5)},
	}}
	enqueuer := &fakeEnqueuer{}
	handler := NewOverdueRemindersHandler(lister, clients, enqueuer, testLogger)

	task, err := NewOverdueRemindersTask(now)
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))

	require.Len(t, enqueuer.payloads, 1)
	require.Equal(t, int64(1), enqueuer.payloads[0].DocumentID)
	require.Contains(t, enqueuer.payloads[0].Subject, "INV-A")
	require.Contains(t, enqueuer.payloads[0].HTML, "Rp 1.953.600")
}
