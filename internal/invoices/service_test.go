package invoices

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gits-cloud/billing/internal/mail"
	"github.com/gits-cloud/billing/internal/masterdata"
	"github.com/gits-cloud/billing/internal/shared"
	"github.com/gits-cloud/billing/report"
)

type fakeRepo struct {
	invoices     map[int64]*Invoice
	nextID       int64
	conflictHits int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{invoices: make(map[int64]*Invoice)}
}

func (f *fakeRepo) CreateWithLines(ctx context.Context, inv *Invoice) error {
	if f.conflictHits > 0 {
		f.conflictHits--
		return shared.ErrConflict
	}
	for _, existing := range f.invoices {
		if existing.Number == inv.Number {
			return shared.ErrConflict
		}
	}
	f.nextID++
	inv.ID = f.nextID
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	for i := range inv.Lines {
		inv.Lines[i].ID = int64(i + 1)
		inv.Lines[i].InvoiceID = inv.ID
	}
	stored := *inv
	stored.Lines = append([]Line(nil), inv.Lines...)
	f.invoices[inv.ID] = &stored
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := *inv
	out.Lines = append([]Line(nil), inv.Lines...)
	out.TaxInvoicePaths = append([]string(nil), inv.TaxInvoicePaths...)
	return &out, nil
}

func (f *fakeRepo) GetByQuotationID(ctx context.Context, quotationID int64) (*Invoice, error) {
	for id, inv := range f.invoices {
		if inv.QuotationID == quotationID {
			return f.GetByID(ctx, id)
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range f.invoices {
		if filter.ClientID != 0 && inv.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id int64, from []Status, to Status, sentAt *time.Time) error {
	inv, ok := f.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	for _, s := range from {
		if inv.Status == s {
			inv.Status = to
			if sentAt != nil {
				inv.SentAt = sentAt
			}
			return nil
		}
	}
	return shared.InvalidStateError("invoice %d cannot move from %s to %s", id, inv.Status, to)
}

func (f *fakeRepo) AppendTaxInvoicePath(ctx context.Context, id int64, path string, from []Status) error {
	inv, ok := f.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	for _, s := range from {
		if inv.Status == s {
			inv.TaxInvoicePaths = append(inv.TaxInvoicePaths, path)
			inv.Status = StatusReadyToSend
			return nil
		}
	}
	return shared.InvalidStateError("invoice %d cannot accept uploads in %s", id, inv.Status)
}

func (f *fakeRepo) UpdatePdfPath(ctx context.Context, id int64, path string) error {
	inv, ok := f.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	inv.PdfPath = path
	return nil
}

type fakeClients struct {
	client *masterdata.Client
}

func (f *fakeClients) GetClient(ctx context.Context, id int64) (*masterdata.Client, error) {
	if f.client == nil || f.client.ID != id {
		return nil, shared.ErrNotFound
	}
	return f.client, nil
}

type fakeRenderer struct {
	dir  string
	fail bool
}

func (f *fakeRenderer) RenderInvoice(ctx context.Context, data report.DocumentData) (string, error) {
	if f.fail {
		return "", shared.ExternalError("render pdf", errors.New("gotenberg down"))
	}
	path := filepath.Join(f.dir, data.Number+".pdf")
	if err := os.WriteFile(path, []byte("%PDF fake "+data.Number), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg mail.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg-123", nil
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

type fixture struct {
	service  *Service
	repo     *fakeRepo
	sender   *fakeSender
	emailLog *fakeEmailLog
	renderer *fakeRenderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeRepo()
	sender := &fakeSender{}
	emailLog := &fakeEmailLog{}
	renderer := &fakeRenderer{dir: t.TempDir()}
	clients := &fakeClients{client: &masterdata.Client{
		ID:               10,
		Name:             "PT Maju Jaya",
		BillingEmail:     "billing@majujaya.co.id",
		PaymentTermsDays: 14,
	}}
	svc := NewService(repo, clients, renderer, sender, emailLog, t.TempDir(), nil)
	return &fixture{service: svc, repo: repo, sender: sender, emailLog: emailLog, renderer: renderer}
}

func derivation() DerivationInput {
	return DerivationInput{
		QuotationID:  5,
		ClientID:     10,
		PeriodStart:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:    time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		FxRate:       decimal.NewFromInt(16000),
		TaxRate:      decimal.RequireFromString("0.11"),
		SubtotalUsd:  decimal.RequireFromString("110.00"),
		SubtotalIdr:  1760000,
		TaxAmountIdr: 193600,
		TotalIdr:     1953600,
		Lines: []LineSnapshot{
			{SubscriptionID: 1, ProductName: "Fixed Tool", PricingType: masterdata.PricingFixed,
				QuantityTotal: decimal.NewFromInt(1), UnitPriceUsd: decimal.RequireFromString("100"),
				AmountUsd: decimal.RequireFromString("100.00"), AmountIdr: 1600000},
			{SubscriptionID: 2, ProductName: "Mgmt Fee", PricingType: masterdata.PricingPercentage,
				QuantityTotal: decimal.NewFromInt(1), UnitPriceUsd: decimal.RequireFromString("10"),
				AmountUsd: decimal.RequireFromString("10.00"), AmountIdr: 160000},
		},
	}
}

func TestCreateFromQuotationCopiesByValue(t *testing.T) {
	fx := newFixture(t)

	inv, err := fx.service.CreateFromQuotation(context.Background(), derivation())
	require.NoError(t, err)

	require.Regexp(t, `^INV-\d{8}-[0-9A-F]{4}$`, inv.Number)
	require.Equal(t, StatusReadyForTaxInvoice, inv.Status)
	require.Equal(t, int64(1953600), inv.TotalIdr)
	require.Len(t, inv.Lines, 2)
	require.Equal(t, "Fixed Tool", inv.Lines[0].ProductName)
	require.NotEmpty(t, inv.PdfPath)

	// Due date honors the client's payment terms.
	wantDue := time.Now().UTC().AddDate(0, 0, 14)
	require.WithinDuration(t, wantDue, inv.DueDate, time.Minute)
}

func TestGetByQuotationFindsDerivedInvoice(t *testing.T) {
	fx := newFixture(t)

	created, err := fx.service.CreateFromQuotation(context.Background(), derivation())
	require.NoError(t, err)

	found, err := fx.service.GetByQuotation(context.Background(), created.QuotationID)
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	_, err = fx.service.GetByQuotation(context.Background(), 777)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateFromQuotationRetriesNumberOnce(t *testing.T) {
	fx := newFixture(t)
	fx.repo.conflictHits = 1

	inv, err := fx.service.CreateFromQuotation(context.Background(), derivation())
	require.NoError(t, err)
	require.NotEmpty(t, inv.Number)
}

func TestCreateFromQuotationGivesUpAfterRetry(t *testing.T) {
	fx := newFixture(t)
	fx.repo.conflictHits = 2

	_, err := fx.service.CreateFromQuotation(context.Background(), derivation())
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateSurvivesPDFFailure(t *testing.T) {
	fx := newFixture(t)
	fx.renderer.fail = true

	inv, err := fx.service.CreateFromQuotation(context.Background(), derivation())
	require.NoError(t, err)
	require.Empty(t, inv.PdfPath)
}

func TestUploadTaxInvoiceFlipsStatus(t *testing.T) {
	fx := newFixture(t)
	inv, err := fx.service.CreateFromQuotation(context.Background(), derivation())
	require.NoError(t, err)

	updated, err := fx.service.UploadTaxInvoice(context.Background(), inv.ID, "faktur.pdf", []byte("%PDF faktur"))
	require.NoError(t, err)
	require.Equal(t, StatusReadyToSend, updated.Status)
	require.Len(t, updated.TaxInvoicePaths, 1)

	content, err := os.ReadFile(updated.TaxInvoicePaths[0])
	require.NoError(t, err)
	require.Equal(t, "%PDF faktur", string(content))
}

func TestSendBeforeTaxInvoiceRejected(t *testing.T) {
	fx := newFixture(t)
	inv, err := fx.service.CreateFromQuotation(context.Background(), derivation())
	require.NoError(t, err)

	_, err = fx.service.Send(context.Background(), inv.ID, SendInput{})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestSendAttachesPDFAndTaxInvoices(t *testing.T) {
	fx := newFixture(t)
	inv, err := fx.service.CreateFromQuotation(context.Background(), derivation())
	require.NoError(t, err)
	_, err = fx.service.UploadTaxInvoice(context.Background(), inv.ID, "faktur.pdf", []byte("%PDF faktur"))
	require.NoError(t, err)

	sent, err := fx.service.Send(context.Background(), inv.ID, SendInput{})
	require.NoError(t, err)
	require.Equal(t, StatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	require.Len(t, fx.sender.sent, 1)
	msg := fx.sender.sent[0]
	require.Equal(t, "billing@majujaya.co.id", msg.To)
	require.Len(t, msg.Attachments, 2)
	require.Equal(t, inv.Number+".pdf", msg.Attachments[0].Filename)

	require.Len(t, fx.emailLog.entries, 1)
	require.Equal(t, mail.LogStatusSent, fx.emailLog.entries[0].Status)
	require.Equal(t, "msg-123", fx.emailLog.entries[0].MessageID)
}

func TestSendFailureKeepsStatusAndLogs(t *testing.T) {
	fx := newFixture(t)
	inv, err := fx.service.CreateFromQuotation(context.Background(), derivation())
	require.NoError(t, err)
	_, err = fx.service.UploadTaxInvoice(context.Background(), inv.ID, "faktur.pdf", []byte("%PDF faktur"))
	require.NoError(t, err)

	fx.sender.err = shared.ExternalError("send email", errors.New("resend down"))
	_, err = fx.service.Send(context.Background(), inv.ID, SendInput{})
	require.ErrorIs(t, err, shared.ErrExternalService)

	current, err := fx.service.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusReadyToSend, current.Status)

	require.Len(t, fx.emailLog.entries, 1)
	require.Equal(t, mail.LogStatusFailed, fx.emailLog.entries[0].Status)
}

func TestResendAllowed(t *testing.T) {
	fx := newFixture(t)
	inv, err := fx.service.CreateFromQuotation(context.Background(), derivation())
	require.NoError(t, err)
	_, err = fx.service.UploadTaxInvoice(context.Background(), inv.ID, "faktur.pdf", []byte("%PDF faktur"))
	require.NoError(t, err)

	_, err = fx.service.Send(context.Background(), inv.ID, SendInput{})
	require.NoError(t, err)
	_, err = fx.service.Send(context.Background(), inv.ID, SendInput{Recipient: "finance@majujaya.co.id"})
	require.NoError(t, err)

	require.Len(t, fx.sender.sent, 2)
	require.Equal(t, "finance@majujaya.co.id", fx.sender.sent[1].To)
}
