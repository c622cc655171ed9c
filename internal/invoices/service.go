package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gits-cloud/billing/internal/mail"
	"github.com/gits-cloud/billing/internal/masterdata"
	"github.com/gits-cloud/billing/internal/shared"
	"github.com/gits-cloud/billing/report"
)

const defaultPaymentTermsDays = 30

// ClientSource resolves the client an invoice is billed to.
type ClientSource interface {
	GetClient(ctx context.Context, id int64) (*masterdata.Client, error)
}

// Renderer produces the stored invoice PDF.
type Renderer interface {
	RenderInvoice(ctx context.Context, data report.DocumentData) (string, error)
}

// Service handles invoice derivation, tax invoice uploads and delivery.
type Service struct {
	repo       Repository
	clients    ClientSource
	renderer   Renderer
	sender     mail.Sender
	emailLog   mail.LogRepository
	storageDir string
	logger     *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, clients ClientSource, renderer Renderer, sender mail.Sender, emailLog mail.LogRepository, storageDir string, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		clients:    clients,
		renderer:   renderer,
		sender:     sender,
		emailLog:   emailLog,
		storageDir: storageDir,
		logger:     logger,
	}
}

// CreateFromQuotation derives an invoice from an accepted quotation. Every
// amount is copied by value; nothing is recomputed from live subscription or
// FX data. The number is retried once on collision before giving up.
func (s *Service) CreateFromQuotation(ctx context.Context, input DerivationInput) (*Invoice, error) {
	client, err := s.clients.GetClient(ctx, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("get client %d: %w", input.ClientID, err)
	}
	termsDays := client.PaymentTermsDays
	if termsDays <= 0 {
		termsDays = defaultPaymentTermsDays
	}

	now := time.Now().UTC()
	inv := &Invoice{
		QuotationID:  input.QuotationID,
		ClientID:     input.ClientID,
		PeriodStart:  input.PeriodStart,
		PeriodEnd:    input.PeriodEnd,
		Status:       StatusReadyForTaxInvoice,
		FxRate:       input.FxRate,
		TaxRate:      input.TaxRate,
		SubtotalUsd:  input.SubtotalUsd,
		SubtotalIdr:  input.SubtotalIdr,
		TaxAmountIdr: input.TaxAmountIdr,
		TotalIdr:     input.TotalIdr,
		DueDate:      now.AddDate(0, 0, termsDays),
	}
	for _, snap := range input.Lines {
		inv.Lines = append(inv.Lines, Line{
			SubscriptionID: snap.SubscriptionID,
			ProductName:    snap.ProductName,
			PricingType:    snap.PricingType,
			QuantityTotal:  snap.QuantityTotal,
			UnitPriceUsd:   snap.UnitPriceUsd,
			AmountUsd:      snap.AmountUsd,
			AmountIdr:      snap.AmountIdr,
		})
	}

	for attempt := 0; ; attempt++ {
		inv.Number = shared.DocumentNumber("INV", now)
		err = s.repo.CreateWithLines(ctx, inv)
		if err == nil {
			break
		}
		if errors.Is(err, shared.ErrConflict) && attempt == 0 {
			continue
		}
		return nil, err
	}

	// PDF rendering happens after the commit. A render failure leaves the
	// path empty; the document can be regenerated at send time.
	if path, err := s.renderPDF(ctx, inv, client); err != nil {
		if s.logger != nil {
			s.logger.Warn("render invoice pdf", slog.String("number", inv.Number), slog.Any("error", err))
		}
	} else {
		inv.PdfPath = path
		if err := s.repo.UpdatePdfPath(ctx, inv.ID, path); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// Get returns an invoice with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByQuotation returns the invoice derived from a quotation, or
// ErrNotFound when no derivation has happened yet.
func (s *Service) GetByQuotation(ctx context.Context, quotationID int64) (*Invoice, error) {
	return s.repo.GetByQuotationID(ctx, quotationID)
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	return s.repo.List(ctx, filter)
}

// UploadTaxInvoice stores a faktur pajak file and moves the invoice to
// READY_TO_SEND. Additional files may be uploaded while still unsent.
func (s *Service) UploadTaxInvoice(ctx context.Context, id int64, filename string, content []byte) (*Invoice, error) {
	if filename == "" || len(content) == 0 {
		return nil, shared.ValidationError("tax invoice file is required")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.storageDir, "tax-invoices")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	// The uuid prefix keeps client-supplied filenames from colliding.
	stored := filepath.Join(dir, uuid.NewString()+"-"+filepath.Base(filename))
	if err := os.WriteFile(stored, content, 0o644); err != nil {
		return nil, fmt.Errorf("store tax invoice: %w", err)
	}

	err := s.repo.AppendTaxInvoicePath(ctx, id, stored, []Status{StatusReadyForTaxInvoice, StatusReadyToSend})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Send emails the invoice PDF plus every uploaded tax invoice file to the
// client and marks the invoice SENT. Re-sending an already SENT invoice is
// allowed.
func (s *Service) Send(ctx context.Context, id int64, input SendInput) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusReadyToSend && inv.Status != StatusSent {
		return nil, shared.InvalidStateError("invoice %s is %s, not ready to send", inv.Number, inv.Status)
	}
	client, err := s.clients.GetClient(ctx, inv.ClientID)
	if err != nil {
		return nil, fmt.Errorf("get client %d: %w", inv.ClientID, err)
	}

	if inv.PdfPath == "" {
		path, err := s.renderPDF(ctx, inv, client)
		if err != nil {
			return nil, err
		}
		inv.PdfPath = path
		if err := s.repo.UpdatePdfPath(ctx, inv.ID, path); err != nil {
			return nil, err
		}
	}

	msg, err := s.composeMessage(inv, client, input)
	if err != nil {
		return nil, err
	}

	messageID, sendErr := s.sender.Send(ctx, msg)
	s.recordEmail(ctx, inv, msg, messageID, sendErr)
	if sendErr != nil {
		return nil, sendErr
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, inv.ID, []Status{StatusReadyToSend, StatusSent}, StatusSent, &now); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) composeMessage(inv *Invoice, client *masterdata.Client, input SendInput) (mail.Message, error) {
	period := shared.Period{Start: inv.PeriodStart, End: inv.PeriodEnd}
	subject, html, err := mail.BuildInvoiceEmail(mail.DocumentEmailData{
		ClientName:  client.Name,
		Number:      inv.Number,
		PeriodLabel: period.Label(),
		SubtotalIdr: inv.SubtotalIdr,
		TaxIdr:      inv.TaxAmountIdr,
		TotalIdr:    inv.TotalIdr,
		DueDate:     inv.DueDate.Format("2006-01-02"),
	})
	if err != nil {
		return mail.Message{}, err
	}
	msg := mail.Message{To: client.BillingEmail, Subject: subject, HTML: html}
	if input.Recipient != "" {
		msg.To = input.Recipient
	}
	if input.Subject != "" {
		msg.Subject = input.Subject
	}
	if input.Body != "" {
		msg.HTML = input.Body
	}

	pdf, err := os.ReadFile(inv.PdfPath)
	if err != nil {
		return mail.Message{}, fmt.Errorf("read invoice pdf: %w", err)
	}
	msg.Attachments = append(msg.Attachments, mail.Attachment{Filename: inv.Number + ".pdf", Content: pdf})
	for _, path := range inv.TaxInvoicePaths {
		content, err := os.ReadFile(path)
		if err != nil {
			return mail.Message{}, fmt.Errorf("read tax invoice: %w", err)
		}
		msg.Attachments = append(msg.Attachments, mail.Attachment{Filename: filepath.Base(path), Content: content})
	}
	return msg, nil
}

func (s *Service) recordEmail(ctx context.Context, inv *Invoice, msg mail.Message, messageID string, sendErr error) {
	if s.emailLog == nil {
		return
	}
	entry := mail.LogEntry{
		DocumentType: "invoice",
		DocumentID:   inv.ID,
		Recipient:    msg.To,
		Subject:      msg.Subject,
		MessageID:    messageID,
		Status:       mail.LogStatusSent,
	}
	if sendErr != nil {
		entry.Status = mail.LogStatusFailed
		entry.ErrorDetail = sendErr.Error()
	}
	if err := s.emailLog.Record(ctx, entry); err != nil && s.logger != nil {
		s.logger.Warn("record email log", slog.Any("error", err))
	}
}

func (s *Service) renderPDF(ctx context.Context, inv *Invoice, client *masterdata.Client) (string, error) {
	period := shared.Period{Start: inv.PeriodStart, End: inv.PeriodEnd}
	data := report.DocumentData{
		Number:        inv.Number,
		IssuedAt:      inv.CreatedAt.Format("2006-01-02"),
		DueDate:       inv.DueDate.Format("2006-01-02"),
		ClientName:    client.Name,
		ClientAddress: client.Address,
		ClientNPWP:    client.NPWP,
		PeriodLabel:   period.Label(),
		FxRate:        inv.FxRate.String(),
		TaxLabel:      inv.TaxRate.Mul(decimal.NewFromInt(100)).String() + "%",
		SubtotalUsd:   inv.SubtotalUsd.StringFixed(2),
		SubtotalIdr:   inv.SubtotalIdr,
		TaxIdr:        inv.TaxAmountIdr,
		TotalIdr:      inv.TotalIdr,
	}
	for _, line := range inv.Lines {
		data.Lines = append(data.Lines, report.DocumentLine{
			ProductName:   line.ProductName,
			PricingType:   string(line.PricingType),
			QuantityTotal: line.QuantityTotal.String(),
			AmountUsd:     line.AmountUsd.StringFixed(2),
			AmountIdr:     line.AmountIdr,
		})
	}
	return s.renderer.RenderInvoice(ctx, data)
}
