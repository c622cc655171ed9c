package quotations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gits-cloud/billing/internal/billing"
	"github.com/gits-cloud/billing/internal/fxrates"
	"github.com/gits-cloud/billing/internal/invoices"
	"github.com/gits-cloud/billing/internal/mail"
	"github.com/gits-cloud/billing/internal/masterdata"
	"github.com/gits-cloud/billing/internal/shared"
	"github.com/gits-cloud/billing/report"
)

// ClientSource resolves the client a quotation is issued to.
type ClientSource interface {
	GetClient(ctx context.Context, id int64) (*masterdata.Client, error)
}

// Calculator runs the billing computation that a quotation freezes.
type Calculator interface {
	ComputeForClientPeriod(ctx context.Context, clientID int64, periodStart, periodEnd time.Time, fxRateUsdToIdr, taxRate decimal.Decimal) (*billing.CalculationResult, error)
}

// RateSource supplies the active FX rate when no override is given.
type RateSource interface {
	GetActive(ctx context.Context) (*fxrates.Rate, error)
}

// Renderer produces the stored quotation PDF.
type Renderer interface {
	RenderQuotation(ctx context.Context, data report.DocumentData) (string, error)
}

// InvoiceDeriver turns an accepted quotation into an invoice.
type InvoiceDeriver interface {
	CreateFromQuotation(ctx context.Context, input invoices.DerivationInput) (*invoices.Invoice, error)
	GetByQuotation(ctx context.Context, quotationID int64) (*invoices.Invoice, error)
}

// Service handles the quotation lifecycle from generation to decision.
type Service struct {
	repo     Repository
	clients  ClientSource
	engine   Calculator
	rates    RateSource
	renderer Renderer
	sender   mail.Sender
	emailLog mail.LogRepository
	invoices InvoiceDeriver
	taxRate  decimal.Decimal
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, clients ClientSource, engine Calculator, rates RateSource, renderer Renderer, sender mail.Sender, emailLog mail.LogRepository, deriver InvoiceDeriver, taxRate decimal.Decimal, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		clients:  clients,
		engine:   engine,
		rates:    rates,
		renderer: renderer,
		sender:   sender,
		emailLog: emailLog,
		invoices: deriver,
		taxRate:  taxRate,
		logger:   logger,
	}
}

// Create runs the billing engine for the client and period and freezes the
// result as a DRAFT quotation. The FX rate comes from the request override
// when present, otherwise from the active system rate.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Quotation, error) {
	period, err := shared.ParsePeriod(input.PeriodStart, input.PeriodEnd)
	if err != nil {
		return nil, err
	}
	client, err := s.clients.GetClient(ctx, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("get client %d: %w", input.ClientID, err)
	}

	fxRate, err := s.resolveFxRate(ctx, input.FxRate)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.ComputeForClientPeriod(ctx, client.ID, period.Start, period.End, fxRate, s.taxRate)
	if err != nil {
		return nil, err
	}

	q := &Quotation{
		ClientID:     client.ID,
		PeriodStart:  period.Start,
		PeriodEnd:    period.End,
		Status:       StatusDraft,
		FxRate:       fxRate,
		TaxRate:      s.taxRate,
		SubtotalUsd:  result.SubtotalUsd,
		SubtotalIdr:  result.SubtotalIdr,
		TaxAmountIdr: result.TaxAmountIdr,
		TotalIdr:     result.TotalIdr,
	}
	for _, line := range result.Lines {
		q.Lines = append(q.Lines, Line{
			SubscriptionID: line.SubscriptionID,
			ProductName:    line.ProductName,
			PricingType:    line.PricingType,
			QuantityTotal:  line.QuantityTotal,
			UnitPriceUsd:   unitPrice(line.AmountUsd, line.QuantityTotal),
			AmountUsd:      line.AmountUsd,
			AmountIdr:      line.AmountIdr,
		})
	}

	now := time.Now().UTC()
	for attempt := 0; ; attempt++ {
		q.Number = shared.DocumentNumber("Q", now)
		err = s.repo.CreateWithLines(ctx, q)
		if err == nil {
			break
		}
		if errors.Is(err, shared.ErrConflict) && attempt == 0 {
			continue
		}
		return nil, err
	}

	// PDF rendering happens after the commit. A render failure leaves the
	// path empty; the document is regenerated at send time.
	if path, err := s.renderPDF(ctx, q, client); err != nil {
		if s.logger != nil {
			s.logger.Warn("render quotation pdf", slog.String("number", q.Number), slog.Any("error", err))
		}
	} else {
		q.PdfPath = path
		if err := s.repo.UpdatePdfPath(ctx, q.ID, path); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// Get returns a quotation with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns quotations matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Quotation, error) {
	return s.repo.List(ctx, filter)
}

// Send emails the quotation PDF to the client and marks it SENT. Sending a
// DRAFT directly and re-sending a SENT quotation are both allowed; terminal
// quotations are rejected.
func (s *Service) Send(ctx context.Context, id int64, input SendInput) (*Quotation, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status.Terminal() {
		return nil, shared.InvalidStateError("quotation %s is already %s", q.Number, q.Status)
	}
	client, err := s.clients.GetClient(ctx, q.ClientID)
	if err != nil {
		return nil, fmt.Errorf("get client %d: %w", q.ClientID, err)
	}

	if q.PdfPath == "" {
		path, err := s.renderPDF(ctx, q, client)
		if err != nil {
			return nil, err
		}
		q.PdfPath = path
		if err := s.repo.UpdatePdfPath(ctx, q.ID, path); err != nil {
			return nil, err
		}
	}

	msg, err := s.composeMessage(q, client, input)
	if err != nil {
		return nil, err
	}

	messageID, sendErr := s.sender.Send(ctx, msg)
	s.recordEmail(ctx, q, msg, messageID, sendErr)
	if sendErr != nil {
		return nil, sendErr
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, q.ID, []Status{StatusDraft, StatusSent}, StatusSent, &now, nil); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Accept marks the quotation ACCEPTED and synchronously derives its
// invoice. The compare-and-set guard makes a concurrent double accept
// derive exactly one invoice. A quotation left ACCEPTED by an earlier
// Accept whose derivation failed gets its derivation retried here; once
// the invoice exists, re-accepting is an invalid transition.
func (s *Service) Accept(ctx context.Context, id int64) (*Quotation, *invoices.Invoice, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	if casErr := s.repo.UpdateStatus(ctx, id, []Status{StatusDraft, StatusSent}, StatusAccepted, nil, &now); casErr != nil {
		if !errors.Is(casErr, shared.ErrInvalidState) {
			return nil, nil, casErr
		}
		q, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if q.Status != StatusAccepted {
			return nil, nil, casErr
		}
		if _, invErr := s.invoices.GetByQuotation(ctx, q.ID); invErr == nil {
			return nil, nil, casErr
		} else if !errors.Is(invErr, shared.ErrNotFound) {
			return nil, nil, invErr
		}
	}

	derivation := invoices.DerivationInput{
		QuotationID:  q.ID,
		ClientID:     q.ClientID,
		PeriodStart:  q.PeriodStart,
		PeriodEnd:    q.PeriodEnd,
		FxRate:       q.FxRate,
		TaxRate:      q.TaxRate,
		SubtotalUsd:  q.SubtotalUsd,
		SubtotalIdr:  q.SubtotalIdr,
		TaxAmountIdr: q.TaxAmountIdr,
		TotalIdr:     q.TotalIdr,
	}
	for _, line := range q.Lines {
		derivation.Lines = append(derivation.Lines, invoices.LineSnapshot{
			SubscriptionID: line.SubscriptionID,
			ProductName:    line.ProductName,
			PricingType:    line.PricingType,
			QuantityTotal:  line.QuantityTotal,
			UnitPriceUsd:   line.UnitPriceUsd,
			AmountUsd:      line.AmountUsd,
			AmountIdr:      line.AmountIdr,
		})
	}
	inv, err := s.invoices.CreateFromQuotation(ctx, derivation)
	if err != nil {
		return nil, nil, fmt.Errorf("derive invoice for quotation %s: %w", q.Number, err)
	}

	q, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return q, inv, nil
}

// Deny marks the quotation DENIED. Nothing downstream is created.
func (s *Service) Deny(ctx context.Context, id int64) (*Quotation, error) {
	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, []Status{StatusDraft, StatusSent}, StatusDenied, nil, &now); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) resolveFxRate(ctx context.Context, override *decimal.Decimal) (decimal.Decimal, error) {
	if override != nil {
		if !override.IsPositive() {
			return decimal.Zero, shared.ValidationError("fx_rate override must be positive")
		}
		return *override, nil
	}
	rate, err := s.rates.GetActive(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return decimal.Zero, shared.ValidationError("no active FX rate configured and no override provided")
	}
	if err != nil {
		return decimal.Zero, err
	}
	return rate.UsdToIdr, nil
}

// unitPrice derives the effective per-unit price from the final rounded
// amount. A zero quantity (a FIXED line without usage) divides by one.
func unitPrice(amountUsd, quantityTotal decimal.Decimal) decimal.Decimal {
	if quantityTotal.IsZero() {
		return amountUsd
	}
	return amountUsd.Div(quantityTotal)
}

func (s *Service) composeMessage(q *Quotation, client *masterdata.Client, input SendInput) (mail.Message, error) {
	period := shared.Period{Start: q.PeriodStart, End: q.PeriodEnd}
	data := mail.DocumentEmailData{
		ClientName:  client.Name,
		Number:      q.Number,
		PeriodLabel: period.Label(),
		SubtotalIdr: q.SubtotalIdr,
		TaxIdr:      q.TaxAmountIdr,
		TotalIdr:    q.TotalIdr,
	}
	for _, line := range q.Lines {
		data.Lines = append(data.Lines, mail.DocumentLine{ProductName: line.ProductName, AmountIdr: line.AmountIdr})
	}
	subject, html, err := mail.BuildQuotationEmail(data)
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

	pdf, err := os.ReadFile(q.PdfPath)
	if err != nil {
		return mail.Message{}, fmt.Errorf("read quotation pdf: %w", err)
	}
	msg.Attachments = append(msg.Attachments, mail.Attachment{Filename: q.Number + ".pdf", Content: pdf})
	return msg, nil
}

func (s *Service) recordEmail(ctx context.Context, q *Quotation, msg mail.Message, messageID string, sendErr error) {
	if s.emailLog == nil {
		return
	}
	entry := mail.LogEntry{
		DocumentType: "quotation",
		DocumentID:   q.ID,
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

func (s *Service) renderPDF(ctx context.Context, q *Quotation, client *masterdata.Client) (string, error) {
	period := shared.Period{Start: q.PeriodStart, End: q.PeriodEnd}
	data := report.DocumentData{
		Number:        q.Number,
		IssuedAt:      q.CreatedAt.Format("2006-01-02"),
		ClientName:    client.Name,
		ClientAddress: client.Address,
		ClientNPWP:    client.NPWP,
		PeriodLabel:   period.Label(),
		FxRate:        q.FxRate.String(),
		TaxLabel:      q.TaxRate.Mul(decimal.NewFromInt(100)).String() + "%",
		SubtotalUsd:   q.SubtotalUsd.StringFixed(2),
		SubtotalIdr:   q.SubtotalIdr,
		TaxIdr:        q.TaxAmountIdr,
		TotalIdr:      q.TotalIdr,
	}
	for _, line := range q.Lines {
		data.Lines = append(data.Lines, report.DocumentLine{
			ProductName:   line.ProductName,
			PricingType:   string(line.PricingType),
			QuantityTotal: line.QuantityTotal.String(),
			AmountUsd:     line.AmountUsd.StringFixed(2),
			AmountIdr:     line.AmountIdr,
		})
	}
	return s.renderer.RenderQuotation(ctx, data)
}
