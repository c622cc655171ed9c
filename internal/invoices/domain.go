package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gits-cloud/billing/internal/masterdata"
)

// Status is the invoice lifecycle state. Invoices start waiting for the
// tax invoice (faktur pajak), become sendable once it is uploaded, and end
// SENT. SENT allows re-sending but no other transition.
type Status string

const (
	StatusReadyForTaxInvoice Status = "READY_FOR_TAX_INVOICE"
	StatusReadyToSend        Status = "READY_TO_SEND"
	StatusSent               Status = "SENT"
)

var transitions = map[Status][]Status{
	StatusReadyForTaxInvoice: {StatusReadyToSend},
	StatusReadyToSend:        {StatusSent},
	StatusSent:               {StatusSent},
}

// CanTransitionTo reports whether moving from s to next is permitted.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Line is a frozen billing line copied from the accepted quotation.
type Line struct {
	ID             int64                  `json:"id"`
	InvoiceID      int64                  `json:"invoice_id"`
	SubscriptionID int64                  `json:"subscription_id"`
	ProductName    string                 `json:"product_name"`
	PricingType    masterdata.PricingType `json:"pricing_type"`
	QuantityTotal  decimal.Decimal        `json:"quantity_total"`
	UnitPriceUsd   decimal.Decimal        `json:"unit_price_usd"`
	AmountUsd      decimal.Decimal        `json:"amount_usd"`
	AmountIdr      int64                  `json:"amount_idr"`
}

// Invoice is derived from an accepted quotation. All amounts are copied by
// value at derivation time and never recomputed.
type Invoice struct {
	ID              int64           `json:"id"`
	Number          string          `json:"number"`
	QuotationID     int64           `json:"quotation_id"`
	ClientID        int64           `json:"client_id"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	Status          Status          `json:"status"`
	FxRate          decimal.Decimal `json:"fx_rate"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	SubtotalUsd     decimal.Decimal `json:"subtotal_usd"`
	SubtotalIdr     int64           `json:"subtotal_idr"`
	TaxAmountIdr    int64           `json:"tax_amount_idr"`
	TotalIdr        int64           `json:"total_idr"`
	DueDate         time.Time       `json:"due_date"`
	PdfPath         string          `json:"pdf_path,omitempty"`
	TaxInvoicePaths []string        `json:"tax_invoice_paths,omitempty"`
	SentAt          *time.Time      `json:"sent_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Lines           []Line          `json:"lines,omitempty"`
}

// LineSnapshot carries a frozen line into derivation.
type LineSnapshot struct {
	SubscriptionID int64
	ProductName    string
	PricingType    masterdata.PricingType
	QuantityTotal  decimal.Decimal
	UnitPriceUsd   decimal.Decimal
	AmountUsd      decimal.Decimal
	AmountIdr      int64
}

// DerivationInput is everything an invoice copies from its quotation.
type DerivationInput struct {
	QuotationID  int64
	ClientID     int64
	PeriodStart  time.Time
	PeriodEnd    time.Time
	FxRate       decimal.Decimal
	TaxRate      decimal.Decimal
	SubtotalUsd  decimal.Decimal
	SubtotalIdr  int64
	TaxAmountIdr int64
	TotalIdr     int64
	Lines        []LineSnapshot
}

// SendInput carries optional overrides for sending an invoice.
type SendInput struct {
	Recipient string `json:"recipient" validate:"omitempty,email"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	ClientID int64
	Status   Status
}
