package quotations

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gits-cloud/billing/internal/masterdata"
)

// Status is the quotation lifecycle state. ACCEPTED and DENIED are
// terminal; SENT allows re-sending.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusSent     Status = "SENT"
	StatusAccepted Status = "ACCEPTED"
	StatusDenied   Status = "DENIED"
)

var transitions = map[Status][]Status{
	StatusDraft: {StatusSent, StatusAccepted, StatusDenied},
	StatusSent:  {StatusSent, StatusAccepted, StatusDenied},
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

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDenied
}

// Line is a frozen billing line. UnitPriceUsd is the effective per-unit
// price snapshot, not the live product price.
type Line struct {
	ID             int64                  `json:"id"`
	QuotationID    int64                  `json:"quotation_id"`
	SubscriptionID int64                  `json:"subscription_id"`
	ProductName    string                 `json:"product_name"`
	PricingType    masterdata.PricingType `json:"pricing_type"`
	QuantityTotal  decimal.Decimal        `json:"quantity_total"`
	UnitPriceUsd   decimal.Decimal        `json:"unit_price_usd"`
	AmountUsd      decimal.Decimal        `json:"amount_usd"`
	AmountIdr      int64                  `json:"amount_idr"`
}

// Quotation freezes one billing computation for a client and period.
// Amounts never change after creation; acceptance copies them onward to the
// invoice.
type Quotation struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	ClientID     int64           `json:"client_id"`
	PeriodStart  time.Time       `json:"period_start"`
	PeriodEnd    time.Time       `json:"period_end"`
	Status       Status          `json:"status"`
	FxRate       decimal.Decimal `json:"fx_rate"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	SubtotalUsd  decimal.Decimal `json:"subtotal_usd"`
	SubtotalIdr  int64           `json:"subtotal_idr"`
	TaxAmountIdr int64           `json:"tax_amount_idr"`
	TotalIdr     int64           `json:"total_idr"`
	PdfPath      string          `json:"pdf_path,omitempty"`
	SentAt       *time.Time      `json:"sent_at,omitempty"`
	DecidedAt    *time.Time      `json:"decided_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Lines        []Line          `json:"lines,omitempty"`
}

// CreateInput carries the request to generate a quotation.
type CreateInput struct {
	ClientID    int64            `json:"client_id" validate:"required"`
	PeriodStart string           `json:"period_start" validate:"required"`
	PeriodEnd   string           `json:"period_end" validate:"required"`
	FxRate      *decimal.Decimal `json:"fx_rate"`
}

// SendInput carries optional overrides for sending a quotation.
type SendInput struct {
	Recipient string `json:"recipient" validate:"omitempty,email"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// ListFilter narrows quotation listings.
type ListFilter struct {
	ClientID int64
	Status   Status
}
