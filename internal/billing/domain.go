package billing

import (
	"github.com/shopspring/decimal"

	"github.com/gits-cloud/billing/internal/masterdata"
)

// Line is one computed charge for a subscription within a billing run. Lines
// are transient: they exist only inside a CalculationResult and are never
// persisted on their own. Persisting happens by snapshotting into quotation
// or invoice lines.
type Line struct {
	SubscriptionID int64                  `json:"subscription_id"`
	ProductName    string                 `json:"product_name"`
	PricingType    masterdata.PricingType `json:"pricing_type"`
	QuantityTotal  decimal.Decimal        `json:"quantity_total"`
	AmountUsd      decimal.Decimal        `json:"amount_usd"`
	AmountIdr      int64                  `json:"amount_idr"`
}

// CalculationResult carries the lines and totals of one billing run for a
// client and period.
//
// Invariants: SubtotalIdr is the sum of line AmountIdr values and TotalIdr is
// SubtotalIdr plus TaxAmountIdr.
type CalculationResult struct {
	Lines        []Line          `json:"lines"`
	SubtotalUsd  decimal.Decimal `json:"subtotal_usd"`
	SubtotalIdr  int64           `json:"subtotal_idr"`
	TaxAmountIdr int64           `json:"tax_amount_idr"`
	TotalIdr     int64           `json:"total_idr"`
}
