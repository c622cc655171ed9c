package masterdata

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingType determines how a subscription's period charge is computed.
type PricingType string

const (
	PricingFixed      PricingType = "FIXED"
	PricingProrate    PricingType = "PRORATE"
	PricingPercentage PricingType = "PERCENTAGE"
)

// Valid reports whether t is a known pricing type.
func (t PricingType) Valid() bool {
	switch t {
	case PricingFixed, PricingProrate, PricingPercentage:
		return true
	}
	return false
}

// Client represents a corporate billing client.
type Client struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	BillingEmail     string    `json:"billing_email"`
	Address          string    `json:"address"`
	NPWP             string    `json:"npwp"`
	PaymentTermsDays int       `json:"payment_terms_days"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Product defines a sellable service and its pricing model. The meaning of
// PriceUsd depends on PricingType: fixed monthly price, per-unit flexible
// price, or fractional rate (0.10 means 10%).
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	PricingType PricingType     `json:"pricing_type"`
	PriceUsd    decimal.Decimal `json:"price_usd"`
	UnitName    string          `json:"unit_name"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ClientInput carries create/update fields for a client.
type ClientInput struct {
	Name             string `json:"name" validate:"required"`
	BillingEmail     string `json:"billing_email" validate:"required,email"`
	Address          string `json:"address"`
	NPWP             string `json:"npwp"`
	PaymentTermsDays int    `json:"payment_terms_days" validate:"gte=0"`
}

// ProductInput carries create/update fields for a product.
type ProductInput struct {
	Name        string          `json:"name" validate:"required"`
	PricingType PricingType     `json:"pricing_type" validate:"required"`
	PriceUsd    decimal.Decimal `json:"price_usd"`
	UnitName    string          `json:"unit_name"`
	Active      *bool           `json:"active"`
}
