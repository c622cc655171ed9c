package fxrates

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate is a USD→IDR conversion rate effective from a date. At most one rate
// is active system-wide; activating a new one deactivates all others in the
// same transaction.
type Rate struct {
	ID            int64           `json:"id"`
	DateEffective time.Time       `json:"date_effective"`
	UsdToIdr      decimal.Decimal `json:"usd_to_idr"`
	Source        string          `json:"source"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Input carries create fields for a rate.
type Input struct {
	DateEffective time.Time       `json:"date_effective" validate:"required"`
	UsdToIdr      decimal.Decimal `json:"usd_to_idr" validate:"required"`
	Source        string          `json:"source"`
	Active        bool            `json:"active"`
}
