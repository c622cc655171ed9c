package usage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one measured quantity for a subscription on a single day.
// Unique per (subscription, date); billing for a closed period never mutates
// records it has already consumed.
type Record struct {
	ID             int64           `json:"id"`
	SubscriptionID int64           `json:"subscription_id"`
	Date           time.Time       `json:"date"`
	Quantity       decimal.Decimal `json:"quantity"`
	Source         string          `json:"source"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// DailyInput is one upsert row.
type DailyInput struct {
	SubscriptionID int64           `json:"subscription_id" validate:"required"`
	Date           time.Time       `json:"date" validate:"required"`
	Quantity       decimal.Decimal `json:"quantity"`
	Source         string          `json:"source"`
}
