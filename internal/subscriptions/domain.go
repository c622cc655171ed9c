package subscriptions

import (
	"time"

	"github.com/gits-cloud/billing/internal/masterdata"
)

// Status enumerates subscription statuses.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Subscription is a client's enrollment in a product for an open-ended or
// bounded date range.
type Subscription struct {
	ID        int64               `json:"id"`
	ClientID  int64               `json:"client_id"`
	ProductID int64               `json:"product_id"`
	Quantity  int64               `json:"quantity"`
	StartDate time.Time           `json:"start_date"`
	EndDate   *time.Time          `json:"end_date,omitempty"`
	Status    Status              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Product   *masterdata.Product `json:"product,omitempty"`
}

// Input carries create/update fields for a subscription.
type Input struct {
	ClientID  int64      `json:"client_id" validate:"required"`
	ProductID int64      `json:"product_id" validate:"required"`
	Quantity  int64      `json:"quantity"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date"`
	Status    Status     `json:"status"`
}
