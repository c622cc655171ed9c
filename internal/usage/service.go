package usage

import (
	"context"
	"time"

	"github.com/gits-cloud/billing/internal/shared"
)

// Service handles usage recording.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// UpsertDaily records or replaces the quantity for one subscription-day.
func (s *Service) UpsertDaily(ctx context.Context, input DailyInput) (*Record, error) {
	if input.Quantity.IsNegative() {
		return nil, shared.ValidationError("quantity must not be negative")
	}
	return s.repo.UpsertDaily(ctx, input)
}

// UpsertBatch records a set of daily rows, stopping at the first failure.
func (s *Service) UpsertBatch(ctx context.Context, inputs []DailyInput) ([]Record, error) {
	records := make([]Record, 0, len(inputs))
	for _, input := range inputs {
		rec, err := s.UpsertDaily(ctx, input)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// GetForPeriod returns usage rows for the closed period, ordered by date.
func (s *Service) GetForPeriod(ctx context.Context, subscriptionID int64, periodStart, periodEnd time.Time) ([]Record, error) {
	return s.repo.GetForPeriod(ctx, subscriptionID, periodStart, periodEnd)
}
