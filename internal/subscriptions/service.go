package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/gits-cloud/billing/internal/masterdata"
	"github.com/gits-cloud/billing/internal/shared"
)

// Service handles subscription business logic.
type Service struct {
	repo       Repository
	masterdata masterdata.Repository
}

// NewService builds a Service instance.
func NewService(repo Repository, md masterdata.Repository) *Service {
	return &Service{repo: repo, masterdata: md}
}

func (s *Service) Create(ctx context.Context, input Input) (*Subscription, error) {
	if _, err := s.masterdata.GetClient(ctx, input.ClientID); err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}
	if _, err := s.masterdata.GetProduct(ctx, input.ProductID); err != nil {
		return nil, fmt.Errorf("verify product: %w", err)
	}
	if input.EndDate != nil && input.EndDate.Before(input.StartDate) {
		return nil, shared.ValidationError("end_date must not precede start_date")
	}
	return s.repo.Create(ctx, input)
}

func (s *Service) Update(ctx context.Context, id int64, input Input) (*Subscription, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = existing.Status
	}
	if input.Quantity == 0 {
		input.Quantity = existing.Quantity
	}
	if input.StartDate.IsZero() {
		input.StartDate = existing.StartDate
	}
	if input.EndDate != nil && input.EndDate.Before(input.StartDate) {
		return nil, shared.ValidationError("end_date must not precede start_date")
	}
	return s.repo.Update(ctx, id, input)
}

func (s *Service) Get(ctx context.Context, id int64) (*Subscription, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID int64) ([]Subscription, error) {
	return s.repo.ListByClient(ctx, clientID)
}

func (s *Service) ListActiveOverlapping(ctx context.Context, clientID int64, periodStart, periodEnd time.Time) ([]Subscription, error) {
	return s.repo.ListActiveOverlapping(ctx, clientID, periodStart, periodEnd)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
