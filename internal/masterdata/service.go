package masterdata

import (
	"context"

	"github.com/gits-cloud/billing/internal/shared"
)

// Service handles client and product business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateClient(ctx context.Context, input ClientInput) (*Client, error) {
	if input.PaymentTermsDays == 0 {
		input.PaymentTermsDays = 30
	}
	return s.repo.CreateClient(ctx, input)
}

func (s *Service) UpdateClient(ctx context.Context, id int64, input ClientInput) (*Client, error) {
	return s.repo.UpdateClient(ctx, id, input)
}

func (s *Service) GetClient(ctx context.Context, id int64) (*Client, error) {
	return s.repo.GetClient(ctx, id)
}

func (s *Service) ListClients(ctx context.Context) ([]Client, error) {
	return s.repo.ListClients(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	if !input.PricingType.Valid() {
		return nil, shared.ValidationError("pricing_type must be one of FIXED, PRORATE, PERCENTAGE")
	}
	if input.PriceUsd.IsNegative() {
		return nil, shared.ValidationError("price_usd must not be negative")
	}
	return s.repo.CreateProduct(ctx, input)
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*Product, error) {
	if !input.PricingType.Valid() {
		return nil, shared.ValidationError("pricing_type must be one of FIXED, PRORATE, PERCENTAGE")
	}
	if input.PriceUsd.IsNegative() {
		return nil, shared.ValidationError("price_usd must not be negative")
	}
	return s.repo.UpdateProduct(ctx, id, input)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	return s.repo.ListProducts(ctx, activeOnly)
}
