package fxrates

import (
	"context"
	"log/slog"
	"time"

	"github.com/gits-cloud/billing/internal/shared"
)

// Service handles FX rate business logic.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Create records a new rate. Cache is invalidated after an active rate
// change; a cache failure is logged, never surfaced, the database row is
// authoritative.
func (s *Service) Create(ctx context.Context, input Input) (*Rate, error) {
	if !input.UsdToIdr.IsPositive() {
		return nil, shared.ValidationError("usd_to_idr must be positive")
	}
	if input.DateEffective.IsZero() {
		return nil, shared.ValidationError("date_effective is required")
	}
	rate, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	if input.Active {
		if err := s.cache.Invalidate(ctx); err != nil && s.logger != nil {
			s.logger.Warn("invalidate fx cache", slog.Any("error", err))
		}
	}
	return rate, nil
}

// GetActive returns the currently active rate, preferring the cache.
func (s *Service) GetActive(ctx context.Context) (*Rate, error) {
	if cached, err := s.cache.GetActive(ctx); err == nil && cached != nil {
		return cached, nil
	} else if err != nil && s.logger != nil {
		s.logger.Warn("read fx cache", slog.Any("error", err))
	}
	rate, err := s.repo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetActive(ctx, rate); err != nil && s.logger != nil {
		s.logger.Warn("write fx cache", slog.Any("error", err))
	}
	return rate, nil
}

// Deactivate clears the active flag on every rate and drops the cache entry.
// Subsequent quotation creates require an explicit rate override until a new
// active rate is recorded.
func (s *Service) Deactivate(ctx context.Context) error {
	if err := s.repo.DeactivateAll(ctx); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx); err != nil && s.logger != nil {
		s.logger.Warn("invalidate fx cache", slog.Any("error", err))
	}
	return nil
}

// GetForDate returns the latest active rate effective on or before date.
func (s *Service) GetForDate(ctx context.Context, date time.Time) (*Rate, error) {
	return s.repo.GetForDate(ctx, date)
}
