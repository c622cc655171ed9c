package fxrates

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gits-cloud/billing/internal/platform/db"
	"github.com/gits-cloud/billing/internal/shared"
)

// Repository defines data access for FX rates.
type Repository interface {
	Create(ctx context.Context, input Input) (*Rate, error)
	GetActive(ctx context.Context) (*Rate, error)
	GetForDate(ctx context.Context, date time.Time) (*Rate, error)
	DeactivateAll(ctx context.Context) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const rateColumns = `id, date_effective, usd_to_idr, source, active, created_at`

func scanRate(row pgx.Row) (*Rate, error) {
	var rate Rate
	err := row.Scan(&rate.ID, &rate.DateEffective, &rate.UsdToIdr, &rate.Source, &rate.Active, &rate.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rate, nil
}

// Create inserts a rate. An active rate deactivates every other rate inside
// the same transaction so there is no window with zero or multiple active
// rates.
func (r *repository) Create(ctx context.Context, input Input) (*Rate, error) {
	var rate *Rate
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if input.Active {
			if _, err := tx.Exec(ctx, `UPDATE fx_rates SET active = FALSE WHERE active`); err != nil {
				return err
			}
		}
		row := tx.QueryRow(ctx, `INSERT INTO fx_rates (date_effective, usd_to_idr, source, active, created_at)
VALUES ($1, $2, $3, $4, NOW()) RETURNING `+rateColumns,
			input.DateEffective, input.UsdToIdr, input.Source, input.Active)
		var err error
		rate, err = scanRate(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rate, nil
}

func (r *repository) GetActive(ctx context.Context) (*Rate, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+rateColumns+` FROM fx_rates WHERE active ORDER BY date_effective DESC LIMIT 1`)
	return scanRate(row)
}

func (r *repository) GetForDate(ctx context.Context, date time.Time) (*Rate, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+rateColumns+` FROM fx_rates WHERE active AND date_effective <= $1 ORDER BY date_effective DESC LIMIT 1`, date)
	return scanRate(row)
}

func (r *repository) DeactivateAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `UPDATE fx_rates SET active = FALSE WHERE active`)
	return err
}
