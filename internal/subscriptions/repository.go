package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gits-cloud/billing/internal/masterdata"
	"github.com/gits-cloud/billing/internal/shared"
)

// Repository defines data access for subscriptions.
type Repository interface {
	Create(ctx context.Context, input Input) (*Subscription, error)
	Update(ctx context.Context, id int64, input Input) (*Subscription, error)
	Get(ctx context.Context, id int64) (*Subscription, error)
	ListByClient(ctx context.Context, clientID int64) ([]Subscription, error)
	ListActiveOverlapping(ctx context.Context, clientID int64, periodStart, periodEnd time.Time) ([]Subscription, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectWithProduct = `
SELECT s.id, s.client_id, s.product_id, s.quantity, s.start_date, s.end_date, s.status, s.created_at, s.updated_at,
       p.id, p.name, p.pricing_type, p.price_usd, p.unit_name, p.active, p.created_at, p.updated_at
FROM subscriptions s
JOIN products p ON s.product_id = p.id`

func scanWithProduct(rows pgx.Rows) (Subscription, error) {
	var s Subscription
	var p masterdata.Product
	err := rows.Scan(
		&s.ID, &s.ClientID, &s.ProductID, &s.Quantity, &s.StartDate, &s.EndDate, &s.Status, &s.CreatedAt, &s.UpdatedAt,
		&p.ID, &p.Name, &p.PricingType, &p.PriceUsd, &p.UnitName, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return Subscription{}, err
	}
	s.Product = &p
	return s, nil
}

func (r *repository) Create(ctx context.Context, input Input) (*Subscription, error) {
	status := input.Status
	if status == "" {
		status = StatusActive
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO subscriptions (client_id, product_id, quantity, start_date, end_date, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id`,
		input.ClientID, input.ProductID, quantity, input.StartDate, input.EndDate, status).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *repository) Update(ctx context.Context, id int64, input Input) (*Subscription, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE subscriptions SET quantity=$1, start_date=$2, end_date=$3, status=$4, updated_at=NOW() WHERE id=$5`,
		input.Quantity, input.StartDate, input.EndDate, input.Status, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *repository) Get(ctx context.Context, id int64) (*Subscription, error) {
	rows, err := r.pool.Query(ctx, selectWithProduct+` WHERE s.id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, shared.ErrNotFound
	}
	s, err := scanWithProduct(rows)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListByClient(ctx context.Context, clientID int64) ([]Subscription, error) {
	rows, err := r.pool.Query(ctx, selectWithProduct+` WHERE s.client_id = $1 ORDER BY s.start_date DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListActiveOverlapping returns active subscriptions overlapping the period.
// A subscription overlaps when start_date <= periodEnd and end_date is null
// or end_date >= periodStart.
func (r *repository) ListActiveOverlapping(ctx context.Context, clientID int64, periodStart, periodEnd time.Time) ([]Subscription, error) {
	rows, err := r.pool.Query(ctx, selectWithProduct+`
WHERE s.client_id = $1
  AND s.status = 'ACTIVE'
  AND s.start_date <= $3
  AND (s.end_date IS NULL OR s.end_date >= $2)
ORDER BY s.start_date ASC, s.id ASC`, clientID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func collect(rows pgx.Rows) ([]Subscription, error) {
	var subs []Subscription
	for rows.Next() {
		s, err := scanWithProduct(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return subs, nil
}
