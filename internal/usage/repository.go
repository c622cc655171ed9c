package usage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines data access for daily usage records.
type Repository interface {
	UpsertDaily(ctx context.Context, input DailyInput) (*Record, error)
	GetForPeriod(ctx context.Context, subscriptionID int64, periodStart, periodEnd time.Time) ([]Record, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) UpsertDaily(ctx context.Context, input DailyInput) (*Record, error) {
	source := input.Source
	if source == "" {
		source = "manual"
	}
	var rec Record
	err := r.pool.QueryRow(ctx, `INSERT INTO usage_daily (subscription_id, date, quantity, source, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
ON CONFLICT (subscription_id, date)
DO UPDATE SET quantity = EXCLUDED.quantity, source = EXCLUDED.source, updated_at = NOW()
RETURNING id, subscription_id, date, quantity, source, created_at, updated_at`,
		input.SubscriptionID, input.Date, input.Quantity, source).
		Scan(&rec.ID, &rec.SubscriptionID, &rec.Date, &rec.Quantity, &rec.Source, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) GetForPeriod(ctx context.Context, subscriptionID int64, periodStart, periodEnd time.Time) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, subscription_id, date, quantity, source, created_at, updated_at
FROM usage_daily
WHERE subscription_id = $1 AND date >= $2 AND date <= $3
ORDER BY date ASC`, subscriptionID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.SubscriptionID, &rec.Date, &rec.Quantity, &rec.Source, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
