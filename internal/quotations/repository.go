package quotations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gits-cloud/billing/internal/platform/db"
	"github.com/gits-cloud/billing/internal/shared"
)

// Repository defines data access for quotations.
type Repository interface {
	CreateWithLines(ctx context.Context, q *Quotation) error
	GetByID(ctx context.Context, id int64) (*Quotation, error)
	List(ctx context.Context, filter ListFilter) ([]Quotation, error)
	UpdateStatus(ctx context.Context, id int64, from []Status, to Status, sentAt, decidedAt *time.Time) error
	UpdatePdfPath(ctx context.Context, id int64, path string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const quotationColumns = `id, number, client_id, period_start, period_end, status,
fx_rate, tax_rate, subtotal_usd, subtotal_idr, tax_amount_idr, total_idr,
pdf_path, sent_at, decided_at, created_at, updated_at`

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	err := row.Scan(&q.ID, &q.Number, &q.ClientID, &q.PeriodStart, &q.PeriodEnd, &q.Status,
		&q.FxRate, &q.TaxRate, &q.SubtotalUsd, &q.SubtotalIdr, &q.TaxAmountIdr, &q.TotalIdr,
		&q.PdfPath, &q.SentAt, &q.DecidedAt, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// CreateWithLines persists the header and all lines in one transaction. A
// duplicate number surfaces as ErrConflict so the caller can retry with a
// fresh suffix.
func (r *repository) CreateWithLines(ctx context.Context, q *Quotation) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO quotations
(number, client_id, period_start, period_end, status, fx_rate, tax_rate,
subtotal_usd, subtotal_idr, tax_amount_idr, total_idr, pdf_path, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, '', NOW(), NOW())
RETURNING id, created_at, updated_at`,
			q.Number, q.ClientID, q.PeriodStart, q.PeriodEnd, q.Status, q.FxRate, q.TaxRate,
			q.SubtotalUsd, q.SubtotalIdr, q.TaxAmountIdr, q.TotalIdr)
		if err := row.Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return err
		}
		for i := range q.Lines {
			line := &q.Lines[i]
			line.QuotationID = q.ID
			err := tx.QueryRow(ctx, `INSERT INTO quotation_lines
(quotation_id, subscription_id, product_name, pricing_type, quantity_total, unit_price_usd, amount_usd, amount_idr)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
				line.QuotationID, line.SubscriptionID, line.ProductName, line.PricingType,
				line.QuantityTotal, line.UnitPriceUsd, line.AmountUsd, line.AmountIdr).Scan(&line.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: quotation number %s already exists", shared.ErrConflict, q.Number)
	}
	return err
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Quotation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id)
	q, err := scanQuotation(row)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, quotation_id, subscription_id, product_name, pricing_type,
quantity_total, unit_price_usd, amount_usd, amount_idr
FROM quotation_lines WHERE quotation_id = $1 ORDER BY id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.QuotationID, &line.SubscriptionID, &line.ProductName, &line.PricingType,
			&line.QuantityTotal, &line.UnitPriceUsd, &line.AmountUsd, &line.AmountIdr); err != nil {
			return nil, err
		}
		q.Lines = append(q.Lines, line)
	}
	return q, rows.Err()
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Quotation, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations`
	var conditions []string
	var args []any
	if filter.ClientID != 0 {
		args = append(args, filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotations []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		quotations = append(quotations, *q)
	}
	return quotations, rows.Err()
}

// UpdateStatus performs a compare-and-set transition. Zero affected rows
// means the quotation is missing or a concurrent writer already moved it to
// a state outside the allowed set, typically a terminal one.
func (r *repository) UpdateStatus(ctx context.Context, id int64, from []Status, to Status, sentAt, decidedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE quotations SET status = $2,
sent_at = COALESCE($3, sent_at), decided_at = COALESCE($4, decided_at), updated_at = NOW()
WHERE id = $1 AND status = ANY($5)`, id, to, sentAt, decidedAt, statusStrings(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.transitionError(ctx, id, to)
	}
	return nil
}

func (r *repository) UpdatePdfPath(ctx context.Context, id int64, path string) error {
	_, err := r.pool.Exec(ctx, `UPDATE quotations SET pdf_path = $2, updated_at = NOW() WHERE id = $1`, id, path)
	return err
}

func (r *repository) transitionError(ctx context.Context, id int64, to Status) error {
	var current Status
	err := r.pool.QueryRow(ctx, `SELECT status FROM quotations WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	if err != nil {
		return err
	}
	return shared.InvalidStateError("quotation %d cannot move from %s to %s", id, current, to)
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
