package invoices

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

// Repository defines data access for invoices.
type Repository interface {
	CreateWithLines(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id int64) (*Invoice, error)
	GetByQuotationID(ctx context.Context, quotationID int64) (*Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)
	UpdateStatus(ctx context.Context, id int64, from []Status, to Status, sentAt *time.Time) error
	AppendTaxInvoicePath(ctx context.Context, id int64, path string, from []Status) error
	UpdatePdfPath(ctx context.Context, id int64, path string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const invoiceColumns = `id, number, quotation_id, client_id, period_start, period_end, status,
fx_rate, tax_rate, subtotal_usd, subtotal_idr, tax_amount_idr, total_idr, due_date,
pdf_path, tax_invoice_paths, sent_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.QuotationID, &inv.ClientID, &inv.PeriodStart, &inv.PeriodEnd, &inv.Status,
		&inv.FxRate, &inv.TaxRate, &inv.SubtotalUsd, &inv.SubtotalIdr, &inv.TaxAmountIdr, &inv.TotalIdr, &inv.DueDate,
		&inv.PdfPath, &inv.TaxInvoicePaths, &inv.SentAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// CreateWithLines persists the header and all lines in one transaction. A
// duplicate number surfaces as ErrConflict so the caller can retry with a
// fresh suffix.
func (r *repository) CreateWithLines(ctx context.Context, inv *Invoice) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO invoices
(number, quotation_id, client_id, period_start, period_end, status, fx_rate, tax_rate,
subtotal_usd, subtotal_idr, tax_amount_idr, total_idr, due_date, pdf_path, tax_invoice_paths, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, '', '{}', NOW(), NOW())
RETURNING id, created_at, updated_at`,
			inv.Number, inv.QuotationID, inv.ClientID, inv.PeriodStart, inv.PeriodEnd, inv.Status,
			inv.FxRate, inv.TaxRate, inv.SubtotalUsd, inv.SubtotalIdr, inv.TaxAmountIdr, inv.TotalIdr, inv.DueDate)
		if err := row.Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return err
		}
		for i := range inv.Lines {
			line := &inv.Lines[i]
			line.InvoiceID = inv.ID
			err := tx.QueryRow(ctx, `INSERT INTO invoice_lines
(invoice_id, subscription_id, product_name, pricing_type, quantity_total, unit_price_usd, amount_usd, amount_idr)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
				line.InvoiceID, line.SubscriptionID, line.ProductName, line.PricingType,
				line.QuantityTotal, line.UnitPriceUsd, line.AmountUsd, line.AmountIdr).Scan(&line.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: invoice number %s already exists", shared.ErrConflict, inv.Number)
	}
	return err
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, invoice_id, subscription_id, product_name, pricing_type,
quantity_total, unit_price_usd, amount_usd, amount_idr
FROM invoice_lines WHERE invoice_id = $1 ORDER BY id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.SubscriptionID, &line.ProductName, &line.PricingType,
			&line.QuantityTotal, &line.UnitPriceUsd, &line.AmountUsd, &line.AmountIdr); err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, line)
	}
	return inv, rows.Err()
}

func (r *repository) GetByQuotationID(ctx context.Context, quotationID int64) (*Invoice, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM invoices WHERE quotation_id = $1 ORDER BY id ASC LIMIT 1`, quotationID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
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

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

// UpdateStatus performs a compare-and-set transition. The WHERE clause
// guards against concurrent writers; zero rows means the invoice either
// does not exist or is no longer in an allowed state.
func (r *repository) UpdateStatus(ctx context.Context, id int64, from []Status, to Status, sentAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invoices SET status = $2, sent_at = COALESCE($3, sent_at), updated_at = NOW()
WHERE id = $1 AND status = ANY($4)`, id, to, sentAt, statusStrings(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.transitionError(ctx, id, to)
	}
	return nil
}

func (r *repository) AppendTaxInvoicePath(ctx context.Context, id int64, path string, from []Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invoices SET tax_invoice_paths = array_append(tax_invoice_paths, $2),
status = $3, updated_at = NOW()
WHERE id = $1 AND status = ANY($4)`, id, path, StatusReadyToSend, statusStrings(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.transitionError(ctx, id, StatusReadyToSend)
	}
	return nil
}

func (r *repository) UpdatePdfPath(ctx context.Context, id int64, path string) error {
	_, err := r.pool.Exec(ctx, `UPDATE invoices SET pdf_path = $2, updated_at = NOW() WHERE id = $1`, id, path)
	return err
}

func (r *repository) transitionError(ctx context.Context, id int64, to Status) error {
	var current Status
	err := r.pool.QueryRow(ctx, `SELECT status FROM invoices WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	if err != nil {
		return err
	}
	return shared.InvalidStateError("invoice %d cannot move from %s to %s", id, current, to)
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
