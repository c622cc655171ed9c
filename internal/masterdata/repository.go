package masterdata

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gits-cloud/billing/internal/shared"
)

// Repository defines data access for clients and products.
type Repository interface {
	CreateClient(ctx context.Context, input ClientInput) (*Client, error)
	UpdateClient(ctx context.Context, id int64, input ClientInput) (*Client, error)
	GetClient(ctx context.Context, id int64) (*Client, error)
	ListClients(ctx context.Context) ([]Client, error)

	CreateProduct(ctx context.Context, input ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput) (*Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]Product, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const clientColumns = `id, name, billing_email, address, npwp, payment_terms_days, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.BillingEmail, &c.Address, &c.NPWP, &c.PaymentTermsDays, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) CreateClient(ctx context.Context, input ClientInput) (*Client, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO clients (name, billing_email, address, npwp, payment_terms_days, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING `+clientColumns,
		input.Name, input.BillingEmail, input.Address, input.NPWP, input.PaymentTermsDays)
	return scanClient(row)
}

func (r *repository) UpdateClient(ctx context.Context, id int64, input ClientInput) (*Client, error) {
	row := r.pool.QueryRow(ctx, `UPDATE clients SET name=$1, billing_email=$2, address=$3, npwp=$4, payment_terms_days=$5, updated_at=NOW()
WHERE id=$6 RETURNING `+clientColumns,
		input.Name, input.BillingEmail, input.Address, input.NPWP, input.PaymentTermsDays, id)
	return scanClient(row)
}

func (r *repository) GetClient(ctx context.Context, id int64) (*Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id=$1`, id)
	return scanClient(row)
}

func (r *repository) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.BillingEmail, &c.Address, &c.NPWP, &c.PaymentTermsDays, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

const productColumns = `id, name, pricing_type, price_usd, unit_name, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.PricingType, &p.PriceUsd, &p.UnitName, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	active := true
	if input.Active != nil {
		active = *input.Active
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO products (name, pricing_type, price_usd, unit_name, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING `+productColumns,
		input.Name, input.PricingType, input.PriceUsd, input.UnitName, active)
	return scanProduct(row)
}

func (r *repository) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*Product, error) {
	active := true
	if input.Active != nil {
		active = *input.Active
	}
	row := r.pool.QueryRow(ctx, `UPDATE products SET name=$1, pricing_type=$2, price_usd=$3, unit_name=$4, active=$5, updated_at=NOW()
WHERE id=$6 RETURNING `+productColumns,
		input.Name, input.PricingType, input.PriceUsd, input.UnitName, active, id)
	return scanProduct(row)
}

func (r *repository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	return scanProduct(row)
}

func (r *repository) ListProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PricingType, &p.PriceUsd, &p.UnitName, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
