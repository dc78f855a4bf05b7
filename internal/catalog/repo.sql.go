package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a product with zero opening stock.
func (r *Repository) Create(ctx context.Context, input ProductInput) (*Product, error) {
	now := time.Now().UTC()
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO products (name, type, selling_price, cost_price, stock_quantity, created_at, updated_at)
VALUES ($1, $2, $3, $4, 0, $5, $5) RETURNING id`, input.Name, input.Type, input.SellingPrice, input.CostPrice, now).Scan(&id)
	if err != nil {
		return nil, err
	}
	return &Product{
		ID:           id,
		Name:         input.Name,
		Type:         input.Type,
		SellingPrice: input.SellingPrice,
		CostPrice:    input.CostPrice,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Update rewrites the master fields. Stock is left untouched.
func (r *Repository) Update(ctx context.Context, id int64, input ProductInput) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET name=$1, type=$2, selling_price=$3, cost_price=$4, updated_at=$5 WHERE id=$6`,
		input.Name, input.Type, input.SellingPrice, input.CostPrice, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get fetches one product by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT id, name, type, selling_price, cost_price, stock_quantity, created_at, updated_at FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Type, &p.SellingPrice, &p.CostPrice, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns all products ordered by name.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, type, selling_price, cost_price, stock_quantity, created_at, updated_at FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.SellingPrice, &p.CostPrice, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// ReferenceCount reports how many invoice lines point at the product.
func (r *Repository) ReferenceCount(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoice_lines WHERE product_id=$1`, id).Scan(&count)
	return count, err
}

// Delete removes a product row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
