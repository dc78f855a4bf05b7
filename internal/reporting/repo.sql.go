package reporting

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides read-only PostgreSQL queries for report folds.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CostedLines returns invoice lines in the range with the unit cost to
// charge: the line snapshot when set, else the product's current cost.
func (r *Repository) CostedLines(ctx context.Context, from, to time.Time) ([]CostedLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT l.qty, l.unit_price, COALESCE(NULLIF(l.unit_cost, 0), p.cost_price)
FROM invoice_lines l
JOIN invoices i ON i.id = l.invoice_id
JOIN products p ON p.id = l.product_id
WHERE i.issued_at >= $1 AND i.issued_at <= $2`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CostedLine
	for rows.Next() {
		var l CostedLine
		if err := rows.Scan(&l.Qty, &l.UnitPrice, &l.UnitCost); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SalesSpan returns the first and last invoice dates in the dataset.
// ok is false when there are no invoices at all.
func (r *Repository) SalesSpan(ctx context.Context) (first, last time.Time, ok bool, err error) {
	var lo, hi *time.Time
	err = r.pool.QueryRow(ctx, `SELECT MIN(issued_at), MAX(issued_at) FROM invoices`).Scan(&lo, &hi)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if lo == nil || hi == nil {
		return time.Time{}, time.Time{}, false, nil
	}
	return *lo, *hi, true, nil
}

// AdDollarTotal sums recorded ad spend (in dollars) over the range.
func (r *Repository) AdDollarTotal(ctx context.Context, from, to time.Time) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(ad_cost_dollar), 0) FROM daily_ledger
WHERE ledger_date >= $1 AND ledger_date <= $2`, from, to).Scan(&total)
	return total, err
}
