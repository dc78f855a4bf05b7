package dailybook

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for funds and the
// daily_ledger summary.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AddFundDelta additively upserts a named fund bucket.
func (r *Repository) AddFundDelta(ctx context.Context, name string, delta float64) (float64, error) {
	var balance float64
	err := r.pool.QueryRow(ctx, `INSERT INTO funds (name, balance, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (name) DO UPDATE SET balance = funds.balance + EXCLUDED.balance, updated_at = NOW()
RETURNING balance`, name, delta).Scan(&balance)
	return balance, err
}

// GetFund returns a fund's current balance, zero when absent.
func (r *Repository) GetFund(ctx context.Context, name string) (float64, error) {
	var balance float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE((SELECT balance FROM funds WHERE name=$1), 0)`, name).Scan(&balance)
	return balance, err
}

// UpsertSummary replaces the daily_ledger row for the summary's date.
func (r *Repository) UpsertSummary(ctx context.Context, s Summary) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO daily_ledger (ledger_date, qty_sold, qty_returned, revenue, expense_total, ad_cost_dollar, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
ON CONFLICT (ledger_date) DO UPDATE SET qty_sold=EXCLUDED.qty_sold, qty_returned=EXCLUDED.qty_returned,
  revenue=EXCLUDED.revenue, expense_total=EXCLUDED.expense_total, ad_cost_dollar=EXCLUDED.ad_cost_dollar, updated_at=NOW()`,
		s.Date, s.QtySold, s.QtyReturned, s.Revenue, s.ExpenseTotal, s.AdCostDollar)
	return err
}

// GetSummary returns the daily_ledger row for a date.
func (r *Repository) GetSummary(ctx context.Context, date string) (*Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, `SELECT ledger_date, qty_sold, qty_returned, revenue, expense_total, ad_cost_dollar
FROM daily_ledger WHERE ledger_date=$1`, date).
		Scan(&s.Date, &s.QtySold, &s.QtyReturned, &s.Revenue, &s.ExpenseTotal, &s.AdCostDollar)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
