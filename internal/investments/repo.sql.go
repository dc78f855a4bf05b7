package investments

import (
	"context"
	"errors"

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

const investmentColumns = `id, name, capital_amount, current_return, status, created_at, updated_at`

func (r *Repository) Insert(ctx context.Context, input InvestmentInput) (*Investment, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO investments (name, capital_amount, current_return, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
RETURNING `+investmentColumns,
		input.Name, input.Capital, input.CurrentReturn, input.Status)
	return scanInvestment(row)
}

func (r *Repository) Update(ctx context.Context, id int64, input InvestmentInput) (*Investment, error) {
	row := r.pool.QueryRow(ctx, `UPDATE investments
SET name=$1, capital_amount=$2, current_return=$3, status=$4, updated_at=NOW()
WHERE id=$5
RETURNING `+investmentColumns,
		input.Name, input.Capital, input.CurrentReturn, input.Status, id)
	inv, err := scanInvestment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Investment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+investmentColumns+` FROM investments WHERE id=$1`, id)
	inv, err := scanInvestment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *Repository) List(ctx context.Context, onlyActive bool) ([]Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments`
	if onlyActive {
		query += ` WHERE status='active'`
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Investment
	for rows.Next() {
		var inv Investment
		if err := rows.Scan(&inv.ID, &inv.Name, &inv.Capital, &inv.CurrentReturn, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM investments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanInvestment(row pgx.Row) (*Investment, error) {
	var inv Investment
	if err := row.Scan(&inv.ID, &inv.Name, &inv.Capital, &inv.CurrentReturn, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}
