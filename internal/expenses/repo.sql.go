package expenses

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

func (r *Repository) Insert(ctx context.Context, input ExpenseInput) (*Expense, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO roi_expenses (occurred_at, description, amount, category, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())
RETURNING id, occurred_at, description, amount, category, created_by, created_at`,
		input.OccurredAt, input.Description, input.Amount, input.Category, input.ActorID)
	return scanExpense(row)
}

func (r *Repository) Get(ctx context.Context, id int64) (*Expense, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, occurred_at, description, amount, category, created_by, created_at
FROM roi_expenses WHERE id=$1`, id)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Expense, error) {
	query := `SELECT id, occurred_at, description, amount, category, created_by, created_at FROM roi_expenses WHERE 1=1`
	args := []any{}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += ` AND occurred_at >= $1`
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		if len(args) == 1 {
			query += ` AND occurred_at <= $1`
		} else {
			query += ` AND occurred_at <= $2`
		}
	}
	query += ` ORDER BY occurred_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.Description, &e.Amount, &e.Category, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roi_expenses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanExpense(row pgx.Row) (*Expense, error) {
	var e Expense
	if err := row.Scan(&e.ID, &e.OccurredAt, &e.Description, &e.Amount, &e.Category, &e.CreatedBy, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
