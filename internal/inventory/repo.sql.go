package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations a stock mutation runs inside one
// transaction. A purchase touches products, transactions and accounts
// together; all of it commits or none of it does.
type TxRepository interface {
	ApplyStockDelta(ctx context.Context, productID, delta int64) (int64, error)
	SetCostPrice(ctx context.Context, productID int64, cost float64) error
	AccountExists(ctx context.Context, accountID int64) error
	InsertExpenseTransaction(ctx context.Context, accountID int64, amount float64, description string, actorID int64) (int64, error)
	ApplyAccountDelta(ctx context.Context, accountID int64, delta float64) (float64, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (r *txRepo) ApplyStockDelta(ctx context.Context, productID, delta int64) (int64, error) {
	var newQty int64
	err := r.tx.QueryRow(ctx, `UPDATE products SET stock_quantity = stock_quantity + $1, updated_at = NOW() WHERE id=$2 RETURNING stock_quantity`, delta, productID).Scan(&newQty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}
	return newQty, nil
}

func (r *txRepo) SetCostPrice(ctx context.Context, productID int64, cost float64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET cost_price=$1, updated_at = NOW() WHERE id=$2`, cost, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *txRepo) AccountExists(ctx context.Context, accountID int64) error {
	var id int64
	err := r.tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id=$1`, accountID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}

func (r *txRepo) InsertExpenseTransaction(ctx context.Context, accountID int64, amount float64, description string, actorID int64) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO transactions (account_id, amount, type, description, occurred_at, created_by, created_at)
VALUES ($1, $2, 'expense', $3, $4, $5, NOW()) RETURNING id`, accountID, amount, description, time.Now().UTC(), actorID).Scan(&id)
	return id, err
}

func (r *txRepo) ApplyAccountDelta(ctx context.Context, accountID int64, delta float64) (float64, error) {
	var balance float64
	err := r.tx.QueryRow(ctx, `UPDATE accounts SET balance = balance + $1 WHERE id=$2 RETURNING balance`, delta, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}
