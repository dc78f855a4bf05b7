package ledger

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

// TxRepository exposes the operations the service runs inside one
// transaction. The entry insert and the balance delta commit together.
type TxRepository interface {
	InsertTransaction(ctx context.Context, txn Transaction) (int64, error)
	ApplyBalanceDelta(ctx context.Context, accountID int64, delta float64) (float64, error)
	GetTransaction(ctx context.Context, id int64) (Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
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

// CreateAccount inserts an account with an opening balance.
func (r *Repository) CreateAccount(ctx context.Context, name string, opening float64) (*Account, error) {
	now := time.Now().UTC()
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO accounts (name, balance, opening_balance, created_at) VALUES ($1, $2, $2, $3) RETURNING id`, name, opening, now).Scan(&id)
	if err != nil {
		return nil, err
	}
	return &Account{ID: id, Name: name, Balance: opening, CreatedAt: now}, nil
}

// GetAccount fetches one account.
func (r *Repository) GetAccount(ctx context.Context, id int64) (*Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `SELECT id, name, balance, created_at FROM accounts WHERE id=$1`, id).Scan(&a.ID, &a.Name, &a.Balance, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListAccounts returns every account ordered by name.
func (r *Repository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, balance, created_at FROM accounts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// FindAccountsByName returns accounts whose name contains the fragment,
// case-insensitively. Kept for import convenience only; runtime flows use
// explicit ids.
func (r *Repository) FindAccountsByName(ctx context.Context, fragment string) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, balance, created_at FROM accounts WHERE name ILIKE '%' || $1 || '%' ORDER BY name`, fragment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListTransactions returns entries filtered by account and date.
func (r *Repository) ListTransactions(ctx context.Context, filter ListFilter) ([]Transaction, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT id, account_id, COALESCE(counter_account_id, 0), amount, type, description, occurred_at, created_by, created_at
 FROM transactions
 WHERE ($1 = 0 OR account_id = $1 OR counter_account_id = $1)
   AND ($2::timestamptz IS NULL OR occurred_at >= $2)
   AND ($3::timestamptz IS NULL OR occurred_at <= $3)
 ORDER BY occurred_at DESC LIMIT $4`, filter.AccountID, nullTime(filter.From), nullTime(filter.To), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txns []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.CounterAccountID, &t.Amount, &t.Type, &t.Description, &t.OccurredAt, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txns, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func (r *txRepo) InsertTransaction(ctx context.Context, txn Transaction) (int64, error) {
	var id int64
	var counter any
	if txn.CounterAccountID != 0 {
		counter = txn.CounterAccountID
	}
	err := r.tx.QueryRow(ctx, `INSERT INTO transactions (account_id, counter_account_id, amount, type, description, occurred_at, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING id`,
		txn.AccountID, counter, txn.Amount, txn.Type, txn.Description, txn.OccurredAt, txn.CreatedBy).Scan(&id)
	return id, err
}

// ApplyBalanceDelta adjusts the balance with a single atomic statement.
func (r *txRepo) ApplyBalanceDelta(ctx context.Context, accountID int64, delta float64) (float64, error) {
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

func (r *txRepo) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	var t Transaction
	err := r.tx.QueryRow(ctx, `SELECT id, account_id, COALESCE(counter_account_id, 0), amount, type, description, occurred_at, created_by, created_at FROM transactions WHERE id=$1 FOR UPDATE`, id).
		Scan(&t.ID, &t.AccountID, &t.CounterAccountID, &t.Amount, &t.Type, &t.Description, &t.OccurredAt, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	return t, nil
}

func (r *txRepo) DeleteTransaction(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM transactions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}
