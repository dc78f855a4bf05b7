package invoicing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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
// transaction. Header, lines and stock effects commit together or not at
// all.
type TxRepository interface {
	GetProductCost(ctx context.Context, productID int64) (float64, error)
	InsertInvoice(ctx context.Context, inv Invoice) (int64, error)
	InsertLines(ctx context.Context, invoiceID int64, lines []InvoiceLine) error
	ApplyStockDelta(ctx context.Context, productID, delta int64) (int64, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	GetLines(ctx context.Context, invoiceID int64) ([]InvoiceLine, error)
	DeleteInvoice(ctx context.Context, id int64) error
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

// GetInvoice fetches one invoice header.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	return scanInvoice(r.pool.QueryRow(ctx, invoiceSelect+` WHERE id=$1`, id))
}

// GetLines fetches the lines of one invoice.
func (r *Repository) GetLines(ctx context.Context, invoiceID int64) ([]InvoiceLine, error) {
	rows, err := r.pool.Query(ctx, lineSelect+` WHERE invoice_id=$1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLines(rows)
}

// ListInvoices returns headers filtered by issue date.
func (r *Repository) ListInvoices(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, invoiceSelect+`
 WHERE ($1::timestamptz IS NULL OR issued_at >= $1)
   AND ($2::timestamptz IS NULL OR issued_at <= $2)
 ORDER BY issued_at DESC LIMIT $3`, nullTime(filter.From), nullTime(filter.To), limit)
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
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

const invoiceSelect = `SELECT id, number, COALESCE(customer_id, 0), total, discount, paid, status, issued_at, created_by, created_at FROM invoices`

const lineSelect = `SELECT id, invoice_id, product_id, qty, unit_price, unit_cost, movement FROM invoice_lines`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.CustomerID, &inv.Total, &inv.Discount, &inv.Paid, &inv.Status, &inv.IssuedAt, &inv.CreatedBy, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, err
	}
	return inv, nil
}

func collectLines(rows pgx.Rows) ([]InvoiceLine, error) {
	var lines []InvoiceLine
	for rows.Next() {
		var line InvoiceLine
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.ProductID, &line.Qty, &line.UnitPrice, &line.UnitCost, &line.Movement); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func (r *txRepo) GetProductCost(ctx context.Context, productID int64) (float64, error) {
	var cost float64
	err := r.tx.QueryRow(ctx, `SELECT cost_price FROM products WHERE id=$1`, productID).Scan(&cost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}
	return cost, nil
}

func (r *txRepo) InsertInvoice(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	var customerID any
	if inv.CustomerID != 0 {
		customerID = inv.CustomerID
	}
	err := r.tx.QueryRow(ctx, `INSERT INTO invoices (number, customer_id, total, discount, paid, status, issued_at, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW()) RETURNING id`,
		inv.Number, customerID, inv.Total, inv.Discount, inv.Paid, inv.Status, inv.IssuedAt, inv.CreatedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateNumber
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepo) InsertLines(ctx context.Context, invoiceID int64, lines []InvoiceLine) error {
	for _, line := range lines {
		_, err := r.tx.Exec(ctx, `INSERT INTO invoice_lines (invoice_id, product_id, qty, unit_price, unit_cost, movement)
VALUES ($1, $2, $3, $4, $5, $6)`, invoiceID, line.ProductID, line.Qty, line.UnitPrice, line.UnitCost, line.Movement)
		if err != nil {
			return err
		}
	}
	return nil
}

// ApplyStockDelta adjusts stock with a single atomic statement, avoiding
// the read-modify-write race across round trips.
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

func (r *txRepo) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	return scanInvoice(r.tx.QueryRow(ctx, invoiceSelect+` WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepo) GetLines(ctx context.Context, invoiceID int64) ([]InvoiceLine, error) {
	rows, err := r.tx.Query(ctx, lineSelect+` WHERE invoice_id=$1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLines(rows)
}

func (r *txRepo) DeleteInvoice(ctx context.Context, id int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id=$1`, id); err != nil {
		return err
	}
	tag, err := r.tx.Exec(ctx, `DELETE FROM invoices WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
