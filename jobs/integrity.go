package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// driftTolerance absorbs float rounding when comparing stored aggregates
// against sums over their rows.
const driftTolerance = 0.01

// LedgerIntegrityJob cross-checks the two ledger invariants: every
// invoice total equals the sum of its lines, and every account balance
// equals the signed sum of its transactions.
type LedgerIntegrityJob struct {
	Pool   *pgxpool.Pool
	Audit  *shared.AuditLogger
	Logger *slog.Logger
}

// NewLedgerIntegrityJob wires dependencies for the integrity handler.
func NewLedgerIntegrityJob(pool *pgxpool.Pool, audit *shared.AuditLogger, logger *slog.Logger) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{Pool: pool, Audit: audit, Logger: logger}
}

// Handle processes TaskLedgerIntegrity tasks.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	logger := j.logger()
	started := time.Now()
	logger.Info("starting ledger integrity scan")

	invoiceDrift, err := j.scanInvoices(ctx)
	if err != nil {
		logger.Error("invoice scan failed", slog.Any("error", err))
		return err
	}
	accountDrift, err := j.scanAccounts(ctx)
	if err != nil {
		logger.Error("account scan failed", slog.Any("error", err))
		return err
	}

	logger.Info("completed ledger integrity scan",
		slog.Int("invoice_findings", invoiceDrift),
		slog.Int("account_findings", accountDrift),
		slog.Duration("duration", time.Since(started)))
	return nil
}

func (j *LedgerIntegrityJob) scanInvoices(ctx context.Context) (int, error) {
	rows, err := j.Pool.Query(ctx, `SELECT i.id, i.total, COALESCE(SUM(l.qty * l.unit_price), 0) AS line_total
FROM invoices i
LEFT JOIN invoice_lines l ON l.invoice_id = i.id
GROUP BY i.id, i.total
HAVING ABS(i.total - COALESCE(SUM(l.qty * l.unit_price), 0)) > $1`, driftTolerance)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	findings := 0
	for rows.Next() {
		var id int64
		var total, lineTotal float64
		if err := rows.Scan(&id, &total, &lineTotal); err != nil {
			return findings, err
		}
		findings++
		j.report(ctx, "invoice", id, map[string]any{"stored_total": total, "line_total": lineTotal})
	}
	return findings, rows.Err()
}

func (j *LedgerIntegrityJob) scanAccounts(ctx context.Context) (int, error) {
	rows, err := j.Pool.Query(ctx, `WITH effect AS (
  SELECT account_id AS id,
         SUM(CASE WHEN type = 'income' THEN amount ELSE -amount END) AS delta
  FROM transactions GROUP BY account_id
  UNION ALL
  SELECT counter_account_id AS id, SUM(amount) AS delta
  FROM transactions WHERE type = 'transfer' AND counter_account_id IS NOT NULL
  GROUP BY counter_account_id
)
SELECT a.id, a.balance, a.opening_balance + COALESCE(SUM(e.delta), 0) AS expected
FROM accounts a
LEFT JOIN effect e ON e.id = a.id
GROUP BY a.id, a.balance, a.opening_balance
HAVING ABS(a.balance - (a.opening_balance + COALESCE(SUM(e.delta), 0))) > $1`, driftTolerance)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	findings := 0
	for rows.Next() {
		var id int64
		var balance, expected float64
		if err := rows.Scan(&id, &balance, &expected); err != nil {
			return findings, err
		}
		findings++
		j.report(ctx, "account", id, map[string]any{"stored_balance": balance, "expected_balance": expected})
	}
	return findings, rows.Err()
}

func (j *LedgerIntegrityJob) report(ctx context.Context, entity string, id int64, meta map[string]any) {
	j.logger().Warn("ledger drift detected",
		slog.String("entity", entity),
		slog.Int64("id", id),
		slog.Any("detail", meta))
	if j.Audit == nil {
		return
	}
	if err := j.Audit.Record(ctx, shared.AuditLog{
		Action:   "integrity:drift",
		Entity:   entity,
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	}); err != nil {
		j.logger().Error("record drift finding", slog.Any("error", err))
	}
}

func (j *LedgerIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerIntegrity))
	}
	return slog.Default().With(slog.String("job", TaskLedgerIntegrity))
}
