package dailybook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ledgerline/ledgerline/internal/expenses"
	"github.com/ledgerline/ledgerline/internal/invoicing"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// InvoicePort is the slice of the invoicing service the posting flow needs.
type InvoicePort interface {
	CreateInvoice(ctx context.Context, input invoicing.InvoiceInput) (*invoicing.Invoice, error)
}

// ExpensePort is the slice of the expenses service the posting flow needs.
type ExpensePort interface {
	CreateExpense(ctx context.Context, input expenses.ExpenseInput) (*expenses.Expense, error)
}

// IdempotencyPort guards each posting step with a unique key.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// FundsPort abstracts fund and summary persistence.
type FundsPort interface {
	AddFundDelta(ctx context.Context, name string, delta float64) (float64, error)
	UpsertSummary(ctx context.Context, s Summary) error
}

// Service posts a full day's book as a sequence of independently
// idempotent steps: sale invoice, return invoice, expenses, fund moves
// and the daily summary row. A failed step never blocks the remaining
// steps; every outcome is reported back to the caller.
type Service struct {
	logger   *slog.Logger
	invoices InvoicePort
	expenses ExpensePort
	funds    FundsPort
	idem     IdempotencyPort
}

// NewService builds Service.
func NewService(logger *slog.Logger, invoices InvoicePort, exp ExpensePort, funds FundsPort, idem IdempotencyPort) *Service {
	return &Service{logger: logger, invoices: invoices, expenses: exp, funds: funds, idem: idem}
}

const idemModule = "dailybook"

func validatePost(input PostInput) error {
	if input.Date.IsZero() {
		return ErrMissingDate
	}
	if len(input.Entries) == 0 && len(input.Expenses) == 0 && input.PropertyFund == 0 && input.OthersFund == 0 {
		return ErrEmptyDay
	}
	for _, e := range input.Entries {
		if e.QtySold < 0 || e.QtyReturned < 0 || e.UnitPrice < 0 {
			return ErrInvalidEntry
		}
	}
	for _, e := range input.Expenses {
		if e.Amount <= 0 {
			return ErrInvalidEntry
		}
	}
	return nil
}

// PostDailyBook runs every posting step for the date and reports per-step
// outcomes. Re-running the same date skips steps that already completed,
// so a partially failed post can be retried safely.
func (s *Service) PostDailyBook(ctx context.Context, input PostInput) (*PostResult, error) {
	if err := validatePost(input); err != nil {
		return nil, err
	}
	date := input.Date
	dateKey := date.Format("2006-01-02")
	result := &PostResult{Date: date}

	saleLines, returnLines := splitEntries(input.Entries)

	result.Steps = append(result.Steps, s.runStep(ctx, dateKey, "sale_invoice", func(ctx context.Context) error {
		if len(saleLines) == 0 {
			return nil
		}
		_, err := s.invoices.CreateInvoice(ctx, invoicing.InvoiceInput{
			Lines:    saleLines,
			Paid:     lineTotal(saleLines),
			IssuedAt: date,
			ActorID:  input.ActorID,
		})
		return err
	}))

	result.Steps = append(result.Steps, s.runStep(ctx, dateKey, "return_invoice", func(ctx context.Context) error {
		if len(returnLines) == 0 {
			return nil
		}
		_, err := s.invoices.CreateInvoice(ctx, invoicing.InvoiceInput{
			Lines:    returnLines,
			Paid:     lineTotal(returnLines),
			IssuedAt: date,
			ActorID:  input.ActorID,
		})
		return err
	}))

	result.Steps = append(result.Steps, s.runStep(ctx, dateKey, "expenses", func(ctx context.Context) error {
		for _, e := range input.Expenses {
			_, err := s.expenses.CreateExpense(ctx, expenses.ExpenseInput{
				OccurredAt:  date,
				Description: e.Description,
				Amount:      e.Amount,
				Category:    e.Category,
				ActorID:     input.ActorID,
			})
			if err != nil {
				return err
			}
		}
		return nil
	}))

	result.Steps = append(result.Steps, s.runStep(ctx, dateKey, "funds", func(ctx context.Context) error {
		if input.PropertyFund != 0 {
			if _, err := s.funds.AddFundDelta(ctx, FundProperty, input.PropertyFund); err != nil {
				return err
			}
		}
		if input.OthersFund != 0 {
			if _, err := s.funds.AddFundDelta(ctx, FundOthers, input.OthersFund); err != nil {
				return err
			}
		}
		return nil
	}))

	result.Steps = append(result.Steps, s.runStep(ctx, dateKey, "summary", func(ctx context.Context) error {
		return s.funds.UpsertSummary(ctx, buildSummary(input))
	}))

	if result.Failed() {
		s.logger.Warn("daily book posted with failed steps", slog.String("date", dateKey))
	}
	return result, nil
}

// runStep executes one step behind its idempotency key. Already-used keys
// mark the step skipped; a failed step releases its key so a retry can run
// it again.
func (s *Service) runStep(ctx context.Context, dateKey, step string, fn func(context.Context) error) StepResult {
	key := fmt.Sprintf("%s:%s:%s", idemModule, dateKey, step)
	if err := s.idem.CheckAndInsert(ctx, key, idemModule); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return StepResult{Step: step, State: StepSkipped, Detail: "already posted"}
		}
		return StepResult{Step: step, State: StepFailed, Detail: err.Error()}
	}
	if err := fn(ctx); err != nil {
		if delErr := s.idem.Delete(ctx, key); delErr != nil {
			s.logger.Error("idempotency key release failed", slog.String("key", key), slog.Any("error", delErr))
		}
		return StepResult{Step: step, State: StepFailed, Detail: err.Error()}
	}
	return StepResult{Step: step, State: StepDone}
}

// splitEntries builds the sale and return invoice carts. Returned
// quantities are re-signed negative so the invoice engine's single stock
// formula applies unchanged.
func splitEntries(entries []Entry) (sales, returns []invoicing.LineInput) {
	for _, e := range entries {
		if e.QtySold > 0 {
			sales = append(sales, invoicing.LineInput{ProductID: e.ProductID, Qty: e.QtySold, UnitPrice: e.UnitPrice})
		}
		if e.QtyReturned > 0 {
			returns = append(returns, invoicing.LineInput{ProductID: e.ProductID, Qty: -e.QtyReturned, UnitPrice: e.UnitPrice})
		}
	}
	return sales, returns
}

func lineTotal(lines []invoicing.LineInput) float64 {
	var total float64
	for _, l := range lines {
		total += float64(l.Qty) * l.UnitPrice
	}
	return total
}

func buildSummary(input PostInput) Summary {
	s := Summary{Date: input.Date, AdCostDollar: input.AdCostDollar}
	for _, e := range input.Entries {
		s.QtySold += e.QtySold
		s.QtyReturned += e.QtyReturned
		s.Revenue += float64(e.QtySold-e.QtyReturned) * e.UnitPrice
	}
	for _, e := range input.Expenses {
		s.ExpenseTotal += e.Amount
	}
	return s
}
