package expenses

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, input ExpenseInput) (*Expense, error)
	Get(ctx context.Context, id int64) (*Expense, error)
	List(ctx context.Context, filter ListFilter) ([]Expense, error)
	Delete(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages spend rows and their cohort classification.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateExpense records a spend row. Amounts must be positive; malformed
// input is rejected, never coerced to zero.
func (s *Service) CreateExpense(ctx context.Context, input ExpenseInput) (*Expense, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if input.OccurredAt.IsZero() {
		input.OccurredAt = time.Now().UTC()
	}
	expense, err := s.repo.Insert(ctx, input)
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "expenses:create",
			Entity:   "expense",
			EntityID: fmt.Sprintf("%d", expense.ID),
			Meta:     map[string]any{"amount": expense.Amount, "category": expense.Category},
		})
	}
	return expense, nil
}

// GetExpense returns one expense.
func (s *Service) GetExpense(ctx context.Context, id int64) (*Expense, error) {
	return s.repo.Get(ctx, id)
}

// ListExpenses returns expenses for a filter.
func (s *Service) ListExpenses(ctx context.Context, filter ListFilter) ([]Expense, error) {
	return s.repo.List(ctx, filter)
}

// DeleteExpense removes an expense row.
func (s *Service) DeleteExpense(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "expenses:delete",
			Entity:   "expense",
			EntityID: fmt.Sprintf("%d", id),
		})
	}
	return nil
}

// BucketTotals folds a set of expenses into per-cohort totals.
func BucketTotals(list []Expense) CohortTotals {
	var totals CohortTotals
	for _, e := range list {
		switch Classify(e.Category) {
		case CohortFixed:
			totals.Fixed += e.Amount
		case CohortPersonal:
			totals.Personal += e.Amount
		case CohortAssets:
			totals.Assets += e.Amount
		default:
			totals.Daily += e.Amount
		}
	}
	return totals
}
