package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	CreateAccount(ctx context.Context, name string, opening float64) (*Account, error)
	GetAccount(ctx context.Context, id int64) (*Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	FindAccountsByName(ctx context.Context, fragment string) ([]Account, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]Transaction, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service keeps account balances consistent with their transactions.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// AddTransaction records an entry and applies its balance effect in one
// transaction. A transfer moves the amount between two accounts; income
// and expense touch a single account.
func (s *Service) AddTransaction(ctx context.Context, input TransactionInput) (*Transaction, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	switch input.Type {
	case TypeIncome, TypeExpense:
		if input.CounterAccountID != 0 {
			return nil, ErrTransferAccounts
		}
	case TypeTransfer:
		if input.CounterAccountID == 0 || input.CounterAccountID == input.AccountID {
			return nil, ErrTransferAccounts
		}
	default:
		return nil, ErrInvalidType
	}
	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	var created Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		txn := Transaction{
			AccountID:        input.AccountID,
			CounterAccountID: input.CounterAccountID,
			Amount:           input.Amount,
			Type:             input.Type,
			Description:      input.Description,
			OccurredAt:       occurredAt,
			CreatedBy:        input.ActorID,
		}
		id, err := tx.InsertTransaction(ctx, txn)
		if err != nil {
			return err
		}
		if _, err := tx.ApplyBalanceDelta(ctx, input.AccountID, input.Type.delta(input.Amount)); err != nil {
			return err
		}
		if input.Type == TypeTransfer {
			if _, err := tx.ApplyBalanceDelta(ctx, input.CounterAccountID, input.Amount); err != nil {
				return err
			}
		}
		txn.ID = id
		created = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   fmt.Sprintf("ledger:%s", input.Type),
			Entity:   "transaction",
			EntityID: fmt.Sprintf("%d", created.ID),
			Meta: map[string]any{
				"account_id": input.AccountID,
				"amount":     input.Amount,
			},
		})
	}
	return &created, nil
}

// DeleteTransaction removes an entry and reverses its balance effect using
// the transaction's own recorded type, in one transaction.
func (s *Service) DeleteTransaction(ctx context.Context, id int64, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		txn, err := tx.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		if _, err := tx.ApplyBalanceDelta(ctx, txn.AccountID, -txn.Type.delta(txn.Amount)); err != nil {
			return err
		}
		if txn.Type == TypeTransfer {
			if _, err := tx.ApplyBalanceDelta(ctx, txn.CounterAccountID, -txn.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "ledger:delete",
			Entity:   "transaction",
			EntityID: fmt.Sprintf("%d", id),
		})
	}
	return nil
}

// CreateAccount opens a named balance bucket.
func (s *Service) CreateAccount(ctx context.Context, name string, opening float64) (*Account, error) {
	if name == "" {
		return nil, fmt.Errorf("ledger: account name required")
	}
	return s.repo.CreateAccount(ctx, name, opening)
}

// GetAccount returns one account.
func (s *Service) GetAccount(ctx context.Context, id int64) (*Account, error) {
	return s.repo.GetAccount(ctx, id)
}

// ListAccounts returns every account.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.ListAccounts(ctx)
}

// ListTransactions returns entries for a filter.
func (s *Service) ListTransactions(ctx context.Context, filter ListFilter) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

// ResolveAccount finds a single account by a name fragment. It refuses
// ambiguous matches instead of guessing, so informal lookups can never
// route money to the wrong bucket.
func (s *Service) ResolveAccount(ctx context.Context, fragment string) (*Account, error) {
	matches, err := s.repo.FindAccountsByName(ctx, fragment)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, ErrAccountNotFound
	case 1:
		return &matches[0], nil
	default:
		return nil, ErrAmbiguousAccount
	}
}
