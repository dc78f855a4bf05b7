package ledger

import (
	"errors"
	"time"
)

// TransactionType enumerates ledger entry kinds.
type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

// Account is a named balance bucket. Balance always reflects the sum of
// signed transaction amounts applied over its lifetime.
type Account struct {
	ID        int64
	Name      string
	Balance   float64
	CreatedAt time.Time
}

// Transaction is one ledger entry. Amount is always a positive magnitude;
// the type decides the direction. A transfer moves Amount from AccountID
// to CounterAccountID.
type Transaction struct {
	ID               int64
	AccountID        int64
	CounterAccountID int64
	Amount           float64
	Type             TransactionType
	Description      string
	OccurredAt       time.Time
	CreatedBy        int64
	CreatedAt        time.Time
}

// TransactionInput describes an add request.
type TransactionInput struct {
	AccountID        int64
	CounterAccountID int64
	Amount           float64
	Type             TransactionType
	Description      string
	OccurredAt       time.Time
	ActorID          int64
}

var (
	// ErrAccountNotFound indicates a missing account.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrTransactionNotFound indicates a missing transaction.
	ErrTransactionNotFound = errors.New("ledger: transaction not found")
	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = errors.New("ledger: amount must be > 0")
	// ErrInvalidType indicates an unknown transaction type.
	ErrInvalidType = errors.New("ledger: unknown transaction type")
	// ErrTransferAccounts indicates a transfer without two distinct accounts.
	ErrTransferAccounts = errors.New("ledger: transfer requires two distinct accounts")
	// ErrAmbiguousAccount indicates a name lookup matching several accounts.
	ErrAmbiguousAccount = errors.New("ledger: account name matches multiple accounts")
)

// delta returns the signed effect of the transaction on its primary
// account.
func (t TransactionType) delta(amount float64) float64 {
	if t == TypeIncome {
		return amount
	}
	return -amount
}

// ListFilter narrows transaction listings.
type ListFilter struct {
	AccountID int64
	From      time.Time
	To        time.Time
	Limit     int
}
