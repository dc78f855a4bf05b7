package ledger

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	accounts map[int64]*Account
	txns     map[int64]Transaction
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: make(map[int64]*Account), txns: make(map[int64]Transaction)}
}

func (r *memoryRepo) addAccount(id int64, name string, balance float64) {
	r.accounts[id] = &Account{ID: id, Name: name, Balance: balance}
}

type memoryTx struct {
	repo *memoryRepo
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := r.clone()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		*r = *snapshot
		return err
	}
	return nil
}

func (r *memoryRepo) clone() *memoryRepo {
	c := newMemoryRepo()
	c.nextID = r.nextID
	for id, a := range r.accounts {
		ca := *a
		c.accounts[id] = &ca
	}
	for id, t := range r.txns {
		c.txns[id] = t
	}
	return c
}

func (r *memoryRepo) CreateAccount(ctx context.Context, name string, opening float64) (*Account, error) {
	r.nextID++
	a := &Account{ID: r.nextID, Name: name, Balance: opening}
	r.accounts[a.ID] = a
	return a, nil
}

func (r *memoryRepo) GetAccount(ctx context.Context, id int64) (*Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	out := *a
	return &out, nil
}

func (r *memoryRepo) ListAccounts(ctx context.Context) ([]Account, error) {
	var out []Account
	for _, a := range r.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (r *memoryRepo) FindAccountsByName(ctx context.Context, fragment string) ([]Account, error) {
	var out []Account
	for _, a := range r.accounts {
		if strings.Contains(strings.ToLower(a.Name), strings.ToLower(fragment)) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListTransactions(ctx context.Context, filter ListFilter) ([]Transaction, error) {
	var out []Transaction
	for _, t := range r.txns {
		out = append(out, t)
	}
	return out, nil
}

func (tx *memoryTx) InsertTransaction(ctx context.Context, txn Transaction) (int64, error) {
	tx.repo.nextID++
	txn.ID = tx.repo.nextID
	tx.repo.txns[txn.ID] = txn
	return txn.ID, nil
}

func (tx *memoryTx) ApplyBalanceDelta(ctx context.Context, accountID int64, delta float64) (float64, error) {
	a, ok := tx.repo.accounts[accountID]
	if !ok {
		return 0, ErrAccountNotFound
	}
	a.Balance += delta
	return a.Balance, nil
}

func (tx *memoryTx) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	t, ok := tx.repo.txns[id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, nil
}

func (tx *memoryTx) DeleteTransaction(ctx context.Context, id int64) error {
	if _, ok := tx.repo.txns[id]; !ok {
		return ErrTransactionNotFound
	}
	delete(tx.repo.txns, id)
	return nil
}

func TestIncomeAndExpenseBalances(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "Cash", 50)
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.AddTransaction(ctx, TransactionInput{AccountID: 1, Amount: 100, Type: TypeIncome})
	require.NoError(t, err)
	require.InDelta(t, 150.0, repo.accounts[1].Balance, 0.0001)

	_, err = svc.AddTransaction(ctx, TransactionInput{AccountID: 1, Amount: 30, Type: TypeExpense})
	require.NoError(t, err)
	require.InDelta(t, 120.0, repo.accounts[1].Balance, 0.0001)
}

func TestAddThenDeleteRestoresBalance(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "Cash", 500)
	svc := NewService(repo, nil)
	ctx := context.Background()

	inputs := []TransactionInput{
		{AccountID: 1, Amount: 120, Type: TypeIncome},
		{AccountID: 1, Amount: 45, Type: TypeExpense},
		{AccountID: 1, Amount: 300, Type: TypeIncome},
		{AccountID: 1, Amount: 75, Type: TypeExpense},
	}
	var ids []int64
	for _, in := range inputs {
		txn, err := svc.AddTransaction(ctx, in)
		require.NoError(t, err)
		ids = append(ids, txn.ID)
	}
	require.InDelta(t, 800.0, repo.accounts[1].Balance, 0.0001)

	// delete out of order; reversal uses each entry's own recorded type
	for _, id := range []int64{ids[2], ids[0], ids[3], ids[1]} {
		require.NoError(t, svc.DeleteTransaction(ctx, id, 0))
	}
	require.InDelta(t, 500.0, repo.accounts[1].Balance, 0.0001)
}

func TestTransferMovesBetweenAccounts(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "Cash", 1000)
	repo.addAccount(2, "Bank", 200)
	svc := NewService(repo, nil)
	ctx := context.Background()

	txn, err := svc.AddTransaction(ctx, TransactionInput{AccountID: 1, CounterAccountID: 2, Amount: 250, Type: TypeTransfer})
	require.NoError(t, err)
	require.InDelta(t, 750.0, repo.accounts[1].Balance, 0.0001)
	require.InDelta(t, 450.0, repo.accounts[2].Balance, 0.0001)

	require.NoError(t, svc.DeleteTransaction(ctx, txn.ID, 0))
	require.InDelta(t, 1000.0, repo.accounts[1].Balance, 0.0001)
	require.InDelta(t, 200.0, repo.accounts[2].Balance, 0.0001)
}

func TestTransactionValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "Cash", 0)
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.AddTransaction(ctx, TransactionInput{AccountID: 1, Amount: 0, Type: TypeIncome})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.AddTransaction(ctx, TransactionInput{AccountID: 1, Amount: 10, Type: "refund"})
	require.ErrorIs(t, err, ErrInvalidType)

	_, err = svc.AddTransaction(ctx, TransactionInput{AccountID: 1, Amount: 10, Type: TypeTransfer})
	require.ErrorIs(t, err, ErrTransferAccounts)

	_, err = svc.AddTransaction(ctx, TransactionInput{AccountID: 1, CounterAccountID: 1, Amount: 10, Type: TypeTransfer})
	require.ErrorIs(t, err, ErrTransferAccounts)

	_, err = svc.AddTransaction(ctx, TransactionInput{AccountID: 1, CounterAccountID: 2, Amount: 10, Type: TypeIncome})
	require.ErrorIs(t, err, ErrTransferAccounts)
}

func TestMissingAccountAbortsWithoutEffect(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "Cash", 100)
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.AddTransaction(ctx, TransactionInput{AccountID: 9, Amount: 10, Type: TypeIncome})
	require.ErrorIs(t, err, ErrAccountNotFound)
	require.Empty(t, repo.txns)

	// transfer to a missing counter account rolls everything back
	_, err = svc.AddTransaction(ctx, TransactionInput{AccountID: 1, CounterAccountID: 9, Amount: 10, Type: TypeTransfer})
	require.ErrorIs(t, err, ErrAccountNotFound)
	require.Empty(t, repo.txns)
	require.InDelta(t, 100.0, repo.accounts[1].Balance, 0.0001)
}

func TestResolveAccount(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "City Bank", 0)
	repo.addAccount(2, "Cash Drawer", 0)
	repo.addAccount(3, "Brac Bank", 0)
	svc := NewService(repo, nil)
	ctx := context.Background()

	account, err := svc.ResolveAccount(ctx, "city")
	require.NoError(t, err)
	require.EqualValues(t, 1, account.ID)

	_, err = svc.ResolveAccount(ctx, "bank")
	require.ErrorIs(t, err, ErrAmbiguousAccount)

	_, err = svc.ResolveAccount(ctx, "wallet")
	require.ErrorIs(t, err, ErrAccountNotFound)
}
