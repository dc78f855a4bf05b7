package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memProduct struct {
	stock int64
	cost  float64
}

type memTxn struct {
	accountID int64
	amount    float64
	desc      string
}

type memoryRepo struct {
	products map[int64]*memProduct
	accounts map[int64]float64
	txns     []memTxn
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]*memProduct), accounts: make(map[int64]float64)}
}

func (r *memoryRepo) clone() *memoryRepo {
	c := newMemoryRepo()
	for id, p := range r.products {
		cp := *p
		c.products[id] = &cp
	}
	for id, b := range r.accounts {
		c.accounts[id] = b
	}
	c.txns = append(c.txns, r.txns...)
	return c
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := r.clone()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		*r = *snapshot
		return err
	}
	return nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (tx *memoryTx) ApplyStockDelta(ctx context.Context, productID, delta int64) (int64, error) {
	p, ok := tx.repo.products[productID]
	if !ok {
		return 0, ErrProductNotFound
	}
	p.stock += delta
	return p.stock, nil
}

func (tx *memoryTx) SetCostPrice(ctx context.Context, productID int64, cost float64) error {
	p, ok := tx.repo.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	p.cost = cost
	return nil
}

func (tx *memoryTx) AccountExists(ctx context.Context, accountID int64) error {
	if _, ok := tx.repo.accounts[accountID]; !ok {
		return ErrAccountNotFound
	}
	return nil
}

func (tx *memoryTx) InsertExpenseTransaction(ctx context.Context, accountID int64, amount float64, desc string, actorID int64) (int64, error) {
	tx.repo.txns = append(tx.repo.txns, memTxn{accountID: accountID, amount: amount, desc: desc})
	return int64(len(tx.repo.txns)), nil
}

func (tx *memoryTx) ApplyAccountDelta(ctx context.Context, accountID int64, delta float64) (float64, error) {
	if _, ok := tx.repo.accounts[accountID]; !ok {
		return 0, ErrAccountNotFound
	}
	tx.repo.accounts[accountID] += delta
	return tx.repo.accounts[accountID], nil
}

func TestAdjustStockIsCumulative(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &memProduct{stock: 3}
	svc := NewService(repo, nil, true)
	ctx := context.Background()

	// the same correction twice moves stock twice
	for i := 0; i < 2; i++ {
		result, err := svc.AdjustStock(ctx, AdjustmentInput{ProductID: 1, Qty: 5, Type: AdjustmentIn, Reason: "recount"})
		require.NoError(t, err)
		require.EqualValues(t, 3+int64(5*(i+1)), result.NewStock)
	}
	require.EqualValues(t, 13, repo.products[1].stock)

	result, err := svc.AdjustStock(ctx, AdjustmentInput{ProductID: 1, Qty: 4, Type: AdjustmentOut, Reason: "damage"})
	require.NoError(t, err)
	require.EqualValues(t, 9, result.NewStock)
}

func TestAdjustStockNegativePolicy(t *testing.T) {
	ctx := context.Background()

	repo := newMemoryRepo()
	repo.products[1] = &memProduct{stock: 2}
	strict := NewService(repo, nil, false)
	_, err := strict.AdjustStock(ctx, AdjustmentInput{ProductID: 1, Qty: 5, Type: AdjustmentOut})
	require.ErrorIs(t, err, ErrNegativeStock)
	require.EqualValues(t, 2, repo.products[1].stock)

	loose := NewService(repo, nil, true)
	result, err := loose.AdjustStock(ctx, AdjustmentInput{ProductID: 1, Qty: 5, Type: AdjustmentOut})
	require.NoError(t, err)
	require.EqualValues(t, -3, result.NewStock)
}

func TestAdjustStockValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &memProduct{stock: 2}
	svc := NewService(repo, nil, true)
	ctx := context.Background()

	_, err := svc.AdjustStock(ctx, AdjustmentInput{ProductID: 1, Qty: 0, Type: AdjustmentIn})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AdjustStock(ctx, AdjustmentInput{ProductID: 1, Qty: 1, Type: "sideways"})
	require.ErrorIs(t, err, ErrInvalidType)

	_, err = svc.AdjustStock(ctx, AdjustmentInput{ProductID: 99, Qty: 1, Type: AdjustmentIn})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestPurchaseStockAppliesAllEffects(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &memProduct{stock: 10, cost: 100}
	repo.accounts[7] = 5000
	svc := NewService(repo, nil, true)
	ctx := context.Background()

	result, err := svc.PurchaseStock(ctx, PurchaseInput{ProductID: 1, Qty: 20, UnitCost: 120, AccountID: 7})
	require.NoError(t, err)
	require.EqualValues(t, 30, result.NewStock)
	require.InDelta(t, 120.0, repo.products[1].cost, 0.0001)
	require.InDelta(t, 2600.0, repo.accounts[7], 0.0001)
	require.Len(t, repo.txns, 1)
	require.InDelta(t, 2400.0, repo.txns[0].amount, 0.0001)
}

func TestPurchaseStockExplicitTotalWins(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &memProduct{stock: 0}
	repo.accounts[7] = 1000
	svc := NewService(repo, nil, true)
	ctx := context.Background()

	// supplier gave a bulk discount: total differs from qty*unit
	_, err := svc.PurchaseStock(ctx, PurchaseInput{ProductID: 1, Qty: 10, UnitCost: 50, TotalCost: 450, AccountID: 7})
	require.NoError(t, err)
	require.InDelta(t, 550.0, repo.accounts[7], 0.0001)
	require.InDelta(t, 50.0, repo.products[1].cost, 0.0001)
}

func TestPurchaseStockMissingAccountAborts(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &memProduct{stock: 10, cost: 100}
	svc := NewService(repo, nil, true)
	ctx := context.Background()

	_, err := svc.PurchaseStock(ctx, PurchaseInput{ProductID: 1, Qty: 5, UnitCost: 10, AccountID: 99})
	require.ErrorIs(t, err, ErrAccountNotFound)
	require.EqualValues(t, 10, repo.products[1].stock)
	require.InDelta(t, 100.0, repo.products[1].cost, 0.0001)
	require.Empty(t, repo.txns)
}

func TestPurchaseStockValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &memProduct{stock: 10}
	repo.accounts[7] = 100
	svc := NewService(repo, nil, true)
	ctx := context.Background()

	_, err := svc.PurchaseStock(ctx, PurchaseInput{ProductID: 1, Qty: 0, UnitCost: 10, AccountID: 7})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.PurchaseStock(ctx, PurchaseInput{ProductID: 1, Qty: 1, UnitCost: -5, AccountID: 7})
	require.ErrorIs(t, err, ErrInvalidCost)
}
