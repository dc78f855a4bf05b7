package dailybook

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/expenses"
	"github.com/ledgerline/ledgerline/internal/invoicing"
	"github.com/ledgerline/ledgerline/internal/shared"
)

type fakeInvoices struct {
	created []invoicing.InvoiceInput
	fail    bool
}

func (f *fakeInvoices) CreateInvoice(ctx context.Context, input invoicing.InvoiceInput) (*invoicing.Invoice, error) {
	if f.fail {
		return nil, errors.New("store unavailable")
	}
	f.created = append(f.created, input)
	return &invoicing.Invoice{ID: int64(len(f.created))}, nil
}

type fakeExpenses struct {
	created []expenses.ExpenseInput
}

func (f *fakeExpenses) CreateExpense(ctx context.Context, input expenses.ExpenseInput) (*expenses.Expense, error) {
	f.created = append(f.created, input)
	return &expenses.Expense{ID: int64(len(f.created)), Amount: input.Amount}, nil
}

type fakeFunds struct {
	balances  map[string]float64
	summaries []Summary
}

func newFakeFunds() *fakeFunds {
	return &fakeFunds{balances: make(map[string]float64)}
}

func (f *fakeFunds) AddFundDelta(ctx context.Context, name string, delta float64) (float64, error) {
	f.balances[name] += delta
	return f.balances[name], nil
}

func (f *fakeFunds) UpsertSummary(ctx context.Context, s Summary) error {
	f.summaries = append(f.summaries, s)
	return nil
}

type fakeIdem struct {
	keys map[string]struct{}
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{keys: make(map[string]struct{})}
}

func (f *fakeIdem) CheckAndInsert(ctx context.Context, key, module string) error {
	if _, ok := f.keys[key]; ok {
		return shared.ErrIdempotencyConflict
	}
	f.keys[key] = struct{}{}
	return nil
}

func (f *fakeIdem) Delete(ctx context.Context, key string) error {
	delete(f.keys, key)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func dayInput() PostInput {
	return PostInput{
		Date: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		Entries: []Entry{
			{ProductID: 1, QtySold: 5, QtyReturned: 1, UnitPrice: 200},
			{ProductID: 2, QtySold: 3, UnitPrice: 150},
		},
		Expenses:     []ExpenseEntry{{Description: "lunch", Amount: 400, Category: "tea"}},
		PropertyFund: 1000,
		OthersFund:   -200,
		AdCostDollar: 2,
	}
}

func TestPostSplitsSaleAndReturnInvoices(t *testing.T) {
	inv := &fakeInvoices{}
	exp := &fakeExpenses{}
	funds := newFakeFunds()
	svc := NewService(testLogger(), inv, exp, funds, newFakeIdem())

	result, err := svc.PostDailyBook(context.Background(), dayInput())
	require.NoError(t, err)
	require.False(t, result.Failed())
	require.Len(t, result.Steps, 5)
	for _, s := range result.Steps {
		require.Equal(t, StepDone, s.State, s.Step)
	}

	require.Len(t, inv.created, 2)
	sale := inv.created[0]
	require.Len(t, sale.Lines, 2)
	require.EqualValues(t, 5, sale.Lines[0].Qty)
	require.EqualValues(t, 3, sale.Lines[1].Qty)

	ret := inv.created[1]
	require.Len(t, ret.Lines, 1)
	require.EqualValues(t, -1, ret.Lines[0].Qty)

	require.Len(t, exp.created, 1)
	require.InDelta(t, 1000.0, funds.balances[FundProperty], 0.0001)
	require.InDelta(t, -200.0, funds.balances[FundOthers], 0.0001)

	require.Len(t, funds.summaries, 1)
	summary := funds.summaries[0]
	require.EqualValues(t, 8, summary.QtySold)
	require.EqualValues(t, 1, summary.QtyReturned)
	require.InDelta(t, 4*200.0+3*150.0, summary.Revenue, 0.0001)
	require.InDelta(t, 400.0, summary.ExpenseTotal, 0.0001)
}

func TestRerunSkipsCompletedSteps(t *testing.T) {
	inv := &fakeInvoices{}
	funds := newFakeFunds()
	svc := NewService(testLogger(), inv, &fakeExpenses{}, funds, newFakeIdem())
	ctx := context.Background()

	_, err := svc.PostDailyBook(ctx, dayInput())
	require.NoError(t, err)

	result, err := svc.PostDailyBook(ctx, dayInput())
	require.NoError(t, err)
	for _, s := range result.Steps {
		require.Equal(t, StepSkipped, s.State, s.Step)
	}
	// nothing posted twice
	require.Len(t, inv.created, 2)
	require.InDelta(t, 1000.0, funds.balances[FundProperty], 0.0001)
	require.Len(t, funds.summaries, 1)
}

func TestFailedStepIsReportedAndRetryable(t *testing.T) {
	inv := &fakeInvoices{fail: true}
	funds := newFakeFunds()
	idem := newFakeIdem()
	svc := NewService(testLogger(), inv, &fakeExpenses{}, funds, idem)
	ctx := context.Background()

	result, err := svc.PostDailyBook(ctx, dayInput())
	require.NoError(t, err)
	require.True(t, result.Failed())

	byStep := map[string]StepState{}
	for _, s := range result.Steps {
		byStep[s.Step] = s.State
	}
	require.Equal(t, StepFailed, byStep["sale_invoice"])
	require.Equal(t, StepFailed, byStep["return_invoice"])
	require.Equal(t, StepDone, byStep["expenses"])
	require.Equal(t, StepDone, byStep["funds"])
	require.Equal(t, StepDone, byStep["summary"])

	// the failed steps released their keys; a retry runs only them
	inv.fail = false
	result, err = svc.PostDailyBook(ctx, dayInput())
	require.NoError(t, err)
	byStep = map[string]StepState{}
	for _, s := range result.Steps {
		byStep[s.Step] = s.State
	}
	require.Equal(t, StepDone, byStep["sale_invoice"])
	require.Equal(t, StepDone, byStep["return_invoice"])
	require.Equal(t, StepSkipped, byStep["expenses"])
	require.Equal(t, StepSkipped, byStep["funds"])

	// funds were not double-applied by the retry
	require.InDelta(t, 1000.0, funds.balances[FundProperty], 0.0001)
}

// invoiceStore is a minimal in-memory invoicing.RepositoryPort so the
// posting flow can run against the real invoicing service.
type invoiceStore struct {
	stock    map[int64]int64
	cost     map[int64]float64
	invoices []invoicing.Invoice
	lines    map[int64][]invoicing.InvoiceLine
	nextID   int64
}

func newInvoiceStore() *invoiceStore {
	return &invoiceStore{
		stock: make(map[int64]int64),
		cost:  make(map[int64]float64),
		lines: make(map[int64][]invoicing.InvoiceLine),
	}
}

func (s *invoiceStore) WithTx(ctx context.Context, fn func(context.Context, invoicing.TxRepository) error) error {
	return fn(ctx, s)
}

func (s *invoiceStore) GetProductCost(ctx context.Context, productID int64) (float64, error) {
	if _, ok := s.stock[productID]; !ok {
		return 0, invoicing.ErrProductNotFound
	}
	return s.cost[productID], nil
}

func (s *invoiceStore) InsertInvoice(ctx context.Context, inv invoicing.Invoice) (int64, error) {
	s.nextID++
	inv.ID = s.nextID
	s.invoices = append(s.invoices, inv)
	return inv.ID, nil
}

func (s *invoiceStore) InsertLines(ctx context.Context, invoiceID int64, lines []invoicing.InvoiceLine) error {
	s.lines[invoiceID] = append(s.lines[invoiceID], lines...)
	return nil
}

func (s *invoiceStore) ApplyStockDelta(ctx context.Context, productID, delta int64) (int64, error) {
	if _, ok := s.stock[productID]; !ok {
		return 0, invoicing.ErrProductNotFound
	}
	s.stock[productID] += delta
	return s.stock[productID], nil
}

func (s *invoiceStore) GetInvoice(ctx context.Context, id int64) (invoicing.Invoice, error) {
	for _, inv := range s.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return invoicing.Invoice{}, invoicing.ErrNotFound
}

func (s *invoiceStore) GetLines(ctx context.Context, invoiceID int64) ([]invoicing.InvoiceLine, error) {
	return s.lines[invoiceID], nil
}

func (s *invoiceStore) ListInvoices(ctx context.Context, filter invoicing.ListFilter) ([]invoicing.Invoice, error) {
	return s.invoices, nil
}

func (s *invoiceStore) DeleteInvoice(ctx context.Context, id int64) error {
	return invoicing.ErrNotFound
}

// The fakes above accept anything, so this test drives the whole day
// through the real invoicing service to pin down the input contract
// between the two modules.
func TestPostThroughRealInvoicingService(t *testing.T) {
	store := newInvoiceStore()
	store.stock[1], store.cost[1] = 10, 120
	store.stock[2], store.cost[2] = 5, 90
	invoiceSvc := invoicing.NewService(store, nil, invoicing.ServiceConfig{AllowNegativeStock: true})
	svc := NewService(testLogger(), invoiceSvc, &fakeExpenses{}, newFakeFunds(), newFakeIdem())

	result, err := svc.PostDailyBook(context.Background(), dayInput())
	require.NoError(t, err)
	require.False(t, result.Failed())
	for _, s := range result.Steps {
		require.Equal(t, StepDone, s.State, s.Step)
	}

	// sold 5 then 1 came back on product 1; product 2 only sold
	require.EqualValues(t, 6, store.stock[1])
	require.EqualValues(t, 2, store.stock[2])

	require.Len(t, store.invoices, 2)
	sale, ret := store.invoices[0], store.invoices[1]
	require.InDelta(t, 5*200.0+3*150.0, sale.Total, 0.0001)
	require.Equal(t, invoicing.StatusPaid, sale.Status)

	// the return invoice settles as a refund paid back to the customer
	require.InDelta(t, -200.0, ret.Total, 0.0001)
	require.InDelta(t, -200.0, ret.Paid, 0.0001)
	require.Equal(t, invoicing.StatusPaid, ret.Status)
}

func TestPostValidation(t *testing.T) {
	svc := NewService(testLogger(), &fakeInvoices{}, &fakeExpenses{}, newFakeFunds(), newFakeIdem())
	ctx := context.Background()

	_, err := svc.PostDailyBook(ctx, PostInput{})
	require.ErrorIs(t, err, ErrMissingDate)

	_, err = svc.PostDailyBook(ctx, PostInput{Date: time.Now()})
	require.ErrorIs(t, err, ErrEmptyDay)

	_, err = svc.PostDailyBook(ctx, PostInput{
		Date:    time.Now(),
		Entries: []Entry{{ProductID: 1, QtySold: -1}},
	})
	require.ErrorIs(t, err, ErrInvalidEntry)
}
