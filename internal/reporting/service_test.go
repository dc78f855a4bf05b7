package reporting

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/dailybook"
	"github.com/ledgerline/ledgerline/internal/expenses"
	"github.com/ledgerline/ledgerline/internal/investments"
	"github.com/ledgerline/ledgerline/internal/settings"
)

type fakeSales struct {
	lines     []CostedLine
	first     time.Time
	last      time.Time
	hasSales  bool
	adDollar  float64
	lineCalls int
}

func (f *fakeSales) CostedLines(ctx context.Context, from, to time.Time) ([]CostedLine, error) {
	f.lineCalls++
	return f.lines, nil
}

func (f *fakeSales) SalesSpan(ctx context.Context) (time.Time, time.Time, bool, error) {
	return f.first, f.last, f.hasSales, nil
}

func (f *fakeSales) AdDollarTotal(ctx context.Context, from, to time.Time) (float64, error) {
	return f.adDollar, nil
}

type fakeExpenses struct {
	rows []expenses.Expense
}

func (f *fakeExpenses) List(ctx context.Context, filter expenses.ListFilter) ([]expenses.Expense, error) {
	return f.rows, nil
}

type fakeInvestments struct {
	rows []investments.Investment
}

func (f *fakeInvestments) List(ctx context.Context, onlyActive bool) ([]investments.Investment, error) {
	return f.rows, nil
}

type fakeSettings struct {
	cfg settings.Settings
}

func (f *fakeSettings) Get(ctx context.Context) (*settings.Settings, error) {
	out := f.cfg
	return &out, nil
}

type fakeSummaries struct {
	rows map[string]dailybook.Summary
}

func (f *fakeSummaries) GetSummary(ctx context.Context, date string) (*dailybook.Summary, error) {
	s, ok := f.rows[date]
	if !ok {
		return nil, ErrNoSummary
	}
	return &s, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestComputeContribution(t *testing.T) {
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	c := ComputeContribution(day, 5, 1, 2, 200, 120, 120)
	require.EqualValues(t, 4, c.NetQty)
	require.InDelta(t, 800.0, c.Revenue, 0.0001)
	require.InDelta(t, 480.0, c.COGS, 0.0001)
	require.InDelta(t, 240.0, c.AdSpendTk, 0.0001)
	require.InDelta(t, 80.0, c.GrossContribution, 0.0001)
}

func TestProfitFold(t *testing.T) {
	sales := &fakeSales{
		lines: []CostedLine{
			{Qty: 3, UnitPrice: 100, UnitCost: 60},
			{Qty: -1, UnitPrice: 100, UnitCost: 60}, // a return subtracts from both sides
		},
		adDollar: 2,
	}
	exp := &fakeExpenses{rows: []expenses.Expense{
		{Amount: 50, Category: "tea"},
		{Amount: 500, Category: "office_rent"},
		{Amount: 999, Category: "withdrawal"}, // personal draw, not operating
	}}
	svc := NewService(testLogger(), sales, exp, &fakeInvestments{}, &fakeSettings{cfg: settings.Settings{DollarRate: 120}}, &fakeSummaries{}, nil, 0)

	report, err := svc.Profit(context.Background(), time.Time{}, time.Now())
	require.NoError(t, err)
	require.InDelta(t, 200.0, report.Revenue, 0.0001)
	require.InDelta(t, 120.0, report.COGS, 0.0001)
	require.InDelta(t, 80.0, report.GrossProfit, 0.0001)
	require.InDelta(t, 240.0, report.AdSpend, 0.0001)
	require.InDelta(t, 550.0, report.OperatingExpenses, 0.0001)
	require.InDelta(t, -710.0, report.NetProfit, 0.0001)
	require.NotEmpty(t, report.NetProfitDisplay)
}

func TestPartnerSharesProportionalSplit(t *testing.T) {
	sales := &fakeSales{
		lines:    []CostedLine{{Qty: 1, UnitPrice: 10000, UnitCost: 0}},
		first:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		last:     time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
		hasSales: true,
	}
	inv := &fakeInvestments{rows: []investments.Investment{
		{ID: 1, Name: "Partner A", Capital: 60000},
		{ID: 2, Name: "Partner B", Capital: 40000},
	}}
	svc := NewService(testLogger(), sales, &fakeExpenses{}, inv, &fakeSettings{cfg: settings.Settings{DollarRate: 120}}, &fakeSummaries{}, nil, 0)

	report, err := svc.PartnerShares(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.MonthSpan)
	require.InDelta(t, 10000.0, report.NetProfit, 0.0001)
	require.Len(t, report.Shares, 2)
	require.InDelta(t, 6000.0, report.Shares[0].Share, 0.0001)
	require.InDelta(t, 4000.0, report.Shares[1].Share, 0.0001)
}

func TestPartnerSharesAmortizesFixedCosts(t *testing.T) {
	sales := &fakeSales{
		lines:    []CostedLine{{Qty: 1, UnitPrice: 50000, UnitCost: 0}},
		first:    time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		last:     time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), // spans 3 calendar months
		hasSales: true,
	}
	inv := &fakeInvestments{rows: []investments.Investment{{ID: 1, Capital: 100000}}}
	cfg := settings.Settings{DollarRate: 120, OfficeRent: 4000, MonthlySalaries: 6000}
	svc := NewService(testLogger(), sales, &fakeExpenses{}, inv, &fakeSettings{cfg: cfg}, &fakeSummaries{}, nil, 0)

	report, err := svc.PartnerShares(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, report.MonthSpan)
	require.InDelta(t, 30000.0, report.TotalFixedCosts, 0.0001)
	require.InDelta(t, 20000.0, report.NetProfit, 0.0001)
}

func TestPartnerSharesNoCapital(t *testing.T) {
	svc := NewService(testLogger(), &fakeSales{}, &fakeExpenses{}, &fakeInvestments{}, &fakeSettings{}, &fakeSummaries{}, nil, 0)
	_, err := svc.PartnerShares(context.Background())
	require.ErrorIs(t, err, ErrNoCapital)
}

func TestDailyContribution(t *testing.T) {
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	sales := &fakeSales{lines: []CostedLine{{Qty: 4, UnitPrice: 200, UnitCost: 120}}}
	summaries := &fakeSummaries{rows: map[string]dailybook.Summary{
		"2026-08-20": {Date: day, QtySold: 5, QtyReturned: 1, Revenue: 800, AdCostDollar: 2},
	}}
	svc := NewService(testLogger(), sales, &fakeExpenses{}, &fakeInvestments{}, &fakeSettings{cfg: settings.Settings{DollarRate: 120}}, summaries, nil, 0)

	c, err := svc.DailyContribution(context.Background(), day)
	require.NoError(t, err)
	require.EqualValues(t, 4, c.NetQty)
	require.InDelta(t, 800.0, c.Revenue, 0.0001)
	require.InDelta(t, 480.0, c.COGS, 0.0001)
	require.InDelta(t, 240.0, c.AdSpendTk, 0.0001)
	require.InDelta(t, 80.0, c.GrossContribution, 0.0001)

	_, err = svc.DailyContribution(context.Background(), day.AddDate(0, 0, 1))
	require.ErrorIs(t, err, ErrNoSummary)
}

func TestDashboardServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	sales := &fakeSales{
		lines:    []CostedLine{{Qty: 2, UnitPrice: 500, UnitCost: 300}},
		first:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		last:     time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
		hasSales: true,
	}
	svc := NewService(testLogger(), sales, &fakeExpenses{}, &fakeInvestments{}, &fakeSettings{cfg: settings.Settings{DollarRate: 120}}, &fakeSummaries{}, cache, time.Minute)
	ctx := context.Background()

	first, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	require.InDelta(t, 1000.0, first.Profit.Revenue, 0.0001)
	callsAfterBuild := sales.lineCalls

	second, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	require.InDelta(t, first.Profit.Revenue, second.Profit.Revenue, 0.0001)
	require.Equal(t, callsAfterBuild, sales.lineCalls)

	// expiry forces a rebuild
	mr.FastForward(2 * time.Minute)
	_, err = svc.Dashboard(ctx)
	require.NoError(t, err)
	require.Greater(t, sales.lineCalls, callsAfterBuild)
}
