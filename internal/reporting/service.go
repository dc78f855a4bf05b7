package reporting

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ledgerline/ledgerline/internal/dailybook"
	"github.com/ledgerline/ledgerline/internal/expenses"
	"github.com/ledgerline/ledgerline/internal/investments"
	"github.com/ledgerline/ledgerline/internal/settings"
)

// SalesReader reads invoice line aggregates.
type SalesReader interface {
	CostedLines(ctx context.Context, from, to time.Time) ([]CostedLine, error)
	SalesSpan(ctx context.Context) (first, last time.Time, ok bool, err error)
	AdDollarTotal(ctx context.Context, from, to time.Time) (float64, error)
}

// ExpenseReader reads expense rows.
type ExpenseReader interface {
	List(ctx context.Context, filter expenses.ListFilter) ([]expenses.Expense, error)
}

// InvestmentReader reads partner stakes.
type InvestmentReader interface {
	List(ctx context.Context, onlyActive bool) ([]investments.Investment, error)
}

// SettingsReader reads the reporting configuration row.
type SettingsReader interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// SummaryReader reads daily ledger rows.
type SummaryReader interface {
	GetSummary(ctx context.Context, date string) (*dailybook.Summary, error)
}

// Service folds ledger rows into report figures. Every report is a
// stateless reduction over the current store snapshot; only the dashboard
// composite is cached.
type Service struct {
	logger      *slog.Logger
	sales       SalesReader
	expenses    ExpenseReader
	investments InvestmentReader
	settings    SettingsReader
	summaries   SummaryReader
	cache       *redis.Client
	cacheTTL    time.Duration
	group       singleflight.Group
	printer     *message.Printer
}

// NewService builds Service. cache may be nil, which disables dashboard
// caching.
func NewService(logger *slog.Logger, sales SalesReader, exp ExpenseReader, inv InvestmentReader, set SettingsReader, sum SummaryReader, cache *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{
		logger:      logger,
		sales:       sales,
		expenses:    exp,
		investments: inv,
		settings:    set,
		summaries:   sum,
		cache:       cache,
		cacheTTL:    cacheTTL,
		printer:     message.NewPrinter(language.English),
	}
}

// dashboardCacheKey is versioned so a payload shape change invalidates old
// entries by key, not by flush.
const dashboardCacheKey = "reports:dashboard:v1"

func foldLines(lines []CostedLine) (revenue, cogs float64) {
	for _, l := range lines {
		revenue += float64(l.Qty) * l.UnitPrice
		cogs += float64(l.Qty) * l.UnitCost
	}
	return revenue, cogs
}

// Profit folds revenue, COGS, ad spend and operating expenses over a
// range. Operating expenses are the fixed and daily cohorts; personal
// draws and asset purchases do not reduce trading profit.
func (s *Service) Profit(ctx context.Context, from, to time.Time) (*ProfitReport, error) {
	lines, err := s.sales.CostedLines(ctx, from, to)
	if err != nil {
		return nil, err
	}
	revenue, cogs := foldLines(lines)

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	adDollar, err := s.sales.AdDollarTotal(ctx, from, to)
	if err != nil {
		return nil, err
	}
	adSpend := adDollar * cfg.DollarRate

	spend, err := s.expenses.List(ctx, expenses.ListFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	totals := expenses.BucketTotals(spend)
	operating := totals.Fixed + totals.Daily

	net := revenue - cogs - adSpend - operating
	return &ProfitReport{
		From:              from,
		To:                to,
		Revenue:           revenue,
		COGS:              cogs,
		GrossProfit:       revenue - cogs,
		AdSpend:           adSpend,
		OperatingExpenses: operating,
		NetProfit:         net,
		NetProfitDisplay:  s.printer.Sprintf("%.2f", net),
	}, nil
}

// monthSpan counts inclusive calendar months between two dates.
func monthSpan(first, last time.Time) int {
	span := (last.Year()-first.Year())*12 + int(last.Month()) - int(first.Month()) + 1
	if span < 1 {
		return 1
	}
	return span
}

// PartnerShares splits net profit over the dataset's whole date span
// proportionally to each active investment's capital. Fixed costs are
// amortized as monthly fixed cost times the month span, never less than
// one month.
func (s *Service) PartnerShares(ctx context.Context) (*ShareReport, error) {
	stakes, err := s.investments.List(ctx, true)
	if err != nil {
		return nil, err
	}
	var totalCapital float64
	for _, inv := range stakes {
		totalCapital += inv.Capital
	}
	if totalCapital <= 0 {
		return nil, ErrNoCapital
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	first, last, ok, err := s.sales.SalesSpan(ctx)
	if err != nil {
		return nil, err
	}
	months := 1
	var revenue, cogs, adSpend, dailySpend float64
	if ok {
		months = monthSpan(first, last)
		lines, err := s.sales.CostedLines(ctx, first, last)
		if err != nil {
			return nil, err
		}
		revenue, cogs = foldLines(lines)
		adDollar, err := s.sales.AdDollarTotal(ctx, first, last)
		if err != nil {
			return nil, err
		}
		adSpend = adDollar * cfg.DollarRate
		spend, err := s.expenses.List(ctx, expenses.ListFilter{From: first, To: last})
		if err != nil {
			return nil, err
		}
		dailySpend = expenses.BucketTotals(spend).Daily
	}

	totalFixed := cfg.MonthlyFixedCost() * float64(months)
	net := revenue - cogs - adSpend - dailySpend - totalFixed

	report := &ShareReport{
		MonthSpan:       months,
		TotalFixedCosts: totalFixed,
		NetProfit:       net,
		TotalCapital:    totalCapital,
	}
	for _, inv := range stakes {
		fraction := inv.Capital / totalCapital
		share := fraction * net
		report.Shares = append(report.Shares, PartnerShare{
			InvestmentID: inv.ID,
			Name:         inv.Name,
			Capital:      inv.Capital,
			Fraction:     fraction,
			Share:        share,
			ShareDisplay: s.printer.Sprintf("%.2f", share),
		})
	}
	return report, nil
}

// ComputeContribution is the per-day scenario fold for one product row.
func ComputeContribution(date time.Time, sold, returned int64, adCostDollar, sellingPrice, costPrice, dollarRate float64) DailyContribution {
	netQty := sold - returned
	revenue := float64(netQty) * sellingPrice
	cogs := float64(netQty) * costPrice
	adTk := adCostDollar * dollarRate
	return DailyContribution{
		Date:              date,
		NetQty:            netQty,
		Revenue:           revenue,
		COGS:              cogs,
		AdSpendTk:         adTk,
		GrossContribution: revenue - cogs - adTk,
	}
}

// DailyContribution folds one posted day's ledger row against that day's
// invoice lines.
func (s *Service) DailyContribution(ctx context.Context, date time.Time) (*DailyContribution, error) {
	summary, err := s.summaries.GetSummary(ctx, date.Format("2006-01-02"))
	if err != nil {
		return nil, ErrNoSummary
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)
	lines, err := s.sales.CostedLines(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	_, cogs := foldLines(lines)
	adTk := summary.AdCostDollar * cfg.DollarRate
	return &DailyContribution{
		Date:              summary.Date,
		NetQty:            summary.QtySold - summary.QtyReturned,
		Revenue:           summary.Revenue,
		COGS:              cogs,
		AdSpendTk:         adTk,
		GrossContribution: summary.Revenue - cogs - adTk,
	}, nil
}

// CohortTotals buckets expenses over a range.
func (s *Service) CohortTotals(ctx context.Context, from, to time.Time) (CohortBreak, error) {
	spend, err := s.expenses.List(ctx, expenses.ListFilter{From: from, To: to})
	if err != nil {
		return CohortBreak{}, err
	}
	totals := expenses.BucketTotals(spend)
	return CohortBreak{
		Fixed:    totals.Fixed,
		Daily:    totals.Daily,
		Personal: totals.Personal,
		Assets:   totals.Assets,
	}, nil
}

// Dashboard returns the cached composite report, rebuilding it at most
// once per TTL window. Concurrent rebuild requests collapse to one.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, dashboardCacheKey).Bytes()
		if err == nil {
			var cached Dashboard
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("dashboard cache read failed", slog.Any("error", err))
		}
	}

	v, err, _ := s.group.Do(dashboardCacheKey, func() (any, error) {
		return s.buildDashboard(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dashboard), nil
}

func (s *Service) buildDashboard(ctx context.Context) (*Dashboard, error) {
	first, last, ok, err := s.sales.SalesSpan(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		first = time.Now().UTC().AddDate(0, -1, 0)
		last = time.Now().UTC()
	}
	profit, err := s.Profit(ctx, first, last)
	if err != nil {
		return nil, err
	}
	cohorts, err := s.CohortTotals(ctx, first, last)
	if err != nil {
		return nil, err
	}
	dash := &Dashboard{
		GeneratedAt: time.Now().UTC(),
		Profit:      *profit,
		Cohorts:     cohorts,
	}
	shares, err := s.PartnerShares(ctx)
	if err == nil {
		dash.Shares = *shares
	} else if err != ErrNoCapital {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(dash); err == nil {
			if err := s.cache.Set(ctx, dashboardCacheKey, raw, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("dashboard cache write failed", slog.Any("error", err))
			}
		}
	}
	return dash, nil
}
