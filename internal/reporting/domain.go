package reporting

import (
	"errors"
	"time"
)

// CostedLine is an invoice line paired with the unit cost reporting should
// charge against it: the line's write-time snapshot when present, else the
// product's current cost price (fallback for rows that predate snapshots).
type CostedLine struct {
	Qty       int64
	UnitPrice float64
	UnitCost  float64
}

// ProfitReport is the profit fold over a date range.
type ProfitReport struct {
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	Revenue           float64   `json:"revenue"`
	COGS              float64   `json:"cogs"`
	GrossProfit       float64   `json:"gross_profit"`
	AdSpend           float64   `json:"ad_spend"`
	OperatingExpenses float64   `json:"operating_expenses"`
	NetProfit         float64   `json:"net_profit"`
	NetProfitDisplay  string    `json:"net_profit_display"`
}

// PartnerShare is one investment's slice of net profit.
type PartnerShare struct {
	InvestmentID int64   `json:"investment_id"`
	Name         string  `json:"name"`
	Capital      float64 `json:"capital"`
	Fraction     float64 `json:"fraction"`
	Share        float64 `json:"share"`
	ShareDisplay string  `json:"share_display"`
}

// ShareReport is the partner profit-share breakdown over the dataset's
// whole date span.
type ShareReport struct {
	MonthSpan       int            `json:"month_span"`
	TotalFixedCosts float64        `json:"total_fixed_costs"`
	NetProfit       float64        `json:"net_profit"`
	TotalCapital    float64        `json:"total_capital"`
	Shares          []PartnerShare `json:"shares"`
}

// DailyContribution is the per-day scenario fold: net quantity, revenue,
// cost and ad spend converted at the configured dollar rate.
type DailyContribution struct {
	Date              time.Time `json:"date"`
	NetQty            int64     `json:"net_qty"`
	Revenue           float64   `json:"revenue"`
	COGS              float64   `json:"cogs"`
	AdSpendTk         float64   `json:"ad_spend_tk"`
	GrossContribution float64   `json:"gross_contribution"`
}

// Dashboard is the cached composite report.
type Dashboard struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Profit      ProfitReport `json:"profit"`
	Cohorts     CohortBreak  `json:"expense_cohorts"`
	Shares      ShareReport  `json:"partner_shares"`
}

// CohortBreak mirrors the expense cohort totals for report payloads.
type CohortBreak struct {
	Fixed    float64 `json:"fixed"`
	Daily    float64 `json:"daily"`
	Personal float64 `json:"personal"`
	Assets   float64 `json:"assets"`
}

var (
	// ErrNoCapital indicates share math over zero total capital.
	ErrNoCapital = errors.New("reporting: no active capital to share against")
	// ErrNoSummary indicates a missing daily ledger row.
	ErrNoSummary = errors.New("reporting: no daily summary for date")
)
