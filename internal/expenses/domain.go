package expenses

import (
	"errors"
	"time"
)

// Cohort is the report bucket an expense category falls into.
type Cohort string

const (
	CohortFixed    Cohort = "fixed"
	CohortDaily    Cohort = "daily"
	CohortPersonal Cohort = "personal"
	CohortAssets   Cohort = "assets"
)

// Membership lists for cohort classification. A category missing from every
// list defaults to the daily cohort.
var (
	fixedCategories = map[string]struct{}{
		"office_rent":  {},
		"salary":       {},
		"utilities":    {},
		"internet":     {},
		"subscription": {},
	}
	personalCategories = map[string]struct{}{
		"personal":   {},
		"family":     {},
		"withdrawal": {},
		"donation":   {},
	}
	assetsCategories = map[string]struct{}{
		"equipment": {},
		"furniture": {},
		"vehicle":   {},
		"asset":     {},
	}
)

// Classify maps a category tag to its cohort.
func Classify(category string) Cohort {
	if _, ok := fixedCategories[category]; ok {
		return CohortFixed
	}
	if _, ok := personalCategories[category]; ok {
		return CohortPersonal
	}
	if _, ok := assetsCategories[category]; ok {
		return CohortAssets
	}
	return CohortDaily
}

// Expense is a single spend row used for ROI reporting.
type Expense struct {
	ID          int64
	OccurredAt  time.Time
	Description string
	Amount      float64
	Category    string
	CreatedBy   int64
	CreatedAt   time.Time
}

// ExpenseInput is the write shape for an expense.
type ExpenseInput struct {
	OccurredAt  time.Time
	Description string
	Amount      float64
	Category    string
	ActorID     int64
}

// CohortTotals aggregates expense amounts per cohort.
type CohortTotals struct {
	Fixed    float64
	Daily    float64
	Personal float64
	Assets   float64
}

// Total sums every cohort.
func (c CohortTotals) Total() float64 {
	return c.Fixed + c.Daily + c.Personal + c.Assets
}

// ListFilter narrows expense queries.
type ListFilter struct {
	From time.Time
	To   time.Time
}

var (
	// ErrNotFound indicates a missing expense row.
	ErrNotFound = errors.New("expenses: not found")
	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = errors.New("expenses: amount must be > 0")
)
