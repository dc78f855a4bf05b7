package dailybook

import (
	"errors"
	"time"
)

// Fund names. Funds are additively-updated balance buckets separate from
// ledger accounts, touched only by the daily posting flow.
const (
	FundProperty = "property_fund"
	FundOthers   = "others_fund"
)

// Entry is one product's net movement for the day. Sold and returned are
// positive magnitudes; the posting flow re-signs returned lines.
type Entry struct {
	ProductID   int64
	QtySold     int64
	QtyReturned int64
	UnitPrice   float64
}

// ExpenseEntry is a spend row posted alongside the day's sales.
type ExpenseEntry struct {
	Description string
	Amount      float64
	Category    string
}

// PostInput is a full day's book: sales, returns, expenses and fund
// movements, posted as independently idempotent steps.
type PostInput struct {
	Date         time.Time
	Entries      []Entry
	Expenses     []ExpenseEntry
	PropertyFund float64
	OthersFund   float64
	AdCostDollar float64
	ActorID      int64
}

// StepState reports how one posting step ended.
type StepState string

const (
	StepDone    StepState = "done"
	StepSkipped StepState = "skipped"
	StepFailed  StepState = "failed"
)

// StepResult is the outcome of one posting step. A skipped step was already
// completed by an earlier run of the same date.
type StepResult struct {
	Step   string    `json:"step"`
	State  StepState `json:"state"`
	Detail string    `json:"detail,omitempty"`
}

// PostResult reports every step so partial failure is visible, never
// swallowed.
type PostResult struct {
	Date  time.Time    `json:"date"`
	Steps []StepResult `json:"steps"`
}

// Failed reports whether any step failed.
func (r *PostResult) Failed() bool {
	for _, s := range r.Steps {
		if s.State == StepFailed {
			return true
		}
	}
	return false
}

// Summary is the daily_ledger row keyed by date.
type Summary struct {
	Date         time.Time
	QtySold      int64
	QtyReturned  int64
	Revenue      float64
	ExpenseTotal float64
	AdCostDollar float64
}

var (
	// ErrEmptyDay indicates a post with no entries, expenses or fund moves.
	ErrEmptyDay = errors.New("dailybook: nothing to post")
	// ErrInvalidEntry indicates a negative magnitude or price on an entry.
	ErrInvalidEntry = errors.New("dailybook: entry quantities and prices must be >= 0")
	// ErrMissingDate indicates a post without a date.
	ErrMissingDate = errors.New("dailybook: date required")
)
