package inventory

import "errors"

// AdjustmentType enumerates manual stock movements.
type AdjustmentType string

const (
	AdjustmentIn  AdjustmentType = "in"
	AdjustmentOut AdjustmentType = "out"
)

// AdjustmentInput describes a manual stock correction. Qty is a positive
// magnitude; the type decides the direction. Adjustments are cumulative,
// not idempotent: posting the same input twice moves stock twice.
type AdjustmentInput struct {
	ProductID int64
	Qty       int64
	Type      AdjustmentType
	Reason    string
	ActorID   int64
}

// AdjustmentResult reports the stock level after the movement.
type AdjustmentResult struct {
	ProductID int64
	NewStock  int64
}

// PurchaseInput describes a stock purchase paid from an account. The
// product's cost price is overwritten with the latest unit cost
// (last-cost-wins, no weighted average).
type PurchaseInput struct {
	ProductID int64
	Qty       int64
	UnitCost  float64
	TotalCost float64
	AccountID int64
	ActorID   int64
}

var (
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("inventory: quantity must be > 0")
	// ErrInvalidType indicates an unknown adjustment type.
	ErrInvalidType = errors.New("inventory: adjustment type must be in or out")
	// ErrInvalidCost indicates a negative unit or total cost.
	ErrInvalidCost = errors.New("inventory: costs must be >= 0")
	// ErrNegativeStock is returned when an outbound movement would go
	// below zero and the policy forbids it.
	ErrNegativeStock = errors.New("inventory: negative stock not allowed")
	// ErrProductNotFound indicates a missing product.
	ErrProductNotFound = errors.New("inventory: product not found")
	// ErrAccountNotFound indicates a missing payment account.
	ErrAccountNotFound = errors.New("inventory: payment account not found")
)
