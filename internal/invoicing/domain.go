package invoicing

import (
	"errors"
	"time"
)

// Movement tags an invoice line as a sale or a refund. The tag is derived
// once from the sign of the quantity at write time so reversal logic never
// has to re-infer it from the invoice aggregate.
type Movement string

const (
	MovementSale   Movement = "sale"
	MovementRefund Movement = "refund"
)

// InvoiceStatus is derived from the settlement arithmetic at creation.
type InvoiceStatus string

const (
	StatusPaid    InvoiceStatus = "paid"
	StatusPartial InvoiceStatus = "partial"
)

// statusTolerance is the settlement band in currency units: an invoice
// counts as paid when the net due is within one unit of zero.
const statusTolerance = 1.0

// Invoice is the document header. Total is signed; a negative total denotes
// a net-return invoice.
type Invoice struct {
	ID         int64
	Number     string
	CustomerID int64
	Total      float64
	Discount   float64
	Paid       float64
	Status     InvoiceStatus
	IssuedAt   time.Time
	CreatedBy  int64
	CreatedAt  time.Time
}

// InvoiceLine is one product movement. Qty is signed: positive sells,
// negative refunds. UnitCost is the product's cost snapshotted at write
// time so later cost changes do not rewrite history.
type InvoiceLine struct {
	ID        int64
	InvoiceID int64
	ProductID int64
	Qty       int64
	UnitPrice float64
	UnitCost  float64
	Movement  Movement
}

// LineInput is a cart line as submitted by the caller.
type LineInput struct {
	ProductID int64
	Qty       int64
	UnitPrice float64
}

// InvoiceInput describes a create request.
type InvoiceInput struct {
	Number     string
	CustomerID int64
	Lines      []LineInput
	Discount   float64
	Paid       float64
	IssuedAt   time.Time
	ActorID    int64
}

var (
	// ErrEmptyInvoice indicates a create request without lines.
	ErrEmptyInvoice = errors.New("invoicing: invoice requires at least one line")
	// ErrZeroQuantity indicates a line with qty 0.
	ErrZeroQuantity = errors.New("invoicing: line quantity must be non zero")
	// ErrInvalidAmount indicates a negative price, discount or payment.
	ErrInvalidAmount = errors.New("invoicing: amounts must be >= 0")
	// ErrNotFound indicates a missing invoice.
	ErrNotFound = errors.New("invoicing: invoice not found")
	// ErrProductNotFound indicates a cart line against an unknown product.
	ErrProductNotFound = errors.New("invoicing: product not found")
	// ErrDuplicateNumber indicates an invoice number collision.
	ErrDuplicateNumber = errors.New("invoicing: invoice number already used")
	// ErrNegativeStock is returned when a sale would oversell and the
	// negative-stock policy forbids it.
	ErrNegativeStock = errors.New("invoicing: insufficient stock")
)

// ListFilter narrows invoice listings.
type ListFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}
