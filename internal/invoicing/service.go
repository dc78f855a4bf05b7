package invoicing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	GetLines(ctx context.Context, invoiceID int64) ([]InvoiceLine, error)
	ListInvoices(ctx context.Context, filter ListFilter) ([]Invoice, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	AllowNegativeStock bool
}

// Service owns the invoice lifecycle and its paired stock effects.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	allowNeg bool
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, cfg ServiceConfig) *Service {
	return &Service{repo: repo, audit: audit, allowNeg: cfg.AllowNegativeStock}
}

// CreateInvoice turns a cart of signed lines into a durable invoice.
// Header, lines and per-line stock deltas commit in one transaction.
func (s *Service) CreateInvoice(ctx context.Context, input InvoiceInput) (*Invoice, error) {
	if len(input.Lines) == 0 {
		return nil, ErrEmptyInvoice
	}
	for _, line := range input.Lines {
		if line.Qty == 0 {
			return nil, ErrZeroQuantity
		}
		if line.UnitPrice < 0 {
			return nil, ErrInvalidAmount
		}
	}
	var total float64
	for _, line := range input.Lines {
		total += float64(line.Qty) * line.UnitPrice
	}
	if input.Discount < 0 {
		return nil, ErrInvalidAmount
	}
	// a net-return invoice settles by paying the customer back, so its
	// Paid mirrors the negative total; a sale still rejects negative
	// payments
	if input.Paid < 0 && total >= 0 {
		return nil, ErrInvalidAmount
	}
	status := StatusPartial
	if math.Abs(total-input.Discount-input.Paid) < statusTolerance {
		status = StatusPaid
	}
	issuedAt := input.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	generated := input.Number == ""
	number := input.Number
	if generated {
		number = newInvoiceNumber()
	}

	var created Invoice
	attempt := func(number string) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			inv := Invoice{
				Number:     number,
				CustomerID: input.CustomerID,
				Total:      total,
				Discount:   input.Discount,
				Paid:       input.Paid,
				Status:     status,
				IssuedAt:   issuedAt,
				CreatedBy:  input.ActorID,
			}
			lines := make([]InvoiceLine, 0, len(input.Lines))
			for _, li := range input.Lines {
				cost, err := tx.GetProductCost(ctx, li.ProductID)
				if err != nil {
					return err
				}
				movement := MovementSale
				if li.Qty < 0 {
					movement = MovementRefund
				}
				lines = append(lines, InvoiceLine{
					ProductID: li.ProductID,
					Qty:       li.Qty,
					UnitPrice: li.UnitPrice,
					UnitCost:  cost,
					Movement:  movement,
				})
			}
			id, err := tx.InsertInvoice(ctx, inv)
			if err != nil {
				return err
			}
			if err := tx.InsertLines(ctx, id, lines); err != nil {
				return err
			}
			// stock falls on a sale and rises on a refund; the signed qty
			// makes one formula cover both
			for _, line := range lines {
				newQty, err := tx.ApplyStockDelta(ctx, line.ProductID, -line.Qty)
				if err != nil {
					return err
				}
				if !s.allowNeg && newQty < 0 {
					return ErrNegativeStock
				}
			}
			inv.ID = id
			created = inv
			return nil
		})
	}

	err := attempt(number)
	if errors.Is(err, ErrDuplicateNumber) && generated {
		// timestamp numbers can collide under rapid creation; retry once
		// with a random suffix
		err = attempt(fmt.Sprintf("%s-%s", number, uuid.NewString()[:8]))
	}
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "invoicing:create",
			Entity:   "invoice",
			EntityID: created.Number,
			Meta: map[string]any{
				"total":  created.Total,
				"status": string(created.Status),
				"lines":  len(input.Lines),
			},
		})
	}
	return &created, nil
}

// DeleteInvoice removes the invoice and reverses its stock effects. Each
// line is reversed from its own recorded signed quantity, so mixed
// sale-and-refund invoices unwind correctly.
func (s *Service) DeleteInvoice(ctx context.Context, id int64, actorID int64) error {
	var number string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		number = inv.Number
		lines, err := tx.GetLines(ctx, id)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := tx.ApplyStockDelta(ctx, line.ProductID, line.Qty); err != nil {
				return err
			}
		}
		return tx.DeleteInvoice(ctx, id)
	})
	if err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "invoicing:delete",
			Entity:   "invoice",
			EntityID: number,
			Meta:     map[string]any{"invoice_id": id},
		})
	}
	return nil
}

// GetInvoice returns the header with its lines.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, []InvoiceLine, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	lines, err := s.repo.GetLines(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &inv, lines, nil
}

// ListInvoices returns headers for a date range.
func (s *Service) ListInvoices(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, filter)
}

func newInvoiceNumber() string {
	return fmt.Sprintf("INV-%d", time.Now().UnixMilli())
}
