package inventory

import (
	"context"
	"fmt"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service applies stock movements outside the invoicing flow: manual
// corrections and purchases from suppliers.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	allowNeg bool
}

// NewService builds Service. allowNegative controls whether outbound
// movements may push stock below zero.
func NewService(repo RepositoryPort, audit AuditPort, allowNegative bool) *Service {
	return &Service{repo: repo, audit: audit, allowNeg: allowNegative}
}

// AdjustStock applies a manual in/out correction to a product's stock
// level. It records an audit row but deliberately writes no ledger
// transaction: corrections have no monetary counterpart.
func (s *Service) AdjustStock(ctx context.Context, input AdjustmentInput) (*AdjustmentResult, error) {
	if input.Qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	delta := input.Qty
	switch input.Type {
	case AdjustmentIn:
	case AdjustmentOut:
		delta = -delta
	default:
		return nil, ErrInvalidType
	}

	var result AdjustmentResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		newStock, err := tx.ApplyStockDelta(ctx, input.ProductID, delta)
		if err != nil {
			return err
		}
		if newStock < 0 && !s.allowNeg {
			return ErrNegativeStock
		}
		result = AdjustmentResult{ProductID: input.ProductID, NewStock: newStock}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   fmt.Sprintf("inventory:adjust:%s", input.Type),
			Entity:   "product",
			EntityID: fmt.Sprintf("%d", input.ProductID),
			Meta: map[string]any{
				"qty":       input.Qty,
				"reason":    input.Reason,
				"new_stock": result.NewStock,
			},
		})
	}
	return &result, nil
}

// PurchaseStock records a supplier purchase: stock goes up, the product's
// cost price is replaced with the latest unit cost, an expense transaction
// is written and the paying account is debited. All four effects commit in
// one transaction or none of them do.
func (s *Service) PurchaseStock(ctx context.Context, input PurchaseInput) (*AdjustmentResult, error) {
	if input.Qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if input.UnitCost < 0 || input.TotalCost < 0 {
		return nil, ErrInvalidCost
	}
	totalCost := input.TotalCost
	if totalCost == 0 {
		totalCost = float64(input.Qty) * input.UnitCost
	}

	var result AdjustmentResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.AccountExists(ctx, input.AccountID); err != nil {
			return err
		}
		newStock, err := tx.ApplyStockDelta(ctx, input.ProductID, input.Qty)
		if err != nil {
			return err
		}
		if err := tx.SetCostPrice(ctx, input.ProductID, input.UnitCost); err != nil {
			return err
		}
		desc := fmt.Sprintf("stock purchase: product %d x%d", input.ProductID, input.Qty)
		if _, err := tx.InsertExpenseTransaction(ctx, input.AccountID, totalCost, desc, input.ActorID); err != nil {
			return err
		}
		if _, err := tx.ApplyAccountDelta(ctx, input.AccountID, -totalCost); err != nil {
			return err
		}
		result = AdjustmentResult{ProductID: input.ProductID, NewStock: newStock}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "inventory:purchase",
			Entity:   "product",
			EntityID: fmt.Sprintf("%d", input.ProductID),
			Meta: map[string]any{
				"qty":        input.Qty,
				"unit_cost":  input.UnitCost,
				"total_cost": totalCost,
				"account_id": input.AccountID,
			},
		})
	}
	return &result, nil
}
