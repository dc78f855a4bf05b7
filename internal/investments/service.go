package investments

import (
	"context"
	"fmt"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, input InvestmentInput) (*Investment, error)
	Update(ctx context.Context, id int64, input InvestmentInput) (*Investment, error)
	Get(ctx context.Context, id int64) (*Investment, error)
	List(ctx context.Context, onlyActive bool) ([]Investment, error)
	Delete(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages partner capital stakes.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func validate(input *InvestmentInput) error {
	if input.Capital <= 0 {
		return ErrInvalidCapital
	}
	if input.Status == "" {
		input.Status = StatusActive
	}
	if input.Status != StatusActive && input.Status != StatusClosed {
		return ErrInvalidStatus
	}
	return nil
}

// CreateInvestment records a new capital stake.
func (s *Service) CreateInvestment(ctx context.Context, input InvestmentInput) (*Investment, error) {
	if err := validate(&input); err != nil {
		return nil, err
	}
	inv, err := s.repo.Insert(ctx, input)
	if err != nil {
		return nil, err
	}
	s.record(ctx, input.ActorID, "investments:create", inv.ID)
	return inv, nil
}

// UpdateInvestment replaces an investment's fields.
func (s *Service) UpdateInvestment(ctx context.Context, id int64, input InvestmentInput) (*Investment, error) {
	if err := validate(&input); err != nil {
		return nil, err
	}
	inv, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.record(ctx, input.ActorID, "investments:update", id)
	return inv, nil
}

// GetInvestment returns one investment.
func (s *Service) GetInvestment(ctx context.Context, id int64) (*Investment, error) {
	return s.repo.Get(ctx, id)
}

// ListInvestments returns investments, optionally only active ones.
func (s *Service) ListInvestments(ctx context.Context, onlyActive bool) ([]Investment, error) {
	return s.repo.List(ctx, onlyActive)
}

// DeleteInvestment removes an investment.
func (s *Service) DeleteInvestment(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "investments:delete", id)
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "investment",
		EntityID: fmt.Sprintf("%d", id),
	})
}
