package catalog

import (
	"context"
	"errors"
	"strings"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	Create(ctx context.Context, input ProductInput) (*Product, error)
	Update(ctx context.Context, id int64, input ProductInput) error
	Get(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	ReferenceCount(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// Service owns product master data rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateProduct validates and persists a new product.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, input)
}

// UpdateProduct rewrites master fields for an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id int64, input ProductInput) error {
	if err := s.validate(input); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, input)
}

// GetProduct returns one product.
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

// ListProducts returns the catalogue.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// DeleteProduct removes a product unless invoice lines still reference it.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	refs, err := s.repo.ReferenceCount(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return ErrProductInUse
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return errors.New("catalog: product name is required")
	}
	if input.Type != ProductTypePhysical && input.Type != ProductTypeDigital {
		return errors.New("catalog: product type must be physical or digital")
	}
	if input.SellingPrice < 0 || input.CostPrice < 0 {
		return errors.New("catalog: prices must be >= 0")
	}
	return nil
}
