package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	products map[int64]Product
	refs     map[int64]int64
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]Product), refs: make(map[int64]int64)}
}

func (r *memoryRepo) Create(ctx context.Context, input ProductInput) (*Product, error) {
	r.nextID++
	p := Product{
		ID:           r.nextID,
		Name:         input.Name,
		Type:         input.Type,
		SellingPrice: input.SellingPrice,
		CostPrice:    input.CostPrice,
	}
	r.products[p.ID] = p
	return &p, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, input ProductInput) error {
	p, ok := r.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Name = input.Name
	p.Type = input.Type
	p.SellingPrice = input.SellingPrice
	p.CostPrice = input.CostPrice
	r.products[id] = p
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *memoryRepo) List(ctx context.Context) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) ReferenceCount(ctx context.Context, id int64) (int64, error) {
	return r.refs[id], nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductInput{Name: "", Type: ProductTypePhysical, SellingPrice: 10})
	require.Error(t, err)

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Widget", Type: "service", SellingPrice: 10})
	require.Error(t, err)

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Widget", Type: ProductTypePhysical, SellingPrice: -1})
	require.Error(t, err)

	p, err := svc.CreateProduct(ctx, ProductInput{Name: "Widget", Type: ProductTypePhysical, SellingPrice: 200, CostPrice: 120})
	require.NoError(t, err)
	require.Equal(t, "Widget", p.Name)
}

func TestDeleteProductGuardedByReferences(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ProductInput{Name: "Widget", Type: ProductTypePhysical, SellingPrice: 200})
	require.NoError(t, err)

	// a product on an invoice can never be hard-deleted
	repo.refs[p.ID] = 3
	err = svc.DeleteProduct(ctx, p.ID)
	require.ErrorIs(t, err, ErrProductInUse)
	_, err = svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)

	repo.refs[p.ID] = 0
	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	_, err = svc.GetProduct(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
