package catalog

import (
	"errors"
	"time"
)

// ProductType distinguishes stocked goods from digital items.
type ProductType string

const (
	ProductTypePhysical ProductType = "physical"
	ProductTypeDigital  ProductType = "digital"
)

// Product is the inventory master record. StockQuantity is mutated only by
// the invoicing and inventory services, never by catalog CRUD.
type Product struct {
	ID            int64
	Name          string
	Type          ProductType
	SellingPrice  float64
	CostPrice     float64
	StockQuantity int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductInput carries create/update fields.
type ProductInput struct {
	Name         string
	Type         ProductType
	SellingPrice float64
	CostPrice    float64
}

// ErrProductInUse is returned when deleting a product that invoice lines
// still reference.
var ErrProductInUse = errors.New("catalog: product referenced by invoice lines")

// ErrNotFound indicates a missing product.
var ErrNotFound = errors.New("catalog: product not found")
