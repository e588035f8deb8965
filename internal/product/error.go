package product

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrFailedGetProduct  = errors.New("failed to get product")
	ErrFailedListProduct = errors.New("failed to list products")
	ErrFailedUpdateStock = errors.New("failed to update stock")
)

// InsufficientStockError names the product that could not cover a request.
// It matches ErrInsufficientStock under errors.Is.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

func NewInsufficientStock(p *Product, requested int) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   requested,
		Available:   p.Stock,
	}
}
