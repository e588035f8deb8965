package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID          uint
	OrderNumber string
	UserID      uint
	Status      Status
	Shipping    ShippingDetails
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []OrderItem
}

// OrderItem is a snapshot of a product at checkout time. ProductID is nil
// once the product has been deleted.
type OrderItem struct {
	ID          uint
	OrderID     uint
	ProductID   *uint
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
}

type NewOrderParams struct {
	OrderNumber string
	UserID      uint
	Shipping    ShippingDetails
	TotalAmount decimal.Decimal
}

type NewOrderItemParams struct {
	ProductID   uint
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

type ListOrdersParams struct {
	// UserID 0 lists every user's orders.
	UserID uint
	Status Status
	Limit  int
	Page   int
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)
