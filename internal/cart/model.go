package cart

import (
	"time"

	"storefront-be/internal/product"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID        uint
	UserID    uint
	ProductID uint
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line is a cart row joined with its current product data.
type Line struct {
	Item    CartItem
	Product product.Product
}

type ViewItem struct {
	ID        uint
	ProductID uint
	Quantity  int
	Product   product.Product
	Subtotal  decimal.Decimal
}

type View struct {
	Items         []ViewItem
	TotalQuantity int
	Total         decimal.Decimal
}

type AddItemParams struct {
	UserID    uint
	ProductID uint
	Quantity  int
}

type UpdateQuantityParams struct {
	UserID     uint
	CartItemID uint
	Quantity   int
}
