package order

import (
	"storefront-be/internal/cart"
	"storefront-be/internal/product"

	"github.com/shopspring/decimal"
)

// pricedLine pairs a locked cart row with the locked product it refers to.
type pricedLine struct {
	item    cart.CartItem
	product *product.Product
}

func (l pricedLine) subtotal() decimal.Decimal {
	return l.product.Price.Mul(decimal.NewFromInt(int64(l.item.Quantity)))
}

func (l pricedLine) snapshot() NewOrderItemParams {
	return NewOrderItemParams{
		ProductID:   l.product.ID,
		ProductName: l.product.Name,
		Price:       l.product.Price,
		Quantity:    l.item.Quantity,
	}
}

func orderTotal(lines []pricedLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.subtotal())
	}
	return total.Round(2)
}
