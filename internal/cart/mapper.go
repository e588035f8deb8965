package cart

import "github.com/shopspring/decimal"

// buildView prices each line at the product's current price.
func buildView(lines []Line) *View {
	view := &View{
		Items: make([]ViewItem, 0, len(lines)),
		Total: decimal.Zero,
	}

	for _, l := range lines {
		subtotal := l.Product.Price.Mul(decimal.NewFromInt(int64(l.Item.Quantity)))

		view.Items = append(view.Items, ViewItem{
			ID:        l.Item.ID,
			ProductID: l.Item.ProductID,
			Quantity:  l.Item.Quantity,
			Product:   l.Product,
			Subtotal:  subtotal.Round(2),
		})
		view.TotalQuantity += l.Item.Quantity
		view.Total = view.Total.Add(subtotal)
	}

	view.Total = view.Total.Round(2)
	return view
}
