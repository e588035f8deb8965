package transport

import (
	"storefront-be/internal/cart"
	"storefront-be/internal/order"
	"storefront-be/internal/product"
	"storefront-be/internal/user"
)

func MapProduct(p product.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       Money(p.Price),
		Stock:       p.Stock,
		Category:    p.Category,
		Brand:       p.Brand,
		ImageURL:    p.ImageURL,
	}
}

func MapProducts(products []product.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, MapProduct(p))
	}
	return out
}

func MapCart(v *cart.View) CartResponse {
	items := make([]CartItemResponse, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Product:   MapProduct(it.Product),
			Subtotal:  Money(it.Subtotal),
		})
	}

	return CartResponse{
		Items: items,
		Count: v.TotalQuantity,
		Total: Money(v.Total),
	}
}

func MapOrder(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       Money(it.Price),
			Quantity:    it.Quantity,
			Subtotal:    Money(it.Subtotal()),
		})
	}

	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalAmount:     Money(o.TotalAmount),
		ShippingAddress: o.Shipping.Address,
		ShippingCity:    o.Shipping.City,
		ShippingState:   o.Shipping.State,
		ShippingPhone:   o.Shipping.Phone,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           items,
	}
}

func MapOrders(orders []order.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, MapOrder(&orders[i]))
	}
	return out
}

func MapUser(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
