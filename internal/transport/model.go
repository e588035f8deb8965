package transport

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Money renders a decimal as a JSON number with two places.
type Money decimal.Decimal

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

type ProductResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       Money   `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand"`
	ImageURL    *string `json:"imageUrl"`
}

type CartItemResponse struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   ProductResponse `json:"product"`
	Subtotal  Money           `json:"subtotal"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Count int                `json:"count"`
	Total Money              `json:"total"`
}

type OrderItemResponse struct {
	ID          uint   `json:"id"`
	ProductID   *uint  `json:"productId"`
	ProductName string `json:"productName"`
	Price       Money  `json:"price"`
	Quantity    int    `json:"quantity"`
	Subtotal    Money  `json:"subtotal"`
}

type OrderResponse struct {
	ID              uint                `json:"id"`
	OrderNumber     string              `json:"orderNumber"`
	UserID          uint                `json:"userId"`
	Status          string              `json:"status"`
	TotalAmount     Money               `json:"totalAmount"`
	ShippingAddress string              `json:"shippingAddress"`
	ShippingCity    string              `json:"shippingCity"`
	ShippingState   string              `json:"shippingState"`
	ShippingPhone   string              `json:"shippingPhone"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	Items           []OrderItemResponse `json:"items"`
}

type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// --- Requests ---

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type addToCartRequest struct {
	ProductID json.Number  `json:"productId"`
	Quantity  *json.Number `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity *json.Number `json:"quantity"`
}

type checkoutRequest struct {
	ShippingAddress string `json:"shippingAddress"`
	ShippingCity    string `json:"shippingCity"`
	ShippingState   string `json:"shippingState"`
	ShippingPhone   string `json:"shippingPhone"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}
