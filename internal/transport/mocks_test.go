package transport

import (
	"context"

	"storefront-be/internal/cart"
	"storefront-be/internal/order"
	"storefront-be/internal/product"
	"storefront-be/internal/user"

	"github.com/stretchr/testify/mock"
)

// --- Mocks ---

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, input user.RegisterInput) (string, *user.User, error) {
	args := m.Called(ctx, input)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*user.User), args.Error(2)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*user.User), args.Error(2)
}

func (m *MockUserService) GetByID(ctx context.Context, id uint) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) ListProducts(ctx context.Context, opts product.ListOptions) ([]product.Product, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

func (m *MockProductService) GetProduct(ctx context.Context, id uint) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) AddItem(ctx context.Context, params cart.AddItemParams) (*cart.View, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.View), args.Error(1)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, params cart.UpdateQuantityParams) (*cart.View, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.View), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID, cartItemID uint) error {
	return m.Called(ctx, userID, cartItemID).Error(0)
}

func (m *MockCartService) Clear(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockCartService) View(ctx context.Context, userID uint) (*cart.View, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.View), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Checkout(ctx context.Context, userID uint, shipping order.ShippingDetails) (*order.Order, error) {
	args := m.Called(ctx, userID, shipping)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, userID, orderID uint, isAdmin bool) (*order.Order, error) {
	args := m.Called(ctx, userID, orderID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, params order.ListOrdersParams) ([]order.Order, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, orderID uint, to order.Status) (*order.Order, error) {
	args := m.Called(ctx, orderID, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, userID, orderID uint) (*order.Order, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}
