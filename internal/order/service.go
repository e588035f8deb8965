package order

import (
	"context"
	"errors"
	"fmt"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/product"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	// Checkout converts the user's cart into a pending order in one
	// transaction: stock is checked and decremented, prices are
	// snapshotted and the cart is emptied.
	Checkout(ctx context.Context, userID uint, shipping ShippingDetails) (*Order, error)
	// GetOrder hides orders owned by other users unless isAdmin is set.
	GetOrder(ctx context.Context, userID, orderID uint, isAdmin bool) (*Order, error)
	ListOrders(ctx context.Context, params ListOrdersParams) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uint, to Status) (*Order, error)
	CancelOrder(ctx context.Context, userID, orderID uint) (*Order, error)
}

const (
	// orderNumberAttempts bounds regeneration of colliding numbers within
	// one transaction.
	orderNumberAttempts = 5
	// checkoutAttempts bounds whole-transaction retries after an insert
	// lost a race on the order number constraint.
	checkoutAttempts = 3
)

const (
	MetricCheckoutSuccess           = "checkout_success"
	MetricCheckoutFailed            = "checkout_failed"
	MetricCheckoutInsufficientStock = "checkout_insufficient_stock"
	MetricCheckoutEmptyCart         = "checkout_empty_cart"
	MetricOrderStatusChanged        = "order_status_changed"
)

type service struct {
	repo           Repository
	metrics        *metrics.Registry
	newOrderNumber func() string
}

func NewService(repo Repository, registry *metrics.Registry) Service {
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	return &service{
		repo:           repo,
		metrics:        registry,
		newOrderNumber: utils.GenerateOrderNumber,
	}
}

func (s *service) Checkout(ctx context.Context, userID uint, shipping ShippingDetails) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.Uint("user_id", userID),
	)

	timer := metrics.StartTimer()

	if err := shipping.Validate(); err != nil {
		return nil, err
	}
	shipping = shipping.Normalize()

	var (
		created *Order
		err     error
	)
	for attempt := 1; attempt <= checkoutAttempts; attempt++ {
		created, err = s.checkoutOnce(ctx, userID, shipping)
		if !errors.Is(err, ErrOrderNumberConflict) {
			break
		}
		log.Warn("order number conflict, retrying checkout", zap.Int("attempt", attempt))
	}

	if err != nil {
		s.recordFailure(err)
		log.Info("checkout failed",
			zap.Error(err),
			zap.Duration("duration", timer.Duration()),
		)
		return nil, err
	}

	s.metrics.Counter(MetricCheckoutSuccess).Inc()
	log.Info("checkout completed",
		zap.Uint("order_id", created.ID),
		zap.String("order_number", created.OrderNumber),
		zap.String("total", created.TotalAmount.StringFixed(2)),
		zap.Int("items", len(created.Items)),
		zap.Duration("duration", timer.Duration()),
	)
	return created, nil
}

func (s *service) checkoutOnce(ctx context.Context, userID uint, shipping ShippingDetails) (*Order, error) {
	var created *Order

	err := s.repo.RunInTx(ctx, func(tx CheckoutTx) error {
		items, err := tx.ListCartItemsForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		// rows arrive in product-id order, so product locks are always
		// taken in the same order by concurrent checkouts
		lines := make([]pricedLine, 0, len(items))
		for _, item := range items {
			p, err := tx.GetProductForUpdate(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if p.Stock < item.Quantity {
				return product.NewInsufficientStock(p, item.Quantity)
			}
			lines = append(lines, pricedLine{item: item, product: p})
		}

		orderNumber, err := s.uniqueOrderNumber(ctx, tx)
		if err != nil {
			return err
		}

		o, err := tx.InsertOrder(ctx, NewOrderParams{
			OrderNumber: orderNumber,
			UserID:      userID,
			Shipping:    shipping,
			TotalAmount: orderTotal(lines),
		})
		if err != nil {
			return err
		}

		for _, l := range lines {
			item, err := tx.InsertOrderItem(ctx, o.ID, l.snapshot())
			if err != nil {
				return err
			}
			o.Items = append(o.Items, *item)
		}

		for _, l := range lines {
			if err := tx.DecrementStock(ctx, l.product.ID, l.item.Quantity); err != nil {
				if errors.Is(err, product.ErrInsufficientStock) {
					return product.NewInsufficientStock(l.product, l.item.Quantity)
				}
				return err
			}
		}

		if err := tx.ClearCart(ctx, userID); err != nil {
			return err
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (s *service) uniqueOrderNumber(ctx context.Context, tx CheckoutTx) (string, error) {
	for i := 0; i < orderNumberAttempts; i++ {
		candidate := s.newOrderNumber()
		exists, err := tx.OrderNumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: gave up after %d attempts", ErrOrderNumberConflict, orderNumberAttempts)
}

func (s *service) recordFailure(err error) {
	switch {
	case errors.Is(err, product.ErrInsufficientStock):
		s.metrics.Counter(MetricCheckoutInsufficientStock).Inc()
	case errors.Is(err, ErrEmptyCart):
		s.metrics.Counter(MetricCheckoutEmptyCart).Inc()
	default:
		s.metrics.Counter(MetricCheckoutFailed).Inc()
	}
}

func (s *service) GetOrder(ctx context.Context, userID, orderID uint, isAdmin bool) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.UserID != userID {
		logger.FromCtx(ctx).Info("order access denied",
			zap.String("layer", "service"),
			zap.Uint("user_id", userID),
			zap.Uint("order_id", orderID),
		)
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, params ListOrdersParams) ([]Order, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, &ValidationError{Field: "status", Message: "unknown order status"}
	}
	params.Limit, params.Page = utils.ClampPage(params.Limit, params.Page, DefaultListLimit, MaxListLimit)
	return s.repo.ListOrders(ctx, params)
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID uint, to Status) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, o, to)
}

func (s *service) CancelOrder(ctx context.Context, userID, orderID uint) (*Order, error) {
	o, err := s.GetOrder(ctx, userID, orderID, false)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, o, StatusCancelled)
}

func (s *service) transition(ctx context.Context, o *Order, to Status) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "transition"),
		zap.Uint("order_id", o.ID),
		zap.String("from", string(o.Status)),
		zap.String("to", string(to)),
	)

	if !to.Valid() {
		return nil, &ValidationError{Field: "status", Message: "unknown order status"}
	}
	if !CanTransition(o.Status, to) {
		log.Info("transition rejected")
		return nil, ErrInvalidTransition
	}

	updatedAt, err := s.repo.UpdateOrderStatus(ctx, o.ID, o.Status, to)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			log.Info("order changed concurrently")
		}
		return nil, err
	}

	s.metrics.Counter(MetricOrderStatusChanged).Inc()
	log.Info("order status updated")

	o.Status = to
	o.UpdatedAt = updatedAt
	return o, nil
}
