package cart

import (
	"context"
	"errors"

	"storefront-be/internal/logger"
	"storefront-be/internal/product"

	"go.uber.org/zap"
)

// Service defines the business logic for carts.
type Service interface {
	AddItem(ctx context.Context, params AddItemParams) (*View, error)
	UpdateQuantity(ctx context.Context, params UpdateQuantityParams) (*View, error)
	RemoveItem(ctx context.Context, userID, cartItemID uint) error
	Clear(ctx context.Context, userID uint) error
	View(ctx context.Context, userID uint) (*View, error)
}

type service struct {
	repo        Repository
	productRepo product.Repository
}

func NewService(repo Repository, productRepo product.Repository) Service {
	return &service{repo: repo, productRepo: productRepo}
}

func (s *service) AddItem(ctx context.Context, params AddItemParams) (*View, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddItem"),
		zap.Uint("user_id", params.UserID),
		zap.Uint("product_id", params.ProductID),
	)

	if params.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.productRepo.GetProductByID(ctx, params.ProductID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.UpsertCartItem(ctx, params); err != nil {
		if !errors.Is(err, errStockGuard) {
			return nil, err
		}
		return nil, s.insufficientForAdd(ctx, p, params)
	}

	log.Info("item added to cart", zap.Int("quantity", params.Quantity))
	return s.View(ctx, params.UserID)
}

// insufficientForAdd reports the quantity the cart would have held.
func (s *service) insufficientForAdd(ctx context.Context, p *product.Product, params AddItemParams) error {
	requested := params.Quantity
	existing, err := s.repo.GetCartItemByUserAndProduct(ctx, params.UserID, params.ProductID)
	if err == nil {
		requested += existing.Quantity
	} else if !errors.Is(err, ErrCartItemNotFound) {
		return err
	}

	fresh, err := s.productRepo.GetProductByID(ctx, p.ID)
	if errors.Is(err, product.ErrProductNotFound) {
		// deleted between the read and the guarded upsert
		return err
	}
	if err == nil {
		p = fresh
	}
	return product.NewInsufficientStock(p, requested)
}

func (s *service) UpdateQuantity(ctx context.Context, params UpdateQuantityParams) (*View, error) {
	if params.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.repo.GetCartItem(ctx, params.UserID, params.CartItemID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.UpdateCartItemQuantity(ctx, params); err != nil {
		if !errors.Is(err, errStockGuard) {
			return nil, err
		}

		p, perr := s.productRepo.GetProductByID(ctx, item.ProductID)
		if perr != nil {
			return nil, perr
		}
		if p.Stock >= params.Quantity {
			// the row vanished between the read and the guarded write
			return nil, ErrCartItemNotFound
		}
		return nil, product.NewInsufficientStock(p, params.Quantity)
	}

	return s.View(ctx, params.UserID)
}

func (s *service) RemoveItem(ctx context.Context, userID, cartItemID uint) error {
	return s.repo.RemoveCartItem(ctx, userID, cartItemID)
}

func (s *service) Clear(ctx context.Context, userID uint) error {
	n, err := s.repo.ClearCart(ctx, userID)
	if err != nil {
		return err
	}

	logger.FromCtx(ctx).Debug("cart cleared",
		zap.String("layer", "service"),
		zap.Uint("user_id", userID),
		zap.Int64("rows", n),
	)
	return nil
}

func (s *service) View(ctx context.Context, userID uint) (*View, error) {
	lines, err := s.repo.GetCartLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildView(lines), nil
}
