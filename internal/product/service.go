package product

import (
	"context"

	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	ListProducts(ctx context.Context, opts ListOptions) ([]Product, error)
	GetProduct(ctx context.Context, id uint) (*Product, error)
	ListCategories(ctx context.Context) ([]string, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListProducts(ctx context.Context, opts ListOptions) ([]Product, error) {
	opts.Limit, opts.Page = utils.ClampPage(opts.Limit, opts.Page, DefaultListLimit, MaxListLimit)

	logger.FromCtx(ctx).Debug("list products",
		zap.String("layer", "service"),
		zap.String("category", opts.Category),
		zap.String("search", opts.Search),
		zap.Int("limit", opts.Limit),
		zap.Int("page", opts.Page),
	)

	return s.repo.List(ctx, opts)
}

func (s *service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	if id == 0 {
		return nil, ErrProductNotFound
	}
	return s.repo.GetProductByID(ctx, id)
}

func (s *service) ListCategories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}
