package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetCartItem(ctx context.Context, userID, cartItemID uint) (*CartItem, error)
	GetCartItemByUserAndProduct(ctx context.Context, userID, productID uint) (*CartItem, error)
	// UpsertCartItem inserts the row or adds qty to the existing one, in a
	// single statement that only writes when the product's current stock
	// covers the resulting quantity.
	UpsertCartItem(ctx context.Context, params AddItemParams) (*CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, params UpdateQuantityParams) (*CartItem, error)
	RemoveCartItem(ctx context.Context, userID, cartItemID uint) error
	ClearCart(ctx context.Context, userID uint) (int64, error)
	GetCartLines(ctx context.Context, userID uint) ([]Line, error)
	// ListItemsForUpdate row-locks the user's cart, ordered by product id.
	ListItemsForUpdate(ctx context.Context, userID uint) ([]CartItem, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(db db.DBTX) Repository {
	return &repository{db: db}
}

const cartColumns = `id, user_id, product_id, quantity, created_at, updated_at`

func (r *repository) GetCartItem(ctx context.Context, userID, cartItemID uint) (*CartItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cartColumns+` FROM cart_items WHERE id = $1 AND user_id = $2`,
		cartItemID, userID,
	)
	return r.scanOne(ctx, "GetCartItem", row)
}

func (r *repository) GetCartItemByUserAndProduct(ctx context.Context, userID, productID uint) (*CartItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cartColumns+` FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	return r.scanOne(ctx, "GetCartItemByUserAndProduct", row)
}

func (r *repository) scanOne(ctx context.Context, method string, row *sql.Row) (*CartItem, error) {
	item, err := scanCartItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to get cart item",
			zap.String("layer", "repository"),
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrFailedGetCartItem, err)
	}
	return item, nil
}

func (r *repository) UpsertCartItem(ctx context.Context, params AddItemParams) (*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpsertCartItem"),
		zap.Uint("user_id", params.UserID),
		zap.Uint("product_id", params.ProductID),
		zap.Int("quantity", params.Quantity),
	)

	query := `
	INSERT INTO cart_items (user_id, product_id, quantity)
	SELECT $1, p.id, $3
	FROM products p
	WHERE p.id = $2 AND p.stock >= $3
	ON CONFLICT (user_id, product_id) DO UPDATE
	SET quantity = cart_items.quantity + EXCLUDED.quantity,
	    updated_at = NOW()
	WHERE cart_items.quantity + EXCLUDED.quantity <=
	      (SELECT stock FROM products WHERE id = EXCLUDED.product_id)
	RETURNING ` + cartColumns

	item, err := scanCartItem(r.db.QueryRowContext(ctx, query,
		params.UserID, params.ProductID, params.Quantity,
	))
	if errors.Is(err, sql.ErrNoRows) {
		log.Info("add to cart rejected by stock guard")
		return nil, errStockGuard
	}
	if err != nil {
		log.Error("failed to upsert cart item", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedUpsertCartItem, err)
	}

	log.Debug("cart item upserted", zap.Uint("cart_item_id", item.ID))
	return item, nil
}

func (r *repository) UpdateCartItemQuantity(ctx context.Context, params UpdateQuantityParams) (*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateCartItemQuantity"),
		zap.Uint("user_id", params.UserID),
		zap.Uint("cart_item_id", params.CartItemID),
	)

	query := `
	UPDATE cart_items c
	SET quantity = $1, updated_at = NOW()
	FROM products p
	WHERE c.id = $2 AND c.user_id = $3
	  AND p.id = c.product_id AND p.stock >= $1
	RETURNING c.id, c.user_id, c.product_id, c.quantity, c.created_at, c.updated_at`

	item, err := scanCartItem(r.db.QueryRowContext(ctx, query,
		params.Quantity, params.CartItemID, params.UserID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errStockGuard
	}
	if err != nil {
		log.Error("failed to update cart item", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedUpdateCart, err)
	}
	return item, nil
}

func (r *repository) RemoveCartItem(ctx context.Context, userID, cartItemID uint) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND user_id = $2`,
		cartItemID, userID,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to remove cart item",
			zap.String("layer", "repository"),
			zap.Uint("cart_item_id", cartItemID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrFailedRemoveCart, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedRemoveCart, err)
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *repository) ClearCart(ctx context.Context, userID uint) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to clear cart",
			zap.String("layer", "repository"),
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("%w: %v", ErrFailedClearCart, err)
	}
	return res.RowsAffected()
}

func (r *repository) GetCartLines(ctx context.Context, userID uint) ([]Line, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetCartLines"),
		zap.Uint("user_id", userID),
	)

	start := time.Now()

	rows, err := r.db.QueryContext(ctx, `
	SELECT
		c.id, c.user_id, c.product_id, c.quantity, c.created_at, c.updated_at,
		p.id, p.name, p.description, p.price, p.stock,
		p.category, p.brand, p.image_url, p.created_at, p.updated_at
	FROM cart_items c
	JOIN products p ON p.id = c.product_id
	WHERE c.user_id = $1
	ORDER BY c.created_at ASC, c.id ASC`,
		userID,
	)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedGetCartRows, err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var (
			l        Line
			imageURL sql.NullString
		)
		err := rows.Scan(
			&l.Item.ID, &l.Item.UserID, &l.Item.ProductID, &l.Item.Quantity, &l.Item.CreatedAt, &l.Item.UpdatedAt,
			&l.Product.ID, &l.Product.Name, &l.Product.Description, &l.Product.Price, &l.Product.Stock,
			&l.Product.Category, &l.Product.Brand, &imageURL, &l.Product.CreatedAt, &l.Product.UpdatedAt,
		)
		if err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrFailedGetCartRows, err)
		}
		if imageURL.Valid {
			l.Product.ImageURL = &imageURL.String
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedGetCartRows, err)
	}

	log.Debug("query completed",
		zap.Int("rows", len(lines)),
		zap.Duration("duration", time.Since(start)),
	)
	return lines, nil
}

func (r *repository) ListItemsForUpdate(ctx context.Context, userID uint) ([]CartItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cartColumns+` FROM cart_items WHERE user_id = $1 ORDER BY product_id FOR UPDATE`,
		userID,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to lock cart rows",
			zap.String("layer", "repository"),
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrFailedGetCartRows, err)
	}
	defer rows.Close()

	items := make([]CartItem, 0)
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedGetCartRows, err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCartItem(row rowScanner) (*CartItem, error) {
	var item CartItem
	err := row.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
