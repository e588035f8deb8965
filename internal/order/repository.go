package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-be/internal/cart"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"storefront-be/internal/product"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// RunInTx runs fn inside one database transaction. Any error returned
	// by fn rolls the whole transaction back.
	RunInTx(ctx context.Context, fn func(tx CheckoutTx) error) error
	GetOrder(ctx context.Context, id uint) (*Order, error)
	ListOrders(ctx context.Context, params ListOrdersParams) ([]Order, error)
	// UpdateOrderStatus only writes when the stored status still equals
	// from; otherwise it returns ErrInvalidTransition.
	UpdateOrderStatus(ctx context.Context, id uint, from, to Status) (time.Time, error)
}

// CheckoutTx is the set of operations checkout performs inside its
// transaction.
type CheckoutTx interface {
	ListCartItemsForUpdate(ctx context.Context, userID uint) ([]cart.CartItem, error)
	GetProductForUpdate(ctx context.Context, productID uint) (*product.Product, error)
	DecrementStock(ctx context.Context, productID uint, qty int) error
	ClearCart(ctx context.Context, userID uint) error
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
	InsertOrder(ctx context.Context, params NewOrderParams) (*Order, error)
	InsertOrderItem(ctx context.Context, orderID uint, params NewOrderItemParams) (*OrderItem, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) RunInTx(ctx context.Context, fn func(tx CheckoutTx) error) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "RunInTx"),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			} else {
				log.Debug("transaction rolled back")
			}
		}
	}()

	if err := fn(newCheckoutTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit tx: %w", err)
	}

	committed = true
	return nil
}

const orderColumns = `id, order_number, user_id, status,
	shipping_address, shipping_city, shipping_state, shipping_phone,
	total_amount, created_at, updated_at`

const orderItemColumns = `id, order_id, product_id, product_name, price, quantity`

func (r *repository) GetOrder(ctx context.Context, id uint) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetOrder"),
		zap.Uint("order_id", id),
	)

	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		log.Error("failed to get order", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedGetOrder, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		log.Error("failed to get order items", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedGetOrder, err)
	}
	defer rows.Close()

	o.Items = make([]OrderItem, 0)
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedGetOrder, err)
		}
		o.Items = append(o.Items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedGetOrder, err)
	}

	return o, nil
}

func (r *repository) ListOrders(ctx context.Context, params ListOrdersParams) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListOrders"),
		zap.Uint("user_id", params.UserID),
		zap.Int("limit", params.Limit),
		zap.Int("page", params.Page),
	)

	start := time.Now()

	var (
		where []string
		args  []any
	)
	if params.UserID != 0 {
		args = append(args, params.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if params.Status != "" {
		args = append(args, string(params.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, params.Limit, (params.Page-1)*params.Limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedGetOrder, err)
	}

	orders := make([]Order, 0)
	index := make(map[uint]int)
	ids := make([]int64, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			log.Error("failed to scan order", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrFailedGetOrder, err)
		}
		o.Items = make([]OrderItem, 0)
		index[o.ID] = len(orders)
		ids = append(ids, int64(o.ID))
		orders = append(orders, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedGetOrder, err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	itemRows, err := r.db.QueryContext(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id`,
		pq.Array(ids),
	)
	if err != nil {
		log.Error("failed to query order items", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedGetOrder, err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		item, err := scanOrderItem(itemRows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedGetOrder, err)
		}
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, *item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedGetOrder, err)
	}

	log.Debug("orders listed",
		zap.Int("count", len(orders)),
		zap.Duration("duration", time.Since(start)),
	)
	return orders, nil
}

func (r *repository) UpdateOrderStatus(ctx context.Context, id uint, from, to Status) (time.Time, error) {
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING updated_at`,
		string(to), id, string(from),
	).Scan(&updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrInvalidTransition
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update order status",
			zap.String("layer", "repository"),
			zap.Uint("order_id", id),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err),
		)
		return time.Time{}, fmt.Errorf("%w: %v", ErrFailedUpdateOrder, err)
	}
	return updatedAt, nil
}

type checkoutTx struct {
	tx       db.DBTX
	carts    cart.Repository
	products product.Repository
}

func newCheckoutTx(tx db.DBTX) *checkoutTx {
	return &checkoutTx{
		tx:       tx,
		carts:    cart.NewRepository(tx),
		products: product.NewRepository(tx),
	}
}

func (t *checkoutTx) ListCartItemsForUpdate(ctx context.Context, userID uint) ([]cart.CartItem, error) {
	return t.carts.ListItemsForUpdate(ctx, userID)
}

func (t *checkoutTx) GetProductForUpdate(ctx context.Context, productID uint) (*product.Product, error) {
	return t.products.GetProductForUpdate(ctx, productID)
}

func (t *checkoutTx) DecrementStock(ctx context.Context, productID uint, qty int) error {
	return t.products.DecrementStock(ctx, productID, qty)
}

func (t *checkoutTx) ClearCart(ctx context.Context, userID uint) error {
	_, err := t.carts.ClearCart(ctx, userID)
	return err
}

func (t *checkoutTx) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`, orderNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrFailedCreateOrder, err)
	}
	return exists, nil
}

func (t *checkoutTx) InsertOrder(ctx context.Context, params NewOrderParams) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "InsertOrder"),
		zap.Uint("user_id", params.UserID),
		zap.String("order_number", params.OrderNumber),
	)

	o := &Order{
		OrderNumber: params.OrderNumber,
		UserID:      params.UserID,
		Status:      StatusPending,
		Shipping:    params.Shipping,
		TotalAmount: params.TotalAmount,
	}

	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			order_number, user_id, status,
			shipping_address, shipping_city, shipping_state, shipping_phone,
			total_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		params.OrderNumber,
		params.UserID,
		string(StatusPending),
		params.Shipping.Address,
		params.Shipping.City,
		params.Shipping.State,
		params.Shipping.Phone,
		params.TotalAmount,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == PgUniqueViolation {
			log.Warn("order number collision")
			return nil, ErrOrderNumberConflict
		}
		log.Error("failed to insert order", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedCreateOrder, err)
	}

	o.Items = make([]OrderItem, 0)
	return o, nil
}

func (t *checkoutTx) InsertOrderItem(ctx context.Context, orderID uint, params NewOrderItemParams) (*OrderItem, error) {
	productID := params.ProductID
	item := &OrderItem{
		OrderID:     orderID,
		ProductID:   &productID,
		ProductName: params.ProductName,
		Price:       params.Price,
		Quantity:    params.Quantity,
	}

	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, product_id, product_name, price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		orderID, params.ProductID, params.ProductName, params.Price, params.Quantity,
	).Scan(&item.ID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert order item",
			zap.String("layer", "repository"),
			zap.Uint("order_id", orderID),
			zap.Uint("product_id", params.ProductID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrFailedCreateOrder, err)
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &status,
		&o.Shipping.Address, &o.Shipping.City, &o.Shipping.State, &o.Shipping.Phone,
		&o.TotalAmount, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return &o, nil
}

func scanOrderItem(row rowScanner) (*OrderItem, error) {
	var (
		item      OrderItem
		productID sql.NullInt64
	)
	if err := row.Scan(&item.ID, &item.OrderID, &productID, &item.ProductName, &item.Price, &item.Quantity); err != nil {
		return nil, err
	}
	if productID.Valid {
		id := uint(productID.Int64)
		item.ProductID = &id
	}
	return &item, nil
}
