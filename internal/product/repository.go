package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetProductByID(ctx context.Context, id uint) (*Product, error)
	// GetProductForUpdate row-locks the product until the surrounding
	// transaction ends. Only meaningful on a *sql.Tx.
	GetProductForUpdate(ctx context.Context, id uint) (*Product, error)
	List(ctx context.Context, opts ListOptions) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)
	// DecrementStock fails with ErrInsufficientStock instead of letting
	// stock go negative.
	DecrementStock(ctx context.Context, id uint, qty int) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(db db.DBTX) Repository {
	return &repository{db: db}
}

// likeEscaper makes search input match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

const productColumns = `id, name, description, price, stock, category, brand, image_url, created_at, updated_at`

func (r *repository) GetProductByID(ctx context.Context, id uint) (*Product, error) {
	return r.getOne(ctx, "GetProductByID",
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *repository) GetProductForUpdate(ctx context.Context, id uint) (*Product, error) {
	return r.getOne(ctx, "GetProductForUpdate",
		`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) getOne(ctx context.Context, method, query string, id uint) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", method),
		zap.Uint("product_id", id),
	)

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("product not found")
		return nil, ErrProductNotFound
	}
	if err != nil {
		log.Error("failed to get product", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedGetProduct, err)
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	var (
		where []string
		args  []any
	)
	if opts.Category != "" {
		args = append(args, opts.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if s := strings.TrimSpace(opts.Search); s != "" {
		args = append(args, "%"+likeEscaper.Replace(s)+"%")
		where = append(where, fmt.Sprintf(`(name ILIKE $%d ESCAPE '\' OR brand ILIKE $%d ESCAPE '\')`, len(args), len(args)))
	}
	if opts.InStock {
		where = append(where, "stock > 0")
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}

	args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedListProduct, err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Error("failed to scan product", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrFailedListProduct, err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedListProduct, err)
	}

	return products, nil
}

func (r *repository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query categories",
			zap.String("layer", "repository"),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrFailedListProduct, err)
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedListProduct, err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *repository) DecrementStock(ctx context.Context, id uint, qty int) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "DecrementStock"),
		zap.Uint("product_id", id),
		zap.Int("quantity", qty),
	)

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1`,
		qty, id,
	)
	if err != nil {
		log.Error("failed to decrement stock", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrFailedUpdateStock, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedUpdateStock, err)
	}
	if affected == 0 {
		log.Warn("stock guard rejected decrement")
		return ErrInsufficientStock
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p        Product
		imageURL sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.Category, &p.Brand, &imageURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if imageURL.Valid {
		p.ImageURL = &imageURL.String
	}
	return &p, nil
}
