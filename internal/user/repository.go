package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, params CreateUserParams) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(db db.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, role, created_at`

func (r *repository) Create(ctx context.Context, params CreateUserParams) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("email", params.Email),
	)

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		params.Email, params.PasswordHash, params.FirstName, params.LastName, string(params.Role),
	)

	u, err := scanUser(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == PgUniqueViolation {
			log.Info("email already registered")
			return nil, ErrEmailExists
		}
		log.Error("failed to insert user", zap.Error(err))
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	return r.scanOne(ctx, "FindByEmail", row)
}

func (r *repository) FindByID(ctx context.Context, id uint) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	return r.scanOne(ctx, "FindByID", row)
}

func (r *repository) scanOne(ctx context.Context, method string, row *sql.Row) (*User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load user",
			zap.String("layer", "repository"),
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u    User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = Role(role)
	return &u, nil
}
