package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Generate(userID uint, email, role string) (string, error)
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (string, *User, error)
	Login(ctx context.Context, email, password string) (string, *User, error)
	GetByID(ctx context.Context, id uint) (*User, error)
}

type service struct {
	repo   Repository
	tokens TokenIssuer
}

func NewService(repo Repository, tokens TokenIssuer) Service {
	return &service{repo: repo, tokens: tokens}
}

const (
	minPasswordLength = 6
	// bcrypt only hashes the first 72 bytes.
	maxPasswordLength = 72
)

func (s *service) Register(ctx context.Context, input RegisterInput) (string, *User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", nil, ErrInvalidEmail
	}
	if len(input.Password) < minPasswordLength {
		return "", nil, ErrWeakPassword
	}
	if len(input.Password) > maxPasswordLength {
		return "", nil, ErrPasswordTooLong
	}
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" || lastName == "" {
		return "", nil, ErrNameRequired
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", nil, err
	}

	u, err := s.repo.Create(ctx, CreateUserParams{
		Email:        email,
		PasswordHash: hashed,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         RoleUser,
	})
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Generate(u.ID, u.Email, string(u.Role))
	if err != nil {
		log.Error("failed to generate jwt", zap.Uint("user_id", u.ID), zap.Error(err))
		return "", nil, err
	}

	log.Info("user registered", zap.Uint("user_id", u.ID))
	return token, u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Login"),
	)

	u, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrUserNotFound) {
		log.Info("login with unknown email")
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if !CheckPasswordHash(password, u.PasswordHash) {
		log.Info("password mismatch", zap.Uint("user_id", u.ID))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(u.ID, u.Email, string(u.Role))
	if err != nil {
		log.Error("failed to generate jwt", zap.Uint("user_id", u.ID), zap.Error(err))
		return "", nil, err
	}

	return token, u, nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*User, error) {
	return s.repo.FindByID(ctx, id)
}
