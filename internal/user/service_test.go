package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, params CreateUserParams) (*User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id uint) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) Generate(userID uint, email, role string) (string, error) {
	args := m.Called(userID, email, role)
	return args.String(0), args.Error(1)
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	input := RegisterInput{Email: " Test@Example.com ", Password: "password123", FirstName: "Ada", LastName: "Lovelace"}

	t.Run("Success", func(t *testing.T) {
		repo, tokens := new(MockRepository), new(MockTokens)
		svc := NewService(repo, tokens)

		created := &User{ID: 1, Email: "test@example.com", Role: RoleUser}
		repo.On("Create", ctx, mock.MatchedBy(func(p CreateUserParams) bool {
			return p.Email == "test@example.com" &&
				p.Role == RoleUser &&
				p.FirstName == "Ada" &&
				CheckPasswordHash("password123", p.PasswordHash)
		})).Return(created, nil)
		tokens.On("Generate", uint(1), "test@example.com", "USER").Return("token", nil)

		token, u, err := svc.Register(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, "token", token)
		assert.Equal(t, created, u)
		repo.AssertExpectations(t)
		tokens.AssertExpectations(t)
	})

	t.Run("EmailExists", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockTokens))
		repo.On("Create", ctx, mock.Anything).Return(nil, ErrEmailExists)

		_, _, err := svc.Register(ctx, input)
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("Validation", func(t *testing.T) {
		svc := NewService(new(MockRepository), new(MockTokens))

		_, _, err := svc.Register(ctx, RegisterInput{Email: "nope", Password: "password123", FirstName: "a", LastName: "b"})
		assert.ErrorIs(t, err, ErrInvalidEmail)

		_, _, err = svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "123", FirstName: "a", LastName: "b"})
		assert.ErrorIs(t, err, ErrWeakPassword)

		_, _, err = svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "123456", FirstName: " ", LastName: "b"})
		assert.ErrorIs(t, err, ErrNameRequired)
	})

	t.Run("Display name form rejected", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockTokens))

		_, _, err := svc.Register(ctx, RegisterInput{Email: "Bob <bob@x.com>", Password: "password123", FirstName: "Bob", LastName: "B"})
		assert.ErrorIs(t, err, ErrInvalidEmail)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Password too long", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockTokens))

		_, _, err := svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: strings.Repeat("p", 73), FirstName: "a", LastName: "b"})
		assert.ErrorIs(t, err, ErrPasswordTooLong)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Password at bcrypt limit", func(t *testing.T) {
		repo, tokens := new(MockRepository), new(MockTokens)
		svc := NewService(repo, tokens)
		repo.On("Create", ctx, mock.Anything).Return(&User{ID: 2, Email: "a@b.co", Role: RoleUser}, nil)
		tokens.On("Generate", uint(2), "a@b.co", "USER").Return("token", nil)

		_, _, err := svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: strings.Repeat("p", 72), FirstName: "a", LastName: "b"})
		assert.NoError(t, err)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	stored := &User{ID: 2, Email: "test@example.com", PasswordHash: hash, Role: RoleAdmin}

	t.Run("Success", func(t *testing.T) {
		repo, tokens := new(MockRepository), new(MockTokens)
		svc := NewService(repo, tokens)
		repo.On("FindByEmail", ctx, "test@example.com").Return(stored, nil)
		tokens.On("Generate", uint(2), "test@example.com", "ADMIN").Return("token", nil)

		token, u, err := svc.Login(ctx, "TEST@example.com", "password123")

		require.NoError(t, err)
		assert.Equal(t, "token", token)
		assert.Equal(t, stored, u)
	})

	t.Run("Wrong password", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockTokens))
		repo.On("FindByEmail", ctx, "test@example.com").Return(stored, nil)

		_, _, err := svc.Login(ctx, "test@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Unknown email", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockTokens))
		repo.On("FindByEmail", ctx, "x@example.com").Return(nil, ErrUserNotFound)

		_, _, err := svc.Login(ctx, "x@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Repo error", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockTokens))
		repo.On("FindByEmail", ctx, "x@example.com").Return(nil, errors.New("db down"))

		_, _, err := svc.Login(ctx, "x@example.com", "password123")
		assert.EqualError(t, err, "db down")
	})
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("secret", hash))
	assert.False(t, CheckPasswordHash("other", hash))
}
