package main

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-be/internal/config"
	"storefront-be/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Driver for Testing ---
type mockDriver struct{}

func (m *mockDriver) Open(name string) (driver.Conn, error)         { return &mockConn{}, nil }
func (c *mockConn) Prepare(query string) (driver.Stmt, error)       { return &mockStmt{}, nil }
func (c *mockConn) Close() error                                    { return nil }
func (c *mockConn) Begin() (driver.Tx, error)                       { return nil, nil }
func (s *mockStmt) Close() error                                    { return nil }
func (s *mockStmt) NumInput() int                                   { return 0 }
func (s *mockStmt) Exec(args []driver.Value) (driver.Result, error) { return nil, nil }
func (s *mockStmt) Query(args []driver.Value) (driver.Rows, error)  { return nil, nil }

type mockConn struct{}
type mockStmt struct{}

func init() {
	sql.Register("mock_driver_main", &mockDriver{})
}

func testConfig() *config.Config {
	return &config.Config{
		AppPort:           "8080",
		AppEnv:            "test",
		JWTSecret:         "test-secret",
		JWTTTL:            time.Hour,
		CORSAllowedOrigin: "http://localhost:5173",
		RequestTimeout:    time.Second,
	}
}

func TestNewServer(t *testing.T) {
	db, err := sql.Open("mock_driver_main", "")
	require.NoError(t, err)
	defer db.Close()

	router := newServer(testConfig(), db, middleware.NewRateLimiter())
	require.NotNil(t, router)

	t.Run("Health Check", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"healthy"`)
		assert.Contains(t, rr.Body.String(), `"environment":"test"`)
	})

	t.Run("Metrics", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Protected Route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Unknown Route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/query", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func setTestEnv(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "user")
	t.Setenv("DB_PASSWORD", "pass")
	t.Setenv("DB_NAME", "db")
	t.Setenv("JWT_SECRET", "test-secret")
}

func stubDeps(t *testing.T) (migrations *[]string, started *bool) {
	origInitDB, origMigrate, origStart := initDBFunc, migrateFunc, startServerFunc
	t.Cleanup(func() {
		initDBFunc, migrateFunc, startServerFunc = origInitDB, origMigrate, origStart
	})

	var modes []string
	var ran bool

	initDBFunc = func(cfg *config.Config) *sql.DB {
		db, _ := sql.Open("mock_driver_main", "")
		return db
	}
	migrateFunc = func(database *sql.DB, mode string) error {
		modes = append(modes, mode)
		return nil
	}
	startServerFunc = func(ctx context.Context, srv *http.Server) error {
		ran = true
		assert.Equal(t, ":8080", srv.Addr)
		assert.NotNil(t, srv.Handler)
		return nil
	}

	return &modes, &ran
}

func TestRun(t *testing.T) {
	t.Run("Starts Server", func(t *testing.T) {
		setTestEnv(t)
		modes, started := stubDeps(t)

		assert.NoError(t, run(context.Background()))
		assert.True(t, *started)
		assert.Empty(t, *modes)
	})

	t.Run("Auto Migrate", func(t *testing.T) {
		setTestEnv(t)
		t.Setenv("DB_AUTO_MIGRATE", "true")
		modes, _ := stubDeps(t)

		assert.NoError(t, run(context.Background()))
		assert.Equal(t, []string{"up"}, *modes)
	})

	t.Run("Production Requires Secret", func(t *testing.T) {
		setTestEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")
		_, started := stubDeps(t)

		assert.ErrorIs(t, run(context.Background()), errMissingJWTSecret)
		assert.False(t, *started)
	})
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	assert.NoError(t, serve(ctx, srv))
}
