package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/product"
	"storefront-be/internal/transport"
	"storefront-be/internal/user"

	"go.uber.org/zap"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

var errMissingJWTSecret = errors.New("JWT_SECRET must be set in production")

// Overridable in tests.
var (
	initDBFunc      = db.InitDB
	migrateFunc     = db.Migrate
	startServerFunc = serve
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	if cfg.JWTSecret == "" && cfg.AppEnv == "production" {
		return errMissingJWTSecret
	}

	database := initDBFunc(cfg)
	defer database.Close()

	if cfg.AutoMigrate {
		if err := migrateFunc(database, "up"); err != nil {
			return err
		}
		logger.L().Info("migrations applied")
	}

	limiter := middleware.NewRateLimiter()
	go limiter.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(cfg, database, limiter),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.L().Info("server starting",
		zap.String("addr", srv.Addr),
		zap.String("env", cfg.AppEnv),
	)
	return startServerFunc(ctx, srv)
}

func newServer(cfg *config.Config, database *sql.DB, limiter *middleware.RateLimiter) http.Handler {
	registry := metrics.NewRegistry()
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)

	productRepo := product.NewRepository(database)
	productSvc := product.NewService(productRepo)

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo, tokens)

	cartRepo := cart.NewRepository(database)
	cartSvc := cart.NewService(cartRepo, productRepo)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, registry)

	h := &transport.Handler{
		UserSvc:       userSvc,
		ProductSvc:    productSvc,
		CartSvc:       cartSvc,
		OrderSvc:      orderSvc,
		Metrics:       registry,
		Ping:          database.PingContext,
		Environment:   cfg.AppEnv,
		StartedAt:     time.Now(),
		SecureCookies: cfg.AppEnv == "production",
		TokenTTL:      cfg.JWTTTL,
	}

	return transport.NewRouter(h, transport.RouterConfig{
		Tokens:         tokens,
		Limiter:        limiter,
		AllowedOrigin:  cfg.CORSAllowedOrigin,
		RequestTimeout: cfg.RequestTimeout,
	})
}

// serve runs srv until it fails or ctx is cancelled, then drains
// in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.L().Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
