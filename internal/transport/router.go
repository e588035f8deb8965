package transport

import (
	"net/http"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/middleware"
	"storefront-be/internal/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Tokens         middleware.TokenParser
	Limiter        *middleware.RateLimiter
	AllowedOrigin  string
	RequestTimeout time.Duration
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(logger.RequestIDMiddleware)
	r.Use(middleware.CORS(cfg.AllowedOrigin))
	r.Use(middleware.AuthMiddleware(cfg.Tokens))
	r.Use(middleware.LoggingMiddleware)
	if cfg.Limiter != nil {
		r.Use(cfg.Limiter.Middleware)
	}
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", h.Health)
	r.Get("/metrics", h.MetricsSnapshot)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.With(middleware.RequireAuth).Get("/me", h.Me)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/categories", h.ListCategories)
			r.Get("/{id}", h.GetProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", h.GetCart)
			r.Post("/", h.AddToCart)
			r.Delete("/", h.ClearCart)
			r.Put("/{id}", h.UpdateCartItem)
			r.Delete("/{id}", h.RemoveCartItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", h.ListMyOrders)
			r.Post("/", h.Checkout)
			r.Get("/{id}", h.GetMyOrder)
			r.Post("/{id}/cancel", h.CancelOrder)
		})

		r.Route("/admin/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(utils.RoleAdmin))
			r.Get("/", h.AdminListOrders)
			r.Get("/{id}", h.AdminGetOrder)
			r.Patch("/{id}/status", h.AdminUpdateOrderStatus)
		})
	})

	return r
}
