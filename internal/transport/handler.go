package transport

import (
	"context"
	"net/http"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
	"storefront-be/internal/metrics"
	"storefront-be/internal/order"
	"storefront-be/internal/product"
	"storefront-be/internal/user"
)

// Handler holds the services behind the HTTP API.
type Handler struct {
	UserSvc    user.Service
	ProductSvc product.Service
	CartSvc    cart.Service
	OrderSvc   order.Service
	Metrics    *metrics.Registry

	// Ping reports database health for /health. Nil skips the check.
	Ping func(ctx context.Context) error

	Environment string
	StartedAt   time.Time

	SecureCookies bool
	TokenTTL      time.Duration
}

type healthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      float64   `json:"uptime"`
	Environment string    `json:"environment"`
}

// Health reports liveness along with process uptime in seconds.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Environment: h.Environment,
	}
	if !h.StartedAt.IsZero() {
		resp.Uptime = time.Since(h.StartedAt).Seconds()
	}

	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			resp.Status = "unhealthy"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) MetricsSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.Metrics == nil {
		writeData(w, http.StatusOK, map[string]uint64{})
		return
	}
	writeData(w, http.StatusOK, h.Metrics.Snapshot())
}

func (h *Handler) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
