package transport

import (
	"net/http"
	"strings"

	"storefront-be/internal/product"
	"storefront-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

// ListProducts answers a plain array. Supported filters: category,
// search, inStock, limit and page.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	products, err := h.ProductSvc.ListProducts(r.Context(), product.ListOptions{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
		InStock:  q.Get("inStock") == "true",
		Limit:    queryInt(r, "limit"),
		Page:     queryInt(r, "page"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, MapProducts(products))
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.ProductSvc.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}

	writeData(w, http.StatusOK, categories)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ToUint(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, product.ErrProductNotFound)
		return
	}

	p, err := h.ProductSvc.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, MapProduct(*p))
}
