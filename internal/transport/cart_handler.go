package transport

import (
	"encoding/json"
	"math"
	"net/http"

	"storefront-be/internal/cart"
	"storefront-be/internal/product"
	"storefront-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

const defaultAddQuantity = 1

// parseQuantity accepts positive integers only. A missing value falls
// back to def; def 0 means the field is required.
func parseQuantity(n *json.Number, def int) (int, error) {
	if n == nil {
		if def == 0 {
			return 0, cart.ErrInvalidQuantity
		}
		return def, nil
	}

	q, err := n.Int64()
	if err != nil || q < 1 || q > math.MaxInt32 {
		return 0, cart.ErrInvalidQuantity
	}
	return int(q), nil
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	view, err := h.CartSvc.View(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, MapCart(view))
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var req addToCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	productID, err := utils.ToUint(req.ProductID.String())
	if err != nil || productID == 0 {
		writeError(w, r, product.ErrProductNotFound)
		return
	}

	quantity, err := parseQuantity(req.Quantity, defaultAddQuantity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.CartSvc.AddItem(r.Context(), cart.AddItemParams{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, MapCart(view))
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	itemID, err := utils.ToUint(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, cart.ErrCartItemNotFound)
		return
	}

	var req updateCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	quantity, err := parseQuantity(req.Quantity, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.CartSvc.UpdateQuantity(r.Context(), cart.UpdateQuantityParams{
		UserID:     userID,
		CartItemID: itemID,
		Quantity:   quantity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, MapCart(view))
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	itemID, err := utils.ToUint(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, cart.ErrCartItemNotFound)
		return
	}

	if err := h.CartSvc.RemoveItem(r.Context(), userID, itemID); err != nil {
		writeError(w, r, err)
		return
	}

	h.GetCart(w, r)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	if err := h.CartSvc.Clear(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "cart cleared")
}
