package transport

import (
	"net/http"
	"strings"

	"storefront-be/internal/order"
	"storefront-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

func orderIDParam(r *http.Request) (uint, error) {
	id, err := utils.ToUint(chi.URLParam(r, "id"))
	if err != nil || id == 0 {
		return 0, order.ErrOrderNotFound
	}
	return id, nil
}

func listParams(r *http.Request) order.ListOrdersParams {
	return order.ListOrdersParams{
		Status: order.Status(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))),
		Limit:  queryInt(r, "limit"),
		Page:   queryInt(r, "page"),
	}
}

// Checkout turns the caller's cart into a pending order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.OrderSvc.Checkout(r.Context(), userID, order.ShippingDetails{
		Address: req.ShippingAddress,
		City:    req.ShippingCity,
		State:   req.ShippingState,
		Phone:   req.ShippingPhone,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, MapOrder(o))
}

func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	params := listParams(r)
	params.UserID = userID

	orders, err := h.OrderSvc.ListOrders(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, MapOrders(orders))
}

func (h *Handler) GetMyOrder(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, false)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	orderID, err := orderIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.OrderSvc.CancelOrder(r.Context(), userID, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, MapOrder(o))
}

// --- Admin ---

func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)
	if raw := r.URL.Query().Get("userId"); raw != "" {
		userID, err := utils.ToUint(raw)
		if err != nil {
			writeError(w, r, &order.ValidationError{Field: "userId", Message: "must be a positive integer"})
			return
		}
		params.UserID = userID
	}

	orders, err := h.OrderSvc.ListOrders(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, MapOrders(orders))
}

func (h *Handler) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, true)
}

func (h *Handler) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	to := order.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	o, err := h.OrderSvc.UpdateOrderStatus(r.Context(), orderID, to)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, MapOrder(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, isAdmin bool) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	orderID, err := orderIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.OrderSvc.GetOrder(r.Context(), userID, orderID, isAdmin)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, MapOrder(o))
}
