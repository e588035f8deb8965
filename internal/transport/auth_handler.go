package transport

import (
	"net/http"

	"storefront-be/internal/user"
	"storefront-be/internal/utils"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, u, err := h.UserSvc.Register(r.Context(), user.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setAuthCookie(w, token)
	writeData(w, http.StatusCreated, AuthResponse{Token: token, User: MapUser(u)})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, u, err := h.UserSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setAuthCookie(w, token)
	writeData(w, http.StatusOK, AuthResponse{Token: token, User: MapUser(u)})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookie(w)
	writeMessage(w, http.StatusOK, "logged out")
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	u, err := h.UserSvc.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, MapUser(u))
}
