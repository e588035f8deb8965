package transport

import (
	"errors"
	"net/http"

	"storefront-be/internal/cart"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/product"
	"storefront-be/internal/user"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

const (
	CodeNotFound           = "not_found"
	CodeInvalidQuantity    = "invalid_quantity"
	CodeInsufficientStock  = "insufficient_stock"
	CodeEmptyCart          = "empty_cart"
	CodeInvalidTransition  = "invalid_transition"
	CodeValidation         = "validation_error"
	CodeEmailExists        = "email_exists"
	CodeInvalidCredentials = "invalid_credentials"
	CodeBadRequest         = "bad_request"
	CodeInternal           = "internal_error"
)

// mapError translates a service error into its HTTP status and body.
// Unknown errors become a generic 500 so internals never leak.
func mapError(err error) (int, utils.ErrorBody) {
	var (
		stockErr *product.InsufficientStockError
		valErr   *order.ValidationError
	)

	body := func(code, message string) utils.ErrorBody {
		return utils.ErrorBody{Success: false, Code: code, Message: message}
	}

	switch {
	case errors.As(err, &stockErr):
		b := body(CodeInsufficientStock, stockErr.Error())
		b.Details = map[string]any{
			"productId":   stockErr.ProductID,
			"productName": stockErr.ProductName,
			"requested":   stockErr.Requested,
			"available":   stockErr.Available,
		}
		return http.StatusConflict, b
	case errors.Is(err, product.ErrInsufficientStock):
		return http.StatusConflict, body(CodeInsufficientStock, product.ErrInsufficientStock.Error())

	case errors.As(err, &valErr):
		b := body(CodeValidation, valErr.Error())
		b.Details = map[string]any{"field": valErr.Field}
		return http.StatusBadRequest, b
	case errors.Is(err, user.ErrInvalidEmail):
		return validation("email", err)
	case errors.Is(err, user.ErrWeakPassword), errors.Is(err, user.ErrPasswordTooLong):
		return validation("password", err)
	case errors.Is(err, user.ErrNameRequired):
		return validation("name", err)

	case errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, cart.ErrCartItemNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound, body(CodeNotFound, rootMessage(err))

	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest, body(CodeInvalidQuantity, cart.ErrInvalidQuantity.Error())
	case errors.Is(err, order.ErrEmptyCart):
		return http.StatusBadRequest, body(CodeEmptyCart, order.ErrEmptyCart.Error())
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusConflict, body(CodeInvalidTransition, order.ErrInvalidTransition.Error())

	case errors.Is(err, user.ErrEmailExists):
		return http.StatusConflict, body(CodeEmailExists, user.ErrEmailExists.Error())
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized, body(CodeInvalidCredentials, user.ErrInvalidCredentials.Error())

	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, body(CodeBadRequest, errBadRequest.Error())
	}

	return http.StatusInternalServerError, body(CodeInternal, "internal server error")
}

func validation(field string, err error) (int, utils.ErrorBody) {
	return http.StatusBadRequest, utils.ErrorBody{
		Success: false,
		Code:    CodeValidation,
		Message: err.Error(),
		Details: map[string]any{"field": field},
	}
}

// rootMessage returns the message of the innermost wrapped error.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := mapError(err)

	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "transport"),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
	)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Debug("request rejected", zap.Error(err))
	}

	writeJSON(w, status, body)
}
