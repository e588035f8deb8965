package cart

import "errors"

var (
	// -- Validation & Input --
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// -- Resource State --
	ErrCartItemNotFound = errors.New("cart item not found")

	// errStockGuard means a guarded write matched no row because the
	// resulting quantity would exceed the product's stock.
	errStockGuard = errors.New("stock guard rejected write")

	// -- Database & Operation Failures --
	ErrFailedGetCartItem    = errors.New("failed to get cart item")
	ErrFailedGetCartRows    = errors.New("failed to get cart rows")
	ErrFailedUpsertCartItem = errors.New("failed to add cart item")
	ErrFailedUpdateCart     = errors.New("failed to update cart item")
	ErrFailedRemoveCart     = errors.New("failed to remove cart item")
	ErrFailedClearCart      = errors.New("failed to clear cart")
)
