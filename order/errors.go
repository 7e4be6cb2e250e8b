package order

import (
	"fmt"

	"github.com/tallpine/shopcore"
)

var (
	// ErrProductNotFound marks a reference to an absent product.
	ErrProductNotFound = fmt.Errorf("%w: product not found", shopcore.ErrNotFound)
	// ErrOrderNotFound marks a reference to an absent order.
	ErrOrderNotFound = fmt.Errorf("%w: order not found", shopcore.ErrNotFound)
	// ErrProductInactive marks an order against a delisted product.
	ErrProductInactive = fmt.Errorf("%w: product not available", shopcore.ErrConflict)
	// ErrInvalidTransition marks a status change the state machine forbids.
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", shopcore.ErrConflict)
	// ErrInvalidQuantity marks a non-positive quantity.
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be positive", shopcore.ErrValidation)
	// ErrInvalidPrice marks a negative unit price.
	ErrInvalidPrice = fmt.Errorf("%w: price must not be negative", shopcore.ErrValidation)
	// ErrEmptyAddress marks an order request without a shipping address.
	ErrEmptyAddress = fmt.Errorf("%w: shipping address is required", shopcore.ErrValidation)
	// ErrNoItems marks an order request without items.
	ErrNoItems = fmt.Errorf("%w: order requires at least one item", shopcore.ErrValidation)
)

// InsufficientStockError names the product whose stock cannot cover the
// requested quantity. It wraps [shopcore.ErrConflict].
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.Name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return shopcore.ErrConflict }
