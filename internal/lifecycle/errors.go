package lifecycle

import "errors"

var (
	ErrEmptyCheckout     = errors.New("no orders selected for checkout")
	ErrForbidden         = errors.New("caller does not own this order")
	ErrIllegalTransition = errors.New("illegal transition of order status")
	ErrStockNotFound     = errors.New("no stock entry matches the order's variations")
	ErrInsufficientStock = errors.New("stock is lower than the ordered quantity")
	ErrNotShipped        = errors.New("order has not been shipped")
	ErrAlreadyReviewed   = errors.New("order has already been reviewed")
	ErrInvalidReview     = errors.New("review rating must be between 1 and 5")
	ErrNotRepurchasable  = errors.New("only finished orders can be bought again")
)
