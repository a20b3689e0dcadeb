package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart rejects a checkout with zero line items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrInvalidLineItem rejects a line item whose quantity or unit price
	// is not positive.
	ErrInvalidLineItem = errors.New("invalid line item")

	// ErrOrderNotFound covers both a missing order and an order owned by
	// another account, so ownership is not leaked.
	ErrOrderNotFound = errors.New("order not found")

	// ErrIntentMismatch rejects a confirmation whose claimed intent id does
	// not match the order's stored payment reference.
	ErrIntentMismatch = errors.New("payment intent mismatch")
)

// DeclinedError reports that the processor did not settle the payment.
// Status carries the gateway-reported intent status. This is a normal
// payment outcome, not a gateway failure.
type DeclinedError struct {
	Status string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment failed with status: %s", e.Status)
}
