package payment

import (
	"context"
	"fmt"
)

// StatusSucceeded is the only intent status checkout treats as settled.
// Everything else ("requires_action", "processing", "canceled", ...) is
// not-succeeded; the exact string is surfaced to the client as-is.
const StatusSucceeded = "succeeded"

// Intent is the processor's handle for an authorized, in-progress payment.
type Intent struct {
	ID           string
	ClientSecret string
}

// Gateway is the boundary to the external payment processor. It is the sole
// source of truth for whether money moved: an order is never marked paid
// without RetrieveIntent reporting success.
type Gateway interface {
	// CreateIntent opens a payment intent for amount in the currency's
	// minor unit (cents). Metadata is attached to the intent for later
	// correlation.
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)

	// RetrieveIntent returns the processor's current status string for an
	// intent. A transport failure is a *Error, not a payment outcome: the
	// money may have moved despite the failed call.
	RetrieveIntent(ctx context.Context, intentID string) (string, error)
}

// Error wraps a failure talking to the processor (network, auth, unknown
// intent id). Distinct from a declined payment, which is a normal
// not-succeeded status.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("payment gateway: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
