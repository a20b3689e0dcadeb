// Package checkout coordinates the order ledger and the payment processor.
// It owns the order state machine: orders are created pending together with
// a payment intent, and only the processor's reported status may move them
// to paid or failed.
package checkout

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
	"storefront/payment"
)

// OrderStore is the slice of the order ledger the orchestrator needs.
type OrderStore interface {
	// Insert persists a new order and returns its assigned id.
	Insert(ctx context.Context, order *models.Order) (primitive.ObjectID, error)

	// FindByID fetches an order scoped to its owner. Returns nil when the
	// order does not exist or belongs to someone else.
	FindByID(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error)

	// TransitionFromPending applies "set status where id and status=pending"
	// as a single conditional write. Returns false when the order was no
	// longer pending, i.e. a concurrent confirmation won the race.
	TransitionFromPending(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (bool, error)
}

// Pricer looks up the catalog price for a product, used only when
// server-side re-pricing is enabled.
type Pricer interface {
	UnitPrice(ctx context.Context, productID primitive.ObjectID) (float64, error)
}

// Notifier is told when an order freshly settles. It fires at most once per
// order: a re-confirmation that short-circuits on an already-paid order, or
// that loses the conditional write to a concurrent confirmation, does not
// notify again.
type Notifier interface {
	OrderPaid(order models.Order)
}

// Service is the checkout orchestrator.
type Service struct {
	Orders   OrderStore
	Gateway  payment.Gateway
	Pricer   Pricer
	Notifier Notifier
	Currency string

	// Reprice replaces client-submitted unit prices with catalog prices
	// before totaling. Off by default: the observed behavior trusts the
	// client payload, and enabling this is a compatibility-breaking choice.
	Reprice bool
}

// CreateCheckout computes totals for the cart snapshot, opens a payment
// intent, and persists a pending order bound to it. The order is written
// only after the intent call succeeds, so a gateway failure leaves nothing
// behind.
func (s *Service) CreateCheckout(ctx context.Context, userID primitive.ObjectID, items []models.OrderItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	for i := range items {
		if items[i].Quantity <= 0 || items[i].UnitPrice <= 0 {
			return nil, fmt.Errorf("%w: item %q", ErrInvalidLineItem, items[i].Name)
		}
	}

	if s.Reprice {
		for i := range items {
			price, err := s.Pricer.UnitPrice(ctx, items[i].Product)
			if err != nil {
				return nil, fmt.Errorf("%w: item %q: %v", ErrInvalidLineItem, items[i].Name, err)
			}
			items[i].UnitPrice = price
		}
	}

	subtotal := 0.0
	for _, item := range items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	total := subtotal // no tax or shipping for now

	intent, err := s.Gateway.CreateIntent(ctx, int64(math.Round(total*100)), s.Currency, map[string]string{
		"user_id": userID.Hex(),
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		UserID:          userID,
		Items:           items,
		Subtotal:        subtotal,
		Total:           total,
		Status:          models.OrderPending,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	id, err := s.Orders.Insert(ctx, order)
	if err != nil {
		return nil, err
	}
	order.ID = id
	return order, nil
}

// ConfirmPayment reconciles an order against the processor's authoritative
// intent status and applies the pending->paid or pending->failed transition.
// Safe to call repeatedly: a terminal order short-circuits without touching
// the gateway, and the transition itself is a conditional single-row write,
// so two concurrent confirmations converge on one outcome.
func (s *Service) ConfirmPayment(ctx context.Context, userID, orderID primitive.ObjectID, claimedIntentID string) (*models.Order, error) {
	order, err := s.Orders.FindByID(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if order.PaymentIntentID != claimedIntentID {
		return nil, ErrIntentMismatch
	}

	if order.Status.Terminal() {
		if order.Status == models.OrderFailed {
			return order, &DeclinedError{Status: string(order.Status)}
		}
		return order, nil
	}

	status, err := s.Gateway.RetrieveIntent(ctx, order.PaymentIntentID)
	if err != nil {
		// A failed or timed-out status query says nothing about the
		// payment itself; leave the order pending for a retry.
		return nil, err
	}

	next := models.OrderFailed
	if status == payment.StatusSucceeded {
		next = models.OrderPaid
	}

	applied, err := s.Orders.TransitionFromPending(ctx, order.ID, next)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the race to a concurrent confirmation; report its result.
		order, err = s.Orders.FindByID(ctx, orderID, userID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, ErrOrderNotFound
		}
		if order.Status == models.OrderFailed {
			return order, &DeclinedError{Status: status}
		}
		return order, nil
	}

	order.Status = next
	order.UpdatedAt = time.Now()
	if next == models.OrderFailed {
		return order, &DeclinedError{Status: status}
	}
	if s.Notifier != nil {
		s.Notifier.OrderPaid(*order)
	}
	return order, nil
}
