package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus enumerates the lifecycle of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderFailed    OrderStatus = "failed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPaid, OrderFailed, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Terminal reports whether the checkout flow may still move the order.
// Only a pending order is eligible for an automatic transition; everything
// else requires an administrative override.
func (s OrderStatus) Terminal() bool {
	return s.Valid() && s != OrderPending
}

// legalTransitions is the edge set of the order state machine. Checkout only
// ever drives pending->paid and pending->failed; the rest are admin edges.
var legalTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderPaid, OrderFailed, OrderCancelled},
	OrderPaid:    {OrderShipped, OrderCancelled},
	OrderShipped: {OrderDelivered},
}

// CanTransitionTo reports whether next is a legal edge from s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range legalTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// OrderItem is a line item snapshotted from the cart at order-creation time.
// Later catalog edits must not change what an existing order shows.
type OrderItem struct {
	Product    primitive.ObjectID `bson:"product" json:"product"`
	Name       string             `bson:"name" json:"name"`
	Slug       string             `bson:"slug" json:"slug"`
	Images     []string           `bson:"images,omitempty" json:"images,omitempty"`
	VariantKey string             `bson:"variant_key,omitempty" json:"variantKey,omitempty"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	UnitPrice  float64            `bson:"unit_price" json:"unitPrice"`
}

// Order represents a user's order bound 1:1 to a payment intent.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          primitive.ObjectID `bson:"user_id" json:"userId"`
	Items           []OrderItem        `bson:"items" json:"items"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	Tax             float64            `bson:"tax" json:"tax"`
	Shipping        float64            `bson:"shipping" json:"shipping"`
	Total           float64            `bson:"total" json:"total"`
	Status          OrderStatus        `bson:"status" json:"status"`
	PaymentIntentID string             `bson:"payment_intent_id" json:"paymentIntentId"`
	ClientSecret    string             `bson:"client_secret" json:"-"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}
