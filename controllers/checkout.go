package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/checkout"
	"storefront/models"
	"storefront/payment"
	"storefront/utils"
)

// CheckoutController exposes the checkout orchestrator over HTTP
type CheckoutController struct {
	Service *checkout.Service
}

// NewCheckoutController creates a new CheckoutController
func NewCheckoutController(service *checkout.Service) *CheckoutController {
	return &CheckoutController{Service: service}
}

// EmailNotifier implements checkout.Notifier by emailing the order's owner
// in the background. The orchestrator invokes it only on a fresh
// pending->paid transition, so a retried confirmation cannot send a second
// mail.
type EmailNotifier struct {
	UserCollection *mongo.Collection
	EmailService   *utils.EmailService
}

// NewEmailNotifier creates a new EmailNotifier
func NewEmailNotifier(client *mongo.Client, emailService *utils.EmailService) *EmailNotifier {
	return &EmailNotifier{
		UserCollection: client.Database("storefront").Collection("users"),
		EmailService:   emailService,
	}
}

// OrderPaid emails the order's owner that payment settled.
func (n *EmailNotifier) OrderPaid(order models.Order) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var user models.User
		if err := n.UserCollection.FindOne(ctx, bson.M{"_id": order.UserID}).Decode(&user); err != nil {
			log.Printf("Failed to look up user for order %s: %v", order.ID.Hex(), err)
			return
		}
		if err := n.EmailService.SendOrderPaidEmail(user.Email, order); err != nil {
			log.Printf("Failed to send email to %s: %v", user.Email, err)
		}
	}()
}

type checkoutItem struct {
	ProductID  string   `json:"productId"`
	Name       string   `json:"name"`
	Slug       string   `json:"slug"`
	Images     []string `json:"images"`
	VariantKey string   `json:"variantKey"`
	Quantity   int      `json:"quantity"`
	UnitPrice  float64  `json:"unitPrice"`
}

// CreateCheckout opens a payment intent for the submitted cart and persists
// a pending order bound to it
func (cc *CheckoutController) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input struct {
		Items []checkoutItem `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, errValidation, "Invalid input")
		return
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		productID, err := primitive.ObjectIDFromHex(in.ProductID)
		if err != nil {
			writeError(w, http.StatusBadRequest, errValidation, "Invalid product ID in cart")
			return
		}
		items = append(items, models.OrderItem{
			Product:    productID,
			Name:       in.Name,
			Slug:       in.Slug,
			Images:     in.Images,
			VariantKey: in.VariantKey,
			Quantity:   in.Quantity,
			UnitPrice:  in.UnitPrice,
		})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, err := cc.Service.CreateCheckout(ctx, userID, items)
	if err != nil {
		cc.writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"clientSecret": order.ClientSecret,
		"orderId":      order.ID,
		"message":      "Payment intent created",
	})
}

// ConfirmPayment reconciles an order against the processor and reports the
// resulting order state
func (cc *CheckoutController) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input struct {
		OrderID         string `json:"orderId"`
		PaymentIntentID string `json:"paymentIntentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, errValidation, "Invalid input")
		return
	}
	orderID, err := primitive.ObjectIDFromHex(input.OrderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, errValidation, "Invalid order ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, err := cc.Service.ConfirmPayment(ctx, userID, orderID, input.PaymentIntentID)
	if err != nil {
		var declined *checkout.DeclinedError
		if errors.As(err, &declined) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":   errPayment,
				"message": declined.Error(),
				"order":   order,
			})
			return
		}
		cc.writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Payment confirmed and order updated to paid",
		"order":   order,
	})
}

func (cc *CheckoutController) writeCheckoutError(w http.ResponseWriter, err error) {
	var gatewayErr *payment.Error
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, errValidation, "Cart is empty")
	case errors.Is(err, checkout.ErrInvalidLineItem):
		writeError(w, http.StatusBadRequest, errValidation, err.Error())
	case errors.Is(err, checkout.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, errNotFound, "Order not found")
	case errors.Is(err, checkout.ErrIntentMismatch):
		writeError(w, http.StatusBadRequest, errMismatch, "Payment intent mismatch")
	case errors.As(err, &gatewayErr):
		writeError(w, http.StatusBadGateway, errGateway, "Payment provider unavailable")
	default:
		log.Printf("Checkout error: %v", err)
		writeError(w, http.StatusInternalServerError, errServer, "Internal server error")
	}
}
