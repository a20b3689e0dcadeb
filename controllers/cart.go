package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"storefront/cart"
	"storefront/models"
)

// CartController handles the ephemeral per-user cart
type CartController struct {
	Store *cart.Store
}

// NewCartController creates a new CartController
func NewCartController(store *cart.Store) *CartController {
	return &CartController{Store: store}
}

// GetCart retrieves the user's cart
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	claims, _, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": cc.Store.Get(claims.UserID),
	})
}

// AddToCart puts one unit of a product variant in the cart
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	claims, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input struct {
		Product    models.Product `json:"product"`
		VariantKey string         `json:"variantKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, errValidation, "Invalid input")
		return
	}
	if input.Product.ID.IsZero() {
		writeError(w, http.StatusBadRequest, errValidation, "product is required")
		return
	}

	items := cc.Store.Add(claims.UserID, input.Product, input.VariantKey)
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// RemoveFromCart drops a cart slot by its key
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	claims, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	key := mux.Vars(r)["key"]
	if !cc.Store.Remove(claims.UserID, key) {
		writeError(w, http.StatusNotFound, errNotFound, "Cart item not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": cc.Store.Get(claims.UserID),
	})
}
