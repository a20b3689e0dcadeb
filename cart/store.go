// Package cart holds the ephemeral per-user cart. Contents live in process
// memory only and are lost on restart; checkout snapshots them into the
// order, so nothing here is durable state.
package cart

import (
	"sync"

	"storefront/models"
)

// Store maps user ids to their pending cart items. It is injected as a
// dependency so a durable implementation can replace it without touching
// callers.
type Store struct {
	mu    sync.Mutex
	carts map[string][]models.CartItem
}

func NewStore() *Store {
	return &Store{carts: make(map[string][]models.CartItem)}
}

// ItemKey builds the cart slot key for a product/variant pair.
func ItemKey(productID, variantKey string) string {
	return productID + ":" + variantKey
}

// cloneProduct detaches the slices callers could otherwise mutate through.
func cloneProduct(p models.Product) models.Product {
	p.Images = append([]string(nil), p.Images...)
	p.Tags = append([]string(nil), p.Tags...)
	return p
}

func cloneItems(items []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Product = cloneProduct(out[i].Product)
	}
	return out
}

// Get returns a copy of the user's cart items, detached from stored state.
func (s *Store) Get(userID string) []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.carts[userID])
}

// Add puts one unit of a product variant in the cart. Re-adding an existing
// product/variant key increments its quantity instead of duplicating the
// slot. Returns the updated cart.
func (s *Store) Add(userID string, product models.Product, variantKey string) []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ItemKey(product.ID.Hex(), variantKey)
	items := s.carts[userID]
	found := false
	for i := range items {
		if items[i].Key == key {
			items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		items = append(items, models.CartItem{
			Key:        key,
			Product:    cloneProduct(product),
			VariantKey: variantKey,
			Quantity:   1,
		})
	}
	s.carts[userID] = items
	return cloneItems(items)
}

// Remove drops a cart slot by key. Returns false if the key was not present.
func (s *Store) Remove(userID, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	for i := range items {
		if items[i].Key == key {
			s.carts[userID] = append(items[:i], items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the user's cart.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}
