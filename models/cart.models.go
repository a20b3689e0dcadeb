package models

// CartItem is one entry in a user's ephemeral cart. Key is
// "<productId>:<variantKey>" so the same product in two variants
// occupies two slots while re-adding a variant bumps its quantity.
type CartItem struct {
	Key        string  `json:"key"`
	Product    Product `json:"product"`
	VariantKey string  `json:"variantKey,omitempty"`
	Quantity   int     `json:"qty"`
}
