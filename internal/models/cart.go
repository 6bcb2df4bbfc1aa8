package models

// Money is an amount in integer minor units (cents). Totals stay exact under
// repeated add/remove/update sequences; conversion to a decimal string happens
// only at the display boundary.
type Money int64

func (m Money) Dollars() float64 {
	return float64(m) / 100
}

// CartLine is one product's entry in the cart, keyed by ProductID.
type CartLine struct {
	ProductID string `json:"id"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"price"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
}

func (l CartLine) LineTotal() Money {
	return l.UnitPrice * Money(l.Quantity)
}

// CartState holds the cart lines in insertion order. Total always equals the
// sum of UnitPrice×Quantity over all lines.
type CartState struct {
	Lines []CartLine `json:"items"`
	Total Money      `json:"total"`
}

// WishlistItem is a saved-for-later product reference. Set semantics: no
// quantity, no duplicates.
type WishlistItem struct {
	ProductID string `json:"id"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"price"`
	Image     string `json:"image"`
}

type WishlistState struct {
	Items []WishlistItem `json:"items"`
}

// EngineState is everything the cart/wishlist store owns.
type EngineState struct {
	Cart     CartState     `json:"cart"`
	Wishlist WishlistState `json:"wishlist"`
}

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name"       validate:"required"`
	UnitPrice Money  `json:"unit_price" validate:"min=0"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type UpdateQuantityRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type ToggleWishlistRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"unit_price" validate:"min=0"`
	Image     string `json:"image"`
}

// CartSummary carries the derived selectors the storefront pages bind to.
type CartSummary struct {
	LineCount int   `json:"line_count"`
	ItemCount int   `json:"item_count"`
	Total     Money `json:"total"`
}
