// Package store holds the in-memory cart/wishlist state and enforces its
// quantity and total invariants. It knows nothing about storage; persistence
// hangs off Subscribe.
package store

import (
	"sync"

	"github.com/eshop-labs/commerce-engine/internal/models"
)

// Subscriber receives a copy of the state after every successful mutation.
type Subscriber func(models.EngineState)

// Store is an explicit state container, injected where it is needed instead
// of living as a package-level singleton. Every mutation and its subscriber
// notifications run under one mutex, so a dispatch is a single indivisible
// step relative to other dispatches.
type Store struct {
	mu    sync.Mutex
	state models.EngineState
	subs  []Subscriber
}

func New() *Store {
	return &Store{}
}

// NewFromState rehydrates a store from a persisted snapshot.
func NewFromState(state models.EngineState) *Store {
	return &Store{state: cloneState(state)}
}

// State returns a copy; callers never see shared slices.
func (s *Store) State() models.EngineState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneState(s.state)
}

// Subscribe registers fn to run after every mutation. Returns an unsubscribe
// function.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs[idx] = nil
	}
}

// AddToCart increments the quantity of an existing line with the same product
// id, or appends a new line. Invalid input (empty id, qty < 1) is rejected
// without touching the state.
func (s *Store) AddToCart(productID string, unitPrice models.Money, name, image string, qty int) {
	if productID == "" || qty < 1 || unitPrice < 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Cart.Lines {
		if s.state.Cart.Lines[i].ProductID == productID {
			s.state.Cart.Lines[i].Quantity += qty
			s.state.Cart.Total += unitPrice * models.Money(qty)
			s.notifyLocked()

			return
		}
	}

	s.state.Cart.Lines = append(s.state.Cart.Lines, models.CartLine{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Image:     image,
		Quantity:  qty,
	})
	s.state.Cart.Total += unitPrice * models.Money(qty)
	s.notifyLocked()
}

// RemoveFromCart deletes the line for productID. Removing an absent product
// is a no-op and does not perturb the total.
func (s *Store) RemoveFromCart(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Cart.Lines {
		if s.state.Cart.Lines[i].ProductID == productID {
			s.state.Cart.Total -= s.state.Cart.Lines[i].LineTotal()
			s.state.Cart.Lines = append(s.state.Cart.Lines[:i], s.state.Cart.Lines[i+1:]...)
			s.notifyLocked()

			return
		}
	}
}

// UpdateQuantity sets the quantity of an existing line. Quantities below 1
// are rejected: no state change, total unchanged.
func (s *Store) UpdateQuantity(productID string, qty int) {
	if qty < 1 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Cart.Lines {
		line := &s.state.Cart.Lines[i]
		if line.ProductID == productID {
			s.state.Cart.Total += line.UnitPrice * models.Money(qty-line.Quantity)
			line.Quantity = qty
			s.notifyLocked()

			return
		}
	}
}

func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Cart = models.CartState{}
	s.notifyLocked()
}

// ToggleWishlistItem flips membership: add if absent, remove if present.
func (s *Store) ToggleWishlistItem(item models.WishlistItem) {
	if item.ProductID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Wishlist.Items {
		if s.state.Wishlist.Items[i].ProductID == item.ProductID {
			s.state.Wishlist.Items = append(s.state.Wishlist.Items[:i], s.state.Wishlist.Items[i+1:]...)
			s.notifyLocked()

			return
		}
	}

	s.state.Wishlist.Items = append(s.state.Wishlist.Items, item)
	s.notifyLocked()
}

// InWishlist is the wishlist-membership predicate the product pages bind to.
func (s *Store) InWishlist(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Wishlist.Items {
		if s.state.Wishlist.Items[i].ProductID == productID {
			return true
		}
	}

	return false
}

// Summary returns the derived cart selectors: distinct line count, summed
// item count, and the running total.
func (s *Store) Summary() models.CartSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := models.CartSummary{
		LineCount: len(s.state.Cart.Lines),
		Total:     s.state.Cart.Total,
	}

	for i := range s.state.Cart.Lines {
		summary.ItemCount += s.state.Cart.Lines[i].Quantity
	}

	return summary
}

func (s *Store) notifyLocked() {
	snapshot := cloneState(s.state)

	for _, fn := range s.subs {
		if fn != nil {
			fn(snapshot)
		}
	}
}

func cloneState(state models.EngineState) models.EngineState {
	out := models.EngineState{
		Cart: models.CartState{
			Total: state.Cart.Total,
		},
	}

	if state.Cart.Lines != nil {
		out.Cart.Lines = make([]models.CartLine, len(state.Cart.Lines))
		copy(out.Cart.Lines, state.Cart.Lines)
	}

	if state.Wishlist.Items != nil {
		out.Wishlist.Items = make([]models.WishlistItem, len(state.Wishlist.Items))
		copy(out.Wishlist.Items, state.Wishlist.Items)
	}

	return out
}
