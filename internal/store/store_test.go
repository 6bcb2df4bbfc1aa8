package store_test

import (
	"testing"

	"github.com/eshop-labs/commerce-engine/internal/models"
	"github.com/eshop-labs/commerce-engine/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumOfLines(cart models.CartState) models.Money {
	var total models.Money
	for _, line := range cart.Lines {
		total += line.UnitPrice * models.Money(line.Quantity)
	}

	return total
}

func TestAddToCart(t *testing.T) {
	t.Run("Merges Quantity For Same Product", func(t *testing.T) {
		// Arrange
		s := store.New()

		// Act
		s.AddToCart("1", 1000, "Keyboard", "kb.png", 2)
		s.AddToCart("1", 1000, "Keyboard", "kb.png", 1)

		// Assert
		state := s.State()
		require.Len(t, state.Cart.Lines, 1)
		assert.Equal(t, 3, state.Cart.Lines[0].Quantity)
		assert.Equal(t, models.Money(3000), state.Cart.Total)
	})

	t.Run("Appends Distinct Products", func(t *testing.T) {
		s := store.New()

		s.AddToCart("1", 1050, "Keyboard", "kb.png", 2)
		s.AddToCart("2", 200, "Cable", "cable.png", 3)

		state := s.State()
		require.Len(t, state.Cart.Lines, 2)
		assert.Equal(t, models.Money(2700), state.Cart.Total)
		assert.Equal(t, sumOfLines(state.Cart), state.Cart.Total)
	})

	t.Run("Rejects Invalid Input", func(t *testing.T) {
		s := store.New()

		s.AddToCart("", 1000, "Keyboard", "", 1)
		s.AddToCart("1", 1000, "Keyboard", "", 0)
		s.AddToCart("1", -1, "Keyboard", "", 1)

		state := s.State()
		assert.Empty(t, state.Cart.Lines)
		assert.Equal(t, models.Money(0), state.Cart.Total)
	})
}

func TestRemoveFromCart(t *testing.T) {
	t.Run("Removes Line And Adjusts Total", func(t *testing.T) {
		s := store.New()
		s.AddToCart("1", 1000, "Keyboard", "", 2)
		s.AddToCart("2", 500, "Mouse", "", 1)

		s.RemoveFromCart("1")

		state := s.State()
		require.Len(t, state.Cart.Lines, 1)
		assert.Equal(t, "2", state.Cart.Lines[0].ProductID)
		assert.Equal(t, models.Money(500), state.Cart.Total)
	})

	t.Run("Absent Product Is A NoOp", func(t *testing.T) {
		s := store.New()

		s.RemoveFromCart("1")

		state := s.State()
		assert.Empty(t, state.Cart.Lines)
		assert.Equal(t, models.Money(0), state.Cart.Total)
	})
}

func TestUpdateQuantity(t *testing.T) {
	newStoreWithLine := func() *store.Store {
		s := store.New()
		s.AddToCart("1", 1000, "Keyboard", "", 2)

		return s
	}

	t.Run("Updates Quantity And Total", func(t *testing.T) {
		s := newStoreWithLine()

		s.UpdateQuantity("1", 5)

		state := s.State()
		require.Len(t, state.Cart.Lines, 1)
		assert.Equal(t, 5, state.Cart.Lines[0].Quantity)
		assert.Equal(t, models.Money(5000), state.Cart.Total)
	})

	t.Run("Zero And Negative Quantities Are NoOps", func(t *testing.T) {
		s := newStoreWithLine()

		s.UpdateQuantity("1", 0)
		s.UpdateQuantity("1", -1)

		state := s.State()
		require.Len(t, state.Cart.Lines, 1)
		assert.Equal(t, 2, state.Cart.Lines[0].Quantity)
		assert.Equal(t, models.Money(2000), state.Cart.Total)
	})

	t.Run("Unknown Product Is A NoOp", func(t *testing.T) {
		s := newStoreWithLine()

		s.UpdateQuantity("missing", 3)

		state := s.State()
		assert.Equal(t, models.Money(2000), state.Cart.Total)
	})
}

func TestClearCart(t *testing.T) {
	s := store.New()
	s.AddToCart("1", 1000, "Keyboard", "", 2)
	s.ToggleWishlistItem(models.WishlistItem{ProductID: "9", Name: "Lamp"})

	s.ClearCart()

	state := s.State()
	assert.Empty(t, state.Cart.Lines)
	assert.Equal(t, models.Money(0), state.Cart.Total)
	// Clearing the cart leaves the wishlist alone.
	assert.Len(t, state.Wishlist.Items, 1)
}

func TestToggleWishlistItem(t *testing.T) {
	item := models.WishlistItem{ProductID: "9", Name: "Lamp", UnitPrice: 2500}

	t.Run("Toggle Twice Restores Membership", func(t *testing.T) {
		s := store.New()

		s.ToggleWishlistItem(item)
		assert.True(t, s.InWishlist("9"))

		s.ToggleWishlistItem(item)
		assert.False(t, s.InWishlist("9"))
		assert.Empty(t, s.State().Wishlist.Items)
	})

	t.Run("Empty Product ID Rejected", func(t *testing.T) {
		s := store.New()

		s.ToggleWishlistItem(models.WishlistItem{})

		assert.Empty(t, s.State().Wishlist.Items)
	})
}

// The total invariant holds after any finite sequence of cart operations.
func TestTotalInvariantUnderMixedSequences(t *testing.T) {
	s := store.New()

	steps := []func(){
		func() { s.AddToCart("1", 999, "A", "", 3) },
		func() { s.AddToCart("2", 150, "B", "", 1) },
		func() { s.UpdateQuantity("1", 7) },
		func() { s.AddToCart("1", 999, "A", "", 2) },
		func() { s.RemoveFromCart("2") },
		func() { s.UpdateQuantity("1", 1) },
		func() { s.RemoveFromCart("missing") },
		func() { s.UpdateQuantity("1", 0) },
		func() { s.AddToCart("3", 25, "C", "", 40) },
	}

	for _, step := range steps {
		step()
		state := s.State()
		assert.Equal(t, sumOfLines(state.Cart), state.Cart.Total)
	}
}

func TestSummary(t *testing.T) {
	s := store.New()
	s.AddToCart("1", 1000, "Keyboard", "", 2)
	s.AddToCart("2", 500, "Mouse", "", 3)

	summary := s.Summary()

	assert.Equal(t, 2, summary.LineCount)
	assert.Equal(t, 5, summary.ItemCount)
	assert.Equal(t, models.Money(3500), summary.Total)
}

func TestSubscribe(t *testing.T) {
	s := store.New()

	var notified []models.EngineState

	unsubscribe := s.Subscribe(func(state models.EngineState) {
		notified = append(notified, state)
	})

	s.AddToCart("1", 1000, "Keyboard", "", 1)
	require.Len(t, notified, 1)
	assert.Equal(t, models.Money(1000), notified[0].Cart.Total)

	// Rejected mutations do not notify.
	s.UpdateQuantity("1", 0)
	assert.Len(t, notified, 1)

	unsubscribe()
	s.RemoveFromCart("1")
	assert.Len(t, notified, 1)
}

func TestNewFromState(t *testing.T) {
	initial := models.EngineState{
		Cart: models.CartState{
			Lines: []models.CartLine{{ProductID: "1", Name: "Keyboard", UnitPrice: 1000, Quantity: 2}},
			Total: 2000,
		},
		Wishlist: models.WishlistState{
			Items: []models.WishlistItem{{ProductID: "9", Name: "Lamp"}},
		},
	}

	s := store.NewFromState(initial)

	state := s.State()
	assert.Equal(t, initial, state)

	// The store owns its copy; mutating the input does not leak in.
	initial.Cart.Lines[0].Quantity = 99
	assert.Equal(t, 2, s.State().Cart.Lines[0].Quantity)
}
