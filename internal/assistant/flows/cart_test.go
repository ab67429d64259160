package flows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaanisewa-core/server/internal/assistant/catalog"
	"github.com/vaanisewa-core/server/internal/assistant/model"
)

var (
	godaan  = catalog.DefaultBooks[0]
	malgudi = catalog.DefaultBooks[5]
)

func seedCart(t *testing.T, fx *fixture, owner string, lines ...model.CartItem) {
	t.Helper()
	for _, l := range lines {
		book, ok := fx.catalog.Book(l.ID)
		require.True(t, ok, l.ID)
		require.NoError(t, fx.cart.AddItem(context.Background(), owner, book, l.Quantity))
	}
}

func cartOf(t *testing.T, fx *fixture, owner string) model.CartSummary {
	t.Helper()
	s, err := fx.cart.Summary(context.Background(), owner)
	require.NoError(t, err)
	return s
}

func TestCartViewListsItems(t *testing.T) {
	fx := newFixture(t)
	seedCart(t, fx, model.GuestCartOwner, model.CartItem{ID: "1", Quantity: 2}, model.CartItem{ID: "6", Quantity: 1})
	flow := NewCartFlow(fx.cart, fx.links)

	res := say(t, flow, flow.InitialState(), "view cart", model.TurnContext{})
	assert.Equal(t, StepViewingCart, step(t, res))
	assert.Equal(t, "https://shop.test/cart", res.Navigation)
	assert.Equal(t, "Cart has 3 items. Item 1: Godaan, 2 copies at 350 rupees each. Item 2: Malgudi Days, 1 copy at 275 rupees each. Total: 975 rupees. Say checkout to buy, continue shopping to add more, remove item followed by a number, or clear cart to empty everything.", res.Response)
}

func TestCartEmptyAndIdle(t *testing.T) {
	fx := newFixture(t)
	flow := NewCartFlow(fx.cart, fx.links)

	res := say(t, flow, flow.InitialState(), "show my cart", model.TurnContext{})
	assert.Equal(t, StepEmptyCart, step(t, res))

	res = say(t, flow, res.State, "continue shopping", model.TurnContext{})
	assert.True(t, res.Completed)
	assert.Equal(t, model.ActionContinueShopping, res.Action)

	res = say(t, flow, flow.InitialState(), "hello", model.TurnContext{})
	assert.Equal(t, StepAwaitingCommand, step(t, res))
}

func TestCartAddWithQuantity(t *testing.T) {
	fx := newFixture(t)
	flow := NewCartFlow(fx.cart, fx.links)
	book := malgudi

	res := say(t, flow, CartState{Step: model.StepInit, BookToAdd: &book}, "", model.TurnContext{})
	assert.Equal(t, StepCollectQuantity, step(t, res))
	assert.Equal(t, "Adding Malgudi Days to cart. How many copies? Say a number from 1 to 10.", res.Response)

	res = converse(t, flow, res.State, model.TurnContext{}, "three", "yes")
	assert.True(t, res.Completed)
	assert.Equal(t, model.ActionItemAdded, res.Action)
	assert.Equal(t, "Added to cart! Cart now has 3 items. Say view cart, checkout, or continue shopping.", res.Response)
	assert.Equal(t, 3, cartOf(t, fx, model.GuestCartOwner).Items[0].Quantity)
}

func TestCartQuantityBounds(t *testing.T) {
	fx := newFixture(t)
	flow := NewCartFlow(fx.cart, fx.links)
	book := godaan
	st := CartState{Step: StepCollectQuantity, BookToAdd: &book}

	for _, in := range []string{"zero", "0", "eleven", "11", "lots please"} {
		t.Run(in, func(t *testing.T) {
			res := say(t, flow, st, in, model.TurnContext{})
			assert.True(t, res.RequiresInput)
			assert.Equal(t, StepCollectQuantity, step(t, res))
			assert.Equal(t, "Please say a number between 1 and 10.", res.Response)
		})
	}
	assert.Empty(t, cartOf(t, fx, model.GuestCartOwner).Items)

	upd := CartState{Step: StepCollectNewQuantity, PendingItemID: "1", PendingItemName: "Godaan"}
	res := say(t, flow, upd, "eleven", model.TurnContext{})
	assert.Equal(t, StepCollectNewQuantity, step(t, res))
}

func TestCartAddRejectedDoesNotMutate(t *testing.T) {
	fx := newFixture(t)
	flow := NewCartFlow(fx.cart, fx.links)
	book := godaan

	res := say(t, flow, CartState{Step: StepConfirmAdd, BookToAdd: &book, PendingQuantity: 2}, "no", model.TurnContext{})
	assert.True(t, res.Completed)
	assert.Empty(t, cartOf(t, fx, model.GuestCartOwner).Items)

	res = say(t, flow, CartState{Step: StepConfirmAdd, BookToAdd: &book, PendingQuantity: 2}, "yes but no", model.TurnContext{})
	assert.Equal(t, StepConfirmAdd, step(t, res))
}

func TestCartRemoveConfirmed(t *testing.T) {
	fx := newFixture(t)
	owner := "u1"
	seedCart(t, fx, owner, model.CartItem{ID: "1", Quantity: 1}, model.CartItem{ID: "2", Quantity: 1})
	flow := NewCartFlow(fx.cart, fx.links)
	tc := loggedIn(owner)

	res := say(t, flow, CartState{Step: StepViewingCart}, "remove item 2", tc)
	require.Equal(t, StepConfirmRemove, step(t, res))
	assert.Equal(t, "Remove Gitanjali from cart? Say yes to confirm, or no to cancel.", res.Response)
	assert.Len(t, cartOf(t, fx, owner).Items, 2)

	res = say(t, flow, res.State, "yes", tc)
	assert.Equal(t, StepViewingCart, step(t, res))
	assert.Equal(t, "Removed Gitanjali. Cart now has 1 items. Say view cart, checkout, or continue shopping.", res.Response)
	items := cartOf(t, fx, owner).Items
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)
}

func TestCartRemoveOutOfRange(t *testing.T) {
	fx := newFixture(t)
	seedCart(t, fx, model.GuestCartOwner, model.CartItem{ID: "1", Quantity: 1})
	flow := NewCartFlow(fx.cart, fx.links)

	res := say(t, flow, CartState{Step: StepViewingCart}, "remove item 4", model.TurnContext{})
	assert.Equal(t, StepViewingCart, step(t, res))
	assert.Equal(t, "Item 4 does not exist in cart. You have 1 items. Say remove item followed by a number from 1 to 1.", res.Response)
}

func TestCartConfirmationReResolvesLiveItem(t *testing.T) {
	fx := newFixture(t)
	owner := model.GuestCartOwner
	seedCart(t, fx, owner, model.CartItem{ID: "1", Quantity: 1}, model.CartItem{ID: "2", Quantity: 1})
	flow := NewCartFlow(fx.cart, fx.links)

	res := say(t, flow, CartState{Step: StepViewingCart}, "remove item 1", model.TurnContext{})
	pending := res.State.(CartState)
	require.Equal(t, "1", pending.PendingItemID)

	// The line goes away before the user answers.
	require.NoError(t, fx.cart.RemoveItem(context.Background(), owner, "1"))

	res = say(t, flow, pending, "yes", model.TurnContext{})
	assert.Equal(t, StepViewingCart, step(t, res))
	assert.Equal(t, "Godaan is no longer in your cart. Say view cart to hear your items.", res.Response)
	items := cartOf(t, fx, owner).Items
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].ID)
}

func TestCartChangeQuantity(t *testing.T) {
	fx := newFixture(t)
	seedCart(t, fx, model.GuestCartOwner, model.CartItem{ID: "6", Quantity: 1})
	flow := NewCartFlow(fx.cart, fx.links)

	res := say(t, flow, CartState{Step: StepViewingCart}, "change quantity of item 1", model.TurnContext{})
	require.Equal(t, StepCollectNewQuantity, step(t, res))
	assert.Equal(t, "Malgudi Days currently has 1 copy. Say new quantity from 1 to 10.", res.Response)

	res = converse(t, flow, res.State, model.TurnContext{}, "four", "yes")
	assert.Equal(t, "Updated! Malgudi Days quantity is now 4. Say view cart to see all items.", res.Response)
	assert.Equal(t, 4, cartOf(t, fx, model.GuestCartOwner).Items[0].Quantity)
}

func TestCartClear(t *testing.T) {
	fx := newFixture(t)
	seedCart(t, fx, model.GuestCartOwner, model.CartItem{ID: "1", Quantity: 2})
	flow := NewCartFlow(fx.cart, fx.links)

	res := say(t, flow, CartState{Step: StepViewingCart}, "clear cart", model.TurnContext{})
	require.Equal(t, StepConfirmClear, step(t, res))

	res = say(t, flow, res.State, "nope", model.TurnContext{})
	assert.Equal(t, "Cancelled. Cart unchanged.", res.Response)
	assert.Len(t, cartOf(t, fx, model.GuestCartOwner).Items, 1)

	res = say(t, flow, CartState{Step: StepConfirmClear}, "yes", model.TurnContext{})
	assert.Equal(t, StepEmptyCart, step(t, res))
	assert.Empty(t, cartOf(t, fx, model.GuestCartOwner).Items)
}

func TestCartCheckoutAction(t *testing.T) {
	fx := newFixture(t)
	flow := NewCartFlow(fx.cart, fx.links)

	res := say(t, flow, CartState{Step: StepViewingCart}, "checkout", model.TurnContext{})
	assert.Equal(t, StepEmptyCart, step(t, res))
	assert.Equal(t, "Cart is empty. Add items before checkout.", res.Response)

	seedCart(t, fx, model.GuestCartOwner, model.CartItem{ID: "2", Quantity: 2})
	res = say(t, flow, CartState{Step: StepViewingCart}, "check out", model.TurnContext{})
	assert.True(t, res.Completed)
	assert.Equal(t, model.ActionCheckout, res.Action)
	assert.Equal(t, "Proceeding to checkout with 2 items totaling 500 rupees.", res.Response)
}
