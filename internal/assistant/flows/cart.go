package flows

import (
	"context"
	"fmt"
	"regexp"

	"github.com/vaanisewa-core/server/internal/assistant/model"
	"github.com/vaanisewa-core/server/internal/assistant/navigation"
	"github.com/vaanisewa-core/server/internal/assistant/parser"
	"github.com/vaanisewa-core/server/internal/assistant/voice"
	logx "github.com/vaanisewa-core/server/pkg/logger"
)

const (
	StepViewingCart           model.Step = "viewing-cart"
	StepEmptyCart             model.Step = "empty-cart"
	StepAwaitingCommand       model.Step = "awaiting-command"
	StepAddToCartInit         model.Step = "add-to-cart-init"
	StepCollectQuantity       model.Step = "collect-quantity"
	StepConfirmAdd            model.Step = "confirm-add"
	StepConfirmRemove         model.Step = "confirm-remove"
	StepConfirmClear          model.Step = "confirm-clear"
	StepCollectNewQuantity    model.Step = "collect-new-quantity"
	StepConfirmUpdateQuantity model.Step = "confirm-update-quantity"
)

var (
	cartQuery        = regexp.MustCompile(`(?i)\b(?:what'?s|show|my|view|check|see|open)\s+(?:in\s+)?(?:my\s+)?(?:cart|card|basket)\b`)
	cartCheckout     = regexp.MustCompile(`(?i)\bcheck(?:\s|-)?out\b`)
	continueShopping = regexp.MustCompile(`(?i)\b(?:continue\s+shopping|browse|shop|add\s+more)\b`)
	clearCart        = regexp.MustCompile(`(?i)\bclear\s+cart\b`)
	removeItem       = regexp.MustCompile(`(?i)\bremove\s+(?:item\s+)?(?:\d+|one|two|three|four|five|six|seven|eight|nine|ten)\b`)
	changeQuantity   = regexp.MustCompile(`(?i)\b(?:change|update)\s+quantity\s+of\s+(?:item\s+)?(?:\d+|one|two|three|four|five)\b`)
)

// CartState remembers the line a pending confirmation refers to by item id,
// so the line is looked up again when the user confirms.
type CartState struct {
	Step            model.Step
	BookToAdd       *model.Book
	PendingQuantity int
	PendingItemID   string
	PendingItemName string
	CurrentQuantity int
}

func (s CartState) CurrentStep() model.Step { return s.Step }

func (s CartState) WithStep(step model.Step) model.FlowState { return s.at(step) }

func (s CartState) at(step model.Step) CartState {
	s.Step = step
	return s
}

type CartFlow struct {
	cart  model.CartStore
	links navigation.Links
}

func NewCartFlow(cart model.CartStore, links navigation.Links) *CartFlow {
	return &CartFlow{cart: cart, links: links}
}

func (f *CartFlow) InitialState() model.FlowState {
	return CartState{Step: model.StepInit}
}

func (f *CartFlow) Handle(ctx context.Context, input string, state model.FlowState, tc model.TurnContext) (model.FlowResult, error) {
	st, ok := state.(CartState)
	if !ok {
		return model.FlowResult{}, unexpectedState(model.FlowCart, state)
	}
	owner := tc.CartOwner()

	switch st.Step {
	case model.StepInit:
		if st.BookToAdd != nil {
			return f.askQuantity(st), nil
		}
		if parser.MatchIntent(input) == model.IntentViewCart || cartQuery.MatchString(input) {
			return f.view(ctx, owner, st), nil
		}
		return ask("Say view cart, add to cart, or continue shopping.", st.at(StepAwaitingCommand)), nil
	case StepEmptyCart, StepAwaitingCommand:
		return f.idle(ctx, input, owner, st), nil
	case StepViewingCart:
		return f.viewing(ctx, input, owner, st), nil
	case StepAddToCartInit:
		return f.askQuantity(st), nil
	case StepCollectQuantity:
		return f.collectQuantity(input, st), nil
	case StepConfirmAdd:
		return f.confirmAdd(ctx, input, owner, st), nil
	case StepConfirmRemove:
		return f.confirmRemove(ctx, input, owner, st), nil
	case StepConfirmClear:
		return f.confirmClear(ctx, input, owner, st), nil
	case StepCollectNewQuantity:
		return f.collectNewQuantity(input, st), nil
	case StepConfirmUpdateQuantity:
		return f.confirmUpdate(ctx, input, owner, st), nil
	default:
		return done("Something went wrong. Say view cart to start over."), nil
	}
}

func (f *CartFlow) summary(ctx context.Context, owner string) (model.CartSummary, error) {
	s, err := f.cart.Summary(ctx, owner)
	if err != nil {
		logx.Error().Err(err).Str("owner", owner).Msg("failed to load cart")
	}
	return s, err
}

func (f *CartFlow) unavailable(st CartState, err error) model.FlowResult {
	res := ask("Sorry, I could not load your cart right now. Please try again.", st)
	res.Error = err.Error()
	return res
}

func (f *CartFlow) view(ctx context.Context, owner string, st CartState) model.FlowResult {
	s, err := f.summary(ctx, owner)
	if err != nil {
		return f.unavailable(st, err)
	}
	if s.ItemCount == 0 {
		return ask("Your cart is empty. Say browse books to shop, or continue shopping to return.", st.at(StepEmptyCart))
	}

	res := ask(fmt.Sprintf("Cart has %d items. %s. Total: %s rupees. Say checkout to buy, continue shopping to add more, remove item followed by a number, or clear cart to empty everything.",
		s.ItemCount, voice.CartListing(s.Items), voice.FormatAmount(s.Total)), st.at(StepViewingCart))
	res.Navigation = f.links.Cart()
	return res
}

func (f *CartFlow) backToShopping() model.FlowResult {
	res := done("Returning to browse books.")
	res.Action = model.ActionContinueShopping
	res.Navigation = f.links.Store()
	return res
}

func (f *CartFlow) idle(ctx context.Context, input, owner string, st CartState) model.FlowResult {
	intent := parser.MatchIntent(input)
	if intent == model.IntentBrowse || continueShopping.MatchString(input) {
		return f.backToShopping()
	}
	if intent == model.IntentViewCart || cartQuery.MatchString(input) {
		return f.view(ctx, owner, st)
	}
	return ask("Say view cart to see items, or continue shopping to browse books.", st)
}

func (f *CartFlow) viewing(ctx context.Context, input, owner string, st CartState) model.FlowResult {
	if parser.MatchIntent(input) == model.IntentCheckout || cartCheckout.MatchString(input) {
		s, err := f.summary(ctx, owner)
		if err != nil {
			return f.unavailable(st, err)
		}
		if s.ItemCount == 0 {
			return ask("Cart is empty. Add items before checkout.", st.at(StepEmptyCart))
		}
		res := done(fmt.Sprintf("Proceeding to checkout with %d items totaling %s rupees.", s.ItemCount, voice.FormatAmount(s.Total)))
		res.Action = model.ActionCheckout
		return res
	}

	if continueShopping.MatchString(input) {
		return f.backToShopping()
	}

	if clearCart.MatchString(input) {
		return ask("Are you sure you want to remove all items from cart? This cannot be undone. Say yes to confirm, or no to cancel.", st.at(StepConfirmClear))
	}

	if m := removeItem.FindString(input); m != "" {
		return f.pickLine(ctx, m, owner, st, func(item model.CartItem, st CartState) model.FlowResult {
			st.PendingItemID = item.ID
			st.PendingItemName = item.Name
			return ask(fmt.Sprintf("Remove %s from cart? Say yes to confirm, or no to cancel.", item.Name), st.at(StepConfirmRemove))
		}, "Say remove item followed by a number from 1 to %d.")
	}

	if m := changeQuantity.FindString(input); m != "" {
		return f.pickLine(ctx, m, owner, st, func(item model.CartItem, st CartState) model.FlowResult {
			st.PendingItemID = item.ID
			st.PendingItemName = item.Name
			st.CurrentQuantity = item.Quantity
			return ask(fmt.Sprintf("%s currently has %d %s. Say new quantity from 1 to 10.", item.Name, item.Quantity, voice.Copies(item.Quantity)), st.at(StepCollectNewQuantity))
		}, "Say change quantity of item followed by a number from 1 to %d.")
	}

	return ask("Say checkout, continue shopping, remove item followed by a number, or clear cart.", st)
}

// pickLine resolves a spoken 1-based line number against the live cart.
func (f *CartFlow) pickLine(ctx context.Context, phrase, owner string, st CartState, then func(model.CartItem, CartState) model.FlowResult, retry string) model.FlowResult {
	s, err := f.summary(ctx, owner)
	if err != nil {
		return f.unavailable(st, err)
	}
	n, _ := voice.ExtractNumber(phrase)
	if n < 1 || n > len(s.Items) {
		return ask(fmt.Sprintf("Item %d does not exist in cart. You have %d items. "+retry, n, len(s.Items), len(s.Items)), st)
	}
	return then(s.Items[n-1], st)
}

func (f *CartFlow) askQuantity(st CartState) model.FlowResult {
	if st.BookToAdd == nil {
		return done("No book selected. Please browse books and select an item first.")
	}
	return ask(fmt.Sprintf("Adding %s to cart. How many copies? Say a number from 1 to 10.", st.BookToAdd.Name), st.at(StepCollectQuantity))
}

func parseQuantity(input string) (int, bool) {
	q, ok := voice.ExtractNumber(input)
	return q, ok && q >= model.MinQuantity && q <= model.MaxQuantity
}

func (f *CartFlow) collectQuantity(input string, st CartState) model.FlowResult {
	q, ok := parseQuantity(input)
	if !ok || st.BookToAdd == nil {
		return ask("Please say a number between 1 and 10.", st)
	}
	st.PendingQuantity = q
	return ask(fmt.Sprintf("Adding %d %s of %s. Say yes to confirm, or no to cancel.", q, voice.Copies(q), st.BookToAdd.Name), st.at(StepConfirmAdd))
}

func (f *CartFlow) confirmAdd(ctx context.Context, input, owner string, st CartState) model.FlowResult {
	switch parser.ParseConfirmation(input) {
	case model.Confirmed:
		if err := f.cart.AddItem(ctx, owner, *st.BookToAdd, st.PendingQuantity); err != nil {
			res := ask(fmt.Sprintf("Failed to add to cart: %s. Please try again.", spoken(err)), st.at(StepAddToCartInit))
			res.Error = err.Error()
			return res
		}
		s, err := f.summary(ctx, owner)
		if err != nil {
			return f.unavailable(st.at(StepViewingCart), err)
		}
		res := done(fmt.Sprintf("Added to cart! Cart now has %d items. Say view cart, checkout, or continue shopping.", s.ItemCount))
		res.Action = model.ActionItemAdded
		res.Book = st.BookToAdd
		return res
	case model.Rejected:
		return done("Cancelled. Say continue shopping to browse books.")
	default:
		return ask("Please say yes to confirm, or no to cancel.", st)
	}
}

// stillInCart re-reads the cart so a confirmation acts on the line the user
// picked even when other lines changed in between.
func (f *CartFlow) stillInCart(ctx context.Context, owner string, st CartState) (model.FlowResult, bool) {
	s, err := f.summary(ctx, owner)
	if err != nil {
		return f.unavailable(st.at(StepViewingCart), err), false
	}
	if _, _, ok := s.Find(st.PendingItemID); !ok {
		return ask(fmt.Sprintf("%s is no longer in your cart. Say view cart to hear your items.", st.PendingItemName), st.at(StepViewingCart)), false
	}
	return model.FlowResult{}, true
}

func (f *CartFlow) confirmRemove(ctx context.Context, input, owner string, st CartState) model.FlowResult {
	switch parser.ParseConfirmation(input) {
	case model.Confirmed:
		if res, ok := f.stillInCart(ctx, owner, st); !ok {
			return res
		}
		if err := f.cart.RemoveItem(ctx, owner, st.PendingItemID); err != nil {
			res := ask(fmt.Sprintf("Failed to remove item: %s. Please try again.", spoken(err)), st.at(StepViewingCart))
			res.Error = err.Error()
			return res
		}
		s, err := f.summary(ctx, owner)
		if err != nil {
			return f.unavailable(st.at(StepViewingCart), err)
		}
		if s.ItemCount == 0 {
			return ask("Removed. Cart is now empty. Say continue shopping to add items.", st.at(StepEmptyCart))
		}
		return ask(fmt.Sprintf("Removed %s. Cart now has %d items. Say view cart, checkout, or continue shopping.", st.PendingItemName, s.ItemCount), st.at(StepViewingCart))
	case model.Rejected:
		return ask("Cancelled. Item remains in cart.", st.at(StepViewingCart))
	default:
		return ask("Please say yes to confirm removal, or no to cancel.", st)
	}
}

func (f *CartFlow) confirmClear(ctx context.Context, input, owner string, st CartState) model.FlowResult {
	switch parser.ParseConfirmation(input) {
	case model.Confirmed:
		if err := f.cart.Clear(ctx, owner); err != nil {
			res := ask(fmt.Sprintf("Failed to clear cart: %s. Please try again.", spoken(err)), st.at(StepViewingCart))
			res.Error = err.Error()
			return res
		}
		return ask("Cart cleared. All items removed. Say continue shopping to browse books.", st.at(StepEmptyCart))
	case model.Rejected:
		return ask("Cancelled. Cart unchanged.", st.at(StepViewingCart))
	default:
		return ask("Please say yes to clear cart, or no to cancel.", st)
	}
}

func (f *CartFlow) collectNewQuantity(input string, st CartState) model.FlowResult {
	q, ok := parseQuantity(input)
	if !ok {
		return ask("Please say a number between 1 and 10.", st)
	}
	st.PendingQuantity = q
	return ask(fmt.Sprintf("Update %s to %d %s? Say yes to confirm, or no to cancel.", st.PendingItemName, q, voice.Copies(q)), st.at(StepConfirmUpdateQuantity))
}

func (f *CartFlow) confirmUpdate(ctx context.Context, input, owner string, st CartState) model.FlowResult {
	switch parser.ParseConfirmation(input) {
	case model.Confirmed:
		if res, ok := f.stillInCart(ctx, owner, st); !ok {
			return res
		}
		if err := f.cart.UpdateQuantity(ctx, owner, st.PendingItemID, st.PendingQuantity); err != nil {
			res := ask(fmt.Sprintf("Failed to update quantity: %s. Please try again.", spoken(err)), st.at(StepViewingCart))
			res.Error = err.Error()
			return res
		}
		return ask(fmt.Sprintf("Updated! %s quantity is now %d. Say view cart to see all items.", st.PendingItemName, st.PendingQuantity), st.at(StepViewingCart))
	case model.Rejected:
		return ask("Cancelled. Quantity unchanged.", st.at(StepViewingCart))
	default:
		return ask("Please say yes to confirm, or no to cancel.", st)
	}
}
