package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/vaanisewa-core/server/internal/assistant/dialogue"
	"github.com/vaanisewa-core/server/internal/assistant/flows"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	"github.com/vaanisewa-core/server/internal/assistant/parser"
	"github.com/vaanisewa-core/server/internal/assistant/voice"
	logx "github.com/vaanisewa-core/server/pkg/logger"
)

const (
	hostErrorMessage  = "Sorry, I encountered an error. Please try again."
	emptyCartCheckout = "Your cart is empty. Say browse books and add items to your cart before checkout."
	loginToCheckout   = "Please log in to checkout. Say log in to continue."
	loginToViewOrders = "Please log in to view your orders. Say log in to continue."
	noOrdersYet       = "You have no orders yet. Say browse books to start shopping."
	paymentVerifying  = "Payment received. Verifying now."
	paymentWindowShut = "Payment window closed. Say retry to try again, or view cart to modify your order."
	noPaymentExpected = "There is no payment in progress. Say view cart to start checkout."
	steppingBack      = "Going back one step."
	checkoutUnwound   = "Checkout closed. Your cart is saved. Say checkout to start again, or view cart to make changes."
	spokenOrdersLimit = 5
)

var (
	logoutPattern   = regexp.MustCompile(`(?i)\b(?:log\s*out|logout|sign\s*out|signout)\b`)
	stepBackPattern = regexp.MustCompile(`(?i)\b(?:previous step|step back|back a step|back one step)\b`)
)

// Shortcut intents do not interrupt these flows.
var (
	cartShortcutGuarded     = []model.FlowName{model.FlowCart, model.FlowCheckout, model.FlowSignup, model.FlowLogin}
	checkoutShortcutGuarded = []model.FlowName{model.FlowCheckout, model.FlowCart, model.FlowSignup, model.FlowLogin}
)

// handleTranscript routes one utterance. Cancel and help always go to the
// dialogue manager; otherwise a few cross-flow shortcuts are tried before the
// active flow sees the input.
func (s *Session) handleTranscript(ctx context.Context, text string) Reply {
	text = strings.TrimSpace(text)
	b := &replyBuilder{}
	current := s.manager.CurrentFlow()

	if parser.IsCancel(text) || parser.IsHelp(text) {
		s.settle(ctx, b, s.manager.ProcessInput(ctx, text, s.turnContext()))
		return b.build(s)
	}

	if s.user != nil && logoutPattern.MatchString(text) {
		s.manager.Record(model.TurnUser, text)
		s.settle(ctx, b, s.logout())
		return b.build(s)
	}

	if current == model.FlowCheckout && stepBackPattern.MatchString(text) {
		s.manager.Record(model.TurnUser, text)
		s.settle(ctx, b, s.stepBack(ctx, b))
		return b.build(s)
	}

	switch intent := parser.MatchIntent(text); {
	case intent == model.IntentViewCart && !slices.Contains(cartShortcutGuarded, current):
		s.manager.EndFlow()
		if err := s.manager.StartFlow(model.FlowCart, nil); err != nil {
			return s.failed(b, err)
		}
	case intent == model.IntentCheckout && !slices.Contains(checkoutShortcutGuarded, current):
		s.manager.Record(model.TurnUser, text)
		s.settle(ctx, b, s.beginCheckout(ctx))
		return b.build(s)
	case intent == model.IntentViewOrders && current == "":
		s.manager.Record(model.TurnUser, text)
		s.settle(ctx, b, s.describeOrders(ctx))
		return b.build(s)
	case current == model.FlowBrowse:
		if err := s.openDetails(text); err != nil {
			return s.failed(b, err)
		}
	}

	s.settle(ctx, b, s.manager.ProcessInput(ctx, text, s.turnContext()))
	return b.build(s)
}

// openDetails hands "item N" requests made while browsing to the details
// flow, remembering the browse state to return to.
func (s *Session) openDetails(text string) error {
	if _, ok := voice.ExtractSearchQuery(text); ok {
		return nil
	}
	if _, ok := voice.DetailsItemNumber(text); !ok {
		return nil
	}
	browse, ok := s.manager.FlowState().(flows.BrowseState)
	if !ok {
		return nil
	}
	return s.manager.StartFlow(model.FlowDetails, flows.DetailsState{
		Pagination: browse.Pagination,
		Return:     &browse,
	})
}

func (s *Session) handlePayment(ctx context.Context, ev PaymentEvent) Reply {
	b := &replyBuilder{}
	s.manager.Record(model.TurnUser, "payment "+string(ev.Status))

	if err := s.manager.HandlePaymentResponse(ev.Status, ev.Data); err != nil {
		logx.Warn().Err(err).Str("session_id", s.ID).Str("status", string(ev.Status)).Msg("unexpected payment callback")
		res := s.hostResult(noPaymentExpected)
		res.Error = err.Error()
		b.add(res)
		return b.build(s)
	}

	if ev.Status != model.PaymentSuccess {
		res := s.hostResult(paymentWindowShut)
		res.Action = model.ActionPaymentCancelled
		b.add(res)
		return b.build(s)
	}

	b.add(s.hostResult(paymentVerifying))
	if res, ok := s.manager.Continue(ctx, s.turnContext()); ok {
		s.settle(ctx, b, res)
	}
	return b.build(s)
}

// settle applies the action of res and keeps going while flows hand control
// to each other or announce work in progress, up to maxAutoSteps.
func (s *Session) settle(ctx context.Context, b *replyBuilder, res model.FlowResult) {
	for n := 0; ; n++ {
		b.add(res)
		next, ok := s.follow(ctx, res)
		if !ok {
			return
		}
		if n >= s.maxAutoSteps {
			logx.Warn().Str("session_id", s.ID).Str("flow", string(s.manager.CurrentFlow())).Msg("auto step limit reached")
			return
		}
		res = next
	}
}

func (s *Session) follow(ctx context.Context, res model.FlowResult) (model.FlowResult, bool) {
	switch res.Action {
	case model.ActionAuthenticated:
		if res.User != nil {
			u := *res.User
			s.user = &u
			logx.Info().Str("session_id", s.ID).Str("userID", u.ID).Msg("user authenticated")
		}
		return model.FlowResult{}, false

	case model.ActionBackToList:
		if st, ok := res.State.(flows.DetailsState); ok && st.Return != nil {
			if err := s.manager.ResumeFlow(model.FlowBrowse, st.Return.WithStep(flows.StepResume)); err != nil {
				return s.hostFailure(err), true
			}
			return s.manager.Continue(ctx, s.turnContext())
		}
		return s.restart(ctx, model.FlowBrowse, nil)

	case model.ActionContinueShopping, model.ActionBackToBrowse:
		return s.restart(ctx, model.FlowBrowse, nil)

	case model.ActionCheckout:
		return s.beginCheckout(ctx), true

	case model.ActionChooseQuantity:
		if res.Book == nil {
			return model.FlowResult{}, false
		}
		book := *res.Book
		return s.restart(ctx, model.FlowCart, flows.CartState{BookToAdd: &book})

	case model.ActionBackToCart:
		if err := s.manager.StartFlow(model.FlowCart, nil); err != nil {
			return s.hostFailure(err), true
		}
		return model.FlowResult{}, false

	case model.ActionOpenPayment:
		if res.Payment != nil {
			p := *res.Payment
			s.pending = &p
		}
		return model.FlowResult{}, false

	case model.ActionPaymentSuccess:
		s.pending = nil
		return model.FlowResult{}, false
	}

	if s.manager.InFlow() && res.State != nil && !res.RequiresInput && !res.Completed && res.Error == "" {
		return s.manager.Continue(ctx, s.turnContext())
	}
	return model.FlowResult{}, false
}

func (s *Session) restart(ctx context.Context, name model.FlowName, seed model.FlowState) (model.FlowResult, bool) {
	if err := s.manager.StartFlow(name, seed); err != nil {
		return s.hostFailure(err), true
	}
	return s.manager.Continue(ctx, s.turnContext())
}

// beginCheckout checks the cart before the sign-in so an empty cart is
// reported first, then starts checkout over the current cart.
func (s *Session) beginCheckout(ctx context.Context) model.FlowResult {
	tc := s.turnContext()
	summary, err := s.cart.Summary(ctx, tc.CartOwner())
	if err != nil {
		return s.hostFailure(err)
	}
	if len(summary.Items) == 0 {
		return s.hostResult(emptyCartCheckout)
	}
	if !tc.LoggedIn() {
		return s.hostResult(loginToCheckout)
	}

	s.manager.EndFlow()
	if err := s.manager.StartCheckout(summary.Items, summary.Total, tc.User.ID); err != nil {
		return s.hostFailure(err)
	}
	res, _ := s.manager.Continue(ctx, tc)
	return res
}

// stepBack rewinds checkout one step and asks that step's question again.
// An order whose payment window is no longer open is forgotten.
func (s *Session) stepBack(ctx context.Context, b *replyBuilder) model.FlowResult {
	step, err := s.manager.RollbackCheckout()
	switch {
	case errors.Is(err, dialogue.ErrCannotRollback):
		s.pending = nil
		res := s.hostResult(checkoutUnwound)
		res.Completed = true
		res.Navigation = s.links.Cart()
		return res
	case err != nil:
		return s.hostFailure(err)
	}

	if step != flows.StepAwaitPayment {
		s.pending = nil
	}
	b.add(s.hostResult(steppingBack))
	res, _ := s.manager.Continue(ctx, s.turnContext())
	return res
}

func (s *Session) describeOrders(ctx context.Context) model.FlowResult {
	tc := s.turnContext()
	if !tc.LoggedIn() {
		return s.hostResult(loginToViewOrders)
	}
	orders, err := s.orders.ListOrders(ctx, tc.User.ID)
	if err != nil {
		return s.hostFailure(err)
	}
	if len(orders) == 0 {
		return s.hostResult(noOrdersYet)
	}

	sort.SliceStable(orders, func(i, j int) bool { return orders[i].PaidAt.After(orders[j].PaidAt) })
	shown := orders[:min(len(orders), spokenOrdersLimit)]

	var sb strings.Builder
	fmt.Fprintf(&sb, "You have %d %s.", len(orders), plural(len(orders), "order", "orders"))
	for i, o := range shown {
		fmt.Fprintf(&sb, " Order %d: %s for %s rupees.", i+1, o.BookNames, voice.FormatAmount(float64(o.Amount)/100))
	}
	if len(orders) > len(shown) {
		fmt.Fprintf(&sb, " And %d more.", len(orders)-len(shown))
	}
	sb.WriteString(" Say browse books to continue shopping.")

	res := s.hostResult(sb.String())
	res.Navigation = s.links.Orders()
	return res
}

func (s *Session) logout() model.FlowResult {
	name := s.user.FullName
	logx.Info().Str("session_id", s.ID).Str("userID", s.user.ID).Msg("user logged out")
	s.user = nil
	s.pending = nil
	s.manager.EndFlow()

	res := s.hostResult(fmt.Sprintf("Goodbye, %s. You have been logged out.", name))
	res.Navigation = s.links.Store()
	return res
}

// hostResult is a response composed by the session rather than a flow.
func (s *Session) hostResult(text string) model.FlowResult {
	s.manager.Record(model.TurnSystem, text)
	return model.FlowResult{Response: text, RequiresInput: true}
}

func (s *Session) hostFailure(err error) model.FlowResult {
	logx.Error().Err(err).Str("session_id", s.ID).Str("flow", string(s.manager.CurrentFlow())).Msg("session turn failed")
	res := s.hostResult(hostErrorMessage)
	res.Error = err.Error()
	return res
}

func (s *Session) failed(b *replyBuilder, err error) Reply {
	b.add(s.hostFailure(err))
	return b.build(s)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
