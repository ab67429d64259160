package flows

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/vaanisewa-core/server/internal/assistant/model"
	"github.com/vaanisewa-core/server/internal/assistant/navigation"
	"github.com/vaanisewa-core/server/internal/assistant/parser"
	"github.com/vaanisewa-core/server/internal/assistant/voice"
	logx "github.com/vaanisewa-core/server/pkg/logger"
)

const (
	StepReviewOrder    model.Step = "review-order"
	StepConfirmTotal   model.Step = "confirm-total"
	StepCollectAddress model.Step = "collect-address"
	StepConfirmAddress model.Step = "confirm-address"
	StepCreateOrder    model.Step = "create-order"
	StepAwaitPayment   model.Step = "await-payment"
	StepVerifyPayment  model.Step = "verify-payment"
	StepError          model.Step = "error"
)

const (
	DefaultMaxRetries = 3
	MinAddressLength  = 10
	StoreName         = "VaaniSewa Books"
	fallbackEmail     = "customer@example.com"
)

var (
	totalCancel   = regexp.MustCompile(`(?i)\b(?:cancel|go back|stop)\b`)
	totalConfirm  = regexp.MustCompile(`(?i)\b(?:confirm|proceed|yes|continue)\b`)
	paymentCancel = regexp.MustCompile(`(?i)\b(?:cancel|stop|quit)\b`)
	paymentDone   = regexp.MustCompile(`(?i)\b(?:done|completed|finished|paid)\b`)
	retryPayment  = regexp.MustCompile(`(?i)\b(?:retry|try again)\b`)
	keepShopping  = regexp.MustCompile(`(?i)\b(?:keep shopping|continue shopping|browse)\b`)
)

// CheckoutState walks an order from review to verified payment.
type CheckoutState struct {
	Step            model.Step
	CartItems       []model.CartItem
	Total           float64
	UserID          string
	TempAddress     string
	DeliveryAddress string
	OrderID         string
	OrderAmount     int64
	PaymentID       string
	Signature       string
	RetryCount      int
	LastError       string
}

func (s CheckoutState) CurrentStep() model.Step { return s.Step }

func (s CheckoutState) WithStep(step model.Step) model.FlowState { return s.at(step) }

func (s CheckoutState) at(step model.Step) CheckoutState {
	s.Step = step
	return s
}

type CheckoutOptions struct {
	MaxRetries int
	KeyID      string
	Currency   string
}

type CheckoutFlow struct {
	cart   model.CartStore
	orders model.OrderService
	links  navigation.Links
	opts   CheckoutOptions
}

func NewCheckoutFlow(cart model.CartStore, orders model.OrderService, links navigation.Links, opts CheckoutOptions) *CheckoutFlow {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	return &CheckoutFlow{cart: cart, orders: orders, links: links, opts: opts}
}

func (f *CheckoutFlow) InitialState() model.FlowState {
	return CheckoutState{Step: model.StepInit}
}

func (f *CheckoutFlow) Handle(ctx context.Context, input string, state model.FlowState, tc model.TurnContext) (model.FlowResult, error) {
	st, ok := state.(CheckoutState)
	if !ok {
		return model.FlowResult{}, unexpectedState(model.FlowCheckout, state)
	}
	if st.UserID == "" && tc.LoggedIn() {
		st.UserID = tc.User.ID
	}

	switch st.Step {
	case model.StepInit:
		return f.review(ctx, st, tc)
	case StepReviewOrder:
		return f.reviewAnswer(input, st), nil
	case StepConfirmTotal:
		return f.confirmTotal(input, st), nil
	case StepCollectAddress:
		return f.collectAddress(input, st), nil
	case StepConfirmAddress:
		return f.confirmAddress(input, st), nil
	case StepCreateOrder:
		return f.createOrder(ctx, st, tc)
	case StepAwaitPayment:
		return f.awaitPayment(input, st), nil
	case StepVerifyPayment:
		return f.verifyPayment(ctx, st, tc), nil
	case StepError:
		return f.afterError(input, st), nil
	default:
		return done("Something went wrong with checkout. Say view cart to start over, or contact support for assistance."), nil
	}
}

func (f *CheckoutFlow) review(ctx context.Context, st CheckoutState, tc model.TurnContext) (model.FlowResult, error) {
	s, err := f.cart.Summary(ctx, tc.CartOwner())
	if err != nil {
		return model.FlowResult{}, fmt.Errorf("load cart for checkout: %w", err)
	}
	if s.ItemCount == 0 {
		return done("Your cart is empty. Say browse books to add items."), nil
	}
	if st.UserID == "" {
		return done("Please log in to complete checkout. Say log in to continue."), nil
	}

	st.CartItems = s.Items
	st.Total = s.Total
	noun := "items"
	if s.ItemCount == 1 {
		noun = "item"
	}
	return ask(fmt.Sprintf("Let me confirm your order. You have %d %s. %s. Subtotal: %s rupees. Is this correct? Say yes to continue or no to modify.",
		s.ItemCount, noun, voice.CartListing(s.Items), voice.FormatAmount(s.Total)), st.at(StepReviewOrder)), nil
}

func (f *CheckoutFlow) reviewAnswer(input string, st CheckoutState) model.FlowResult {
	switch parser.ParseConfirmation(input) {
	case model.Confirmed:
		return ask(fmt.Sprintf("Your final total is %s rupees. This amount will be charged to your account. Say confirm to proceed with payment, or cancel to go back.",
			voice.FormatAmount(st.Total)), st.at(StepConfirmTotal))
	case model.Rejected:
		res := done("Returning to cart. Say view cart to make changes.")
		res.Action = model.ActionBackToCart
		return res
	default:
		return ask("Please say yes to confirm order, or no to modify.", st)
	}
}

func (f *CheckoutFlow) confirmTotal(input string, st CheckoutState) model.FlowResult {
	switch {
	case totalCancel.MatchString(input):
		res := done("Payment cancelled. Your cart is saved. Say view cart or continue shopping.")
		res.Action = model.ActionBackToCart
		return res
	case totalConfirm.MatchString(input):
		return ask("Collecting delivery address. Please tell me your complete delivery address.", st.at(StepCollectAddress))
	default:
		return ask("Please say confirm to proceed with payment, or cancel to go back.", st)
	}
}

func (f *CheckoutFlow) collectAddress(input string, st CheckoutState) model.FlowResult {
	address := strings.TrimSpace(input)
	if len(address) < MinAddressLength {
		return ask("Please provide a complete delivery address with at least 10 characters.", st)
	}
	st.TempAddress = address
	return ask(fmt.Sprintf("I heard: %s. Say correct to confirm, or repeat to say it again.", address), st.at(StepConfirmAddress))
}

func (f *CheckoutFlow) confirmAddress(input string, st CheckoutState) model.FlowResult {
	switch parser.ParseConfirmation(input) {
	case model.Confirmed:
		st.DeliveryAddress = st.TempAddress
		return proceed("Processing payment. One moment please.", st.at(StepCreateOrder))
	case model.Rejected:
		return ask("Please tell me your delivery address again.", st.at(StepCollectAddress))
	default:
		return ask("Please say correct to confirm, or repeat to say it again.", st)
	}
}

func (f *CheckoutFlow) createOrder(ctx context.Context, st CheckoutState, tc model.TurnContext) (model.FlowResult, error) {
	s, err := f.cart.Summary(ctx, tc.CartOwner())
	if err != nil {
		return model.FlowResult{}, fmt.Errorf("load cart for order: %w", err)
	}
	if s.ItemCount > 0 {
		st.CartItems = s.Items
		st.Total = s.Total
	}

	order, err := f.orders.CreateOrder(ctx, st.Total, st.UserID)
	if err != nil {
		logx.Warn().Err(err).Str("userID", st.UserID).Msg("order creation failed")
		st.LastError = spoken(err)
		res := ask("Failed to create order. "+DescribePaymentError(st.LastError), st.at(StepError))
		res.Error = err.Error()
		return res, nil
	}

	st.OrderID = order.ID
	st.OrderAmount = order.Amount
	st.PaymentID = ""
	st.Signature = ""

	email := fallbackEmail
	if tc.LoggedIn() && tc.User.Email != "" {
		email = tc.User.Email
	}
	res := ask("Order created. Opening payment window. A payment window has opened on your screen. Complete the payment using card, U P I, or net banking as shown. Say done when payment is complete, or cancel to stop.",
		st.at(StepAwaitPayment))
	res.Action = model.ActionOpenPayment
	res.Navigation = f.links.Payment()
	res.Payment = &model.PaymentRequest{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: firstNonEmpty(order.Currency, f.opts.Currency),
		KeyID:    f.opts.KeyID,
		Name:     StoreName,
		Email:    email,
	}
	return res, nil
}

func (f *CheckoutFlow) awaitPayment(input string, st CheckoutState) model.FlowResult {
	switch {
	case paymentCancel.MatchString(input):
		st.LastError = "Payment cancelled by user"
		res := ask("Payment cancelled. Your cart is still saved. Say try again to retry payment, or keep shopping to continue browsing.", st.at(StepError))
		res.Action = model.ActionPaymentCancelled
		return res
	case paymentDone.MatchString(input):
		return proceed("Verifying payment. Please wait.", st.at(StepVerifyPayment))
	default:
		return ask("Say done when payment is complete, or cancel to stop.", st)
	}
}

func (f *CheckoutFlow) verifyPayment(ctx context.Context, st CheckoutState, tc model.TurnContext) model.FlowResult {
	if st.PaymentID == "" || st.Signature == "" {
		st.LastError = "Missing payment details"
		return ask("Payment details missing. This usually means payment was not completed. Say retry to try again, or contact support if amount was deducted.", st.at(StepError))
	}

	names := make([]string, 0, len(st.CartItems))
	for _, it := range st.CartItems {
		names = append(names, it.Name)
	}
	rec, err := f.orders.VerifyPayment(ctx, model.VerifyRequest{
		OrderID:            st.OrderID,
		PaymentID:          st.PaymentID,
		Signature:          st.Signature,
		UserID:             st.UserID,
		BookNames:          strings.Join(names, ", "),
		TransactionDetails: fmt.Sprintf("Amount Paid: %s rupees", voice.FormatAmount(st.Total)),
		DeliveryAddress:    st.DeliveryAddress,
	})
	if err != nil {
		logx.Warn().Err(err).Str("orderID", st.OrderID).Msg("payment verification failed")
		st.LastError = spoken(err)
		res := ask("Payment verification failed. "+DescribePaymentError(st.LastError), st.at(StepError))
		res.Error = err.Error()
		return res
	}

	if err := f.cart.Clear(ctx, tc.CartOwner()); err != nil {
		logx.Error().Err(err).Str("orderID", st.OrderID).Msg("paid order but failed to clear cart")
	}

	res := done(fmt.Sprintf("Payment successful! %s Items will be delivered to your address. Confirmation email sent. Say browse books to continue shopping, or view orders to see your order history.",
		voice.OrderConfirmation(st.OrderID, st.CartItems, st.Total)))
	res.Action = model.ActionPaymentSuccess
	res.Navigation = f.links.Orders()
	res.Order = &model.OrderReceipt{
		OrderID:         st.OrderID,
		PaymentID:       rec.PaymentID,
		Items:           st.CartItems,
		Total:           st.Total,
		DeliveryAddress: st.DeliveryAddress,
	}
	return res
}

func (f *CheckoutFlow) afterError(input string, st CheckoutState) model.FlowResult {
	switch {
	case retryPayment.MatchString(input):
		if st.RetryCount >= f.opts.MaxRetries {
			return done("Maximum retry attempts reached. Please contact support or try again later. Your cart is saved.")
		}
		st.RetryCount++
		st.LastError = ""
		return proceed("Retrying payment. One moment.", st.at(StepCreateOrder))
	case keepShopping.MatchString(input):
		res := done("Returning to browse. Your cart is saved.")
		res.Action = model.ActionBackToBrowse
		return res
	default:
		return ask("Say retry to try payment again, keep shopping to continue browsing, or contact support for help.", st)
	}
}

var ErrUnknownPaymentStatus = errors.New("unknown payment status")

// ApplyPayment records the payment widget's outcome on a checkout state.
func ApplyPayment(st CheckoutState, status model.PaymentStatus, data model.PaymentData) (CheckoutState, error) {
	switch status {
	case model.PaymentSuccess:
		st.PaymentID = data.PaymentID
		st.Signature = data.Signature
		if st.OrderID == "" {
			st.OrderID = data.OrderID
		}
		return st.at(StepVerifyPayment), nil
	case model.PaymentCancelled:
		st.LastError = "Payment cancelled by user"
		return st.at(StepError), nil
	default:
		return st, fmt.Errorf("%w: %q", ErrUnknownPaymentStatus, status)
	}
}

// RollbackCheckout moves a checkout one step back along
// verify-payment, await-payment, confirm-total, review-order.
func RollbackCheckout(st CheckoutState) (CheckoutState, bool) {
	switch st.Step {
	case StepVerifyPayment:
		return st.at(StepAwaitPayment), true
	case StepAwaitPayment:
		return st.at(StepConfirmTotal), true
	case StepConfirmTotal:
		return st.at(StepReviewOrder), true
	default:
		return st, false
	}
}

// DescribePaymentError turns a payment failure into spoken guidance.
func DescribePaymentError(message string) string {
	if message == "" {
		return "An unknown payment error occurred. Please try again."
	}
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "cancel"):
		return "Payment was cancelled. Say retry to try again, or keep shopping to return to browsing."
	case strings.Contains(m, "amount"):
		return "Amount error occurred. Please contact support or try again with a different payment method."
	case strings.Contains(m, "network"), strings.Contains(m, "timeout"), strings.Contains(m, "took too long"), strings.Contains(m, "connection"):
		return "Connection lost during payment. Don't worry, we're checking your payment status. Say retry to try again."
	case strings.Contains(m, "insufficient"), strings.Contains(m, "declined"):
		return "Payment declined. Please check your payment details and try again, or use a different payment method."
	case strings.Contains(m, "invalid signature"), strings.Contains(m, "verification failed"):
		return "Payment verification failed. Please contact support with your order details."
	case strings.Contains(m, "expired"), strings.Contains(m, "session"):
		return "Payment session expired. Say retry to create a new payment session."
	default:
		return fmt.Sprintf("Payment error: %s. Say retry to try again or contact support for assistance.", message)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
