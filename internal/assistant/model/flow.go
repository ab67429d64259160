package model

// FlowName identifies a registered conversational flow.
type FlowName string

const (
	FlowSignup   FlowName = "auth-signup"
	FlowLogin    FlowName = "auth-login"
	FlowBrowse   FlowName = "browse-books"
	FlowDetails  FlowName = "product-details"
	FlowCart     FlowName = "cart"
	FlowCheckout FlowName = "checkout"
)

// Title is the spoken name of the flow.
func (f FlowName) Title() string {
	switch f {
	case FlowSignup:
		return "Sign up"
	case FlowLogin:
		return "Log in"
	case FlowBrowse:
		return "Browsing"
	case FlowDetails:
		return "Book details"
	case FlowCart:
		return "Cart"
	case FlowCheckout:
		return "Checkout"
	default:
		return string(f)
	}
}

// Step names a position inside a flow.
type Step string

// StepInit is the entry step shared by every flow.
const StepInit Step = "init"

// FlowState is the typed, per-flow snapshot carried between turns.
// Implementations are value types; WithStep returns a modified copy.
type FlowState interface {
	CurrentStep() Step
	WithStep(step Step) FlowState
}

// Action is a side effect a flow asks its host to perform.
type Action string

const (
	ActionNone             Action = ""
	ActionAuthenticated    Action = "authenticated"
	ActionBackToList       Action = "back-to-list"
	ActionItemAdded        Action = "item-added"
	ActionChooseQuantity   Action = "choose-quantity"
	ActionCheckout         Action = "checkout"
	ActionContinueShopping Action = "continue-shopping"
	ActionBackToCart       Action = "back-to-cart"
	ActionBackToBrowse     Action = "back-to-browse"
	ActionOpenPayment      Action = "open-payment"
	ActionPaymentCancelled Action = "payment-cancelled"
	ActionPaymentSuccess   Action = "payment-success"
)

// FlowResult is the outcome of one flow turn.
type FlowResult struct {
	Response      string
	State         FlowState
	Completed     bool
	RequiresInput bool
	Action        Action
	Navigation    string
	Error         string

	User    *User
	Book    *Book
	Payment *PaymentRequest
	Order   *OrderReceipt
}

// TurnContext is the read-only context a host supplies with every turn.
type TurnContext struct {
	User *User
}

func (tc TurnContext) LoggedIn() bool {
	return tc.User != nil && tc.User.ID != ""
}

// CartOwner is the key cart operations are scoped to.
func (tc TurnContext) CartOwner() string {
	if tc.LoggedIn() {
		return tc.User.ID
	}
	return GuestCartOwner
}
