package model

// Intent is the classified purpose of a single utterance.
type Intent string

const (
	IntentUnknown    Intent = ""
	IntentSignup     Intent = "signup"
	IntentLogin      Intent = "login"
	IntentBrowse     Intent = "browse"
	IntentSearch     Intent = "search"
	IntentCategory   Intent = "category"
	IntentDetails    Intent = "details"
	IntentAddToCart  Intent = "addToCart"
	IntentCheckout   Intent = "checkout"
	IntentViewCart   Intent = "viewCart"
	IntentViewOrders Intent = "viewOrders"
	IntentPagination Intent = "pagination"
	IntentHelp       Intent = "help"
	IntentCancel     Intent = "cancel"
)

// IntentMatch is the result of keyword intent parsing.
type IntentMatch struct {
	Intent     Intent
	Confidence float64
	Text       string
}

// Decision is the outcome of a yes/no confirmation.
type Decision int

const (
	Unclear Decision = iota
	Confirmed
	Rejected
)

func (d Decision) String() string {
	switch d {
	case Confirmed:
		return "confirmed"
	case Rejected:
		return "rejected"
	default:
		return "unclear"
	}
}
