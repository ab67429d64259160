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

const StepDetailsShown model.Step = "details-shown"

var (
	detailsBack     = regexp.MustCompile(`(?i)\b(?:back|return|go back|list)\b`)
	detailsNext     = regexp.MustCompile(`(?i)\b(?:next|next item|next book)\b`)
	detailsPrevious = regexp.MustCompile(`(?i)\b(?:previous|previous item|previous book|last)\b`)
	wantsQuantity   = regexp.MustCompile(`(?i)\b(?:copies|quantity|multiple|several)\b`)
)

// DetailsState points at one book of the page being browsed. Return is the
// browse state to go back to.
type DetailsState struct {
	Step        model.Step
	Pagination  model.PaginationInfo
	CurrentItem int
	Selected    model.Book
	Return      *BrowseState
}

func (s DetailsState) CurrentStep() model.Step { return s.Step }

func (s DetailsState) WithStep(step model.Step) model.FlowState {
	s.Step = step
	return s
}

type DetailsFlow struct {
	cart  model.CartStore
	links navigation.Links
}

func NewDetailsFlow(cart model.CartStore, links navigation.Links) *DetailsFlow {
	return &DetailsFlow{cart: cart, links: links}
}

func (f *DetailsFlow) InitialState() model.FlowState {
	return DetailsState{Step: model.StepInit}
}

func (f *DetailsFlow) Handle(ctx context.Context, input string, state model.FlowState, tc model.TurnContext) (model.FlowResult, error) {
	st, ok := state.(DetailsState)
	if !ok {
		return model.FlowResult{}, unexpectedState(model.FlowDetails, state)
	}

	switch st.Step {
	case model.StepInit:
		return f.open(input, st), nil
	case StepDetailsShown:
		return f.shown(ctx, input, st, tc), nil
	default:
		return done("Something went wrong. Say browse books to start over."), nil
	}
}

func (f *DetailsFlow) open(input string, st DetailsState) model.FlowResult {
	books := st.Pagination.Books
	if len(books) == 0 {
		return done("No books available. Say browse books to see the catalog.")
	}

	n, ok := voice.DetailsItemNumber(input)
	if !ok {
		return ask(fmt.Sprintf("Please say a number from 1 to %d to hear book details.", len(books)), st)
	}
	if n < 1 || n > len(books) {
		return ask(fmt.Sprintf("Item %d is not available on this page. Say a number from 1 to %d.", n, len(books)), st)
	}
	return f.show(st, n, "Say add to cart to purchase, back to return to the list, or next item to hear the next book.")
}

func (f *DetailsFlow) show(st DetailsState, n int, hint string) model.FlowResult {
	book := st.Pagination.Books[n-1]
	st.Step = StepDetailsShown
	st.CurrentItem = n
	st.Selected = book

	res := ask(voice.BookDetails(book)+" "+hint, st)
	res.Navigation = f.links.Book(book.ID)
	return res
}

func (f *DetailsFlow) shown(ctx context.Context, input string, st DetailsState, tc model.TurnContext) model.FlowResult {
	books := st.Pagination.Books

	if parser.MatchIntent(input) == model.IntentAddToCart {
		book := st.Selected
		if wantsQuantity.MatchString(input) {
			return model.FlowResult{
				State:     st,
				Completed: true,
				Action:    model.ActionChooseQuantity,
				Book:      &book,
			}
		}
		if err := f.cart.AddItem(ctx, tc.CartOwner(), book, 1); err != nil {
			logx.Error().Err(err).Str("bookID", book.ID).Msg("failed to add book to cart")
			res := ask(fmt.Sprintf("Sorry, I could not add %s to your cart. %s. Please try again.", book.Name, spoken(err)), st)
			res.Error = err.Error()
			return res
		}
		res := ask(fmt.Sprintf("%s added to cart for %s. Say view cart to checkout, or back to continue browsing.",
			book.Name, voice.FormatPrice(book.Price)), st)
		res.Action = model.ActionItemAdded
		res.Book = &book
		return res
	}

	if detailsBack.MatchString(input) {
		res := done("Returning to book list.")
		res.State = st
		res.Action = model.ActionBackToList
		res.Navigation = f.links.Store()
		return res
	}

	if detailsNext.MatchString(input) {
		if st.CurrentItem+1 > len(books) {
			return ask("No more items on this page. Say back to return to the list, or next page for more books.", st)
		}
		return f.show(st, st.CurrentItem+1, "Say add to cart, back, or next item.")
	}

	if detailsPrevious.MatchString(input) {
		if st.CurrentItem-1 < 1 {
			return ask("This is the first item. Say back to return to the list.", st)
		}
		return f.show(st, st.CurrentItem-1, "Say add to cart, back, or previous item.")
	}

	if n, ok := voice.DetailsItemNumber(input); ok {
		if n < 1 || n > len(books) {
			return ask(fmt.Sprintf("Item %d is not available on this page. Say a number from 1 to %d.", n, len(books)), st)
		}
		return f.show(st, n, "Say add to cart, back, or next item.")
	}

	return ask("Say add to cart to purchase this book, back to return to the list, or next item to hear another book.", st)
}
