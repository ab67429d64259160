package flows

import (
	"context"
	"fmt"
	"regexp"

	"github.com/vaanisewa-core/server/internal/assistant/catalog"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	"github.com/vaanisewa-core/server/internal/assistant/navigation"
	"github.com/vaanisewa-core/server/internal/assistant/voice"
	logx "github.com/vaanisewa-core/server/pkg/logger"
)

const (
	StepBrowsing model.Step = "browsing"
	// StepResume re-reads the page a browse state was left on.
	StepResume model.Step = "resume"
)

var browseAll = regexp.MustCompile(`(?i)\b(?:browse|show)\s+all\b`)

type BrowseState struct {
	Step          model.Step
	AllBooks      []model.Book
	FilteredBooks []model.Book
	CurrentPage   int
	PerPage       int
	Category      string
	SearchQuery   string
	Pagination    model.PaginationInfo
}

func (s BrowseState) CurrentStep() model.Step { return s.Step }

func (s BrowseState) WithStep(step model.Step) model.FlowState {
	s.Step = step
	return s
}

// BrowseFlow reads the catalog a page at a time and narrows it by search or category.
type BrowseFlow struct {
	catalog model.CatalogService
	perPage int
	links   navigation.Links
}

func NewBrowseFlow(c model.CatalogService, perPage int, links navigation.Links) *BrowseFlow {
	if perPage <= 0 {
		perPage = catalog.DefaultPerPage
	}
	return &BrowseFlow{catalog: c, perPage: perPage, links: links}
}

func (f *BrowseFlow) InitialState() model.FlowState {
	return BrowseState{Step: model.StepInit, PerPage: f.perPage}
}

func (f *BrowseFlow) Handle(ctx context.Context, input string, state model.FlowState, _ model.TurnContext) (model.FlowResult, error) {
	st, ok := state.(BrowseState)
	if !ok {
		return model.FlowResult{}, unexpectedState(model.FlowBrowse, state)
	}
	if st.PerPage <= 0 {
		st.PerPage = f.perPage
	}

	switch st.Step {
	case model.StepInit:
		return f.start(ctx, st), nil
	case StepBrowsing:
		return f.browse(input, st), nil
	case StepResume:
		return f.resume(st), nil
	default:
		return done("Something went wrong. Say browse books to start over."), nil
	}
}

func (f *BrowseFlow) start(ctx context.Context, st BrowseState) model.FlowResult {
	books, err := f.catalog.FetchBooks(ctx, model.BookFilters{})
	if err != nil || len(books) == 0 {
		if err != nil {
			logx.Error().Err(err).Msg("failed to fetch books")
		}
		res := done("Sorry, I could not load books at this time. Please try again later.")
		if err != nil {
			res.Error = err.Error()
		}
		return res
	}

	st.Step = StepBrowsing
	st.AllBooks = books
	st.FilteredBooks = books
	st.CurrentPage = 1
	st.Pagination = catalog.Paginate(books, 1, st.PerPage)

	hint := " Say a number to hear details, or search to find specific books."
	if st.Pagination.HasNext {
		hint = " Say next for more, or a number to hear details."
	}
	res := ask(listing(st.Pagination)+hint, st)
	res.Navigation = f.links.Store()
	return res
}

func (f *BrowseFlow) browse(input string, st BrowseState) model.FlowResult {
	if query, ok := voice.ExtractSearchQuery(input); ok {
		results := catalog.Search(st.AllBooks, query)
		if len(results) == 0 {
			return ask(fmt.Sprintf("No results found for %s. Try different keywords, or say browse all to see all books.", query), st)
		}
		st = st.narrow(results, "", query)
		return ask(listing(st.Pagination)+" Say next for more, or a number for details.", st)
	}

	if browseAll.MatchString(input) {
		st = st.narrow(st.AllBooks, "", "")
		return ask("Showing all books. "+listing(st.Pagination)+" Say next for more.", st)
	}

	if spokenCategory, ok := voice.ExtractCategory(input); ok {
		category, known := catalog.MapCategory(spokenCategory)
		if !known {
			return ask(fmt.Sprintf("I couldn't find category %s. Try fiction, fantasy, thriller, biography, or say browse all for everything.", spokenCategory), st)
		}
		results := catalog.FilterByCategory(st.AllBooks, category)
		if len(results) == 0 {
			return ask(fmt.Sprintf("No books found in %s category. Say browse all to see all books.", category), st)
		}
		st = st.narrow(results, category, "")
		return ask(fmt.Sprintf("Showing %s books. %s Say next for more, or a number for details.", category, listing(st.Pagination)), st)
	}

	if cmd, ok := voice.ParsePageCommand(input); ok {
		return f.turnPage(cmd, st)
	}

	return ask("Say search to find books, a category name to filter, next or previous for navigation, or a number to hear book details.", st)
}

func (f *BrowseFlow) turnPage(cmd voice.PageCommand, st BrowseState) model.FlowResult {
	page := st.CurrentPage
	switch {
	case cmd.Move == voice.PageNext && st.Pagination.HasNext:
		page++
	case cmd.Move == voice.PagePrevious && st.Pagination.HasPrevious:
		page--
	case cmd.Move == voice.PageFirst:
		page = 1
	case cmd.Move == voice.PageLast:
		page = max(st.Pagination.TotalPages, 1)
	case cmd.Move == voice.PageJump:
		if cmd.Page < 1 || cmd.Page > st.Pagination.TotalPages {
			return ask(fmt.Sprintf("Page %d does not exist. There are %d pages total.", cmd.Page, st.Pagination.TotalPages), st)
		}
		page = cmd.Page
	case cmd.Move == voice.PageNext:
		return ask("You are on the last page. Say previous to go back.", st)
	default:
		return ask("You are on the first page. Say next for more.", st)
	}

	st.CurrentPage = page
	st.Pagination = catalog.Paginate(st.FilteredBooks, page, st.PerPage)
	return ask(listing(st.Pagination)+" Say next or previous for navigation, or a number for details.", st)
}

func (f *BrowseFlow) resume(st BrowseState) model.FlowResult {
	st.Step = StepBrowsing
	res := ask(listing(st.Pagination)+" Say next or previous for navigation, or a number for details.", st)
	res.Navigation = f.links.Store()
	return res
}

// narrow replaces the working list and goes back to its first page.
func (s BrowseState) narrow(books []model.Book, category, query string) BrowseState {
	s.FilteredBooks = books
	s.Category = category
	s.SearchQuery = query
	s.CurrentPage = 1
	s.Pagination = catalog.Paginate(books, 1, s.PerPage)
	return s
}

func listing(p model.PaginationInfo) string {
	if len(p.Books) == 0 {
		return voice.PaginationSummary(p)
	}
	return voice.PaginationSummary(p) + " " + voice.PageAnnouncements(p.Books)
}
