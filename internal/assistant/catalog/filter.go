package catalog

import (
	"strings"

	"github.com/vaanisewa-core/server/internal/assistant/model"
)

const DefaultPerPage = 5

// FilterByCategory keeps books whose category equals category, ignoring case.
func FilterByCategory(books []model.Book, category string) []model.Book {
	if category == "" {
		return books
	}
	out := make([]model.Book, 0, len(books))
	for _, b := range books {
		if strings.EqualFold(b.Category, category) {
			out = append(out, b)
		}
	}
	return out
}

// Search keeps books whose name, author, title or category contains query.
func Search(books []model.Book, query string) []model.Book {
	if query == "" {
		return books
	}
	q := strings.ToLower(query)
	out := make([]model.Book, 0, len(books))
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.Name), q) ||
			strings.Contains(strings.ToLower(b.Author), q) ||
			strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Category), q) {
			out = append(out, b)
		}
	}
	return out
}

// Paginate slices page (1-based) out of books.
func Paginate(books []model.Book, page, perPage int) model.PaginationInfo {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * perPage
	end := start + perPage
	info := model.PaginationInfo{
		TotalBooks:  len(books),
		CurrentPage: page,
		TotalPages:  (len(books) + perPage - 1) / perPage,
		HasNext:     end < len(books),
		HasPrevious: page > 1,
		StartIndex:  start + 1,
		EndIndex:    min(end, len(books)),
	}
	if start < len(books) {
		info.Books = append([]model.Book(nil), books[start:info.EndIndex]...)
	} else {
		info.Books = []model.Book{}
	}
	return info
}
