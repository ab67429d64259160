// Package catalog serves the book list and the pure helpers used to filter,
// search and page through it.
package catalog

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/vaanisewa-core/server/internal/assistant/model"
	logx "github.com/vaanisewa-core/server/pkg/logger"
	"gopkg.in/yaml.v3"
)

type Catalog struct {
	books []model.Book
}

var _ model.CatalogService = (*Catalog)(nil)

// New returns a catalog over a private copy of books.
func New(books []model.Book) *Catalog {
	return &Catalog{books: slices.Clone(books)}
}

type catalogFile struct {
	Books []model.Book `yaml:"books"`
}

// Load reads a YAML catalog file. An empty path yields the built-in list.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return New(DefaultBooks), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for i, b := range f.Books {
		if b.ID == "" || b.Name == "" {
			return nil, fmt.Errorf("catalog %s: book %d needs an id and a name", path, i+1)
		}
	}

	logx.Info().Str("file", path).Int("books", len(f.Books)).Msg("catalog loaded")
	return New(f.Books), nil
}

// FetchBooks returns the books matching filters. The returned slice is owned by the caller.
func (c *Catalog) FetchBooks(ctx context.Context, filters model.BookFilters) ([]model.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	books := slices.Clone(c.books)
	books = FilterByCategory(books, filters.Category)
	books = Search(books, filters.Query)
	return books, nil
}

// Book looks a book up by id.
func (c *Catalog) Book(id string) (model.Book, bool) {
	for _, b := range c.books {
		if b.ID == id {
			return b, true
		}
	}
	return model.Book{}, false
}
