package model

import "context"

type Book struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Author      string  `json:"author" yaml:"author"`
	Category    string  `json:"category" yaml:"category"`
	Price       float64 `json:"price" yaml:"price"`
	Title       string  `json:"title,omitempty" yaml:"title,omitempty"`
	Publication string  `json:"publication,omitempty" yaml:"publication,omitempty"`
	Image       string  `json:"image,omitempty" yaml:"image,omitempty"`
}

type BookFilters struct {
	Category string
	Query    string
}

// PaginationInfo is one page of a book list. StartIndex is 1-based.
type PaginationInfo struct {
	Books       []Book `json:"books"`
	TotalBooks  int    `json:"total_books"`
	CurrentPage int    `json:"current_page"`
	TotalPages  int    `json:"total_pages"`
	HasNext     bool   `json:"has_next"`
	HasPrevious bool   `json:"has_previous"`
	StartIndex  int    `json:"start_index"`
	EndIndex    int    `json:"end_index"`
}

type CatalogService interface {
	FetchBooks(ctx context.Context, filters BookFilters) ([]Book, error)
}
