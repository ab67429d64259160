package voice

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vaanisewa-core/server/internal/assistant/model"
)

// FormatAmount renders a number the way it is read aloud, without trailing zeros.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatPrice speaks a price. Prices of a thousand or more are rounded down
// to hundreds.
func FormatPrice(price float64) string {
	if price >= 1000 {
		return fmt.Sprintf("%d hundred rupees", int64(math.Floor(price/100)))
	}
	return FormatAmount(price) + " rupees"
}

func BookAnnouncement(book model.Book, index int) string {
	return fmt.Sprintf("Item %d: %s by %s, %s.", index, book.Name, book.Author, FormatPrice(book.Price))
}

// PageAnnouncements lists the books of a page numbered from 1.
func PageAnnouncements(books []model.Book) string {
	parts := make([]string, 0, len(books))
	for i, b := range books {
		parts = append(parts, BookAnnouncement(b, i+1))
	}
	return strings.Join(parts, " ")
}

func BookDetails(book model.Book) string {
	parts := []string{fmt.Sprintf("%s by %s.", book.Name, book.Author)}
	if book.Publication != "" {
		parts = append(parts, fmt.Sprintf("Published by %s.", book.Publication))
	}
	if book.Category != "" {
		parts = append(parts, fmt.Sprintf("Category: %s.", book.Category))
	}
	if book.Price > 0 {
		parts = append(parts, fmt.Sprintf("Price: %s.", FormatPrice(book.Price)))
	}
	if book.Title != "" {
		parts = append(parts, book.Title)
	}
	return strings.Join(parts, " ")
}

func PaginationSummary(p model.PaginationInfo) string {
	switch p.TotalBooks {
	case 0:
		return "No books found."
	case 1:
		return "Showing 1 book."
	}
	return fmt.Sprintf("Showing items %d through %d of %d results. Page %d of %d.",
		p.StartIndex, p.EndIndex, p.TotalBooks, p.CurrentPage, p.TotalPages)
}

// Copies returns "copy" or "copies".
func Copies(n int) string {
	if n == 1 {
		return "copy"
	}
	return "copies"
}

// CartListing reads every cart line with its position, quantity and unit price.
func CartListing(items []model.CartItem) string {
	parts := make([]string, 0, len(items))
	for i, it := range items {
		parts = append(parts, fmt.Sprintf("Item %d: %s, %d %s at %s rupees each",
			i+1, it.Name, it.Quantity, Copies(it.Quantity), FormatAmount(it.Price)))
	}
	return strings.Join(parts, ". ")
}

// OrderConfirmation summarizes a placed order.
func OrderConfirmation(orderID string, items []model.CartItem, total float64) string {
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	noun := "items"
	if count == 1 {
		noun = "item"
	}
	return fmt.Sprintf("Your order %s for %d %s totaling %s rupees has been placed successfully.",
		orderID, count, noun, FormatAmount(total))
}
