// Package navigation builds the storefront URLs a host displays next to the
// spoken dialogue.
package navigation

import (
	"net/url"
	"strings"
)

type Links struct {
	base string
}

// New trims the trailing slash of base. An empty base yields root-relative paths.
func New(base string) Links {
	return Links{base: strings.TrimRight(base, "/")}
}

func (l Links) build(path string) string {
	return l.base + path
}

func (l Links) Store() string {
	return l.build("/")
}

// Book falls back to the store page when id is empty.
func (l Links) Book(id string) string {
	if id == "" {
		return l.Store()
	}
	return l.build("/book/" + url.PathEscape(id))
}

func (l Links) Cart() string {
	return l.build("/cart")
}

func (l Links) Payment() string {
	return l.build("/payment")
}

func (l Links) Orders() string {
	return l.build("/orders")
}
