package voice

import (
	"regexp"
	"strings"
)

var (
	searchPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:search|find|look)\s+(?:for|about)\s+(.+)`),
		regexp.MustCompile(`(?i)(?:show|list|get)\s+books?\s+(?:about|on|related to)\s+(.+)`),
		regexp.MustCompile(`(?i)(?:books?\s+about|books?\s+on)\s+(.+)`),
	}
	categoryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:show|list|display|get|browse)\s+(?:me\s+)?(\w+)\s+books?`),
		regexp.MustCompile(`(?i)(?:show|list)\s+(?:the\s+)?(\w+)\s+category`),
		regexp.MustCompile(`(?i)(?:category|genre)\s+(\w+)`),
	}
	detailsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:read|tell me|show|get)\s+(?:details|info|information)\s+(?:for|about|of)\s+(?:item|book|number)?\s*(\d+|one|two|three|four|five|six|seven|eight|nine|ten)`),
		regexp.MustCompile(`(?i)\b(?:tell me|read)\s+about\s+(?:item|book|number)?\s*(\d+|one|two|three|four|five)`),
		regexp.MustCompile(`(?i)\b(?:item|book|number)\s*(\d+|one|two|three|four|five)`),
	}

	pageNext     = regexp.MustCompile(`\b(?:next|more|continue|forward)\b`)
	pagePrevious = regexp.MustCompile(`\b(?:previous|back|before|prior)\b`)
	pageFirst    = regexp.MustCompile(`\bfirst\s+page\b`)
	pageLast     = regexp.MustCompile(`\blast\s+page\b`)
	pageNumber   = regexp.MustCompile(`\b(?:page|go to page)\s+(\d+|one|two|three|four|five|six|seven|eight|nine|ten)`)
)

// ExtractSearchQuery returns the subject of "search for ..." style requests.
func ExtractSearchQuery(text string) (string, bool) {
	return firstCapture(searchPatterns, text)
}

// ExtractCategory returns the raw category word of "show fiction books" style requests.
func ExtractCategory(text string) (string, bool) {
	return firstCapture(categoryPatterns, text)
}

func firstCapture(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

type PageMove int

const (
	PageNone PageMove = iota
	PageNext
	PagePrevious
	PageFirst
	PageLast
	PageJump
)

// PageCommand is a parsed pagination request. Page is set only for PageJump.
type PageCommand struct {
	Move PageMove
	Page int
}

func ParsePageCommand(text string) (PageCommand, bool) {
	s := Normalize(text)
	switch {
	case pageNext.MatchString(s):
		return PageCommand{Move: PageNext}, true
	case pagePrevious.MatchString(s):
		return PageCommand{Move: PagePrevious}, true
	case pageFirst.MatchString(s):
		return PageCommand{Move: PageFirst}, true
	case pageLast.MatchString(s):
		return PageCommand{Move: PageLast}, true
	}
	if m := pageNumber.FindString(s); m != "" {
		if n, ok := ExtractNumber(m); ok {
			return PageCommand{Move: PageJump, Page: n}, true
		}
	}
	return PageCommand{}, false
}

// DetailsItemNumber recognizes "item 2", "tell me about book three" and
// similar requests, returning the 1-based position on the current page.
func DetailsItemNumber(text string) (int, bool) {
	for _, p := range detailsPatterns {
		if m := p.FindString(text); m != "" {
			if n, ok := ExtractNumber(m); ok {
				return n, true
			}
		}
	}
	return 0, false
}
