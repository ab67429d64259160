// Package voice turns raw speech transcripts into clean values and renders
// catalog data as short spoken sentences.
package voice

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	whitespace     = regexp.MustCompile(`\s+`)
	spokenAt       = regexp.MustCompile(`\s+at\s+`)
	spokenDot      = regexp.MustCompile(`\s+dot\s+`)
	emailCandidate = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]+`)
	trailingPunct  = regexp.MustCompile(`[.,!?;:]+$`)

	namePhrase  = regexp.MustCompile(`(?i)\b(?:my\s+name\s+is|call\s+me|i'?m|im)\s+(.+)`)
	capitalized = regexp.MustCompile(`(?:^|\s)([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)(?:\s|$)`)
)

// Normalize lower-cases, trims and collapses whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func CleanEmail(email string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(email)), "")
}

// CleanName title-cases every word, including each part of a hyphenated
// name. A Caser is stateful, so each call gets its own.
func CleanName(name string) string {
	caser := cases.Title(language.Und)
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

// ExtractEmail rebuilds an address spoken as "john at example dot com".
// When nothing address-shaped is found the whitespace-stripped input is returned.
func ExtractEmail(text string) string {
	s := strings.ToLower(text)
	s = spokenAt.ReplaceAllString(s, "@")
	s = spokenDot.ReplaceAllString(s, ".")
	s = whitespace.ReplaceAllString(s, "")

	if m := emailCandidate.FindString(s); m != "" {
		return m
	}
	return whitespace.ReplaceAllString(text, "")
}

// ExtractName pulls a person's name out of phrases like "my name is ..." or
// "call me ...", falling back to a run of capitalized words and finally the
// whole utterance.
func ExtractName(text string) string {
	text = strings.TrimSpace(text)
	if m := namePhrase.FindStringSubmatch(text); m != nil {
		return CleanName(m[1])
	}
	if m := capitalized.FindStringSubmatch(text); m != nil {
		return CleanName(m[1])
	}
	return CleanName(text)
}

type Confirmation int

const (
	ConfirmationUnknown Confirmation = iota
	ConfirmationConfirm
	ConfirmationRepeat
)

var (
	confirmWords = map[string]bool{
		"yes": true, "correct": true, "right": true, "confirm": true, "ok": true,
		"okay": true, "yep": true, "yeah": true, "yup": true,
	}
	repeatWords = map[string]bool{
		"no": true, "wrong": true, "incorrect": true, "repeat": true, "again": true,
		"redo": true,
	}
)

// NormalizeConfirmation classifies a whole utterance as confirm or repeat.
// Only exact matches count, after stripping trailing punctuation.
func NormalizeConfirmation(text string) Confirmation {
	s := trailingPunct.ReplaceAllString(Normalize(text), "")
	switch {
	case confirmWords[s]:
		return ConfirmationConfirm
	case repeatWords[s]:
		return ConfirmationRepeat
	default:
		return ConfirmationUnknown
	}
}
