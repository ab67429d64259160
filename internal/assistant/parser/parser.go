// Package parser classifies utterances into intents and confirmations using
// fixed keyword and pattern tables. All functions are pure.
package parser

import (
	"regexp"
	"slices"
	"strings"

	"github.com/vaanisewa-core/server/internal/assistant/model"
	"github.com/vaanisewa-core/server/internal/assistant/voice"
)

type phraseRule struct {
	intent  model.Intent
	phrases []phrase
}

type phrase struct {
	text string
	re   *regexp.Regexp
}

func phrases(list ...string) []phrase {
	out := make([]phrase, 0, len(list))
	for _, p := range list {
		out = append(out, phrase{text: p, re: regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`)})
	}
	return out
}

// Table order decides ties: the first intent with a matching phrase wins.
var keywordTable = []phraseRule{
	{model.IntentSignup, phrases("sign up", "signup", "create account", "register", "new account")},
	{model.IntentLogin, phrases("log in", "login", "sign in", "signin")},
	{model.IntentBrowse, phrases("browse", "show books", "list books", "see books", "view books")},
	{model.IntentSearch, phrases("search", "find", "look for", "search for")},
	{model.IntentCategory, phrases("show category", "filter by", "category")},
	{model.IntentDetails, phrases("details", "tell me about", "read details", "more info")},
	{model.IntentAddToCart, phrases("add to cart", "buy this", "purchase", "add this")},
	{model.IntentCheckout, phrases("checkout", "check out", "pay", "proceed to payment", "pay now")},
	{model.IntentViewCart, phrases(
		"view cart", "show cart", "cart", "my cart", "view card", "show card", "my card",
		"check cart", "check card", "shopping cart", "shopping card", "open cart", "open card",
		"see cart", "see card", "basket", "my basket", "shopping basket",
	)},
	{model.IntentViewOrders, phrases("view orders", "show orders", "my orders", "order history", "orders", "see orders", "check orders")},
	{model.IntentHelp, phrases("help", "what can you do", "commands", "options")},
	{model.IntentCancel, phrases("cancel", "stop", "quit", "exit", "nevermind", "never mind")},
}

type patternRule struct {
	intent   model.Intent
	patterns []*regexp.Regexp
}

func patterns(list ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(list))
	for _, p := range list {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

var patternTable = []patternRule{
	{model.IntentSignup, patterns(`(?:sign\s*up|signup|create\s+account|register|new\s+account)`)},
	{model.IntentLogin, patterns(`(?:log\s*in|login|sign\s*in|signin)`)},
	{model.IntentSearch, patterns(`(?:search|find|look\s+for|search\s+for)\s+(?:books?)?`)},
	{model.IntentCategory, patterns(`(?:show|list|display)\s+\w+\s+(?:books?|category)`)},
	{model.IntentDetails, patterns(`(?:item|book|number)\s+\d+`, `(?:details|tell me about|read)`)},
	{model.IntentAddToCart, patterns(`(?:add\s+to\s+cart|buy|purchase)`)},
	{model.IntentCheckout, patterns(`(?:checkout|check\s*out|pay|proceed\s+to\s+payment)`)},
	{model.IntentViewCart, patterns(
		`(?:view|show|check|see|open)\s+(?:cart|card|basket)`,
		`(?:my|shopping)\s+(?:cart|card|basket)`,
		`\b(?:cart|card|basket)\b`,
	)},
	{model.IntentViewOrders, patterns(
		`(?:view|show|check|see)\s+(?:my\s+)?orders?`,
		`(?:order\s+history)`,
		`\borders?\b`,
	)},
	{model.IntentBrowse, patterns(`(?:browse|show\s+books|list\s+books|see\s+books|view\s+books)`)},
	{model.IntentPagination, patterns(`(?:next|more|continue|previous|back)`)},
	{model.IntentHelp, patterns(`(?:help|what\s+can\s+you\s+do|commands|options)`)},
	{model.IntentCancel, patterns(`(?:cancel|stop|quit|exit|nevermind|never\s+mind)`)},
}

type synonym struct {
	re          *regexp.Regexp
	replacement string
}

var synonyms = buildSynonyms([][2]string{
	{"wanna", "want to"},
	{"gonna", "going to"},
	{"gimme", "give me"},
	{"lemme", "let me"},
	{"gotta", "got to"},
	{"coulda", "could have"},
	{"shoulda", "should have"},
	{"woulda", "would have"},
	{"kinda", "kind of"},
	{"sorta", "sort of"},
	{"dunno", "do not know"},
	{"yeah", "yes"},
	{"yep", "yes"},
	{"nope", "no"},
	{"nah", "no"},
})

func buildSynonyms(pairs [][2]string) []synonym {
	out := make([]synonym, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, synonym{re: regexp.MustCompile(`\b` + p[0] + `\b`), replacement: p[1]})
	}
	return out
}

var (
	positiveWords = []string{"yes", "correct", "right", "confirm", "ok", "okay", "yep", "yeah", "yup"}
	negativeWords = []string{"no", "wrong", "incorrect", "repeat", "again", "redo"}
)

// MatchIntent expands synonyms, runs the ordered pattern table and returns
// the first intent whose pattern matches, or IntentUnknown.
func MatchIntent(text string) model.Intent {
	s := MapSynonyms(text)
	for _, rule := range patternTable {
		for _, p := range rule.patterns {
			if p.MatchString(s) {
				return rule.intent
			}
		}
	}
	return model.IntentUnknown
}

// ParseIntent matches whole keyword phrases in table order. Confidence is 1
// for an exact match, 0.9 when the phrase starts or ends the utterance and
// 0.8 otherwise.
func ParseIntent(text string) model.IntentMatch {
	s := voice.Normalize(text)
	for _, rule := range keywordTable {
		for _, p := range rule.phrases {
			if p.re.MatchString(s) {
				return model.IntentMatch{
					Intent:     rule.intent,
					Confidence: confidence(s, p.text),
					Text:       text,
				}
			}
		}
	}
	return model.IntentMatch{Intent: model.IntentUnknown, Text: text}
}

func confidence(normalized, pattern string) float64 {
	switch {
	case normalized == pattern:
		return 1.0
	case strings.HasPrefix(normalized, pattern), strings.HasSuffix(normalized, pattern):
		return 0.9
	default:
		return 0.8
	}
}

func IsCancel(text string) bool {
	return ParseIntent(text).Intent == model.IntentCancel
}

func IsHelp(text string) bool {
	return ParseIntent(text).Intent == model.IntentHelp
}

// MapSynonyms expands common spoken contractions.
func MapSynonyms(text string) string {
	s := voice.Normalize(text)
	for _, syn := range synonyms {
		s = syn.re.ReplaceAllString(s, syn.replacement)
	}
	return s
}

// ParseConfirmation decides whether an utterance means yes or no. An exact
// match wins. Otherwise the words of the utterance are checked against both
// lists. Utterances with both kinds of word, or a negated yes, stay Unclear.
func ParseConfirmation(text string) model.Decision {
	s := strings.TrimRight(MapSynonyms(text), ".,!?;:")
	if s == "" {
		return model.Unclear
	}

	if slices.Contains(positiveWords, s) {
		return model.Confirmed
	}
	if slices.Contains(negativeWords, s) {
		return model.Rejected
	}

	var yes, no, negated bool
	for _, w := range strings.FieldsFunc(s, notWordRune) {
		yes = yes || slices.Contains(positiveWords, w)
		no = no || slices.Contains(negativeWords, w)
		negated = negated || w == "not" || w == "don't"
	}
	switch {
	case yes && !no && !negated:
		return model.Confirmed
	case no && !yes:
		return model.Rejected
	default:
		return model.Unclear
	}
}

func notWordRune(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\'')
}
