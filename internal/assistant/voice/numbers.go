package voice

import (
	"regexp"
	"strconv"
	"strings"
)

type numberWord struct {
	word  string
	value int
	re    *regexp.Regexp
}

// Checked in table order, not by position in the utterance.
var numberWords = buildNumberWords([]string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
	"seventeen", "eighteen", "nineteen", "twenty",
}, []string{
	"first", "second", "third", "fourth", "fifth", "sixth", "seventh", "eighth", "ninth", "tenth",
})

var (
	digits     = regexp.MustCompile(`\b(\d+)\b`)
	itemNumber = regexp.MustCompile(`(?i)\b(?:item|number)\s+(?:number\s+)?(\d+|one|two|three|four|five|six|seven|eight|nine|ten)`)
)

func buildNumberWords(cardinals, ordinals []string) []numberWord {
	out := make([]numberWord, 0, len(cardinals)+len(ordinals))
	for i, w := range cardinals {
		out = append(out, numberWord{word: w, value: i, re: regexp.MustCompile(`\b` + w + `\b`)})
	}
	for i, w := range ordinals {
		out = append(out, numberWord{word: w, value: i + 1, re: regexp.MustCompile(`\b` + w + `\b`)})
	}
	return out
}

func wordValue(w string) (int, bool) {
	for _, nw := range numberWords {
		if nw.word == w {
			return nw.value, true
		}
	}
	return 0, false
}

// ExtractNumber finds a number spoken as a word ("three", "second") or
// written as digits.
func ExtractNumber(text string) (int, bool) {
	s := Normalize(text)

	for _, nw := range numberWords {
		if nw.re.MatchString(s) {
			return nw.value, true
		}
	}

	if m := digits.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}

	if m := itemNumber.FindStringSubmatch(s); m != nil {
		if n, ok := wordValue(strings.ToLower(m[1])); ok {
			return n, true
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}

	return 0, false
}
