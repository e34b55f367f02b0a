package matcher

import (
	"sort"
	"strings"
	"unicode"
)

// stopwords are filler terms that carry no matching signal. Outcome verbs
// like "win" stay: they distinguish "X to win" from "X to lose".
var stopwords = map[string]bool{
	"will": true, "the": true, "a": true, "an": true, "to": true,
	"of": true, "in": true, "on": true, "at": true, "by": true,
	"be": true, "is": true, "for": true, "and": true, "or": true,
}

// Normalize lowercases a market title, strips punctuation, and returns the
// deduplicated token set with stopwords removed.
func Normalize(title string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range strings.Fields(b.String()) {
		if stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}

	sort.Strings(tokens)
	return tokens
}

// Jaccard returns |a ∩ b| / |a ∪ b| over two token sets.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	inA := make(map[string]bool, len(a))
	for _, tok := range a {
		inA[tok] = true
	}

	var intersection int
	for _, tok := range b {
		if inA[tok] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
