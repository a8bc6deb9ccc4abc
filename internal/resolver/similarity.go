package resolver

import (
	"regexp"
	"strings"
	"unicode/utf8"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
)

var nonAlphanumericSpace = regexp.MustCompile(`[^a-z0-9\s]`)

func normalizeForSimilarity(s string) string {
	return nonAlphanumericSpace.ReplaceAllString(strings.TrimSpace(strings.ToLower(s)), "")
}

// StringSimilarity scores two titles in [0,1].
//
// Containment scores 0.8 plus a length ratio taken relative to the operand
// that was tested as the container first, so swapping arguments can pick a
// different branch.
func StringSimilarity(a, b string) float64 {
	na := normalizeForSimilarity(a)
	nb := normalizeForSimilarity(b)

	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	la := utf8.RuneCountInString(na)
	lb := utf8.RuneCountInString(nb)

	if strings.Contains(na, nb) {
		return 0.8 + 0.2*float64(lb)/float64(la)
	}
	if strings.Contains(nb, na) {
		return 0.8 + 0.2*float64(la)/float64(lb)
	}

	longest := la
	if lb > longest {
		longest = lb
	}
	distance := levenshtein.Distance(na, nb)
	return 1 - float64(distance)/float64(longest)
}
