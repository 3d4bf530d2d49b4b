// Package match provides the lexical signals used for ranking: word-set
// overlap between a query and a candidate, and a sequence-similarity ratio
// for fuzzy lookup of known questions.
package match

import (
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Overlap returns |words(a) ∩ words(b)| / |words(a)|.
// The score is asymmetric: it is normalized by the query's word count so a
// short query fully contained in a long candidate still scores 1.
// Returns 0 when either text has no word characters.
func Overlap(a, b string) float64 {
	wa := tokenSet(a)
	if len(wa) == 0 {
		return 0
	}
	wb := tokenSet(b)
	if len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(wa))
}

func tokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}
