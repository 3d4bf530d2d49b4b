// Package summarizer produces the one-line digest shown after a document is
// ingested, by ranking passages on normalized token frequency.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// FrequencySummarizer ranks passages by word frequency (stopwords filtered).
type FrequencySummarizer struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// New creates a frequency-based passage ranker.
func New() *FrequencySummarizer {
	return &FrequencySummarizer{
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}_]+`),
		stopwords:    defaultStopwords(),
	}
}

// Summarize returns up to maxPassages of the highest-scoring passages, in
// their original document order.
func (s *FrequencySummarizer) Summarize(passages []string, maxPassages int) string {
	if len(passages) == 0 {
		return ""
	}
	if maxPassages <= 0 {
		maxPassages = 3
	}
	freq := map[string]float64{}
	for _, p := range passages {
		for _, tok := range s.tokens(p) {
			if _, ok := s.stopwords[tok]; ok {
				continue
			}
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(passages))
	for i, p := range passages {
		toks := s.tokens(p)
		score := 0.0
		for _, tok := range toks {
			if v, ok := freq[tok]; ok {
				score += v
			}
		}
		// normalize by length to avoid long-passage bias
		if l := float64(len(toks)); l > 0 {
			score /= math.Sqrt(l)
		}
		scores[i] = pair{i, score}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxPassages > len(scores) {
		maxPassages = len(scores)
	}
	selected := make([]int, maxPassages)
	for i := 0; i < maxPassages; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, maxPassages)
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(passages[idx]))
	}
	return strings.Join(out, " ")
}

func (s *FrequencySummarizer) tokens(text string) []string {
	return s.tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
