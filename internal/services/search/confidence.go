package search

import "github.com/killallgit/subclip/internal/subtitles"

// Confidence is the share of distinct query words that appear in matched:
// |Q ∩ M| / |Q|, in [0, 1], and 0 when the query has no words.
func Confidence(query, matched string) float64 {
	q := subtitles.Tokenize(query)
	if len(q) == 0 {
		return 0
	}

	m := make(map[string]struct{})
	for _, w := range subtitles.Tokenize(matched) {
		m[w] = struct{}{}
	}

	hits := 0
	for _, w := range q {
		if _, ok := m[w]; ok {
			hits++
		}
	}

	c := float64(hits) / float64(len(q))
	if c > 1 {
		return 1
	}
	return c
}
