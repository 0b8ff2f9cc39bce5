package search

import (
	"context"
	"time"

	"github.com/killallgit/subclip/internal/subtitles"
)

// BatchSearch extracts the English sentences of text and searches each one
func (s *Store) BatchSearch(ctx context.Context, text string, perSentence int) (*BatchResponse, error) {
	start := time.Now()
	sentences := subtitles.ExtractEnglishSentences(text)

	resp := &BatchResponse{
		Sentences:      make([]SentenceResults, 0, len(sentences)),
		TotalSentences: len(sentences),
	}

	for _, sentence := range sentences {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r, err := s.Search(ctx, Query{Text: sentence, Limit: perSentence})
		if err != nil {
			return nil, err
		}
		resp.Sentences = append(resp.Sentences, SentenceResults{
			Sentence: sentence,
			Method:   r.Method,
			Results:  r.Results,
		})
		resp.TotalResults += len(r.Results)
	}

	if resp.TotalSentences > 0 {
		resp.AverageResults = float64(resp.TotalResults) / float64(resp.TotalSentences)
	}
	resp.Elapsed = time.Since(start)
	return resp, nil
}
