package search

import (
	"time"

	"github.com/killallgit/subclip/internal/models"
)

// Method names the retrieval path that produced a response
type Method string

const (
	MethodFTS       Method = "fts"
	MethodSubstring Method = "substring"
)

// Query is a search request. An empty Language searches every language.
type Query struct {
	Text     string          `json:"query"`
	Language models.Language `json:"language,omitempty"`
	Limit    int             `json:"limit,omitempty"`
}

// Result has the same shape whichever path produced it
type Result struct {
	MediaFile  string          `json:"media_file"`
	StartTime  string          `json:"start_time"`
	EndTime    string          `json:"end_time"`
	Text       string          `json:"text"`
	Language   models.Language `json:"language"`
	Directory  string          `json:"directory"`
	StartMs    int64           `json:"start_ms"`
	EndMs      int64           `json:"end_ms"`
	Title      string          `json:"title"`
	Confidence float64         `json:"confidence"`
}

// Response is the outcome of a single search
type Response struct {
	Query   string   `json:"query"`
	Method  Method   `json:"method"`
	Results []Result `json:"results"`
}

// SentenceResults pairs one extracted sentence with its matches
type SentenceResults struct {
	Sentence string   `json:"sentence"`
	Method   Method   `json:"method"`
	Results  []Result `json:"results"`
}

// BatchResponse is the outcome of searching every sentence of a text
type BatchResponse struct {
	Sentences      []SentenceResults `json:"sentences"`
	TotalSentences int               `json:"total_sentences"`
	TotalResults   int               `json:"total_results"`
	AverageResults float64           `json:"average_results"`
	Elapsed        time.Duration     `json:"elapsed"`
}

// LanguageCount is the number of entries in one language
type LanguageCount struct {
	Language models.Language `json:"language"`
	Count    int64           `json:"count"`
}

// Stats summarises the store contents
type Stats struct {
	TotalEntries  int64            `json:"total_entries"`
	ByLanguage    []LanguageCount  `json:"by_language"`
	MediaFiles    int64            `json:"media_files"`
	Directories   int64            `json:"directories"`
	FTSAvailable  bool             `json:"fts_available"`
	DatabaseBytes int64            `json:"database_bytes"`
	LastRun       *models.IndexRun `json:"last_run,omitempty"`
}
