package types

// SearchQuery holds the query string parameters of GET /search
type SearchQuery struct {
	Query    string `form:"q" binding:"required"`
	Language string `form:"lang"`
	Limit    int    `form:"limit" binding:"omitempty,min=1"`
}

// BatchSearchRequest is the body of POST /search/batch
type BatchSearchRequest struct {
	Text        string `json:"text" binding:"required"`
	PerSentence int    `json:"per_sentence,omitempty" binding:"omitempty,min=1"`
}

// FulfilRequest is the optional body of POST /clips/:id/fulfil
type FulfilRequest struct {
	Padding *float64 `json:"padding_seconds,omitempty"`
}

// StatusUpdateRequest is the body of PUT /clips/:id/status and PUT /projects/:id/status
type StatusUpdateRequest struct {
	Status       string `json:"status" binding:"required"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// RebuildRequest is the optional body of POST /index/rebuild
type RebuildRequest struct {
	Roots []string `json:"roots,omitempty"`
}
