package types

import (
	"github.com/killallgit/subclip/internal/models"
	"github.com/killallgit/subclip/internal/services/clips"
)

// Status constants for API responses
const (
	StatusOK     = "ok"
	StatusError  = "error"
	StatusQueued = "queued"
)

// BaseResponse contains fields common to all API responses
type BaseResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for detailed error information
type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`   // Error code
	Details interface{} `json:"details,omitempty"` // Additional error details
}

// ClipResponse wraps a single clip request
type ClipResponse struct {
	BaseResponse
	Clip *models.ClipRequest `json:"clip"`
}

// ClipsResponse for clip request lists
type ClipsResponse struct {
	BaseResponse
	Clips  []*models.ClipRequest `json:"clips"`
	Count  int                   `json:"count"`
	Total  int64                 `json:"total,omitempty"`
	Offset int                   `json:"offset,omitempty"`
}

// BatchClipsResponse is returned after creating a batch
type BatchClipsResponse struct {
	BaseResponse
	Project *models.ClipProject   `json:"project"`
	Clips   []*models.ClipRequest `json:"clips"`
	Count   int                   `json:"count"`
}

// FulfilResponse reports the outcome of a synchronous fulfilment
type FulfilResponse struct {
	BaseResponse
	Result *clips.FulfilResult `json:"result"`
}

// ProjectsResponse for project summaries
type ProjectsResponse struct {
	BaseResponse
	Projects []clips.ProjectSummary `json:"projects"`
	Count    int                    `json:"count"`
}
