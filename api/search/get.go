package search

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/subclip/api/types"
	"github.com/killallgit/subclip/internal/models"
	"github.com/killallgit/subclip/internal/services/search"
)

const searchTimeout = 30 * time.Second

// Get handles subtitle search requests
// @Summary      Search subtitles
// @Description  Ranked full-text search when available, otherwise a substring scan. Every hit carries a confidence in [0,1].
// @Tags         search
// @Produce      json
// @Param        q     query string true  "Search text"
// @Param        lang  query string false "Language" Enums(en, ko)
// @Param        limit query int    false "Maximum results"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} types.ErrorResponse
// @Failure      500 {object} types.ErrorResponse
// @Router       /api/v1/search [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.SearchQuery
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Status:  types.StatusError,
				Message: "Search query is required",
				Details: err.Error(),
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), searchTimeout)
		defer cancel()

		resp, err := deps.Search.Search(ctx, search.Query{
			Text:     req.Query,
			Language: models.Language(req.Language),
			Limit:    req.Limit,
		})
		if err != nil {
			types.SendError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  types.StatusOK,
			"query":   resp.Query,
			"method":  resp.Method,
			"results": resp.Results,
			"count":   len(resp.Results),
		})
	}
}

// Batch splits a block of text into sentences and searches each of them
// @Summary      Search many sentences
// @Description  Split text into sentences and search each one
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        request body types.BatchSearchRequest true "Text to split and search"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} types.ErrorResponse
// @Router       /api/v1/search/batch [post]
func Batch(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.BatchSearchRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), searchTimeout)
		defer cancel()

		resp, err := deps.Search.BatchSearch(ctx, req.Text, req.PerSentence)
		if err != nil {
			types.SendError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":          types.StatusOK,
			"sentences":       resp.Sentences,
			"total_sentences": resp.TotalSentences,
			"total_results":   resp.TotalResults,
			"average_results": resp.AverageResults,
			"elapsed_ms":      resp.Elapsed.Milliseconds(),
		})
	}
}
