package index

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/subclip/api/types"
	"github.com/killallgit/subclip/internal/models"
	apperrors "github.com/killallgit/subclip/pkg/errors"
)

// Stats reports the size and freshness of the subtitle index
// @Summary      Index statistics
// @Tags         index
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      500 {object} types.ErrorResponse
// @Router       /api/v1/index/stats [get]
func Stats(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := deps.Indexer.Stats(c.Request.Context())
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, gin.H{
			"status": types.StatusOK,
			"stats":  stats,
		})
	}
}

// Rebuild re-indexes the media roots, replacing the whole corpus. The
// request blocks until the run finishes; a concurrent rebuild gets 409.
// @Summary      Rebuild the subtitle index
// @Description  Walk the media roots and replace the corpus. Blocks until the run finishes.
// @Tags         index
// @Accept       json
// @Produce      json
// @Param        request body types.RebuildRequest false "Roots to walk instead of the configured ones"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} types.ErrorResponse
// @Failure      409 {object} types.ErrorResponse "A rebuild is already running"
// @Router       /api/v1/index/rebuild [post]
func Rebuild(deps *types.Dependencies, onRebuilt func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.RebuildRequest
		if c.Request.ContentLength > 0 && !types.BindJSONOrError(c, &req) {
			return
		}

		roots := req.Roots
		if len(roots) == 0 {
			roots = deps.Roots
		}
		if len(roots) == 0 {
			types.SendError(c, apperrors.MissingFieldError("roots"))
			return
		}

		run, err := deps.Indexer.Rebuild(c.Request.Context(), roots...)
		if onRebuilt != nil && run != nil && run.Status == models.IndexRunCompleted {
			onRebuilt()
		}
		if err != nil {
			types.SendError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": types.StatusOK,
			"run":    run,
		})
	}
}
