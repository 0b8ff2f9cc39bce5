package clips

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/subclip/api/types"
	"github.com/killallgit/subclip/internal/logging"
	"github.com/killallgit/subclip/internal/models"
	"github.com/killallgit/subclip/internal/services/clips"
	apperrors "github.com/killallgit/subclip/pkg/errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// CreateClip handles creation of a single clip request
// @Summary      Create a clip request
// @Description  Store a pending clip request for a subtitle line. Padding defaults to the configured value.
// @Tags         clips
// @Accept       json
// @Produce      json
// @Param        request body clips.CreateParams true "Clip request"
// @Success      201 {object} types.ClipResponse
// @Failure      400 {object} types.ErrorResponse "Validation failed"
// @Failure      500 {object} types.ErrorResponse
// @Router       /api/v1/clips [post]
func CreateClip(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req clips.CreateParams
		if !types.BindJSONOrError(c, &req) {
			return
		}

		clip, err := deps.Clips.Create(c.Request.Context(), req)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendCreated(c, types.ClipResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "Clip request created"},
			Clip:         clip,
		})
	}
}

// CreateBatch handles creation of a project with many clip requests
// @Summary      Create a project with clip requests
// @Description  Create or reuse a project by name and store every request in one transaction
// @Tags         clips
// @Accept       json
// @Produce      json
// @Param        request body clips.BatchParams true "Project and requests"
// @Success      201 {object} types.BatchClipsResponse
// @Failure      400 {object} types.ErrorResponse "Validation failed"
// @Failure      500 {object} types.ErrorResponse
// @Router       /api/v1/clips/batch [post]
func CreateBatch(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req clips.BatchParams
		if !types.BindJSONOrError(c, &req) {
			return
		}

		project, reqs, err := deps.Clips.CreateBatch(c.Request.Context(), req)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendCreated(c, types.BatchClipsResponse{
			BaseResponse: types.BaseResponse{
				Status:  types.StatusOK,
				Message: fmt.Sprintf("Created %d clip requests", len(reqs)),
			},
			Project: project,
			Clips:   reqs,
			Count:   len(reqs),
		})
	}
}

// Preview cuts a scratch clip without storing a request
// @Summary      Preview a clip
// @Description  Cut a clip into the temp area without storing a request
// @Tags         clips
// @Accept       json
// @Produce      json
// @Param        request body clips.CreateParams true "Clip to preview"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} types.ErrorResponse "Validation failed"
// @Failure      404 {object} types.ErrorResponse "Media file not found"
// @Failure      502 {object} types.ErrorResponse "ffmpeg failed"
// @Router       /api/v1/clips/preview [post]
func Preview(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req clips.CreateParams
		if !types.BindJSONOrError(c, &req) {
			return
		}

		result, err := deps.Clips.Preview(c.Request.Context(), req)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, gin.H{
			"status": types.StatusOK,
			"result": result,
		})
	}
}

// ListClips lists clip requests, optionally filtered by status, project or tag
// @Summary      List clip requests
// @Description  List clip requests newest first, optionally filtered by status, project or tag
// @Tags         clips
// @Produce      json
// @Param        status      query string false "Status filter" Enums(pending, processing, completed, failed)
// @Param        project_id  query string false "Project ID"
// @Param        tag         query string false "Tag name"
// @Param        limit       query int    false "Maximum results" default(50)
// @Param        offset      query int    false "Offset" default(0)
// @Success      200 {object} types.ClipsResponse
// @Failure      400 {object} types.ErrorResponse
// @Router       /api/v1/clips [get]
func ListClips(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := types.QueryInt(c, "limit", defaultListLimit)
		if !ok {
			return
		}
		offset, ok := types.QueryInt(c, "offset", 0)
		if !ok {
			return
		}

		list, total, err := deps.Clips.List(c.Request.Context(), clips.ListFilter{
			Status:    models.ClipStatus(c.Query("status")),
			ProjectID: c.Query("project_id"),
			Tag:       c.Query("tag"),
			Limit:     min(limit, maxListLimit),
			Offset:    offset,
		})
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, types.ClipsResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Clips:        list,
			Count:        len(list),
			Total:        total,
			Offset:       offset,
		})
	}
}

// ListPending lists pending clip requests in fulfilment order
// @Summary      List pending clip requests
// @Description  Pending requests in fulfilment order: highest priority first, then oldest
// @Tags         clips
// @Produce      json
// @Param        limit query int false "Maximum results" default(50)
// @Success      200 {object} types.ClipsResponse
// @Failure      400 {object} types.ErrorResponse
// @Router       /api/v1/clips/pending [get]
func ListPending(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := types.QueryInt(c, "limit", defaultListLimit)
		if !ok {
			return
		}

		list, err := deps.Clips.ListPending(c.Request.Context(), min(limit, maxListLimit))
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, types.ClipsResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Clips:        list,
			Count:        len(list),
		})
	}
}

// GetClip returns a single clip request
// @Summary      Get a clip request
// @Tags         clips
// @Produce      json
// @Param        id path string true "Clip request ID"
// @Success      200 {object} types.ClipResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/clips/{id} [get]
func GetClip(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		clip, err := deps.Clips.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, types.ClipResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Clip:         clip,
		})
	}
}

// FulfilClip starts cutting the clip for a pending request and returns 202.
// The transcode runs in the background and its outcome lands on the stored
// request. With ?wait=true the handler waits for the result instead; the
// transcode still finishes if the client goes away.
// @Summary      Fulfil a clip request
// @Description  Queue a pending request for extraction and return 202. With wait=true the response carries the result.
// @Tags         clips
// @Accept       json
// @Produce      json
// @Param        id      path  string               true  "Clip request ID"
// @Param        wait    query bool                 false "Wait for the extraction to finish"
// @Param        request body  types.FulfilRequest  false "Padding override"
// @Success      200 {object} types.FulfilResponse "Finished (wait=true)"
// @Success      202 {object} types.ClipResponse "Queued"
// @Failure      404 {object} types.ErrorResponse
// @Failure      409 {object} types.ErrorResponse "Request is not pending"
// @Router       /api/v1/clips/{id}/fulfil [post]
func FulfilClip(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var req types.FulfilRequest
		if c.Request.ContentLength > 0 && !types.BindJSONOrError(c, &req) {
			return
		}

		if c.Query("wait") == "true" || deps.WorkerPool == nil {
			fulfilAndWait(c, deps, id, req.Padding)
			return
		}

		clip, err := deps.Clips.Get(c.Request.Context(), id)
		if err != nil {
			types.SendError(c, err)
			return
		}
		if clip.Status != models.ClipStatusPending {
			types.SendError(c, &clips.InvalidStateError{ID: id, Status: clip.Status, Want: models.ClipStatusPending})
			return
		}

		deps.WorkerPool.Submit(c.Request.Context(), id, req.Padding)

		c.JSON(http.StatusAccepted, types.ClipResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusQueued, Message: "Clip request queued for fulfilment"},
			Clip:         clip,
		})
	}
}

func fulfilAndWait(c *gin.Context, deps *types.Dependencies, id string, padding *float64) {
	// A dropped connection must not kill ffmpeg mid-clip
	ctx := context.WithoutCancel(c.Request.Context())

	result, err := deps.Clips.Fulfil(ctx, id, padding)
	if err != nil {
		types.SendError(c, err)
		return
	}

	status := types.StatusOK
	if !result.Success {
		status = types.StatusError
	}
	types.SendSuccess(c, types.FulfilResponse{
		BaseResponse: types.BaseResponse{Status: status},
		Result:       result,
	})
}

// ProcessPending fulfils every pending request with the worker pool's
// concurrency. It returns 202 at once; ?wait=true returns the summary.
// @Summary      Process pending clip requests
// @Description  Fulfil every pending request in the background and return 202. With wait=true the response carries the summary.
// @Tags         clips
// @Produce      json
// @Param        wait query bool false "Wait for the pass to finish"
// @Success      200 {object} map[string]interface{} "Summary (wait=true)"
// @Success      202 {object} map[string]interface{} "Started"
// @Failure      503 {object} types.ErrorResponse "Workers not running"
// @Router       /api/v1/clips/process [post]
func ProcessPending(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.WorkerPool == nil {
			types.SendError(c, apperrors.New(apperrors.ErrCodeServiceDown, "background workers are not running"))
			return
		}

		if c.Query("wait") == "true" {
			summary, err := deps.WorkerPool.ProcessPending(context.WithoutCancel(c.Request.Context()))
			if err != nil {
				types.SendError(c, err)
				return
			}
			types.SendSuccess(c, gin.H{
				"status":  types.StatusOK,
				"summary": summary,
			})
			return
		}

		pending, err := deps.Clips.ListPending(c.Request.Context(), 0)
		if err != nil {
			types.SendError(c, err)
			return
		}

		pool := deps.WorkerPool
		pool.Go(c.Request.Context(), func(ctx context.Context) {
			if _, err := pool.ProcessPending(ctx); err != nil {
				logging.Component("api").WithError(err).Error("processing pending clip requests")
			}
		})

		c.JSON(http.StatusAccepted, gin.H{
			"status":  types.StatusQueued,
			"message": "Processing pending clip requests",
			"pending": len(pending),
		})
	}
}

// UpdateStatus overrides the status of a clip request
// @Summary      Override a clip request status
// @Tags         clips
// @Accept       json
// @Produce      json
// @Param        id      path string                    true "Clip request ID"
// @Param        request body types.StatusUpdateRequest true "New status"
// @Success      200 {object} types.ClipResponse
// @Failure      400 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/clips/{id}/status [put]
func UpdateStatus(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.StatusUpdateRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		id := c.Param("id")
		err := deps.Clips.UpdateStatus(c.Request.Context(), id, models.ClipStatus(req.Status), req.ErrorMessage)
		if err != nil {
			types.SendError(c, err)
			return
		}

		clip, err := deps.Clips.Get(c.Request.Context(), id)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, types.ClipResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "Clip status updated"},
			Clip:         clip,
		})
	}
}

// PurgeFailed deletes failed requests, optionally only those older than ?older_than=<duration>
// @Summary      Delete failed clip requests
// @Tags         clips
// @Produce      json
// @Param        older_than query string false "Only requests last updated before this duration ago, e.g. 168h"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} types.ErrorResponse
// @Router       /api/v1/clips/failed [delete]
func PurgeFailed(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var olderThan time.Duration
		if raw := c.Query("older_than"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil || d < 0 {
				types.SendBadRequest(c, "Invalid older_than duration")
				return
			}
			olderThan = d
		}

		n, err := deps.Clips.PurgeFailed(c.Request.Context(), olderThan)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, gin.H{
			"status":  types.StatusOK,
			"deleted": n,
		})
	}
}

// Stats summarises clip requests
// @Summary      Clip request statistics
// @Tags         clips
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      500 {object} types.ErrorResponse
// @Router       /api/v1/clips/stats [get]
func Stats(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := deps.Clips.Stats(c.Request.Context())
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
