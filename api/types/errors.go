package types

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/killallgit/subclip/internal/logging"
	"github.com/killallgit/subclip/internal/services/clips"
	"github.com/killallgit/subclip/internal/services/corpus"
	"github.com/killallgit/subclip/internal/services/media"
	"github.com/killallgit/subclip/internal/services/search"
	apperrors "github.com/killallgit/subclip/pkg/errors"
)

// ToAppError maps service errors onto structured application errors
func ToAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var (
		stateErr     *clips.InvalidStateError
		resolveErr   *media.ResolutionError
		transcodeErr *clips.TranscodeError
		indexErr     *corpus.IndexingIOError
	)
	switch {
	case errors.As(err, &stateErr):
		return apperrors.InvalidState("clip request", stateErr.ID, string(stateErr.Status)).WithCause(err)
	case errors.Is(err, clips.ErrNotFound):
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, err.Error())
	case errors.Is(err, clips.ErrInvalidState):
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidState, err.Error())
	case errors.Is(err, clips.ErrValidation),
		errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, search.ErrInvalidLanguage):
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	case errors.Is(err, corpus.ErrIndexBusy):
		return apperrors.Wrap(err, apperrors.ErrCodeIndexBusy, err.Error())
	case errors.As(err, &resolveErr):
		return apperrors.Wrap(err, apperrors.ErrCodeMediaNotFound, err.Error()).
			WithDetail("reference", resolveErr.Reference)
	case errors.As(err, &indexErr):
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, err.Error()).
			WithDetail("path", indexErr.Path)
	case errors.As(err, &transcodeErr):
		return apperrors.Wrap(err, apperrors.ErrCodeTranscode, "clip extraction failed")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.ErrCodeServiceDown, "request timed out")
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "internal server error")
	}
}

// SendError writes err as a structured error response
func SendError(c *gin.Context, err error) {
	appErr := ToAppError(err)
	code := appErr.GetHTTPCode()
	if code >= 500 {
		logging.Component("api").WithError(err).WithFields(logrus.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("request failed")
	}

	resp := ErrorResponse{
		Status:  StatusError,
		Message: appErr.Message,
		Error:   string(appErr.Code),
	}
	if len(appErr.Details) > 0 {
		resp.Details = appErr.Details
	}
	c.JSON(code, resp)
}
