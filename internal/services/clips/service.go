// Package clips manages clip requests: creation, ordering, fulfilment and the
// request lifecycle, plus the extractor and output layout fulfilment uses.
package clips

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/killallgit/subclip/internal/logging"
	"github.com/killallgit/subclip/internal/models"
	"github.com/killallgit/subclip/internal/subtitles"
)

// MediaResolver finds the local media file for a reference
type MediaResolver interface {
	Resolve(ref string) (string, error)
}

// Config holds manager defaults
type Config struct {
	DefaultPadding    float64
	DefaultPriority   int
	HeartbeatInterval time.Duration
}

// CreateParams contains parameters for creating a clip request
type CreateParams struct {
	Sentence  string   `json:"sentence" validate:"required"`
	MediaFile string   `json:"media_file" validate:"required"`
	StartTime string   `json:"start_time" validate:"required,timecode"`
	EndTime   string   `json:"end_time" validate:"required,timecode"`
	Priority  int      `json:"priority,omitempty" validate:"omitempty,min=1,max=10"`
	Padding   *float64 `json:"padding_seconds,omitempty" validate:"omitempty,min=0"`
	Project   string   `json:"project,omitempty" validate:"omitempty,max=200"`
	Tags      []string `json:"tags,omitempty" validate:"omitempty,dive,max=100"`
}

// BatchParams creates a project and its requests together
type BatchParams struct {
	Project     string         `json:"project" validate:"required,max=200"`
	Description string         `json:"description,omitempty"`
	Requests    []CreateParams `json:"requests" validate:"required,min=1,dive"`
}

// FulfilResult is the outcome of one fulfilment. Request-level failures are
// reported here and on the stored request, not as an error.
type FulfilResult struct {
	ID         string            `json:"id"`
	Status     models.ClipStatus `json:"status"`
	Success    bool              `json:"success"`
	OutputFile string            `json:"output_file,omitempty"`
	Error      string            `json:"error,omitempty"`
}

var timecodePattern = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}[,.]\d{1,3}$`)

// Manager owns the clip request lifecycle
type Manager struct {
	repo      Repository
	resolver  MediaResolver
	extractor Extractor
	layout    *OutputLayout
	cfg       Config
	validate  *validator.Validate
	log       *logrus.Entry
}

// NewManager creates a new clip request manager
func NewManager(repo Repository, resolver MediaResolver, extractor Extractor, layout *OutputLayout, cfg Config) *Manager {
	if cfg.DefaultPadding < 0 {
		cfg.DefaultPadding = models.DefaultPaddingSeconds
	}
	if cfg.DefaultPriority < models.PriorityHighest || cfg.DefaultPriority > models.PriorityLowest {
		cfg.DefaultPriority = models.PriorityDefault
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("timecode", func(fl validator.FieldLevel) bool {
		return timecodePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})

	return &Manager{
		repo:      repo,
		resolver:  resolver,
		extractor: extractor,
		layout:    layout,
		cfg:       cfg,
		validate:  v,
		log:       logging.Component("clips"),
	}
}

// Layout returns where fulfilled clips are written
func (m *Manager) Layout() *OutputLayout {
	return m.layout
}

// Create validates params and stores a pending request. Naming a project
// attaches the request to it, creating the project on first use.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*models.ClipRequest, error) {
	req, err := m.newRequest(params)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(params.Project); name != "" {
		project, err := m.repo.FindOrCreateProject(ctx, name)
		if err != nil {
			return nil, err
		}
		req.ProjectID = &project.ID
		req.ClipType = models.ClipTypeBatch
	}

	if err := m.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{
		"clip_id":    req.ID,
		"media_file": req.MediaFile,
		"priority":   req.Priority,
	}).Info("clip request created")
	return req, nil
}

// CreateBatch creates a batch project and all of its requests in one transaction
func (m *Manager) CreateBatch(ctx context.Context, params BatchParams) (*models.ClipProject, []*models.ClipRequest, error) {
	if err := m.validate.Struct(params); err != nil {
		return nil, nil, validationFailure(err)
	}

	reqs := make([]*models.ClipRequest, 0, len(params.Requests))
	for i, p := range params.Requests {
		req, err := m.newRequest(p)
		if err != nil {
			return nil, nil, fmt.Errorf("request %d: %w", i, err)
		}
		req.ClipType = models.ClipTypeBatch
		reqs = append(reqs, req)
	}

	project := &models.ClipProject{
		Name:        strings.TrimSpace(params.Project),
		Description: params.Description,
		Type:        models.ClipTypeBatch,
	}
	if err := m.repo.CreateBatch(ctx, project, reqs); err != nil {
		return nil, nil, err
	}

	m.log.WithFields(logrus.Fields{
		"project_id": project.ID,
		"project":    project.Name,
		"requests":   len(reqs),
	}).Info("clip batch created")
	return project, reqs, nil
}

func (m *Manager) newRequest(params CreateParams) (*models.ClipRequest, error) {
	params.Sentence = strings.TrimSpace(params.Sentence)
	params.MediaFile = strings.TrimSpace(params.MediaFile)
	params.StartTime = strings.TrimSpace(params.StartTime)
	params.EndTime = strings.TrimSpace(params.EndTime)

	if err := m.validate.Struct(params); err != nil {
		return nil, validationFailure(err)
	}
	if subtitles.ParseTimecode(params.EndTime) < subtitles.ParseTimecode(params.StartTime) {
		return nil, validationErrorf("end_time %s is before start_time %s", params.EndTime, params.StartTime)
	}

	req := &models.ClipRequest{
		Sentence:       params.Sentence,
		MediaFile:      params.MediaFile,
		StartTime:      params.StartTime,
		EndTime:        params.EndTime,
		ClipType:       models.ClipTypeSingle,
		Priority:       m.cfg.DefaultPriority,
		PaddingSeconds: m.cfg.DefaultPadding,
		Status:         models.ClipStatusPending,
	}
	if params.Priority != 0 {
		req.Priority = params.Priority
	}
	if params.Padding != nil {
		req.PaddingSeconds = *params.Padding
	}
	for _, tag := range models.NormalizeTags(params.Tags) {
		req.Tags = append(req.Tags, models.ClipTag{Tag: tag})
	}
	return req, nil
}

func validationFailure(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return validationErrorf("%v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return validationErrorf("%s", strings.Join(msgs, "; "))
}

// Get returns a request with its tags and project
func (m *Manager) Get(ctx context.Context, id string) (*models.ClipRequest, error) {
	return m.repo.Get(ctx, id)
}

// List returns requests matching filter, newest first, with the unpaged total
func (m *Manager) List(ctx context.Context, filter ListFilter) ([]*models.ClipRequest, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, validationErrorf("unknown status %q", filter.Status)
	}
	filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))
	return m.repo.List(ctx, filter)
}

// ListPending returns pending requests by priority, then creation time
func (m *Manager) ListPending(ctx context.Context, limit int) ([]*models.ClipRequest, error) {
	return m.repo.ListPending(ctx, limit)
}

// ListProjects returns every project with request counts
func (m *Manager) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	return m.repo.ListProjects(ctx)
}

// UpdateProjectStatus sets a project's status
func (m *Manager) UpdateProjectStatus(ctx context.Context, id string, status models.ProjectStatus) error {
	if !status.Valid() {
		return validationErrorf("unknown project status %q", status)
	}
	return m.repo.UpdateProjectStatus(ctx, id, status)
}

// Fulfil claims a pending request, cuts its clip and records the outcome.
// padding overrides the request's stored padding when non-nil.
//
// Unknown ids return ErrNotFound and requests that are not pending return an
// InvalidStateError. Once claimed, the request always leaves processing, even
// if ctx is cancelled mid-extraction.
func (m *Manager) Fulfil(ctx context.Context, id string, padding *float64) (*FulfilResult, error) {
	if padding != nil && *padding < 0 {
		return nil, validationErrorf("padding must not be negative")
	}
	if err := m.repo.Claim(ctx, id); err != nil {
		return nil, err
	}

	log := m.log.WithField("clip_id", id)
	log.Info("fulfilling clip request")

	// Terminal writes must land even when the caller has gone away
	finishCtx := context.WithoutCancel(ctx)

	stopHeartbeat := m.startHeartbeat(finishCtx, id)
	result, runErr := m.extract(ctx, id, padding)
	stopHeartbeat()

	if runErr != nil {
		log.WithError(runErr).Warn("clip request failed")
		if err := m.repo.Fail(finishCtx, id, runErr.Error()); err != nil {
			if errors.Is(err, ErrInvalidState) {
				return m.superseded(finishCtx, log, id)
			}
			return nil, fmt.Errorf("recording failure: %w", err)
		}
		return &FulfilResult{ID: id, Status: models.ClipStatusFailed, Error: runErr.Error()}, nil
	}

	if err := m.repo.Complete(finishCtx, id, result); err != nil {
		if errors.Is(err, ErrInvalidState) {
			if rmErr := os.Remove(result.OutputFile); rmErr != nil && !os.IsNotExist(rmErr) {
				log.WithError(rmErr).Warn("failed to remove output of superseded clip request")
			}
			return m.superseded(finishCtx, log, id)
		}
		return nil, fmt.Errorf("recording completion: %w", err)
	}

	log.WithFields(logrus.Fields{
		"output":   result.OutputFile,
		"size":     result.SizeBytes,
		"duration": result.DurationSeconds,
	}).Info("clip request completed")
	return &FulfilResult{
		ID:         id,
		Status:     models.ClipStatusCompleted,
		Success:    true,
		OutputFile: result.OutputFile,
	}, nil
}

// superseded reports the stored state of a request that left processing
// while it was being extracted, typically because it was reclaimed as stale.
func (m *Manager) superseded(ctx context.Context, log *logrus.Entry, id string) (*FulfilResult, error) {
	current, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	log.WithField("status", current.Status).Warn("clip request left processing during extraction, keeping stored state")
	return &FulfilResult{
		ID:         id,
		Status:     current.Status,
		Success:    current.Status == models.ClipStatusCompleted,
		OutputFile: current.OutputFile,
		Error:      current.ErrorMessage,
	}, nil
}

func (m *Manager) extract(ctx context.Context, id string, padding *float64) (*ExtractResult, error) {
	req, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	pad := req.PaddingSeconds
	if padding != nil {
		pad = *padding
	}
	start, end := Window(req.StartTime, req.EndTime, pad)

	input, err := m.resolver.Resolve(req.MediaFile)
	if err != nil {
		return nil, err
	}

	projectName := ""
	if req.Project != nil {
		projectName = req.Project.Name
	}

	return m.extractor.Extract(ctx, ExtractParams{
		Input:  input,
		Output: m.layout.Path(req, projectName),
		Start:  start,
		End:    end,
	})
}

// Preview cuts params' window into the scratch directory without storing a
// request. Scratch files are removed by the cleanup service once they age out.
func (m *Manager) Preview(ctx context.Context, params CreateParams) (*ExtractResult, error) {
	req, err := m.newRequest(params)
	if err != nil {
		return nil, err
	}

	input, err := m.resolver.Resolve(req.MediaFile)
	if err != nil {
		return nil, err
	}

	start, end := Window(req.StartTime, req.EndTime, req.PaddingSeconds)
	return m.extractor.Extract(ctx, ExtractParams{
		Input:  input,
		Output: m.layout.TempPath(uuid.New().String(), req.Sentence),
		Start:  start,
		End:    end,
	})
}

// Window returns the padded extraction window in seconds, never starting before zero
func Window(startTime, endTime string, padding float64) (float64, float64) {
	start := max(0, subtitles.Seconds(startTime)-padding)
	end := subtitles.Seconds(endTime) + padding
	return start, end
}

// startHeartbeat refreshes heartbeat_at until the returned stop func is called
func (m *Manager) startHeartbeat(ctx context.Context, id string) func() {
	if m.cfg.HeartbeatInterval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(m.cfg.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.repo.Heartbeat(ctx, id); err != nil && ctx.Err() == nil {
					m.log.WithError(err).WithField("clip_id", id).Warn("heartbeat failed")
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// UpdateStatus is the administrative override of a request's status
func (m *Manager) UpdateStatus(ctx context.Context, id string, status models.ClipStatus, errorMsg string) error {
	if !status.Valid() {
		return validationErrorf("unknown status %q", status)
	}
	if err := m.repo.SetStatus(ctx, id, status, errorMsg); err != nil {
		return err
	}
	m.log.WithFields(logrus.Fields{"clip_id": id, "status": status}).Info("clip request status overridden")
	return nil
}

// PurgeFailed deletes failed requests older than olderThan; zero deletes all of them
func (m *Manager) PurgeFailed(ctx context.Context, olderThan time.Duration) (int64, error) {
	var cutoff time.Time
	if olderThan > 0 {
		cutoff = time.Now().Add(-olderThan)
	}
	n, err := m.repo.DeleteFailed(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.log.WithField("count", n).Info("purged failed clip requests")
	}
	return n, nil
}

// ReclaimStale fails processing requests that stopped heartbeating before cutoff
func (m *Manager) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := m.repo.ReclaimStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.log.WithField("count", n).Warn("reclaimed stale clip requests")
	}
	return n, nil
}

// Stats summarises clip requests
func (m *Manager) Stats(ctx context.Context) (*Stats, error) {
	return m.repo.Stats(ctx)
}
