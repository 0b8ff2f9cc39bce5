package clips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/killallgit/subclip/internal/models"
)

// ReclaimedMessage is recorded on requests whose worker stopped heartbeating
const ReclaimedMessage = "worker heartbeat lost while processing"

// ManualFailureMessage is recorded when a request is failed by an operator without a reason
const ManualFailureMessage = "marked failed manually"

// ListFilter narrows a request listing
type ListFilter struct {
	Status    models.ClipStatus
	ProjectID string
	Tag       string
	Limit     int
	Offset    int
}

// Repository defines the persistence of clip requests and projects
type Repository interface {
	// Create operations
	Create(ctx context.Context, req *models.ClipRequest) error
	CreateBatch(ctx context.Context, project *models.ClipProject, reqs []*models.ClipRequest) error
	FindOrCreateProject(ctx context.Context, name string) (*models.ClipProject, error)

	// Read operations
	Get(ctx context.Context, id string) (*models.ClipRequest, error)
	List(ctx context.Context, filter ListFilter) ([]*models.ClipRequest, int64, error)
	ListPending(ctx context.Context, limit int) ([]*models.ClipRequest, error)
	ListProjects(ctx context.Context) ([]ProjectSummary, error)
	Stats(ctx context.Context) (*Stats, error)

	// Lifecycle transitions
	Claim(ctx context.Context, id string) error
	Heartbeat(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, result *ExtractResult) error
	Fail(ctx context.Context, id string, errorMsg string) error
	SetStatus(ctx context.Context, id string, status models.ClipStatus, errorMsg string) error
	ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error)
	UpdateProjectStatus(ctx context.Context, id string, status models.ProjectStatus) error

	// Delete operations
	DeleteFailed(ctx context.Context, olderThan time.Time) (int64, error)
}

// repository implements Repository on gorm
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new clip request repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, req *models.ClipRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("creating clip request: %w", err)
	}
	return nil
}

// CreateBatch stores a project and all of its requests, or nothing
func (r *repository) CreateBatch(ctx context.Context, project *models.ClipProject, reqs []*models.ClipRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return fmt.Errorf("creating clip project: %w", err)
		}
		for _, req := range reqs {
			req.ProjectID = &project.ID
			if err := tx.Create(req).Error; err != nil {
				return fmt.Errorf("creating clip request: %w", err)
			}
		}
		return nil
	})
}

// FindOrCreateProject returns the batch project with the given name, creating it if needed
func (r *repository) FindOrCreateProject(ctx context.Context, name string) (*models.ClipProject, error) {
	project := models.ClipProject{Name: name, Type: models.ClipTypeBatch}
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Order("created_at ASC").
		FirstOrCreate(&project).Error
	if err != nil {
		return nil, fmt.Errorf("finding clip project: %w", err)
	}
	return &project, nil
}

func (r *repository) Get(ctx context.Context, id string) (*models.ClipRequest, error) {
	var req models.ClipRequest
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Preload("Project").
		First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("getting clip request: %w", err)
	}
	return &req, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*models.ClipRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ClipRequest{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ProjectID != "" {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Tag != "" {
		tagged := r.db.Model(&models.ClipTag{}).Select("clip_id").Where("tag = ?", filter.Tag)
		query = query.Where("id IN (?)", tagged)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting clip requests: %w", err)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var reqs []*models.ClipRequest
	err := query.Preload("Tags").
		Order("created_at DESC, id ASC").
		Find(&reqs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing clip requests: %w", err)
	}
	return reqs, total, nil
}

// ListPending returns pending requests in service order: priority, then age
func (r *repository) ListPending(ctx context.Context, limit int) ([]*models.ClipRequest, error) {
	query := r.db.WithContext(ctx).
		Preload("Tags").
		Where("status = ?", models.ClipStatusPending).
		Order("priority ASC, created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reqs []*models.ClipRequest
	if err := query.Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("listing pending clip requests: %w", err)
	}
	return reqs, nil
}

// Claim moves a request from pending to processing. Only one caller can win
// the compare-and-set; the others get ErrNotFound or an InvalidStateError.
func (r *repository) Claim(ctx context.Context, id string) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.ClipRequest{}).
		Where("id = ? AND status = ?", id, models.ClipStatusPending).
		Updates(map[string]any{
			"status":        models.ClipStatusProcessing,
			"started_at":    now,
			"heartbeat_at":  now,
			"completed_at":  nil,
			"error_message": "",
		})
	if result.Error != nil {
		return fmt.Errorf("claiming clip request: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}
	return r.stateError(ctx, id, models.ClipStatusPending)
}

// stateError explains why a guarded update on id matched no row
func (r *repository) stateError(ctx context.Context, id string, want models.ClipStatus) error {
	var current models.ClipRequest
	err := r.db.WithContext(ctx).Select("id", "status").First(&current, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("checking clip request: %w", err)
	}
	return &InvalidStateError{ID: id, Status: current.Status, Want: want}
}

func (r *repository) Heartbeat(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.ClipRequest{}).
		Where("id = ? AND status = ?", id, models.ClipStatusProcessing).
		Update("heartbeat_at", time.Now().UTC())
	if result.Error != nil {
		return fmt.Errorf("updating heartbeat: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s is no longer processing", ErrInvalidState, id)
	}
	return nil
}

// Complete records a successful extraction. Like Fail it only applies while
// the request is still processing, so a request reclaimed in the meantime
// stays failed and an InvalidStateError is returned.
func (r *repository) Complete(ctx context.Context, id string, result *ExtractResult) error {
	now := time.Now().UTC()
	return r.finish(ctx, id, map[string]any{
		"status":           models.ClipStatusCompleted,
		"completed_at":     now,
		"output_file":      result.OutputFile,
		"file_size":        result.SizeBytes,
		"duration_seconds": result.DurationSeconds,
		"error_message":    "",
	})
}

// Fail records a failed extraction
func (r *repository) Fail(ctx context.Context, id string, errorMsg string) error {
	if errorMsg == "" {
		errorMsg = "unknown error"
	}
	return r.finish(ctx, id, map[string]any{
		"status":        models.ClipStatusFailed,
		"error_message": errorMsg,
		"completed_at":  nil,
	})
}

func (r *repository) finish(ctx context.Context, id string, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.ClipRequest{}).
		Where("id = ? AND status = ?", id, models.ClipStatusProcessing).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("updating clip request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.stateError(ctx, id, models.ClipStatusProcessing)
	}
	return nil
}

// SetStatus is the administrative override. It keeps completed_at and
// error_message consistent with the new status.
func (r *repository) SetStatus(ctx context.Context, id string, status models.ClipStatus, errorMsg string) error {
	now := time.Now().UTC()
	updates := map[string]any{"status": status}

	switch status {
	case models.ClipStatusPending:
		updates["started_at"] = nil
		updates["heartbeat_at"] = nil
		updates["completed_at"] = nil
		updates["error_message"] = ""
	case models.ClipStatusProcessing:
		updates["started_at"] = now
		updates["heartbeat_at"] = now
		updates["completed_at"] = nil
		updates["error_message"] = ""
	case models.ClipStatusCompleted:
		updates["completed_at"] = now
		updates["error_message"] = ""
	case models.ClipStatusFailed:
		if errorMsg == "" {
			errorMsg = ManualFailureMessage
		}
		updates["completed_at"] = nil
		updates["error_message"] = errorMsg
	default:
		return validationErrorf("unknown status %q", status)
	}

	return r.update(ctx, id, updates)
}

func (r *repository) update(ctx context.Context, id string, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.ClipRequest{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("updating clip request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ReclaimStale fails processing requests whose last heartbeat is older than cutoff
func (r *repository) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ClipRequest{}).
		Where("status = ?", models.ClipStatusProcessing).
		Where("COALESCE(heartbeat_at, started_at, updated_at) < ?", cutoff.UTC()).
		Updates(map[string]any{
			"status":        models.ClipStatusFailed,
			"error_message": ReclaimedMessage,
			"completed_at":  nil,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("reclaiming stale clip requests: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteFailed removes failed requests last updated before olderThan, with
// their tags. A zero olderThan removes every failed request.
func (r *repository) DeleteFailed(ctx context.Context, olderThan time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.ClipRequest{}).Where("status = ?", models.ClipStatusFailed)
		if !olderThan.IsZero() {
			query = query.Where("updated_at < ?", olderThan.UTC())
		}

		var ids []string
		if err := query.Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("clip_id IN ?", ids).Delete(&models.ClipTag{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&models.ClipRequest{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deleting failed clip requests: %w", err)
	}
	return deleted, nil
}

// ProjectSummary is a project with per-status request counts
type ProjectSummary struct {
	models.ClipProject
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

func (r *repository) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	var projects []models.ClipProject
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("listing clip projects: %w", err)
	}

	var counts []projectStatusCount
	err := r.db.WithContext(ctx).
		Model(&models.ClipRequest{}).
		Select("project_id, status, COUNT(*) AS count").
		Where("project_id IS NOT NULL").
		Group("project_id, status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("counting project requests: %w", err)
	}

	byProject := make(map[string]*ProjectSummary, len(projects))
	summaries := make([]ProjectSummary, len(projects))
	for i, p := range projects {
		summaries[i].ClipProject = p
		byProject[p.ID] = &summaries[i]
	}
	for _, c := range counts {
		s, ok := byProject[c.ProjectID]
		if !ok {
			continue
		}
		s.Total += c.Count
		switch c.Status {
		case models.ClipStatusPending:
			s.Pending += c.Count
		case models.ClipStatusCompleted:
			s.Completed += c.Count
		case models.ClipStatusFailed:
			s.Failed += c.Count
		}
	}
	return summaries, nil
}

func (r *repository) UpdateProjectStatus(ctx context.Context, id string, status models.ProjectStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.ClipProject{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("updating clip project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	return nil
}

type statusCount struct {
	Status models.ClipStatus
	Count  int64
}

type projectStatusCount struct {
	ProjectID string
	Status    models.ClipStatus
	Count     int64
}

type completedAggregate struct {
	AvgDuration float64
	TotalSize   int64
}

// Stats summarises the request table
type Stats struct {
	Total                  int64                       `json:"total"`
	ByStatus               map[models.ClipStatus]int64 `json:"by_status"`
	CreatedToday           int64                       `json:"created_today"`
	AverageDurationSeconds float64                     `json:"average_duration_seconds"`
	TotalSizeBytes         int64                       `json:"total_size_bytes"`
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	stats := &Stats{ByStatus: make(map[models.ClipStatus]int64)}

	var byStatus []statusCount
	if err := db.Model(&models.ClipRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("counting clip requests: %w", err)
	}
	for _, s := range byStatus {
		stats.ByStatus[s.Status] = s.Count
		stats.Total += s.Count
	}

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if err := db.Model(&models.ClipRequest{}).
		Where("created_at >= ?", midnight).
		Count(&stats.CreatedToday).Error; err != nil {
		return nil, fmt.Errorf("counting today's clip requests: %w", err)
	}

	var agg completedAggregate
	if err := db.Model(&models.ClipRequest{}).
		Select("COALESCE(AVG(duration_seconds), 0) AS avg_duration, COALESCE(SUM(file_size), 0) AS total_size").
		Where("status = ?", models.ClipStatusCompleted).
		Scan(&agg).Error; err != nil {
		return nil, fmt.Errorf("aggregating completed clips: %w", err)
	}
	stats.AverageDurationSeconds = agg.AvgDuration
	stats.TotalSizeBytes = agg.TotalSize

	return stats, nil
}
