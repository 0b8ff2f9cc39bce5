package models

import "time"

// IndexRunStatus is the state of a corpus rebuild
type IndexRunStatus string

const (
	IndexRunRunning   IndexRunStatus = "running"
	IndexRunCompleted IndexRunStatus = "completed"
	IndexRunFailed    IndexRunStatus = "failed"
)

// IndexRun records one full rebuild of the subtitle store
type IndexRun struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Root           string         `json:"root" gorm:"not null"`
	Status         IndexRunStatus `json:"status" gorm:"size:20;not null;index"`
	MediaFiles     int            `json:"media_files"`
	SubtitleFiles  int            `json:"subtitle_files"`
	EntriesIndexed int            `json:"entries_indexed"`
	EntriesSkipped int            `json:"entries_skipped"`
	FilesFailed    int            `json:"files_failed"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty" gorm:"type:text"`
}

// TableName returns the table name for the IndexRun model
func (IndexRun) TableName() string {
	return "index_runs"
}

// Elapsed returns how long the run took, or has taken so far
func (r *IndexRun) Elapsed() time.Duration {
	if r.CompletedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// AllModels lists every persisted model, in migration order
func AllModels() []any {
	return []any{
		&SubtitleEntry{},
		&IndexRun{},
		&ClipProject{},
		&ClipRequest{},
		&ClipTag{},
	}
}
