package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClipStatus is the lifecycle state of a clip request
type ClipStatus string

const (
	ClipStatusPending    ClipStatus = "pending"    // Waiting for a worker
	ClipStatusProcessing ClipStatus = "processing" // Claimed, extraction running
	ClipStatusCompleted  ClipStatus = "completed"  // Output file written
	ClipStatusFailed     ClipStatus = "failed"     // Resolution or transcode failed
)

// Valid reports whether s is a known status
func (s ClipStatus) Valid() bool {
	switch s {
	case ClipStatusPending, ClipStatusProcessing, ClipStatusCompleted, ClipStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further automatic transition happens from s
func (s ClipStatus) Terminal() bool {
	return s == ClipStatusCompleted || s == ClipStatusFailed
}

// ClipType distinguishes ad-hoc requests from ones created as part of a batch
type ClipType string

const (
	ClipTypeSingle ClipType = "single"
	ClipTypeBatch  ClipType = "batch"
)

// Priority bounds; lower value is served first
const (
	PriorityHighest = 1
	PriorityDefault = 5
	PriorityLowest  = 10
)

// DefaultPaddingSeconds is added on both sides of a requested window
const DefaultPaddingSeconds = 2.0

// ClipRequest is a request to cut a time range of a media file into a standalone clip
type ClipRequest struct {
	ID        string       `json:"id" gorm:"primaryKey;size:36"`
	ProjectID *string      `json:"project_id,omitempty" gorm:"size:36;index"`
	Project   *ClipProject `json:"project,omitempty" gorm:"foreignKey:ProjectID"`

	// What to cut
	Sentence       string   `json:"sentence" gorm:"type:text;not null"`
	MediaFile      string   `json:"media_file" gorm:"not null"`
	StartTime      string   `json:"start_time" gorm:"not null;size:16"`
	EndTime        string   `json:"end_time" gorm:"not null;size:16"`
	ClipType       ClipType `json:"clip_type" gorm:"size:10;not null"`
	Priority       int      `json:"priority" gorm:"not null;index:idx_clip_queue,priority:2"`
	PaddingSeconds float64  `json:"padding_seconds" gorm:"not null"`

	// Lifecycle
	Status      ClipStatus `json:"status" gorm:"size:20;not null;index:idx_clip_queue,priority:1"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index:idx_clip_queue,priority:3"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	HeartbeatAt *time.Time `json:"heartbeat_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Result
	OutputFile      string  `json:"output_file,omitempty"`
	FileSize        int64   `json:"file_size,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty" gorm:"type:text"`

	Tags []ClipTag `json:"tags,omitempty" gorm:"foreignKey:ClipID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate fills the id and lifecycle defaults
func (c *ClipRequest) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = ClipStatusPending
	}
	if c.ClipType == "" {
		c.ClipType = ClipTypeSingle
	}
	if c.Priority == 0 {
		c.Priority = PriorityDefault
	}
	return nil
}

// TableName returns the table name for the ClipRequest model
func (ClipRequest) TableName() string {
	return "clip_requests"
}

// TagNames returns the request's tags as plain strings
func (c *ClipRequest) TagNames() []string {
	names := make([]string, 0, len(c.Tags))
	for _, t := range c.Tags {
		names = append(names, t.Tag)
	}
	return names
}

// ClipTag labels a clip request; tags are stored trimmed and lower-cased
type ClipTag struct {
	ClipID string `json:"-" gorm:"primaryKey;size:36"`
	Tag    string `json:"tag" gorm:"primaryKey;size:100;index"`
}

// TableName returns the table name for the ClipTag model
func (ClipTag) TableName() string {
	return "clip_tags"
}

// NormalizeTags trims, lower-cases and de-duplicates tags, dropping empties
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
