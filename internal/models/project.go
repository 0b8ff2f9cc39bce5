package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectStatus is the state of a clip project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Valid reports whether s is a known project status
func (s ProjectStatus) Valid() bool {
	return s == ProjectStatusActive || s == ProjectStatusCompleted || s == ProjectStatusArchived
}

// ClipProject groups clip requests created together
type ClipProject struct {
	ID          string        `json:"id" gorm:"primaryKey;size:36"`
	Name        string        `json:"name" gorm:"not null;index"`
	Description string        `json:"description,omitempty"`
	Type        ClipType      `json:"type" gorm:"size:10;not null"`
	Status      ProjectStatus `json:"status" gorm:"size:20;not null"`
	CreatedAt   time.Time     `json:"created_at"`

	Requests []ClipRequest `json:"requests,omitempty" gorm:"foreignKey:ProjectID"`
}

// BeforeCreate fills the id and defaults
func (p *ClipProject) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Type == "" {
		p.Type = ClipTypeSingle
	}
	if p.Status == "" {
		p.Status = ProjectStatusActive
	}
	return nil
}

// TableName returns the table name for the ClipProject model
func (ClipProject) TableName() string {
	return "clip_projects"
}
