package models

import (
	"path/filepath"
	"time"
)

// Language identifies the language of a subtitle entry
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageKorean  Language = "ko"
)

// Valid reports whether l is one of the indexed languages
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageKorean
}

// SubtitleEntry is one dialogue cue from a subtitle file.
// Entries are immutable after indexing and only removed by a full rebuild.
type SubtitleEntry struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	MediaFile    string    `json:"media_file" gorm:"not null;index"`
	SubtitleFile string    `json:"subtitle_file" gorm:"not null"`
	StartTime    string    `json:"start_time" gorm:"not null;size:16"`
	EndTime      string    `json:"end_time" gorm:"not null;size:16"`
	StartTimeMs  int64     `json:"start_time_ms" gorm:"not null;index"`
	EndTimeMs    int64     `json:"end_time_ms" gorm:"not null"`
	Text         string    `json:"text" gorm:"type:text;not null"`
	Language     Language  `json:"language" gorm:"size:2;not null;index"`
	Directory    string    `json:"directory" gorm:"not null;index"`
	IndexedAt    time.Time `json:"indexed_at"`
}

// TableName returns the table name for the SubtitleEntry model
func (SubtitleEntry) TableName() string {
	return "subtitles"
}

// Duration returns the cue length
func (e *SubtitleEntry) Duration() time.Duration {
	return time.Duration(e.EndTimeMs-e.StartTimeMs) * time.Millisecond
}

// MediaName returns the bare file name of the media the entry belongs to
func (e *SubtitleEntry) MediaName() string {
	return filepath.Base(e.MediaFile)
}
