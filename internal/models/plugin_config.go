package models

import (
	"time"

	"gorm.io/datatypes"
)

// PluginConfig stores the per-assignment state of one submission or feedback
// plugin: whether it is enabled and its free-form settings document.
type PluginConfig struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	AssignmentID uint              `gorm:"not null;uniqueIndex:idx_plugin_config" json:"assignment_id"`
	Subtype      string            `gorm:"size:32;not null;uniqueIndex:idx_plugin_config" json:"subtype"`
	Type         string            `gorm:"size:64;not null;uniqueIndex:idx_plugin_config" json:"type"`
	Enabled      bool              `gorm:"not null;default:false" json:"enabled"`
	Settings     datatypes.JSONMap `gorm:"type:json" json:"settings"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// SubmissionText stores the online-text submission plugin payload for one
// submission record.
type SubmissionText struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;uniqueIndex" json:"submission_id"`
	Text         string    `gorm:"type:text" json:"text"`
	Format       string    `gorm:"size:16" json:"format"`
	WordCount    int       `gorm:"not null;default:0" json:"word_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SubmissionFile stores one uploaded file reference attached to a submission
// by the file submission plugin. The blob itself lives in the file store.
type SubmissionFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	Area         string    `gorm:"size:64;not null" json:"area"`
	Filename     string    `gorm:"size:255;not null" json:"filename"`
	ContentType  string    `gorm:"size:128" json:"content_type"`
	StorageURL   string    `gorm:"size:512" json:"storage_url"`
	SizeBytes    int64     `gorm:"not null;default:0" json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}

// FeedbackComment stores the feedback-comments plugin payload for one grade.
type FeedbackComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GradeID   uint      `gorm:"not null;uniqueIndex" json:"grade_id"`
	Comment   string    `gorm:"type:text" json:"comment"`
	Format    string    `gorm:"size:16" json:"format"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FeedbackFile stores one grader-attached file reference for a grade.
type FeedbackFile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GradeID     uint      `gorm:"not null;index" json:"grade_id"`
	Filename    string    `gorm:"size:255;not null" json:"filename"`
	ContentType string    `gorm:"size:128" json:"content_type"`
	StorageURL  string    `gorm:"size:512" json:"storage_url"`
	SizeBytes   int64     `gorm:"not null;default:0" json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}
