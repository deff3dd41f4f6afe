package models

import (
	"time"

	"gorm.io/datatypes"
)

// GradingDefinition holds the active advanced grading method for an
// assignment, if any. The definition document is validated against the
// method's JSON schema before it is accepted.
type GradingDefinition struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssignmentID uint           `gorm:"not null;uniqueIndex" json:"assignment_id"`
	Method       string         `gorm:"size:32;not null" json:"method"`
	Definition   datatypes.JSON `gorm:"type:json" json:"definition"`
	Active       bool           `gorm:"not null;default:false" json:"active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// GradingFill is one filled advanced-grading form for a grade: the per
// criterion selections a grader made, plus the computed grade value.
type GradingFill struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	DefinitionID uint           `gorm:"not null;index" json:"definition_id"`
	GradeID      uint           `gorm:"not null;uniqueIndex" json:"grade_id"`
	RaterID      uint           `gorm:"not null" json:"rater_id"`
	Fill         datatypes.JSON `gorm:"type:json" json:"fill"`
	RawGrade     float64        `gorm:"not null;default:0" json:"raw_grade"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ActivityLog captures auditable domain events (submit, grade, lock, reveal).
type ActivityLog struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	ActorID      uint              `gorm:"not null" json:"actor_id"`
	AssignmentID uint              `gorm:"not null;index" json:"assignment_id"`
	Action       string            `gorm:"size:64;not null" json:"action"`
	Detail       string            `gorm:"type:text" json:"detail"`
	Metadata     datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
}
