package models

import "time"

// Grade holds the grading state for one (assignment, user) pair.
//
// Grade is nil while the submission is ungraded. For value-graded assignments
// it holds the awarded points, for scale-graded assignments the selected scale
// index. Grades are always per user, even for team submissions.
type Grade struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	AssignmentID uint     `gorm:"not null;uniqueIndex:idx_grade_owner" json:"assignment_id"`
	UserID       uint     `gorm:"not null;uniqueIndex:idx_grade_owner" json:"user_id"`
	Grade        *float64 `json:"grade"`
	GraderID     uint     `gorm:"not null;default:0" json:"grader_id"`
	Locked       bool     `gorm:"not null;default:false" json:"locked"`

	// ExtensionDueDate overrides the assignment due date for this user only.
	ExtensionDueDate *time.Time `json:"extension_due_date"`

	// Mailed dedupes the feedback-available notification pass.
	Mailed bool `gorm:"not null;default:false" json:"mailed"`

	FeedbackText   string `gorm:"type:text" json:"feedback_text"`
	FeedbackFormat string `gorm:"size:16" json:"feedback_format"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsGraded reports whether a grade value has been awarded.
func (g Grade) IsGraded() bool {
	return g.Grade != nil
}

// EffectiveDueDate resolves the per-user close time, preferring a granted
// extension over the assignment due date.
func (g Grade) EffectiveDueDate(assignmentDue *time.Time) *time.Time {
	if g.ExtensionDueDate != nil {
		return g.ExtensionDueDate
	}
	return assignmentDue
}
