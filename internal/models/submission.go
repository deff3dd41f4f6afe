package models

import "time"

const (
	// SubmissionStatusDraft indicates work in progress, not yet sent for grading.
	SubmissionStatusDraft = "draft"
	// SubmissionStatusSubmitted indicates the work has been finalised for grading.
	SubmissionStatusSubmitted = "submitted"
)

// Submission represents one user's (or one team's) work on an assignment.
//
// Individual records carry UserID with GroupID zero. Under team submission the
// group is additionally represented by a synthetic record with UserID zero and
// the resolved GroupID; member status is tracked in the individual records and
// the team record is recomputed from them.
type Submission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssignmentID uint      `gorm:"not null;index:idx_submission_owner,unique" json:"assignment_id"`
	UserID       uint      `gorm:"not null;default:0;index:idx_submission_owner,unique" json:"user_id"`
	GroupID      uint      `gorm:"not null;default:0;index:idx_submission_owner,unique" json:"group_id"`
	Status       string    `gorm:"size:32;not null" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsTeamRecord reports whether this is the synthetic group-level record.
func (s Submission) IsTeamRecord() bool {
	return s.UserID == 0 && s.GroupID != 0
}

// IsSubmitted reports whether the work has been finalised for grading.
func (s Submission) IsSubmitted() bool {
	return s.Status == SubmissionStatusSubmitted
}
