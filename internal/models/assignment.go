package models

import "time"

// GradingType describes how an assignment is graded.
type GradingType int

const (
	// GradingTypeText accepts feedback comments only, no grade value.
	GradingTypeText GradingType = iota
	// GradingTypeValue accepts a numeric grade between zero and the configured maximum.
	GradingTypeValue
	// GradingTypeScale accepts an index into a configured scale.
	GradingTypeScale
)

// Assignment represents one gradeable activity inside a course.
//
// The Grade field follows the gradebook convention: a positive value is the
// numeric maximum, a negative value is the negated id of a scale, and zero
// means the assignment is text-feedback only.
type Assignment struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	CourseID       uint   `gorm:"not null;index" json:"course_id"`
	CourseModuleID uint   `gorm:"not null" json:"course_module_id"`
	Name           string `gorm:"size:255;not null" json:"name"`
	Intro          string `gorm:"type:text" json:"intro"`
	Grade          int    `gorm:"not null;default:100" json:"grade"`

	AllowFrom  *time.Time `json:"allow_from"`
	DueDate    *time.Time `json:"due_date"`
	CutoffDate *time.Time `json:"cutoff_date"`

	SubmissionDrafts            bool `gorm:"not null;default:false" json:"submission_drafts"`
	PreventLateSubmissions      bool `gorm:"not null;default:false" json:"prevent_late_submissions"`
	RequireSubmissionStatement  bool `gorm:"not null;default:false" json:"require_submission_statement"`
	SendNotifications           bool `gorm:"not null;default:false" json:"send_notifications"`
	SendLateNotifications       bool `gorm:"not null;default:false" json:"send_late_notifications"`
	TeamSubmission              bool `gorm:"not null;default:false" json:"team_submission"`
	RequireAllTeamMembersSubmit bool `gorm:"not null;default:false" json:"require_all_team_members_submit"`
	TeamGroupingID              uint `gorm:"not null;default:0" json:"team_grouping_id"`
	BlindMarking                bool `gorm:"not null;default:false" json:"blind_marking"`
	RevealIdentities            bool `gorm:"not null;default:false" json:"reveal_identities"`
	NoSubmissions               bool `gorm:"not null;default:false" json:"no_submissions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GradingType derives the grading mode from the Grade setting.
func (a Assignment) GradingType() GradingType {
	switch {
	case a.Grade > 0:
		return GradingTypeValue
	case a.Grade < 0:
		return GradingTypeScale
	default:
		return GradingTypeText
	}
}

// MaxGrade returns the numeric maximum for value-graded assignments.
func (a Assignment) MaxGrade() float64 {
	if a.Grade > 0 {
		return float64(a.Grade)
	}
	return 0
}

// ScaleID returns the scale identifier for scale-graded assignments.
func (a Assignment) ScaleID() uint {
	if a.Grade < 0 {
		return uint(-a.Grade)
	}
	return 0
}

// IsPastDue reports whether the due date has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return a.DueDate != nil && reference.After(*a.DueDate)
}

// IdentitiesHidden reports whether grades must be withheld from the gradebook.
// While blind marking is active and identities are unrevealed, pushing grades
// would leak who authored which submission.
func (a Assignment) IdentitiesHidden() bool {
	return a.BlindMarking && !a.RevealIdentities
}
