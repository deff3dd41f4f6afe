package dto

import (
	"time"

	"github.com/noah-isme/assignflow-api/internal/models"
)

// SaveSubmissionRequest carries the non-file submission fields; uploaded
// files arrive as multipart parts alongside it.
type SaveSubmissionRequest struct {
	OnlineText       string `json:"online_text"`
	OnlineTextFormat string `json:"online_text_format"`
	// AcceptStatement confirms the submission statement when the assignment
	// requires one.
	AcceptStatement bool `json:"accept_statement"`
}

// SubmitRequest confirms the draft-to-submitted transition.
type SubmitRequest struct {
	Token           string `json:"token"`
	AcceptStatement bool   `json:"accept_statement"`
}

// SubmissionResponse is the outward submission shape.
type SubmissionResponse struct {
	ID           uint      `json:"id"`
	AssignmentID uint      `json:"assignment_id"`
	UserID       uint      `json:"user_id"`
	GroupID      uint      `json:"group_id"`
	Status       string    `json:"status"`
	TeamRecord   bool      `json:"team_record"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewSubmissionResponse maps a model to the response shape.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:           submission.ID,
		AssignmentID: submission.AssignmentID,
		UserID:       submission.UserID,
		GroupID:      submission.GroupID,
		Status:       submission.Status,
		TeamRecord:   submission.IsTeamRecord(),
		CreatedAt:    submission.CreatedAt,
		UpdatedAt:    submission.UpdatedAt,
	}
}

// TokenResponse wraps an issued confirmation token.
type TokenResponse struct {
	Token string `json:"token"`
}
