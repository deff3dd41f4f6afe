package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/plugin"
	"github.com/noah-isme/assignflow-api/internal/service"
)

// GradeRequest is the apply-grade payload.
type GradeRequest struct {
	Grade                 *float64        `json:"grade"`
	AdvancedFill          json.RawMessage `json:"advanced_fill"`
	FeedbackComment       string          `json:"feedback_comment"`
	FeedbackCommentFormat string          `json:"feedback_comment_format"`
	ApplyToAll            bool            `json:"apply_to_all"`
}

// Options converts the request into the service payload.
func (r GradeRequest) Options() service.GradeOptions {
	return service.GradeOptions{
		Grade:        r.Grade,
		AdvancedFill: r.AdvancedFill,
		Feedback: plugin.FeedbackData{
			Comment:       r.FeedbackComment,
			CommentFormat: r.FeedbackCommentFormat,
		},
		ApplyToAll: r.ApplyToAll,
	}
}

// LockRequest sets the per-user editing lock.
type LockRequest struct {
	Locked bool `json:"locked"`
}

// ExtensionRequest grants or clears a per-user extension.
type ExtensionRequest struct {
	Until *time.Time `json:"until"`
}

// RevealRequest confirms the one-way identity reveal.
type RevealRequest struct {
	Token string `json:"token"`
}

// RubricRequest stores an advanced grading definition.
type RubricRequest struct {
	Definition json.RawMessage `json:"definition"`
	Active     bool            `json:"active"`
}

// GradeResponse is the outward grade shape.
type GradeResponse struct {
	ID               uint       `json:"id"`
	AssignmentID     uint       `json:"assignment_id"`
	UserID           uint       `json:"user_id"`
	Grade            *float64   `json:"grade"`
	GradeDisplay     string     `json:"grade_display,omitempty"`
	GraderID         uint       `json:"grader_id"`
	Locked           bool       `json:"locked"`
	ExtensionDueDate *time.Time `json:"extension_due_date"`
	FeedbackText     string     `json:"feedback_text"`
	FeedbackFormat   string     `json:"feedback_format"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewGradeResponse maps a model to the response shape.
func NewGradeResponse(grade models.Grade) GradeResponse {
	return GradeResponse{
		ID:               grade.ID,
		AssignmentID:     grade.AssignmentID,
		UserID:           grade.UserID,
		Grade:            grade.Grade,
		GraderID:         grade.GraderID,
		Locked:           grade.Locked,
		ExtensionDueDate: grade.ExtensionDueDate,
		FeedbackText:     grade.FeedbackText,
		FeedbackFormat:   grade.FeedbackFormat,
		CreatedAt:        grade.CreatedAt,
		UpdatedAt:        grade.UpdatedAt,
	}
}

// SyncResultResponse reports gradebook push accounting.
type SyncResultResponse struct {
	Pushed int `json:"pushed"`
	Failed int `json:"failed"`
}

// NewSyncResultResponse maps the service counts.
func NewSyncResultResponse(result service.SyncResult) SyncResultResponse {
	return SyncResultResponse{Pushed: result.Pushed, Failed: result.Failed}
}

// ParticipantResponse pairs a pseudonymous participant id with its user.
type ParticipantResponse struct {
	ParticipantID uint `json:"participant_id"`
	UserID        uint `json:"user_id"`
}
