package dto

import (
	"time"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/service"
)

// PluginSettingRequest configures one plugin on an assignment.
type PluginSettingRequest struct {
	Subtype  string                 `json:"subtype"`
	Type     string                 `json:"type"`
	Enabled  bool                   `json:"enabled"`
	Settings map[string]interface{} `json:"settings"`
}

// AssignmentRequest is the create/update payload.
type AssignmentRequest struct {
	CourseID       uint   `json:"course_id"`
	CourseModuleID uint   `json:"course_module_id"`
	Name           string `json:"name"`
	Intro          string `json:"intro"`
	Grade          int    `json:"grade"`

	AllowFrom  *time.Time `json:"allow_from"`
	DueDate    *time.Time `json:"due_date"`
	CutoffDate *time.Time `json:"cutoff_date"`

	SubmissionDrafts            bool `json:"submission_drafts"`
	PreventLateSubmissions      bool `json:"prevent_late_submissions"`
	RequireSubmissionStatement  bool `json:"require_submission_statement"`
	SendNotifications           bool `json:"send_notifications"`
	SendLateNotifications       bool `json:"send_late_notifications"`
	TeamSubmission              bool `json:"team_submission"`
	RequireAllTeamMembersSubmit bool `json:"require_all_team_members_submit"`
	TeamGroupingID              uint `json:"team_grouping_id"`
	BlindMarking                bool `json:"blind_marking"`

	PluginSettings []PluginSettingRequest `json:"plugin_settings"`
}

// Params converts the request into the service payload.
func (r AssignmentRequest) Params() service.AssignmentParams {
	settings := make([]service.PluginSetting, 0, len(r.PluginSettings))
	for _, s := range r.PluginSettings {
		settings = append(settings, service.PluginSetting{
			Subtype:  s.Subtype,
			Type:     s.Type,
			Enabled:  s.Enabled,
			Settings: s.Settings,
		})
	}

	return service.AssignmentParams{
		CourseID:                    r.CourseID,
		CourseModuleID:              r.CourseModuleID,
		Name:                        r.Name,
		Intro:                       r.Intro,
		Grade:                       r.Grade,
		AllowFrom:                   r.AllowFrom,
		DueDate:                     r.DueDate,
		CutoffDate:                  r.CutoffDate,
		SubmissionDrafts:            r.SubmissionDrafts,
		PreventLateSubmissions:      r.PreventLateSubmissions,
		RequireSubmissionStatement:  r.RequireSubmissionStatement,
		SendNotifications:           r.SendNotifications,
		SendLateNotifications:       r.SendLateNotifications,
		TeamSubmission:              r.TeamSubmission,
		RequireAllTeamMembersSubmit: r.RequireAllTeamMembersSubmit,
		TeamGroupingID:              r.TeamGroupingID,
		BlindMarking:                r.BlindMarking,
		PluginSettings:              settings,
	}
}

// AssignmentResponse is the outward assignment shape.
type AssignmentResponse struct {
	ID             uint       `json:"id"`
	CourseID       uint       `json:"course_id"`
	CourseModuleID uint       `json:"course_module_id"`
	Name           string     `json:"name"`
	Intro          string     `json:"intro"`
	Grade          int        `json:"grade"`
	GradingType    string     `json:"grading_type"`
	AllowFrom      *time.Time `json:"allow_from"`
	DueDate        *time.Time `json:"due_date"`
	CutoffDate     *time.Time `json:"cutoff_date"`

	SubmissionDrafts            bool `json:"submission_drafts"`
	PreventLateSubmissions      bool `json:"prevent_late_submissions"`
	RequireSubmissionStatement  bool `json:"require_submission_statement"`
	SendNotifications           bool `json:"send_notifications"`
	SendLateNotifications       bool `json:"send_late_notifications"`
	TeamSubmission              bool `json:"team_submission"`
	RequireAllTeamMembersSubmit bool `json:"require_all_team_members_submit"`
	TeamGroupingID              uint `json:"team_grouping_id"`
	BlindMarking                bool `json:"blind_marking"`
	RevealIdentities            bool `json:"reveal_identities"`
	NoSubmissions               bool `json:"no_submissions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func gradingTypeName(t models.GradingType) string {
	switch t {
	case models.GradingTypeValue:
		return "value"
	case models.GradingTypeScale:
		return "scale"
	default:
		return "text"
	}
}

// NewAssignmentResponse maps a model to the response shape.
func NewAssignmentResponse(assignment models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:                          assignment.ID,
		CourseID:                    assignment.CourseID,
		CourseModuleID:              assignment.CourseModuleID,
		Name:                        assignment.Name,
		Intro:                       assignment.Intro,
		Grade:                       assignment.Grade,
		GradingType:                 gradingTypeName(assignment.GradingType()),
		AllowFrom:                   assignment.AllowFrom,
		DueDate:                     assignment.DueDate,
		CutoffDate:                  assignment.CutoffDate,
		SubmissionDrafts:            assignment.SubmissionDrafts,
		PreventLateSubmissions:      assignment.PreventLateSubmissions,
		RequireSubmissionStatement:  assignment.RequireSubmissionStatement,
		SendNotifications:           assignment.SendNotifications,
		SendLateNotifications:       assignment.SendLateNotifications,
		TeamSubmission:              assignment.TeamSubmission,
		RequireAllTeamMembersSubmit: assignment.RequireAllTeamMembersSubmit,
		TeamGroupingID:              assignment.TeamGroupingID,
		BlindMarking:                assignment.BlindMarking,
		RevealIdentities:            assignment.RevealIdentities,
		NoSubmissions:               assignment.NoSubmissions,
		CreatedAt:                   assignment.CreatedAt,
		UpdatedAt:                   assignment.UpdatedAt,
	}
}

// NewAssignmentResponseSlice maps a list of assignments.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	result := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		result = append(result, NewAssignmentResponse(assignment))
	}
	return result
}
