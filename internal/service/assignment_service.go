package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/plugin"
	"github.com/noah-isme/assignflow-api/internal/repository"
	"github.com/noah-isme/assignflow-api/pkg/filestore"
)

// PluginSetting is one plugin's per-assignment configuration.
type PluginSetting struct {
	Subtype  string                 `json:"subtype" validate:"required,oneof=submission feedback"`
	Type     string                 `json:"type" validate:"required"`
	Enabled  bool                   `json:"enabled"`
	Settings map[string]interface{} `json:"settings"`
}

// AssignmentParams is the create/update payload.
type AssignmentParams struct {
	CourseID       uint   `json:"course_id" validate:"required"`
	CourseModuleID uint   `json:"course_module_id" validate:"required"`
	Name           string `json:"name" validate:"required,max=255"`
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

	PluginSettings []PluginSetting `json:"plugin_settings" validate:"dive"`
}

// AssignmentService owns assignment configuration and its full teardown.
type AssignmentService struct {
	assignments repository.AssignmentRepository
	configs     repository.PluginConfigRepository
	submissions repository.SubmissionRepository
	grades      repository.GradeRepository
	registry    *plugin.Registry
	files       filestore.Store
	syncer      *GradebookSyncer
	activity    *ActivityRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(
	assignments repository.AssignmentRepository,
	configs repository.PluginConfigRepository,
	submissions repository.SubmissionRepository,
	grades repository.GradeRepository,
	registry *plugin.Registry,
	files filestore.Store,
	syncer *GradebookSyncer,
	activity *ActivityRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		configs:     configs,
		submissions: submissions,
		grades:      grades,
		registry:    registry,
		files:       files,
		syncer:      syncer,
		activity:    activity,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

// Get fetches one assignment.
func (s *AssignmentService) Get(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}

// List enumerates the assignments of a course.
func (s *AssignmentService) List(ctx context.Context, courseID uint) ([]models.Assignment, error) {
	return s.assignments.List(ctx, courseID)
}

// Create stores a new assignment, persists its plugin configuration and
// registers the corresponding gradebook item.
func (s *AssignmentService) Create(ctx context.Context, actor Actor, params AssignmentParams) (models.Assignment, error) {
	if err := s.validator.Struct(params); err != nil {
		return models.Assignment{}, err
	}

	assignment := s.apply(models.Assignment{}, params)
	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return models.Assignment{}, err
	}

	if err := s.saveConfiguration(ctx, &assignment, params.PluginSettings); err != nil {
		return models.Assignment{}, err
	}
	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return models.Assignment{}, err
	}

	if err := s.syncer.PushItem(ctx, assignment, false); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", assignment.ID).Msg("gradebook item registration failed")
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Str("name", assignment.Name).Msg("assignment created")
	s.activity.Record(ctx, NewScope(assignment, actor), "create_assignment", assignment.Name, nil)
	return assignment, nil
}

// Update reconfigures an existing assignment. Blind marking cannot be turned
// back on once identities have been revealed.
func (s *AssignmentService) Update(ctx context.Context, actor Actor, id uint, params AssignmentParams) (models.Assignment, error) {
	if err := s.validator.Struct(params); err != nil {
		return models.Assignment{}, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return models.Assignment{}, err
	}

	assignment := s.apply(existing, params)
	if existing.RevealIdentities {
		assignment.BlindMarking = existing.BlindMarking
		assignment.RevealIdentities = true
	}

	if err := s.saveConfiguration(ctx, &assignment, params.PluginSettings); err != nil {
		return models.Assignment{}, err
	}
	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return models.Assignment{}, err
	}

	if err := s.syncer.PushItem(ctx, assignment, false); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", assignment.ID).Msg("gradebook item update failed")
	}
	s.activity.Record(ctx, NewScope(assignment, actor), "update_assignment", assignment.Name, nil)
	return assignment, nil
}

// Delete tears the assignment down: plugin configuration, submissions, grades
// and stored files go, and the gradebook item is reset.
func (s *AssignmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	assignment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.configs.DeleteByAssignment(ctx, id); err != nil {
		return err
	}
	if err := s.submissions.DeleteByAssignment(ctx, id); err != nil {
		return err
	}
	if err := s.grades.DeleteByAssignment(ctx, id); err != nil {
		return err
	}
	if err := s.files.DeleteAreas(ctx, id); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", id).Msg("file area cleanup failed")
	}
	if err := s.syncer.PushItem(ctx, assignment, true); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", id).Msg("gradebook item reset failed")
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	s.activity.Record(ctx, NewScope(assignment, actor), "delete_assignment", assignment.Name, nil)
	return nil
}

func (s *AssignmentService) apply(assignment models.Assignment, params AssignmentParams) models.Assignment {
	assignment.CourseID = params.CourseID
	assignment.CourseModuleID = params.CourseModuleID
	assignment.Name = params.Name
	assignment.Intro = params.Intro
	assignment.Grade = params.Grade
	assignment.AllowFrom = params.AllowFrom
	assignment.DueDate = params.DueDate
	assignment.CutoffDate = params.CutoffDate
	assignment.SubmissionDrafts = params.SubmissionDrafts
	assignment.PreventLateSubmissions = params.PreventLateSubmissions
	assignment.RequireSubmissionStatement = params.RequireSubmissionStatement
	assignment.SendNotifications = params.SendNotifications
	assignment.SendLateNotifications = params.SendLateNotifications
	assignment.TeamSubmission = params.TeamSubmission
	assignment.RequireAllTeamMembersSubmit = params.RequireAllTeamMembersSubmit
	assignment.TeamGroupingID = params.TeamGroupingID
	assignment.BlindMarking = params.BlindMarking
	return assignment
}

// saveConfiguration upserts the plugin rows and recomputes whether the
// assignment accepts submissions at all.
func (s *AssignmentService) saveConfiguration(ctx context.Context, assignment *models.Assignment, settings []PluginSetting) error {
	for _, setting := range settings {
		config := models.PluginConfig{
			AssignmentID: assignment.ID,
			Subtype:      setting.Subtype,
			Type:         setting.Type,
			Enabled:      setting.Enabled,
			Settings:     datatypes.JSONMap(setting.Settings),
		}
		if err := s.configs.Upsert(ctx, &config); err != nil {
			return err
		}
	}

	anyEnabled, err := s.registry.AnySubmissionPluginEnabled(ctx, assignment.ID)
	if err != nil {
		return err
	}
	assignment.NoSubmissions = !anyEnabled
	return nil
}
