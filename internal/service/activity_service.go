package service

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/repository"
)

// Audit trail action names.
const (
	ActionSaveSubmission   = "save_submission"
	ActionSubmit           = "submit_for_grading"
	ActionRevertToDraft    = "revert_to_draft"
	ActionGrade            = "grade"
	ActionLock             = "lock"
	ActionUnlock           = "unlock"
	ActionGrantExtension   = "grant_extension"
	ActionRevealIdentities = "reveal_identities"
)

// ActivityRecorder writes the audit trail. Recording is best-effort; a failed
// write is logged and never fails the operation being audited.
type ActivityRecorder struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

// NewActivityRecorder constructs the recorder.
func NewActivityRecorder(repo repository.ActivityLogRepository, logger zerolog.Logger) *ActivityRecorder {
	return &ActivityRecorder{
		repo:   repo,
		logger: logger.With().Str("component", "activity_recorder").Logger(),
	}
}

// Record stores one audit event.
func (r *ActivityRecorder) Record(ctx context.Context, scope *Scope, action, detail string, metadata map[string]interface{}) {
	entry := models.ActivityLog{
		ActorID:      scope.Actor.ID,
		AssignmentID: scope.Assignment.ID,
		Action:       action,
		Detail:       detail,
		Metadata:     datatypes.JSONMap(metadata),
	}
	if err := r.repo.Create(ctx, &entry); err != nil {
		r.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

// List exposes the audit trail with filtering and pagination.
func (r *ActivityRecorder) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return r.repo.List(ctx, filter)
}
