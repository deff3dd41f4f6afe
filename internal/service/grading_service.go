package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/assignflow-api/internal/grading"
	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/plugin"
	"github.com/noah-isme/assignflow-api/internal/repository"
)

// GradeOptions is the payload for one grading pass over a student.
type GradeOptions struct {
	// Grade is the direct grade value. Ignored when an advanced grading
	// definition is active for the assignment.
	Grade *float64

	// AdvancedFill is the completed rubric, consumed only when an advanced
	// grading definition is active.
	AdvancedFill json.RawMessage

	// Feedback is offered to every enabled feedback plugin.
	Feedback plugin.FeedbackData

	// ApplyToAll copies the grade and feedback to every member of the
	// student's group on team assignments.
	ApplyToAll bool
}

// GradingService drives the marker side: applying grades and feedback,
// locking, extensions and revealing blind-marked identities.
type GradingService struct {
	grades      *GradeStore
	gradeRepo   repository.GradeRepository
	assignments repository.AssignmentRepository
	registry    *plugin.Registry
	rubrics     *grading.Service
	syncer      *GradebookSyncer
	groups      GroupDirectory
	caps        CapabilityChecker
	replay      *ReplayGuard
	activity    *ActivityRecorder
	logger      zerolog.Logger
	tracer      trace.Tracer

	// feedbackForGradebook selects which feedback plugin's text rides along
	// on gradebook pushes.
	feedbackForGradebook plugin.Type
}

// NewGradingService constructs the service.
func NewGradingService(
	grades *GradeStore,
	gradeRepo repository.GradeRepository,
	assignments repository.AssignmentRepository,
	registry *plugin.Registry,
	rubrics *grading.Service,
	syncer *GradebookSyncer,
	groups GroupDirectory,
	caps CapabilityChecker,
	replay *ReplayGuard,
	activity *ActivityRecorder,
	feedbackForGradebook plugin.Type,
	logger zerolog.Logger,
) *GradingService {
	return &GradingService{
		grades:               grades,
		gradeRepo:            gradeRepo,
		assignments:          assignments,
		registry:             registry,
		rubrics:              rubrics,
		syncer:               syncer,
		groups:               groups,
		caps:                 caps,
		replay:               replay,
		activity:             activity,
		feedbackForGradebook: feedbackForGradebook,
		logger:               logger.With().Str("component", "grading_service").Logger(),
		tracer:               otel.Tracer("github.com/noah-isme/assignflow-api/internal/service/grading"),
	}
}

// ApplyGrade grades one student. The value comes from the active advanced
// grading definition when one exists, otherwise from the direct value, which
// is validated against the assignment's grading type. Feedback runs through
// every enabled feedback plugin; a plugin failure aborts before the grade row
// is persisted. On team assignments ApplyToAll fans the result out to every
// group member as individual grade rows.
func (s *GradingService) ApplyGrade(ctx context.Context, scope *Scope, userID uint, opts GradeOptions) (models.Grade, SyncResult, error) {
	spanCtx, span := s.tracer.Start(ctx, "grading.apply", trace.WithAttributes(
		attribute.Int("assignment.id", int(scope.Assignment.ID)),
		attribute.Int("user.id", int(userID)),
		attribute.Bool("apply_to_all", opts.ApplyToAll),
	))
	defer span.End()

	if err := s.requireCapability(spanCtx, scope, CapabilityGrade); err != nil {
		return models.Grade{}, SyncResult{}, err
	}

	grade, _, err := s.grades.UserGrade(spanCtx, scope, userID, true)
	if err != nil {
		return models.Grade{}, SyncResult{}, err
	}

	value, err := s.resolveValue(spanCtx, scope, grade.ID, opts)
	if err != nil {
		span.RecordError(err)
		return models.Grade{}, SyncResult{}, err
	}

	grade.Grade = value
	grade.GraderID = scope.Actor.ID
	grade.Mailed = false

	if err := s.saveFeedback(spanCtx, scope, &grade, opts.Feedback); err != nil {
		span.RecordError(err)
		return models.Grade{}, SyncResult{}, err
	}
	if err := s.attachGradebookFeedback(spanCtx, &grade); err != nil {
		return models.Grade{}, SyncResult{}, err
	}

	if err := s.grades.Update(spanCtx, scope, &grade); err != nil {
		return models.Grade{}, SyncResult{}, err
	}

	result := s.syncer.PushGrade(spanCtx, scope, grade)

	if opts.ApplyToAll && scope.Assignment.TeamSubmission {
		fanout, err := s.applyToTeam(spanCtx, scope, userID, grade)
		if err != nil {
			return models.Grade{}, result, err
		}
		result.Merge(fanout)
	}

	s.activity.Record(spanCtx, scope, ActionGrade, "", map[string]interface{}{
		"grade_id":     grade.ID,
		"user_id":      userID,
		"apply_to_all": opts.ApplyToAll,
	})
	return grade, result, nil
}

// DisplayGrade renders the awarded grade for response payloads.
func (s *GradingService) DisplayGrade(ctx context.Context, scope *Scope, grade models.Grade) string {
	return s.grades.Display(ctx, scope, grade)
}

// SetLocked locks or unlocks one student's submission for editing.
func (s *GradingService) SetLocked(ctx context.Context, scope *Scope, userID uint, locked bool) (models.Grade, error) {
	if err := s.requireCapability(ctx, scope, CapabilityGrade); err != nil {
		return models.Grade{}, err
	}

	grade, _, err := s.grades.UserGrade(ctx, scope, userID, true)
	if err != nil {
		return models.Grade{}, err
	}
	if grade.Locked == locked {
		return grade, nil
	}

	grade.Locked = locked
	if err := s.grades.Update(ctx, scope, &grade); err != nil {
		return models.Grade{}, err
	}

	action := ActionUnlock
	if locked {
		action = ActionLock
	}
	s.activity.Record(ctx, scope, action, "", map[string]interface{}{"user_id": userID})
	return grade, nil
}

// GrantExtension moves one student's effective close time. A nil value
// clears a previously granted extension.
func (s *GradingService) GrantExtension(ctx context.Context, scope *Scope, userID uint, until *time.Time) (models.Grade, error) {
	if err := s.requireCapability(ctx, scope, CapabilityGrantExtension); err != nil {
		return models.Grade{}, err
	}

	grade, _, err := s.grades.UserGrade(ctx, scope, userID, true)
	if err != nil {
		return models.Grade{}, err
	}

	grade.ExtensionDueDate = until
	if err := s.grades.Update(ctx, scope, &grade); err != nil {
		return models.Grade{}, err
	}

	meta := map[string]interface{}{"user_id": userID}
	if until != nil {
		meta["until"] = until.UTC().Format(time.RFC3339)
	}
	s.activity.Record(ctx, scope, ActionGrantExtension, "", meta)
	return grade, nil
}

// RevealIdentities lifts blind marking for the assignment. The transition is
// one-way and guarded by a confirmation token; every grade withheld while
// identities were hidden is pushed to the gradebook in one pass. The returned
// counts cover that backfill.
func (s *GradingService) RevealIdentities(ctx context.Context, scope *Scope, token string) (models.Assignment, SyncResult, error) {
	spanCtx, span := s.tracer.Start(ctx, "grading.reveal_identities", trace.WithAttributes(
		attribute.Int("assignment.id", int(scope.Assignment.ID)),
	))
	defer span.End()

	if err := s.requireCapability(spanCtx, scope, CapabilityRevealIdentities); err != nil {
		return models.Assignment{}, SyncResult{}, err
	}
	if err := s.replay.Consume(spanCtx, "reveal", scope.Assignment.ID, scope.Actor.ID, token); err != nil {
		return models.Assignment{}, SyncResult{}, err
	}

	assignment := scope.Assignment
	if !assignment.BlindMarking || assignment.RevealIdentities {
		return assignment, SyncResult{}, nil
	}

	assignment.RevealIdentities = true
	if err := s.assignments.Update(spanCtx, &assignment); err != nil {
		return models.Assignment{}, SyncResult{}, err
	}

	// Backfill with the revealed assignment so the suppression is lifted.
	revealed := NewScope(assignment, scope.Actor)
	grades, err := s.gradeRepo.ListByAssignment(spanCtx, assignment.ID)
	if err != nil {
		return assignment, SyncResult{}, err
	}

	result := SyncResult{}
	for _, grade := range grades {
		if !grade.IsGraded() {
			continue
		}
		result.Merge(s.syncer.PushGrade(spanCtx, revealed, grade))
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Int("pushed", result.Pushed).
		Int("failed", result.Failed).
		Msg("identities revealed")
	s.activity.Record(spanCtx, revealed, ActionRevealIdentities, "", map[string]interface{}{
		"pushed": result.Pushed,
		"failed": result.Failed,
	})
	return assignment, result, nil
}

// IssueRevealToken mints the confirmation token for a later RevealIdentities.
func (s *GradingService) IssueRevealToken(ctx context.Context, scope *Scope) (string, error) {
	if err := s.requireCapability(ctx, scope, CapabilityRevealIdentities); err != nil {
		return "", err
	}
	return s.replay.Issue(ctx, "reveal", scope.Assignment.ID, scope.Actor.ID)
}

func (s *GradingService) resolveValue(ctx context.Context, scope *Scope, gradeID uint, opts GradeOptions) (*float64, error) {
	instance, active, err := s.rubrics.ActiveInstance(ctx, scope.Assignment.ID)
	if err != nil {
		return nil, err
	}
	if !active {
		if err := s.grades.Validate(ctx, scope, opts.Grade); err != nil {
			return nil, err
		}
		return opts.Grade, nil
	}

	if len(opts.AdvancedFill) == 0 {
		return nil, ErrInvalidGrade
	}
	value, err := instance.SubmitAndGetGrade(ctx, opts.AdvancedFill, gradeID, scope.Actor.ID, scope.Assignment.MaxGrade())
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (s *GradingService) saveFeedback(ctx context.Context, scope *Scope, grade *models.Grade, data plugin.FeedbackData) error {
	for _, p := range s.registry.FeedbackPlugins() {
		enabled, err := s.registry.IsEnabled(ctx, scope.Assignment.ID, p)
		if err != nil {
			return err
		}
		if !enabled {
			continue
		}
		if err := p.Save(ctx, grade, data); err != nil {
			s.logger.Error().Err(err).Str("plugin", p.Name()).Uint("grade_id", grade.ID).Msg("feedback plugin save failed")
			return ErrPluginFailure
		}
	}
	return nil
}

func (s *GradingService) attachGradebookFeedback(ctx context.Context, grade *models.Grade) error {
	p, ok := s.registry.FeedbackPluginByType(s.feedbackForGradebook)
	if !ok {
		return nil
	}
	text, format, err := p.TextForGradebook(ctx, *grade)
	if err != nil {
		return err
	}
	grade.FeedbackText = text
	grade.FeedbackFormat = format
	return nil
}

// applyToTeam copies the graded record to the other members of the student's
// group. Each member gets their own row; push failures are counted, member
// persistence failures abort.
func (s *GradingService) applyToTeam(ctx context.Context, scope *Scope, userID uint, source models.Grade) (SyncResult, error) {
	group, err := scope.SubmissionGroup(ctx, s.groups, userID)
	if err != nil {
		return SyncResult{}, err
	}
	if group == nil {
		return SyncResult{}, nil
	}

	members, err := scope.GroupMembers(ctx, s.groups, group.ID)
	if err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{}
	for _, memberID := range members {
		if memberID == userID {
			continue
		}
		member, _, err := s.grades.UserGrade(ctx, scope, memberID, true)
		if err != nil {
			return result, err
		}
		member.Grade = source.Grade
		member.GraderID = source.GraderID
		member.FeedbackText = source.FeedbackText
		member.FeedbackFormat = source.FeedbackFormat
		member.Mailed = false
		if err := s.grades.Update(ctx, scope, &member); err != nil {
			return result, err
		}
		result.Merge(s.syncer.PushGrade(ctx, scope, member))
	}
	return result, nil
}

func (s *GradingService) requireCapability(ctx context.Context, scope *Scope, capability string) error {
	allowed, err := s.caps.HasCapability(ctx, scope.Actor, capability)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrPermissionDenied
	}
	return nil
}
