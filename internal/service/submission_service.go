package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/observability"
	"github.com/noah-isme/assignflow-api/internal/plugin"
)

// SubmissionService drives the student side of the lifecycle: editing
// submission content through the enabled plugins and the draft-to-submitted
// transition.
type SubmissionService struct {
	submissions *SubmissionStore
	grades      *GradeStore
	team        *TeamService
	windows     *WindowPolicy
	registry    *plugin.Registry
	syncer      *GradebookSyncer
	notifier    Notifier
	caps        CapabilityChecker
	replay      *ReplayGuard
	activity    *ActivityRecorder
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewSubmissionService constructs the service.
func NewSubmissionService(
	submissions *SubmissionStore,
	grades *GradeStore,
	team *TeamService,
	windows *WindowPolicy,
	registry *plugin.Registry,
	syncer *GradebookSyncer,
	notifier Notifier,
	caps CapabilityChecker,
	replay *ReplayGuard,
	activity *ActivityRecorder,
	logger zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		grades:      grades,
		team:        team,
		windows:     windows,
		registry:    registry,
		syncer:      syncer,
		notifier:    notifier,
		caps:        caps,
		replay:      replay,
		activity:    activity,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/assignflow-api/internal/service/submission"),
	}
}

// SaveSubmission writes the actor's submission content through every enabled
// submission plugin. When drafts are disabled the save doubles as the submit:
// the record transitions to submitted and the receipt and grader notices go
// out. With drafts enabled the record stays a draft and nothing is announced.
func (s *SubmissionService) SaveSubmission(ctx context.Context, scope *Scope, data plugin.SubmissionData) (models.Submission, error) {
	spanCtx, span := s.tracer.Start(ctx, "submission.save", trace.WithAttributes(
		attribute.Int("assignment.id", int(scope.Assignment.ID)),
		attribute.Int("actor.id", int(scope.Actor.ID)),
	))
	defer span.End()

	if err := s.requireCapability(spanCtx, scope, CapabilitySubmit); err != nil {
		return models.Submission{}, err
	}

	open, err := s.windows.SubmissionsOpen(spanCtx, scope, scope.Actor.ID, false)
	if err != nil {
		return models.Submission{}, err
	}
	if !open {
		return models.Submission{}, ErrSubmissionsClosed
	}

	anyEnabled, err := scope.AnySubmissionPluginEnabled(spanCtx, s.registry)
	if err != nil {
		return models.Submission{}, err
	}
	if !anyEnabled || scope.Assignment.NoSubmissions {
		return models.Submission{}, ErrSubmissionsClosed
	}

	submission, _, err := s.editableSubmission(spanCtx, scope, true)
	if err != nil {
		return models.Submission{}, err
	}

	if err := s.savePlugins(spanCtx, scope, &submission, data); err != nil {
		span.RecordError(err)
		return models.Submission{}, err
	}

	if err := s.submissions.Update(spanCtx, &submission, true); err != nil {
		return models.Submission{}, err
	}

	event := "save_draft"
	if !scope.Assignment.SubmissionDrafts {
		event = "save_submit"
		submission, err = s.markSubmitted(spanCtx, scope, submission)
		if err != nil {
			return models.Submission{}, err
		}
		s.announceSubmitted(spanCtx, scope, submission)
	}

	observability.SubmissionEvents().WithLabelValues(event).Inc()
	s.activity.Record(spanCtx, scope, ActionSaveSubmission, s.describeSubmission(spanCtx, scope, submission), map[string]interface{}{
		"submission_id": submission.ID,
		"status":        submission.Status,
	})
	return submission, nil
}

// SubmitForGrading finalizes the actor's draft. The confirmation token makes
// the transition single-shot; submitting an already-submitted record is a
// no-op rather than an error, so retries after a lost response are safe.
func (s *SubmissionService) SubmitForGrading(ctx context.Context, scope *Scope, token string) (models.Submission, error) {
	spanCtx, span := s.tracer.Start(ctx, "submission.submit", trace.WithAttributes(
		attribute.Int("assignment.id", int(scope.Assignment.ID)),
		attribute.Int("actor.id", int(scope.Actor.ID)),
	))
	defer span.End()

	if err := s.requireCapability(spanCtx, scope, CapabilitySubmit); err != nil {
		return models.Submission{}, err
	}
	if err := s.replay.Consume(spanCtx, "submit", scope.Assignment.ID, scope.Actor.ID, token); err != nil {
		return models.Submission{}, err
	}

	submission, found, err := s.editableSubmission(spanCtx, scope, false)
	if err != nil {
		return models.Submission{}, err
	}
	if found && submission.IsSubmitted() {
		return submission, nil
	}

	open, err := s.windows.SubmissionsOpen(spanCtx, scope, scope.Actor.ID, false)
	if err != nil {
		return models.Submission{}, err
	}
	if !open {
		return models.Submission{}, ErrSubmissionsClosed
	}

	submission, _, err = s.editableSubmission(spanCtx, scope, true)
	if err != nil {
		return models.Submission{}, err
	}

	empty, err := s.submissionEmpty(spanCtx, scope, submission)
	if err != nil {
		return models.Submission{}, err
	}
	if empty {
		return models.Submission{}, ErrSubmissionEmpty
	}

	submission, err = s.markSubmitted(spanCtx, scope, submission)
	if err != nil {
		return models.Submission{}, err
	}

	// The grading record exists from the moment a submission is final.
	if _, _, err := s.grades.UserGrade(spanCtx, scope, scope.Actor.ID, true); err != nil {
		return models.Submission{}, err
	}

	s.announceSubmitted(spanCtx, scope, submission)

	observability.SubmissionEvents().WithLabelValues("submit").Inc()
	s.activity.Record(spanCtx, scope, ActionSubmit, s.describeSubmission(spanCtx, scope, submission), map[string]interface{}{
		"submission_id": submission.ID,
	})
	return submission, nil
}

// RevertToDraft reopens a submitted record for editing. Grader-only.
func (s *SubmissionService) RevertToDraft(ctx context.Context, scope *Scope, userID uint) (models.Submission, error) {
	if err := s.requireCapability(ctx, scope, CapabilityGrade); err != nil {
		return models.Submission{}, err
	}

	var (
		submission models.Submission
		found      bool
		err        error
	)
	if scope.Assignment.TeamSubmission {
		submission, err = s.team.UpdateTeamSubmission(ctx, scope, userID, false)
		if err != nil {
			return models.Submission{}, err
		}
	} else {
		submission, found, err = s.submissions.UserSubmission(ctx, scope, userID, false)
		if err != nil {
			return models.Submission{}, err
		}
		if !found {
			return models.Submission{}, ErrSubmissionNotFound
		}
		submission.Status = models.SubmissionStatusDraft
		if err := s.submissions.Update(ctx, &submission, true); err != nil {
			return models.Submission{}, err
		}
	}

	// The grade value stays, but the grader/modified stamp records who
	// reopened the work.
	if grade, gradeFound, gradeErr := s.grades.UserGrade(ctx, scope, userID, false); gradeErr != nil {
		s.logger.Warn().Err(gradeErr).Uint("user_id", userID).Msg("grade stamp lookup failed on revert")
	} else if gradeFound {
		grade.GraderID = scope.Actor.ID
		if err := s.grades.Update(ctx, scope, &grade); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", userID).Msg("grade stamp update failed on revert")
		}
	}

	result := s.syncer.PushSubmission(ctx, scope, submission)
	s.logPushes(scope, result)

	observability.SubmissionEvents().WithLabelValues("revert_to_draft").Inc()
	s.activity.Record(ctx, scope, ActionRevertToDraft, "", map[string]interface{}{
		"submission_id": submission.ID,
		"user_id":       userID,
	})
	return submission, nil
}

// IssueSubmitToken mints the confirmation token for a later SubmitForGrading.
func (s *SubmissionService) IssueSubmitToken(ctx context.Context, scope *Scope) (string, error) {
	if err := s.requireCapability(ctx, scope, CapabilitySubmit); err != nil {
		return "", err
	}
	return s.replay.Issue(ctx, "submit", scope.Assignment.ID, scope.Actor.ID)
}

func (s *SubmissionService) editableSubmission(ctx context.Context, scope *Scope, create bool) (models.Submission, bool, error) {
	if scope.Assignment.TeamSubmission {
		return s.submissions.GroupSubmission(ctx, scope, scope.Actor.ID, 0, create)
	}
	return s.submissions.UserSubmission(ctx, scope, scope.Actor.ID, create)
}

func (s *SubmissionService) savePlugins(ctx context.Context, scope *Scope, submission *models.Submission, data plugin.SubmissionData) error {
	for _, p := range s.registry.SubmissionPlugins() {
		enabled, err := s.registry.IsEnabled(ctx, scope.Assignment.ID, p)
		if err != nil {
			return err
		}
		if !enabled {
			continue
		}
		if err := p.Save(ctx, submission, data); err != nil {
			s.logger.Error().Err(err).Str("plugin", p.Name()).Uint("submission_id", submission.ID).Msg("submission plugin save failed")
			return ErrPluginFailure
		}
	}
	return nil
}

func (s *SubmissionService) submissionEmpty(ctx context.Context, scope *Scope, submission models.Submission) (bool, error) {
	for _, p := range s.registry.SubmissionPlugins() {
		enabled, err := s.registry.IsEnabled(ctx, scope.Assignment.ID, p)
		if err != nil {
			return false, err
		}
		if !enabled {
			continue
		}
		empty, err := p.IsEmpty(ctx, submission)
		if err != nil {
			return false, err
		}
		if !empty {
			return false, nil
		}
	}
	return true, nil
}

func (s *SubmissionService) markSubmitted(ctx context.Context, scope *Scope, submission models.Submission) (models.Submission, error) {
	if scope.Assignment.TeamSubmission {
		return s.team.UpdateTeamSubmission(ctx, scope, scope.Actor.ID, true)
	}

	submission.Status = models.SubmissionStatusSubmitted
	if err := s.submissions.Update(ctx, &submission, true); err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (s *SubmissionService) announceSubmitted(ctx context.Context, scope *Scope, submission models.Submission) {
	result := s.syncer.PushSubmission(ctx, scope, submission)
	s.logPushes(scope, result)

	var teamMembers []uint
	if submission.IsTeamRecord() {
		members, err := scope.GroupMembers(ctx, s.windows.groups, submission.GroupID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("group_id", submission.GroupID).Msg("failed to resolve team for receipts")
		} else {
			teamMembers = members
		}
	}

	s.notifier.NotifySubmissionReceipt(ctx, scope, scope.Actor.ID, teamMembers)
	s.notifier.NotifyGraders(ctx, scope, scope.Actor.ID)
}

func (s *SubmissionService) describeSubmission(ctx context.Context, scope *Scope, submission models.Submission) string {
	var parts []string
	for _, p := range s.registry.SubmissionPlugins() {
		enabled, err := s.registry.IsEnabled(ctx, scope.Assignment.ID, p)
		if err != nil || !enabled {
			continue
		}
		if summary := p.FormatForLog(ctx, submission); summary != "" {
			parts = append(parts, summary)
		}
	}
	return strings.Join(parts, "; ")
}

func (s *SubmissionService) logPushes(scope *Scope, result SyncResult) {
	if result.Failed > 0 {
		s.logger.Warn().
			Uint("assignment_id", scope.Assignment.ID).
			Int("pushed", result.Pushed).
			Int("failed", result.Failed).
			Msg("gradebook sync incomplete")
	}
}

func (s *SubmissionService) requireCapability(ctx context.Context, scope *Scope, capability string) error {
	allowed, err := s.caps.HasCapability(ctx, scope.Actor, capability)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrPermissionDenied
	}
	return nil
}
