package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/observability"
)

// SyncResult accounts for a best-effort gradebook push. The primary workflow
// never fails on sink errors; callers surface the counts instead.
type SyncResult struct {
	Pushed int
	Failed int
}

// Merge folds another result into this one.
func (r *SyncResult) Merge(other SyncResult) {
	r.Pushed += other.Pushed
	r.Failed += other.Failed
}

// GradebookSyncer translates domain state into idempotent sink upserts.
//
// It owns two invariants: blind-marking assignments push nothing while
// identities are unrevealed, and team-level submissions fan out to one upsert
// per member as an explicit iteration with per-member accounting.
type GradebookSyncer struct {
	sink   GradebookSink
	groups GroupDirectory
	logger zerolog.Logger
}

// NewGradebookSyncer constructs the syncer.
func NewGradebookSyncer(sink GradebookSink, groups GroupDirectory, logger zerolog.Logger) *GradebookSyncer {
	return &GradebookSyncer{
		sink:   sink,
		groups: groups,
		logger: logger.With().Str("component", "gradebook_syncer").Logger(),
	}
}

// Item builds the gradebook item definition for the assignment.
func (s *GradebookSyncer) Item(assignment models.Assignment) GradebookItem {
	return GradebookItem{
		CourseID:     assignment.CourseID,
		AssignmentID: assignment.ID,
		ItemName:     assignment.Name,
		IDNumber:     assignment.CourseModuleID,
		GradeType:    assignment.GradingType(),
		MaxGrade:     assignment.MaxGrade(),
		ScaleID:      assignment.ScaleID(),
	}
}

// PushItem upserts the bare item definition, optionally as a reset.
func (s *GradebookSyncer) PushItem(ctx context.Context, assignment models.Assignment, reset bool) error {
	item := s.Item(assignment)
	item.Reset = reset
	return s.sink.Upsert(ctx, item, nil)
}

// PushSubmission mirrors a submission-state change into the gradebook. A team
// record expands to one command per member resolved up front; each command is
// executed independently and failures only affect the accounting.
func (s *GradebookSyncer) PushSubmission(ctx context.Context, scope *Scope, submission models.Submission) SyncResult {
	if scope.Assignment.IdentitiesHidden() {
		return SyncResult{}
	}

	targets := []uint{submission.UserID}
	if submission.IsTeamRecord() {
		members, err := scope.GroupMembers(ctx, s.groups, submission.GroupID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("group_id", submission.GroupID).Msg("failed to resolve team for gradebook push")
			return SyncResult{Failed: 1}
		}
		targets = members
	}

	result := SyncResult{}
	submitted := submission.UpdatedAt
	for _, userID := range targets {
		grade := GradebookGrade{
			UserID:        userID,
			UserModified:  userID,
			DateSubmitted: &submitted,
		}
		result.Merge(s.push(ctx, scope, &grade))
	}
	return result
}

// PushGrade mirrors one grade record into the gradebook.
func (s *GradebookSyncer) PushGrade(ctx context.Context, scope *Scope, grade models.Grade) SyncResult {
	if scope.Assignment.IdentitiesHidden() {
		return SyncResult{}
	}

	graded := grade.UpdatedAt
	row := GradebookGrade{
		UserID:         grade.UserID,
		RawGrade:       grade.Grade,
		UserModified:   grade.GraderID,
		DateGraded:     &graded,
		FeedbackText:   grade.FeedbackText,
		FeedbackFormat: grade.FeedbackFormat,
	}
	return s.push(ctx, scope, &row)
}

func (s *GradebookSyncer) push(ctx context.Context, scope *Scope, grade *GradebookGrade) SyncResult {
	start := time.Now()
	err := s.sink.Upsert(ctx, s.Item(scope.Assignment), grade)
	observability.GradebookPushDuration().Observe(time.Since(start).Seconds())

	if err != nil {
		observability.GradebookPushes().WithLabelValues("failure").Inc()
		s.logger.Warn().Err(err).
			Uint("assignment_id", scope.Assignment.ID).
			Uint("user_id", grade.UserID).
			Msg("gradebook push failed")
		return SyncResult{Failed: 1}
	}

	observability.GradebookPushes().WithLabelValues("success").Inc()
	return SyncResult{Pushed: 1}
}
