package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/assignflow-api/internal/models"
)

// WindowPolicy decides whether a user may currently edit their submission.
type WindowPolicy struct {
	submissions *SubmissionStore
	grades      *GradeStore
	groups      GroupDirectory
	sink        GradebookSink
	now         func() time.Time
	logger      zerolog.Logger
}

// NewWindowPolicy constructs the policy.
func NewWindowPolicy(submissions *SubmissionStore, grades *GradeStore, groups GroupDirectory, sink GradebookSink, logger zerolog.Logger) *WindowPolicy {
	return &WindowPolicy{
		submissions: submissions,
		grades:      grades,
		groups:      groups,
		sink:        sink,
		now:         time.Now,
		logger:      logger.With().Str("component", "window_policy").Logger(),
	}
}

// SubmissionsOpen runs the full chain of access checks for a user. Every
// check must pass:
//
//  1. the current time is inside the open/close window, where the close time
//     is a granted extension when one is set, else the cutoff date (or the
//     due date when late submissions are blocked);
//  2. the user is enrolled in the course, unless skipEnrolled;
//  3. when draft tracking is enabled, an already-submitted record cannot be
//     reopened for editing (the confirm-submit action itself stays
//     reachable, it is a no-op there);
//  4. the user's grading record is not locked;
//  5. grading is not disabled for the user in the external gradebook.
func (p *WindowPolicy) SubmissionsOpen(ctx context.Context, scope *Scope, userID uint, skipEnrolled bool) (bool, error) {
	grade, hasGrade, err := p.grades.UserGrade(ctx, scope, userID, false)
	if err != nil {
		return false, err
	}

	if !p.windowOpen(scope, grade, hasGrade) {
		return false, nil
	}

	if !skipEnrolled {
		enrolled, err := p.groups.IsEnrolled(ctx, scope.Assignment.CourseID, userID)
		if err != nil {
			return false, err
		}
		if !enrolled {
			return false, nil
		}
	}

	submission, found, err := p.currentSubmission(ctx, scope, userID)
	if err != nil {
		return false, err
	}
	if found && submission.IsSubmitted() && scope.Assignment.SubmissionDrafts {
		return false, nil
	}

	if hasGrade && grade.Locked {
		return false, nil
	}

	disabled, err := p.sink.GradingDisabled(ctx, scope.Assignment.CourseID, scope.Assignment.ID, userID)
	if err != nil {
		p.logger.Warn().Err(err).Uint("user_id", userID).Msg("gradebook lock lookup failed, treating submissions as closed")
		return false, nil
	}
	if disabled {
		return false, nil
	}

	return true, nil
}

// windowOpen evaluates the pure time checks.
func (p *WindowPolicy) windowOpen(scope *Scope, grade models.Grade, hasGrade bool) bool {
	now := p.now()
	assignment := scope.Assignment

	if assignment.AllowFrom != nil && now.Before(*assignment.AllowFrom) {
		return false
	}

	// A granted extension replaces the user's close time outright, so it
	// can narrow the window as well as widen it.
	if hasGrade && grade.ExtensionDueDate != nil {
		return !now.After(*grade.ExtensionDueDate)
	}

	finalDate := assignment.CutoffDate
	if assignment.PreventLateSubmissions && assignment.DueDate != nil {
		if finalDate == nil || assignment.DueDate.Before(*finalDate) {
			finalDate = assignment.DueDate
		}
	}

	return finalDate == nil || !now.After(*finalDate)
}

func (p *WindowPolicy) currentSubmission(ctx context.Context, scope *Scope, userID uint) (models.Submission, bool, error) {
	if scope.Assignment.TeamSubmission {
		return p.submissions.GroupSubmission(ctx, scope, userID, 0, false)
	}
	return p.submissions.UserSubmission(ctx, scope, userID, false)
}
