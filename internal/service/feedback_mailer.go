package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/assignflow-api/internal/repository"
)

const feedbackMailerBatchSize = 100

// FeedbackMailer periodically picks up graded-but-unmailed records and sends
// the feedback-available notice. The mailed flag is only set after a
// successful dispatch, so a failed send is retried on the next pass.
type FeedbackMailer struct {
	grades      repository.GradeRepository
	assignments repository.AssignmentRepository
	notifier    Notifier
	interval    time.Duration
	logger      zerolog.Logger
}

// NewFeedbackMailer constructs the mailer.
func NewFeedbackMailer(grades repository.GradeRepository, assignments repository.AssignmentRepository, notifier Notifier, interval time.Duration, logger zerolog.Logger) *FeedbackMailer {
	return &FeedbackMailer{
		grades:      grades,
		assignments: assignments,
		notifier:    notifier,
		interval:    interval,
		logger:      logger.With().Str("component", "feedback_mailer").Logger(),
	}
}

// Run blocks, processing one batch per interval until the context is done.
func (m *FeedbackMailer) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce processes a single batch of unmailed grades.
func (m *FeedbackMailer) RunOnce(ctx context.Context) {
	grades, err := m.grades.ListUnmailed(ctx, feedbackMailerBatchSize)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to list unmailed grades")
		return
	}

	sent := 0
	for _, grade := range grades {
		assignment, err := m.assignments.GetByID(ctx, grade.AssignmentID)
		if err != nil {
			m.logger.Warn().Err(err).Uint("assignment_id", grade.AssignmentID).Msg("skipping grade with unknown assignment")
			continue
		}

		// Feedback stays hidden while markers are anonymous.
		if assignment.IdentitiesHidden() {
			continue
		}

		scope := NewScope(assignment, Actor{ID: grade.GraderID})
		if err := m.notifier.NotifyFeedbackAvailable(ctx, scope, grade.UserID, grade.GraderID); err != nil {
			continue
		}

		grade.Mailed = true
		if err := m.grades.Update(ctx, &grade); err != nil {
			m.logger.Error().Err(err).Uint("grade_id", grade.ID).Msg("failed to mark grade as mailed")
			continue
		}
		sent++
	}

	if sent > 0 {
		m.logger.Info().Int("sent", sent).Msg("feedback notifications dispatched")
	}
}
