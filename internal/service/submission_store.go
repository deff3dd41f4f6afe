package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/repository"
)

// SubmissionStore loads and lazily creates submission records.
type SubmissionStore struct {
	submissions repository.SubmissionRepository
	groups      GroupDirectory
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionStore constructs the store.
func NewSubmissionStore(submissions repository.SubmissionRepository, groups GroupDirectory, logger zerolog.Logger) *SubmissionStore {
	return &SubmissionStore{
		submissions: submissions,
		groups:      groups,
		logger:      logger.With().Str("component", "submission_store").Logger(),
		now:         time.Now,
	}
}

// UserSubmission fetches the user's individual record (group id zero). With
// create set, a missing record is inserted immediately: status starts as draft
// when the assignment tracks drafts, submitted otherwise.
func (s *SubmissionStore) UserSubmission(ctx context.Context, scope *Scope, userID uint, create bool) (models.Submission, bool, error) {
	submission, err := s.submissions.GetByOwner(ctx, scope.Assignment.ID, userID, 0)
	if err == nil {
		return submission, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Submission{}, false, err
	}
	if !create {
		return models.Submission{}, false, nil
	}

	submission = models.Submission{
		AssignmentID: scope.Assignment.ID,
		UserID:       userID,
		GroupID:      0,
		Status:       s.initialStatus(scope),
	}
	if err := s.submissions.Create(ctx, &submission); err != nil {
		return models.Submission{}, false, err
	}

	s.logger.Info().Uint("assignment_id", scope.Assignment.ID).Uint("user_id", userID).Msg("submission created")
	return submission, true, nil
}

// GroupSubmission resolves the caller's team record. When the group id is not
// given it is resolved through the group directory; a create request also
// ensures the individual shadow record exists first.
func (s *SubmissionStore) GroupSubmission(ctx context.Context, scope *Scope, userID, groupID uint, create bool) (models.Submission, bool, error) {
	if groupID == 0 {
		group, err := scope.SubmissionGroup(ctx, s.groups, userID)
		if err != nil {
			return models.Submission{}, false, err
		}
		if group != nil {
			groupID = group.ID
		}
	}

	if create {
		if _, _, err := s.UserSubmission(ctx, scope, userID, true); err != nil {
			return models.Submission{}, false, err
		}
	}

	submission, err := s.submissions.GetByOwner(ctx, scope.Assignment.ID, 0, groupID)
	if err == nil {
		return submission, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Submission{}, false, err
	}
	if !create {
		return models.Submission{}, false, nil
	}

	submission = models.Submission{
		AssignmentID: scope.Assignment.ID,
		UserID:       0,
		GroupID:      groupID,
		Status:       s.initialStatus(scope),
	}
	if err := s.submissions.Create(ctx, &submission); err != nil {
		return models.Submission{}, false, err
	}

	s.logger.Info().Uint("assignment_id", scope.Assignment.ID).Uint("group_id", groupID).Msg("team submission created")
	return submission, true, nil
}

// Submission fetches a record by primary key, failing when it is missing or
// belongs to another assignment.
func (s *SubmissionStore) Submission(ctx context.Context, scope *Scope, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	if submission.AssignmentID != scope.Assignment.ID {
		return models.Submission{}, ErrSubmissionNotFound
	}

	return submission, nil
}

// Update persists a mutated record, stamping the modification time.
func (s *SubmissionStore) Update(ctx context.Context, submission *models.Submission, updateTime bool) error {
	if updateTime {
		submission.UpdatedAt = s.now()
	}
	return s.submissions.Update(ctx, submission)
}

func (s *SubmissionStore) initialStatus(scope *Scope) string {
	if scope.Assignment.SubmissionDrafts {
		return models.SubmissionStatusDraft
	}
	return models.SubmissionStatusSubmitted
}
