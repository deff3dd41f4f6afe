package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/repository"
)

// UserMappingService hands out the pseudonymous participant ids used while
// blind marking. A mapping is allocated on first lookup and is stable for the
// lifetime of the assignment.
type UserMappingService struct {
	repo   repository.UserMappingRepository
	logger zerolog.Logger
}

// NewUserMappingService constructs the service.
func NewUserMappingService(repo repository.UserMappingRepository, logger zerolog.Logger) *UserMappingService {
	return &UserMappingService{
		repo:   repo,
		logger: logger.With().Str("component", "user_mapping_service").Logger(),
	}
}

// ParticipantID resolves (allocating if needed) the pseudonymous id for a user.
func (s *UserMappingService) ParticipantID(ctx context.Context, assignmentID, userID uint) (uint, error) {
	mapping, err := s.repo.GetByUser(ctx, assignmentID, userID)
	if err == nil {
		return mapping.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	mapping = models.UserMapping{AssignmentID: assignmentID, UserID: userID}
	if err := s.repo.Create(ctx, &mapping); err != nil {
		// A concurrent allocation may have won; fall back to the stored row.
		if existing, lookupErr := s.repo.GetByUser(ctx, assignmentID, userID); lookupErr == nil {
			return existing.ID, nil
		}
		return 0, err
	}

	s.logger.Debug().Uint("assignment_id", assignmentID).Uint("participant_id", mapping.ID).Msg("participant id allocated")
	return mapping.ID, nil
}

// UserForParticipant resolves a pseudonymous id back to the user.
func (s *UserMappingService) UserForParticipant(ctx context.Context, assignmentID, participantID uint) (uint, error) {
	mapping, err := s.repo.GetByID(ctx, assignmentID, participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrMappingNotFound
		}
		return 0, err
	}
	return mapping.UserID, nil
}
