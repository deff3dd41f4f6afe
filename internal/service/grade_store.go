package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/repository"
)

// GradeStore loads, lazily creates and validates grade records. Validation is
// local: a write rejected here never reaches persistence.
type GradeStore struct {
	grades repository.GradeRepository
	scales repository.ScaleRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewGradeStore constructs the store.
func NewGradeStore(grades repository.GradeRepository, scales repository.ScaleRepository, logger zerolog.Logger) *GradeStore {
	return &GradeStore{
		grades: grades,
		scales: scales,
		logger: logger.With().Str("component", "grade_store").Logger(),
		now:    time.Now,
	}
}

// UserGrade fetches the grade for a user, inserting an ungraded unlocked
// record attributed to the acting grader when create is set.
func (s *GradeStore) UserGrade(ctx context.Context, scope *Scope, userID uint, create bool) (models.Grade, bool, error) {
	grade, err := s.grades.GetByOwner(ctx, scope.Assignment.ID, userID)
	if err == nil {
		return grade, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Grade{}, false, err
	}
	if !create {
		return models.Grade{}, false, nil
	}

	grade = models.Grade{
		AssignmentID: scope.Assignment.ID,
		UserID:       userID,
		Grade:        nil,
		GraderID:     scope.Actor.ID,
		Locked:       false,
	}
	if err := s.grades.Create(ctx, &grade); err != nil {
		return models.Grade{}, false, err
	}

	s.logger.Info().Uint("assignment_id", scope.Assignment.ID).Uint("user_id", userID).Msg("grade created")
	return grade, true, nil
}

// Grade fetches a grade by primary key, failing when it is missing or belongs
// to another assignment.
func (s *GradeStore) Grade(ctx context.Context, scope *Scope, id uint) (models.Grade, error) {
	grade, err := s.grades.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Grade{}, ErrGradeNotFound
		}
		return models.Grade{}, err
	}

	if grade.AssignmentID != scope.Assignment.ID {
		return models.Grade{}, ErrGradeNotFound
	}

	return grade, nil
}

// Update validates the grade value against the assignment's grading type and
// persists it. Invalid values abort before any write.
func (s *GradeStore) Update(ctx context.Context, scope *Scope, grade *models.Grade) error {
	if err := s.Validate(ctx, scope, grade.Grade); err != nil {
		return err
	}

	grade.UpdatedAt = s.now()
	return s.grades.Update(ctx, grade)
}

// Validate checks one grade value. Ungraded (nil) is always acceptable.
// Display renders the awarded grade for human consumption: "85 / 100" for
// value grading, the selected option label for scale grading, "-" otherwise.
func (s *GradeStore) Display(ctx context.Context, scope *Scope, grade models.Grade) string {
	if !grade.IsGraded() {
		return "-"
	}

	switch scope.Assignment.GradingType() {
	case models.GradingTypeValue:
		return fmt.Sprintf("%s / %s",
			strconv.FormatFloat(*grade.Grade, 'f', -1, 64),
			strconv.FormatFloat(scope.Assignment.MaxGrade(), 'f', -1, 64))

	case models.GradingTypeScale:
		scale, err := s.scales.GetByID(ctx, scope.Assignment.ScaleID())
		if err != nil {
			s.logger.Warn().Err(err).Uint("scale_id", scope.Assignment.ScaleID()).Msg("scale lookup failed for display")
			return "-"
		}
		if label := scale.Option(int(*grade.Grade)); label != "" {
			return label
		}
		return "-"

	default:
		return "-"
	}
}

func (s *GradeStore) Validate(ctx context.Context, scope *Scope, value *float64) error {
	if value == nil {
		return nil
	}

	switch scope.Assignment.GradingType() {
	case models.GradingTypeValue:
		if *value < 0 || *value > scope.Assignment.MaxGrade() {
			return ErrInvalidGrade
		}
		return nil

	case models.GradingTypeScale:
		if math.Trunc(*value) != *value {
			return ErrInvalidGrade
		}
		index := int(*value)
		scale, err := s.scales.GetByID(ctx, scope.Assignment.ScaleID())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidGrade
			}
			return err
		}
		if !scale.HasIndex(index) {
			return ErrInvalidGrade
		}
		return nil

	default:
		// Text-only assignments carry feedback, never a grade value.
		return ErrInvalidGrade
	}
}
