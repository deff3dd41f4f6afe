package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
)

// GradingDefinitionRepository persists advanced grading definitions and fills.
type GradingDefinitionRepository interface {
	GetActive(ctx context.Context, assignmentID uint) (models.GradingDefinition, error)
	Upsert(ctx context.Context, definition *models.GradingDefinition) error
	GetFill(ctx context.Context, gradeID uint) (models.GradingFill, error)
	UpsertFill(ctx context.Context, fill *models.GradingFill) error
}

type gradingDefinitionRepository struct {
	db *gorm.DB
}

// NewGradingDefinitionRepository instantiates the repository.
func NewGradingDefinitionRepository(db *gorm.DB) GradingDefinitionRepository {
	return &gradingDefinitionRepository{db: db}
}

func (r *gradingDefinitionRepository) GetActive(ctx context.Context, assignmentID uint) (models.GradingDefinition, error) {
	var definition models.GradingDefinition
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("active = ?", true).
		First(&definition).Error; err != nil {
		return models.GradingDefinition{}, err
	}

	return definition, nil
}

func (r *gradingDefinitionRepository) Upsert(ctx context.Context, definition *models.GradingDefinition) error {
	var existing models.GradingDefinition
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", definition.AssignmentID).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(definition).Error
		}
		return err
	}

	definition.ID = existing.ID
	definition.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(definition).Error
}

func (r *gradingDefinitionRepository) GetFill(ctx context.Context, gradeID uint) (models.GradingFill, error) {
	var fill models.GradingFill
	if err := r.db.WithContext(ctx).
		Where("grade_id = ?", gradeID).
		First(&fill).Error; err != nil {
		return models.GradingFill{}, err
	}

	return fill, nil
}

func (r *gradingDefinitionRepository) UpsertFill(ctx context.Context, fill *models.GradingFill) error {
	existing, err := r.GetFill(ctx, fill.GradeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(fill).Error
		}
		return err
	}

	fill.ID = existing.ID
	fill.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(fill).Error
}
