package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
)

// GradeRepository defines data operations for grade records.
type GradeRepository interface {
	GetByOwner(ctx context.Context, assignmentID, userID uint) (models.Grade, error)
	GetByID(ctx context.Context, id uint) (models.Grade, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Grade, error)
	ListUnmailed(ctx context.Context, limit int) ([]models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	DeleteByAssignment(ctx context.Context, assignmentID uint) error
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository instantiates the repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) GetByOwner(ctx context.Context, assignmentID, userID uint) (models.Grade, error) {
	var grade models.Grade
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("user_id = ?", userID).
		First(&grade).Error; err != nil {
		return models.Grade{}, err
	}

	return grade, nil
}

func (r *gradeRepository) GetByID(ctx context.Context, id uint) (models.Grade, error) {
	var grade models.Grade
	if err := r.db.WithContext(ctx).First(&grade, id).Error; err != nil {
		return models.Grade{}, err
	}

	return grade, nil
}

func (r *gradeRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Grade, error) {
	var grades []models.Grade
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("user_id ASC").
		Find(&grades).Error; err != nil {
		return nil, err
	}

	return grades, nil
}

func (r *gradeRepository) ListUnmailed(ctx context.Context, limit int) ([]models.Grade, error) {
	if limit <= 0 {
		limit = 100
	}

	var grades []models.Grade
	if err := r.db.WithContext(ctx).
		Where("mailed = ?", false).
		Where("grade IS NOT NULL").
		Order("updated_at ASC").
		Limit(limit).
		Find(&grades).Error; err != nil {
		return nil, err
	}

	return grades, nil
}

func (r *gradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	return r.db.WithContext(ctx).Create(grade).Error
}

func (r *gradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	return r.db.WithContext(ctx).Save(grade).Error
}

func (r *gradeRepository) DeleteByAssignment(ctx context.Context, assignmentID uint) error {
	return r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Delete(&models.Grade{}).Error
}
