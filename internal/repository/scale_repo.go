package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
)

// ScaleRepository resolves configured grading scales.
type ScaleRepository interface {
	GetByID(ctx context.Context, id uint) (models.Scale, error)
}

type scaleRepository struct {
	db *gorm.DB
}

// NewScaleRepository instantiates the repository.
func NewScaleRepository(db *gorm.DB) ScaleRepository {
	return &scaleRepository{db: db}
}

func (r *scaleRepository) GetByID(ctx context.Context, id uint) (models.Scale, error) {
	var scale models.Scale
	if err := r.db.WithContext(ctx).First(&scale, id).Error; err != nil {
		return models.Scale{}, err
	}

	return scale, nil
}
