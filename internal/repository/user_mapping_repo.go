package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
)

// UserMappingRepository persists blind-marking pseudonym mappings.
type UserMappingRepository interface {
	GetByUser(ctx context.Context, assignmentID, userID uint) (models.UserMapping, error)
	GetByID(ctx context.Context, assignmentID, mappingID uint) (models.UserMapping, error)
	Create(ctx context.Context, mapping *models.UserMapping) error
}

type userMappingRepository struct {
	db *gorm.DB
}

// NewUserMappingRepository instantiates the repository.
func NewUserMappingRepository(db *gorm.DB) UserMappingRepository {
	return &userMappingRepository{db: db}
}

func (r *userMappingRepository) GetByUser(ctx context.Context, assignmentID, userID uint) (models.UserMapping, error) {
	var mapping models.UserMapping
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("user_id = ?", userID).
		First(&mapping).Error; err != nil {
		return models.UserMapping{}, err
	}

	return mapping, nil
}

func (r *userMappingRepository) GetByID(ctx context.Context, assignmentID, mappingID uint) (models.UserMapping, error) {
	var mapping models.UserMapping
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("id = ?", mappingID).
		First(&mapping).Error; err != nil {
		return models.UserMapping{}, err
	}

	return mapping, nil
}

func (r *userMappingRepository) Create(ctx context.Context, mapping *models.UserMapping) error {
	return r.db.WithContext(ctx).Create(mapping).Error
}
