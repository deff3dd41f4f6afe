package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
)

// PluginConfigRepository persists per-assignment plugin state.
type PluginConfigRepository interface {
	Get(ctx context.Context, assignmentID uint, subtype, pluginType string) (models.PluginConfig, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.PluginConfig, error)
	Upsert(ctx context.Context, config *models.PluginConfig) error
	DeleteByAssignment(ctx context.Context, assignmentID uint) error
}

type pluginConfigRepository struct {
	db *gorm.DB
}

// NewPluginConfigRepository instantiates the repository.
func NewPluginConfigRepository(db *gorm.DB) PluginConfigRepository {
	return &pluginConfigRepository{db: db}
}

func (r *pluginConfigRepository) Get(ctx context.Context, assignmentID uint, subtype, pluginType string) (models.PluginConfig, error) {
	var config models.PluginConfig
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("subtype = ?", subtype).
		Where("type = ?", pluginType).
		First(&config).Error; err != nil {
		return models.PluginConfig{}, err
	}

	return config, nil
}

func (r *pluginConfigRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.PluginConfig, error) {
	var configs []models.PluginConfig
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("subtype ASC, type ASC").
		Find(&configs).Error; err != nil {
		return nil, err
	}

	return configs, nil
}

func (r *pluginConfigRepository) Upsert(ctx context.Context, config *models.PluginConfig) error {
	existing, err := r.Get(ctx, config.AssignmentID, config.Subtype, config.Type)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(config).Error
		}
		return err
	}

	config.ID = existing.ID
	config.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(config).Error
}

func (r *pluginConfigRepository) DeleteByAssignment(ctx context.Context, assignmentID uint) error {
	return r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Delete(&models.PluginConfig{}).Error
}
