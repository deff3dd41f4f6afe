package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
)

// SubmissionTextRepository persists the online-text plugin payloads.
type SubmissionTextRepository interface {
	GetBySubmission(ctx context.Context, submissionID uint) (models.SubmissionText, error)
	Upsert(ctx context.Context, text *models.SubmissionText) error
}

// SubmissionFileRepository persists file plugin metadata rows.
type SubmissionFileRepository interface {
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionFile, error)
	Create(ctx context.Context, file *models.SubmissionFile) error
	DeleteBySubmission(ctx context.Context, submissionID uint) error
}

// FeedbackCommentRepository persists the feedback-comments plugin payloads.
type FeedbackCommentRepository interface {
	GetByGrade(ctx context.Context, gradeID uint) (models.FeedbackComment, error)
	Upsert(ctx context.Context, comment *models.FeedbackComment) error
}

// FeedbackFileRepository persists grader-attached file metadata rows.
type FeedbackFileRepository interface {
	ListByGrade(ctx context.Context, gradeID uint) ([]models.FeedbackFile, error)
	Create(ctx context.Context, file *models.FeedbackFile) error
}

type submissionTextRepository struct {
	db *gorm.DB
}

// NewSubmissionTextRepository instantiates the repository.
func NewSubmissionTextRepository(db *gorm.DB) SubmissionTextRepository {
	return &submissionTextRepository{db: db}
}

func (r *submissionTextRepository) GetBySubmission(ctx context.Context, submissionID uint) (models.SubmissionText, error) {
	var text models.SubmissionText
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		First(&text).Error; err != nil {
		return models.SubmissionText{}, err
	}

	return text, nil
}

func (r *submissionTextRepository) Upsert(ctx context.Context, text *models.SubmissionText) error {
	existing, err := r.GetBySubmission(ctx, text.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(text).Error
		}
		return err
	}

	text.ID = existing.ID
	text.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(text).Error
}

type submissionFileRepository struct {
	db *gorm.DB
}

// NewSubmissionFileRepository instantiates the repository.
func NewSubmissionFileRepository(db *gorm.DB) SubmissionFileRepository {
	return &submissionFileRepository{db: db}
}

func (r *submissionFileRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionFile, error) {
	var files []models.SubmissionFile
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&files).Error; err != nil {
		return nil, err
	}

	return files, nil
}

func (r *submissionFileRepository) Create(ctx context.Context, file *models.SubmissionFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *submissionFileRepository) DeleteBySubmission(ctx context.Context, submissionID uint) error {
	return r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Delete(&models.SubmissionFile{}).Error
}

type feedbackCommentRepository struct {
	db *gorm.DB
}

// NewFeedbackCommentRepository instantiates the repository.
func NewFeedbackCommentRepository(db *gorm.DB) FeedbackCommentRepository {
	return &feedbackCommentRepository{db: db}
}

func (r *feedbackCommentRepository) GetByGrade(ctx context.Context, gradeID uint) (models.FeedbackComment, error) {
	var comment models.FeedbackComment
	if err := r.db.WithContext(ctx).
		Where("grade_id = ?", gradeID).
		First(&comment).Error; err != nil {
		return models.FeedbackComment{}, err
	}

	return comment, nil
}

func (r *feedbackCommentRepository) Upsert(ctx context.Context, comment *models.FeedbackComment) error {
	existing, err := r.GetByGrade(ctx, comment.GradeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(comment).Error
		}
		return err
	}

	comment.ID = existing.ID
	comment.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(comment).Error
}

type feedbackFileRepository struct {
	db *gorm.DB
}

// NewFeedbackFileRepository instantiates the repository.
func NewFeedbackFileRepository(db *gorm.DB) FeedbackFileRepository {
	return &feedbackFileRepository{db: db}
}

func (r *feedbackFileRepository) ListByGrade(ctx context.Context, gradeID uint) ([]models.FeedbackFile, error) {
	var files []models.FeedbackFile
	if err := r.db.WithContext(ctx).
		Where("grade_id = ?", gradeID).
		Order("created_at ASC").
		Find(&files).Error; err != nil {
		return nil, err
	}

	return files, nil
}

func (r *feedbackFileRepository) Create(ctx context.Context, file *models.FeedbackFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}
