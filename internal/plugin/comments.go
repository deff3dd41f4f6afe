package plugin

import (
	"context"
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/repository"
)

// CommentsPlugin stores a grader's feedback comment for a grade. It is the
// designated gradebook feedback plugin: its rendered text travels with grade
// pushes to the gradebook sink.
type CommentsPlugin struct {
	comments  repository.FeedbackCommentRepository
	sanitizer *bluemonday.Policy
}

// NewCommentsPlugin constructs the feedback comments plugin.
func NewCommentsPlugin(comments repository.FeedbackCommentRepository) *CommentsPlugin {
	return &CommentsPlugin{
		comments:  comments,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Type implements Plugin.
func (p *CommentsPlugin) Type() Type { return TypeComments }

// Subtype implements Plugin.
func (p *CommentsPlugin) Subtype() Subtype { return SubtypeFeedback }

// Name implements Plugin.
func (p *CommentsPlugin) Name() string { return "Feedback comments" }

// SortOrder implements Plugin.
func (p *CommentsPlugin) SortOrder() int { return 0 }

// EnabledByDefault implements Plugin.
func (p *CommentsPlugin) EnabledByDefault() bool { return true }

// Save sanitizes and upserts the grader's comment.
func (p *CommentsPlugin) Save(ctx context.Context, grade *models.Grade, data FeedbackData) error {
	clean := strings.TrimSpace(p.sanitizer.Sanitize(data.Comment))

	format := data.CommentFormat
	if format == "" {
		format = "html"
	}

	comment := models.FeedbackComment{
		GradeID: grade.ID,
		Comment: clean,
		Format:  format,
	}

	return p.comments.Upsert(ctx, &comment)
}

// TextForGradebook renders the stored comment for the gradebook push.
func (p *CommentsPlugin) TextForGradebook(ctx context.Context, grade models.Grade) (string, string, error) {
	comment, err := p.comments.GetByGrade(ctx, grade.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", nil
		}
		return "", "", err
	}

	return comment.Comment, comment.Format, nil
}
