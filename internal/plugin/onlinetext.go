package plugin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/repository"
)

// OnlineTextPlugin stores rich text typed directly into the submission form.
// Input is sanitized before it is persisted.
type OnlineTextPlugin struct {
	texts     repository.SubmissionTextRepository
	sanitizer *bluemonday.Policy
}

// NewOnlineTextPlugin constructs the online-text submission plugin.
func NewOnlineTextPlugin(texts repository.SubmissionTextRepository) *OnlineTextPlugin {
	return &OnlineTextPlugin{
		texts:     texts,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Type implements Plugin.
func (p *OnlineTextPlugin) Type() Type { return TypeOnlineText }

// Subtype implements Plugin.
func (p *OnlineTextPlugin) Subtype() Subtype { return SubtypeSubmission }

// Name implements Plugin.
func (p *OnlineTextPlugin) Name() string { return "Online text" }

// SortOrder implements Plugin.
func (p *OnlineTextPlugin) SortOrder() int { return 0 }

// EnabledByDefault implements Plugin.
func (p *OnlineTextPlugin) EnabledByDefault() bool { return true }

// Save sanitizes and upserts the submitted text.
func (p *OnlineTextPlugin) Save(ctx context.Context, submission *models.Submission, data SubmissionData) error {
	clean := strings.TrimSpace(p.sanitizer.Sanitize(data.OnlineText))

	format := data.OnlineTextFormat
	if format == "" {
		format = "html"
	}

	text := models.SubmissionText{
		SubmissionID: submission.ID,
		Text:         clean,
		Format:       format,
		WordCount:    countWords(clean),
	}

	return p.texts.Upsert(ctx, &text)
}

// IsEmpty reports whether the submission carries no text.
func (p *OnlineTextPlugin) IsEmpty(ctx context.Context, submission models.Submission) (bool, error) {
	text, err := p.texts.GetBySubmission(ctx, submission.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, err
	}

	return strings.TrimSpace(text.Text) == "", nil
}

// FormatForLog summarises the stored text for the activity log.
func (p *OnlineTextPlugin) FormatForLog(ctx context.Context, submission models.Submission) string {
	text, err := p.texts.GetBySubmission(ctx, submission.ID)
	if err != nil {
		return "online text: none"
	}

	if text.WordCount == 1 {
		return "online text: 1 word"
	}
	return fmt.Sprintf("online text: %d words", text.WordCount)
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
