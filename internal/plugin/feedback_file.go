package plugin

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/repository"
	"github.com/noah-isme/assignflow-api/pkg/filestore"
)

// FeedbackFileArea names the blob store area for grader attachments.
const FeedbackFileArea = "feedback_files"

// FeedbackFilePlugin stores files a grader attaches to a grade, for example an
// annotated copy of the student's work.
type FeedbackFilePlugin struct {
	files repository.FeedbackFileRepository
	store filestore.Store
}

// NewFeedbackFilePlugin constructs the feedback file plugin.
func NewFeedbackFilePlugin(files repository.FeedbackFileRepository, store filestore.Store) *FeedbackFilePlugin {
	return &FeedbackFilePlugin{files: files, store: store}
}

// Type implements Plugin.
func (p *FeedbackFilePlugin) Type() Type { return TypeFeedbackFile }

// Subtype implements Plugin.
func (p *FeedbackFilePlugin) Subtype() Subtype { return SubtypeFeedback }

// Name implements Plugin.
func (p *FeedbackFilePlugin) Name() string { return "Feedback files" }

// SortOrder implements Plugin.
func (p *FeedbackFilePlugin) SortOrder() int { return 1 }

// EnabledByDefault implements Plugin.
func (p *FeedbackFilePlugin) EnabledByDefault() bool { return false }

// Save uploads each attachment and records its metadata.
func (p *FeedbackFilePlugin) Save(ctx context.Context, grade *models.Grade, data FeedbackData) error {
	for _, upload := range data.Files {
		mime := mimetype.Detect(upload.Content)

		owner := filestore.Owner{
			AssignmentID: grade.AssignmentID,
			Area:         FeedbackFileArea,
			ItemID:       grade.ID,
		}

		stored, err := p.store.Upload(ctx, owner, upload.Filename, mime.String(), bytes.NewReader(upload.Content))
		if err != nil {
			return fmt.Errorf("failed to store %s: %w", upload.Filename, err)
		}

		record := models.FeedbackFile{
			GradeID:     grade.ID,
			Filename:    upload.Filename,
			ContentType: mime.String(),
			StorageURL:  stored.URL,
			SizeBytes:   int64(len(upload.Content)),
		}
		if err := p.files.Create(ctx, &record); err != nil {
			return err
		}
	}

	return nil
}

// TextForGradebook never exports text; file feedback stays out of the sink.
func (p *FeedbackFilePlugin) TextForGradebook(ctx context.Context, grade models.Grade) (string, string, error) {
	return "", "", nil
}
