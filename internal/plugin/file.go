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

// SubmissionFileArea names the blob store area for student uploads.
const SubmissionFileArea = "submission_files"

var allowedSubmissionTypes = []string{
	"application/pdf",
	"application/zip",
	"application/x-zip-compressed",
	"text/plain",
	"image/png",
	"image/jpeg",
}

// FilePlugin stores uploaded files against a submission. Blobs go to the file
// store; a metadata row per file is kept locally.
type FilePlugin struct {
	files repository.SubmissionFileRepository
	store filestore.Store
}

// NewFilePlugin constructs the file submission plugin.
func NewFilePlugin(files repository.SubmissionFileRepository, store filestore.Store) *FilePlugin {
	return &FilePlugin{files: files, store: store}
}

// Type implements Plugin.
func (p *FilePlugin) Type() Type { return TypeFile }

// Subtype implements Plugin.
func (p *FilePlugin) Subtype() Subtype { return SubtypeSubmission }

// Name implements Plugin.
func (p *FilePlugin) Name() string { return "File submissions" }

// SortOrder implements Plugin.
func (p *FilePlugin) SortOrder() int { return 0 }

// EnabledByDefault implements Plugin.
func (p *FilePlugin) EnabledByDefault() bool { return true }

// Save validates and uploads each file, then records its metadata.
func (p *FilePlugin) Save(ctx context.Context, submission *models.Submission, data SubmissionData) error {
	for _, upload := range data.Files {
		mime := mimetype.Detect(upload.Content)
		if !isAllowedSubmissionType(mime) {
			return fmt.Errorf("unsupported file type: %s", mime.String())
		}

		owner := filestore.Owner{
			AssignmentID: submission.AssignmentID,
			Area:         SubmissionFileArea,
			ItemID:       submission.ID,
		}

		stored, err := p.store.Upload(ctx, owner, upload.Filename, mime.String(), bytes.NewReader(upload.Content))
		if err != nil {
			return fmt.Errorf("failed to store %s: %w", upload.Filename, err)
		}

		record := models.SubmissionFile{
			SubmissionID: submission.ID,
			Area:         SubmissionFileArea,
			Filename:     upload.Filename,
			ContentType:  mime.String(),
			StorageURL:   stored.URL,
			SizeBytes:    int64(len(upload.Content)),
		}
		if err := p.files.Create(ctx, &record); err != nil {
			return err
		}
	}

	return nil
}

// IsEmpty reports whether no files are attached to the submission.
func (p *FilePlugin) IsEmpty(ctx context.Context, submission models.Submission) (bool, error) {
	files, err := p.files.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return false, err
	}
	return len(files) == 0, nil
}

// FormatForLog summarises the attachment count for the activity log.
func (p *FilePlugin) FormatForLog(ctx context.Context, submission models.Submission) string {
	files, err := p.files.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return "files: none"
	}
	return fmt.Sprintf("files: %d", len(files))
}

func isAllowedSubmissionType(mime *mimetype.MIME) bool {
	// Is ignores mime parameters such as charset and matches aliases.
	for _, allowed := range allowedSubmissionTypes {
		if mime.Is(allowed) {
			return true
		}
	}
	return false
}
