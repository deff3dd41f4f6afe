package filestore

import (
	"context"
	"io"
)

// Owner identifies the file area a blob belongs to: one assignment, one named
// area (for example "submission_files" or "feedback_files") and the id of the
// submission or grade row the files hang off.
type Owner struct {
	AssignmentID uint
	Area         string
	ItemID       uint
}

// File describes one stored blob.
type File struct {
	Name        string
	ContentType string
	URL         string
	SizeBytes   int64
}

// Store is the opaque blob store collaborator. Blobs are keyed by owner; the
// domain only ever lists an area or deletes every area of an assignment.
type Store interface {
	Upload(ctx context.Context, owner Owner, filename, contentType string, reader io.Reader) (File, error)
	AreaFiles(ctx context.Context, owner Owner) ([]File, error)
	DeleteAreas(ctx context.Context, assignmentID uint) error
}
