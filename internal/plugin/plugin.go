// Package plugin holds the pluggable submission and feedback strategies an
// assignment coordinates. Implementations are registered statically at startup
// and looked up by typed identifier; per-assignment enablement and settings
// live in plugin config rows.
package plugin

import (
	"context"

	"github.com/noah-isme/assignflow-api/internal/models"
)

// Subtype separates the two plugin families.
type Subtype string

const (
	// SubtypeSubmission marks plugins attached to submission records.
	SubtypeSubmission Subtype = "submission"
	// SubtypeFeedback marks plugins attached to grade records.
	SubtypeFeedback Subtype = "feedback"
)

// Type identifies one concrete plugin implementation.
type Type int

const (
	// TypeUnknown is the zero value; lookups for it always miss.
	TypeUnknown Type = iota
	// TypeOnlineText is the inline rich-text submission plugin.
	TypeOnlineText
	// TypeFile is the file upload submission plugin.
	TypeFile
	// TypeComments is the feedback comments plugin.
	TypeComments
	// TypeFeedbackFile is the grader file attachment plugin.
	TypeFeedbackFile
)

// String returns the stable name used in plugin config rows and logs.
func (t Type) String() string {
	switch t {
	case TypeOnlineText:
		return "onlinetext"
	case TypeFile:
		return "file"
	case TypeComments:
		return "comments"
	case TypeFeedbackFile:
		return "feedbackfile"
	default:
		return "unknown"
	}
}

// ParseType maps a stored plugin name back to its identifier.
func ParseType(name string) Type {
	switch name {
	case "onlinetext":
		return TypeOnlineText
	case "file":
		return TypeFile
	case "comments":
		return TypeComments
	case "feedbackfile":
		return TypeFeedbackFile
	default:
		return TypeUnknown
	}
}

// UploadedFile carries one uploaded blob through a save call.
type UploadedFile struct {
	Filename string
	Content  []byte
}

// SubmissionData is the parsed form payload offered to submission plugins.
// Each plugin consumes only the fields it owns.
type SubmissionData struct {
	OnlineText       string
	OnlineTextFormat string
	Files            []UploadedFile
}

// FeedbackData is the parsed form payload offered to feedback plugins.
type FeedbackData struct {
	Comment       string
	CommentFormat string
	Files         []UploadedFile
}

// Plugin is the behaviour shared by both plugin families.
type Plugin interface {
	Type() Type
	Subtype() Subtype
	Name() string
	// SortOrder is the plugin's preferred position; collisions are resolved
	// by the registry with the next free slot.
	SortOrder() int
	// EnabledByDefault applies when an assignment has no config row yet.
	EnabledByDefault() bool
}

// SubmissionPlugin handles one aspect of a submission record.
type SubmissionPlugin interface {
	Plugin
	Save(ctx context.Context, submission *models.Submission, data SubmissionData) error
	IsEmpty(ctx context.Context, submission models.Submission) (bool, error)
	FormatForLog(ctx context.Context, submission models.Submission) string
}

// FeedbackPlugin handles one aspect of a grade record.
type FeedbackPlugin interface {
	Plugin
	Save(ctx context.Context, grade *models.Grade, data FeedbackData) error
	// TextForGradebook renders the feedback this plugin would export to the
	// gradebook, with its format name.
	TextForGradebook(ctx context.Context, grade models.Grade) (string, string, error)
}
