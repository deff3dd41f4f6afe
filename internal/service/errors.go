package service

import "errors"

// Domain failure kinds. Handlers translate these to HTTP statuses; everything
// else is treated as an internal error.
var (
	// ErrAssignmentNotFound indicates the assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrSubmissionNotFound indicates the submission does not exist or
	// belongs to a different assignment.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrGradeNotFound indicates the grade does not exist or belongs to a
	// different assignment.
	ErrGradeNotFound = errors.New("grade not found")

	// ErrInvalidGrade indicates a grade value failed type, range or scale
	// validation. Nothing is persisted; the caller may correct and retry.
	ErrInvalidGrade = errors.New("invalid grade value")

	// ErrPermissionDenied indicates a capability check failed.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrReplayRejected indicates a state-changing action arrived without a
	// fresh anti-replay token.
	ErrReplayRejected = errors.New("request token missing or already used")

	// ErrSubmissionsClosed indicates the submission window is not open for
	// the acting user.
	ErrSubmissionsClosed = errors.New("submissions are not open")

	// ErrMappingNotFound indicates a pseudonymous participant id has no
	// mapping for the assignment.
	ErrMappingNotFound = errors.New("participant mapping not found")

	// ErrSubmissionEmpty indicates a submit-for-grading attempt where no
	// enabled submission plugin holds any content.
	ErrSubmissionEmpty = errors.New("submission is empty")

	// ErrPluginFailure indicates a submission or feedback plugin save hook
	// reported failure. Remaining plugin calls for the item are skipped;
	// earlier plugin writes in the same call are kept.
	ErrPluginFailure = errors.New("plugin save failed")
)
