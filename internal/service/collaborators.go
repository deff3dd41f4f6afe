package service

import (
	"context"
	"time"

	"github.com/noah-isme/assignflow-api/internal/models"
)

// Actor identifies the user performing an operation.
type Actor struct {
	ID   uint
	Role string
}

// Capabilities gating the state-changing operations.
const (
	CapabilitySubmit           = "assignment:submit"
	CapabilityGrade            = "assignment:grade"
	CapabilityGrantExtension   = "assignment:grantextension"
	CapabilityRevealIdentities = "assignment:revealidentities"
)

// Group describes one course group as reported by the group directory.
type Group struct {
	ID   uint
	Name string
}

// GroupDirectory is the course-membership collaborator: group resolution,
// member enumeration, enrolment and the set of users who grade a course.
type GroupDirectory interface {
	GroupsForUser(ctx context.Context, courseID, userID, groupingID uint) ([]Group, error)
	Members(ctx context.Context, groupID uint) ([]uint, error)
	IsEnrolled(ctx context.Context, courseID, userID uint) (bool, error)
	Graders(ctx context.Context, courseID uint) ([]uint, error)
}

// CapabilityChecker is the authorization collaborator.
type CapabilityChecker interface {
	HasCapability(ctx context.Context, actor Actor, capability string) (bool, error)
}

// GradebookItem carries the item definition sent with every gradebook upsert.
// The course-module id doubles as the stable external identifier.
type GradebookItem struct {
	CourseID     uint
	AssignmentID uint
	ItemName     string
	IDNumber     uint
	GradeType    models.GradingType
	MaxGrade     float64
	ScaleID      uint
	Reset        bool
}

// GradebookGrade is one user grade row pushed alongside the item.
type GradebookGrade struct {
	UserID         uint
	RawGrade       *float64
	UserModified   uint
	DateSubmitted  *time.Time
	DateGraded     *time.Time
	FeedbackText   string
	FeedbackFormat string
}

// GradebookSink is the external gradebook collaborator. Upserts are
// idempotent on (course, assignment, idnumber); failures are best-effort from
// the caller's perspective.
type GradebookSink interface {
	Upsert(ctx context.Context, item GradebookItem, grade *GradebookGrade) error
	GradingDisabled(ctx context.Context, courseID, assignmentID, userID uint) (bool, error)
}

// NotificationEvent is the composed message handed to the delivery collaborator.
type NotificationEvent struct {
	FromUserID  uint      `json:"from_user_id"`
	ToUserID    uint      `json:"to_user_id"`
	MessageType string    `json:"message_type"`
	EventType   string    `json:"event_type"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sent_at"`
}

// NotificationDelivery transports composed notifications. Send is
// fire-and-forget; failures are logged by the dispatcher, never fatal.
type NotificationDelivery interface {
	Send(ctx context.Context, event NotificationEvent) error
}
