package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

var serviceDBSeq atomic.Uint64

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), serviceDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Assignment{},
		&models.Submission{},
		&models.Grade{},
		&models.PluginConfig{},
		&models.SubmissionText{},
		&models.SubmissionFile{},
		&models.FeedbackComment{},
		&models.FeedbackFile{},
		&models.Scale{},
		&models.UserMapping{},
		&models.Notification{},
		&models.GradingDefinition{},
		&models.GradingFill{},
		&models.ActivityLog{},
	))
	return db
}

// stubDirectory is an in-memory GroupDirectory. Users default to enrolled
// unless listed in notEnrolled.
type stubDirectory struct {
	groups      map[uint][]Group
	members     map[uint][]uint
	notEnrolled map[uint]bool
	graders     []uint
	err         error
}

func (d *stubDirectory) GroupsForUser(_ context.Context, _, userID, _ uint) ([]Group, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.groups[userID], nil
}

func (d *stubDirectory) Members(_ context.Context, groupID uint) ([]uint, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.members[groupID], nil
}

func (d *stubDirectory) IsEnrolled(_ context.Context, _, userID uint) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return !d.notEnrolled[userID], nil
}

func (d *stubDirectory) Graders(_ context.Context, _ uint) ([]uint, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.graders, nil
}

type sinkUpsert struct {
	item  GradebookItem
	grade *GradebookGrade
}

// stubSink records gradebook upserts and answers grading-disabled lookups.
type stubSink struct {
	mu        sync.Mutex
	upserts   []sinkUpsert
	upsertErr   error
	disabled    map[uint]bool
	disabledErr error
}

func (s *stubSink) Upsert(_ context.Context, item GradebookItem, grade *GradebookGrade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upsertErr != nil {
		return s.upsertErr
	}

	var copied *GradebookGrade
	if grade != nil {
		cloned := *grade
		copied = &cloned
	}
	s.upserts = append(s.upserts, sinkUpsert{item: item, grade: copied})
	return nil
}

func (s *stubSink) GradingDisabled(_ context.Context, _, _, userID uint) (bool, error) {
	if s.disabledErr != nil {
		return false, s.disabledErr
	}
	return s.disabled[userID], nil
}

func (s *stubSink) gradeRows() []GradebookGrade {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]GradebookGrade, 0, len(s.upserts))
	for _, upsert := range s.upserts {
		if upsert.grade != nil {
			rows = append(rows, *upsert.grade)
		}
	}
	return rows
}

// stubCaps grants everything except the listed capabilities.
type stubCaps struct {
	denied map[string]bool
}

func (c *stubCaps) HasCapability(_ context.Context, _ Actor, capability string) (bool, error) {
	return !c.denied[capability], nil
}

// stubNotifier records the notices the workflow emitted.
type stubNotifier struct {
	mu       sync.Mutex
	receipts []uint
	teams    [][]uint
	graders  []uint
	feedback []uint
	sendErr  error
}

func (n *stubNotifier) NotifySubmissionReceipt(_ context.Context, _ *Scope, submitterID uint, teamMembers []uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receipts = append(n.receipts, submitterID)
	n.teams = append(n.teams, teamMembers)
}

func (n *stubNotifier) NotifyGraders(_ context.Context, _ *Scope, submitterID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.graders = append(n.graders, submitterID)
}

func (n *stubNotifier) NotifyFeedbackAvailable(_ context.Context, _ *Scope, userID, _ uint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.feedback = append(n.feedback, userID)
	return nil
}

// captureDelivery records events handed to the transport.
type captureDelivery struct {
	mu     sync.Mutex
	events []NotificationEvent
	err    error
}

func (d *captureDelivery) Send(_ context.Context, event NotificationEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, event)
	return nil
}

func (d *captureDelivery) sent() []NotificationEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]NotificationEvent(nil), d.events...)
}
