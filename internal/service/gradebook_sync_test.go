package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/assignflow-api/internal/models"
)

func TestGradebookSyncerItemMapsGradeSetting(t *testing.T) {
	syncer := NewGradebookSyncer(&stubSink{}, &stubDirectory{}, testLogger())

	item := syncer.Item(models.Assignment{ID: 1, CourseID: 2, CourseModuleID: 40, Name: "Essay", Grade: 100})
	require.Equal(t, models.GradingTypeValue, item.GradeType)
	require.Equal(t, 100.0, item.MaxGrade)
	require.Equal(t, uint(40), item.IDNumber)

	item = syncer.Item(models.Assignment{ID: 1, CourseID: 2, Grade: -5})
	require.Equal(t, models.GradingTypeScale, item.GradeType)
	require.Equal(t, uint(5), item.ScaleID)
	require.Zero(t, item.MaxGrade)
}

func TestPushSubmissionHiddenWhileBlindMarking(t *testing.T) {
	sink := &stubSink{}
	syncer := NewGradebookSyncer(sink, &stubDirectory{}, testLogger())

	scope := NewScope(models.Assignment{ID: 1, CourseID: 2, Grade: 100, BlindMarking: true}, Actor{ID: 7})
	result := syncer.PushSubmission(context.Background(), scope, models.Submission{AssignmentID: 1, UserID: 7})
	require.Zero(t, result.Pushed)
	require.Zero(t, result.Failed)
	require.Empty(t, sink.upserts)
}

func TestPushSubmissionAfterRevealGoesThrough(t *testing.T) {
	sink := &stubSink{}
	syncer := NewGradebookSyncer(sink, &stubDirectory{}, testLogger())

	scope := NewScope(models.Assignment{ID: 1, CourseID: 2, Grade: 100, BlindMarking: true, RevealIdentities: true}, Actor{ID: 7})
	result := syncer.PushSubmission(context.Background(), scope, models.Submission{AssignmentID: 1, UserID: 7, UpdatedAt: time.Now()})
	require.Equal(t, 1, result.Pushed)
	require.Len(t, sink.upserts, 1)
}

func TestPushSubmissionTeamFansOutPerMember(t *testing.T) {
	sink := &stubSink{}
	directory := &stubDirectory{members: map[uint][]uint{3: {7, 8, 9}}}
	syncer := NewGradebookSyncer(sink, directory, testLogger())

	scope := NewScope(models.Assignment{ID: 1, CourseID: 2, Grade: 100, TeamSubmission: true}, Actor{ID: 7})
	team := models.Submission{AssignmentID: 1, GroupID: 3, Status: models.SubmissionStatusSubmitted, UpdatedAt: time.Now()}

	result := syncer.PushSubmission(context.Background(), scope, team)
	require.Equal(t, 3, result.Pushed)
	require.Zero(t, result.Failed)

	seen := map[uint]bool{}
	for _, row := range sink.gradeRows() {
		seen[row.UserID] = true
		require.NotNil(t, row.DateSubmitted)
	}
	require.Equal(t, map[uint]bool{7: true, 8: true, 9: true}, seen)
}

func TestPushSubmissionSinkFailureOnlyAffectsAccounting(t *testing.T) {
	sink := &stubSink{upsertErr: errors.New("gradebook down")}
	syncer := NewGradebookSyncer(sink, &stubDirectory{}, testLogger())

	scope := NewScope(models.Assignment{ID: 1, CourseID: 2, Grade: 100}, Actor{ID: 7})
	result := syncer.PushSubmission(context.Background(), scope, models.Submission{AssignmentID: 1, UserID: 7})
	require.Zero(t, result.Pushed)
	require.Equal(t, 1, result.Failed)
}

func TestPushGradeCarriesFeedback(t *testing.T) {
	sink := &stubSink{}
	syncer := NewGradebookSyncer(sink, &stubDirectory{}, testLogger())

	value := 82.5
	scope := NewScope(models.Assignment{ID: 1, CourseID: 2, Grade: 100}, Actor{ID: 20})
	grade := models.Grade{AssignmentID: 1, UserID: 7, Grade: &value, GraderID: 20, FeedbackText: "solid work", FeedbackFormat: "html", UpdatedAt: time.Now()}

	result := syncer.PushGrade(context.Background(), scope, grade)
	require.Equal(t, 1, result.Pushed)

	rows := sink.gradeRows()
	require.Len(t, rows, 1)
	require.Equal(t, uint(7), rows[0].UserID)
	require.Equal(t, uint(20), rows[0].UserModified)
	require.Equal(t, &value, rows[0].RawGrade)
	require.Equal(t, "solid work", rows[0].FeedbackText)
	require.NotNil(t, rows[0].DateGraded)
}

func TestPushGradeHiddenWhileBlindMarking(t *testing.T) {
	sink := &stubSink{}
	syncer := NewGradebookSyncer(sink, &stubDirectory{}, testLogger())

	value := 50.0
	scope := NewScope(models.Assignment{ID: 1, CourseID: 2, Grade: 100, BlindMarking: true}, Actor{ID: 20})
	result := syncer.PushGrade(context.Background(), scope, models.Grade{AssignmentID: 1, UserID: 7, Grade: &value})
	require.Zero(t, result.Pushed)
	require.Empty(t, sink.upserts)
}
