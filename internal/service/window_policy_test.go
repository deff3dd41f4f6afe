package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/repository"
)

func windowFixture(t *testing.T, assignment models.Assignment) (*WindowPolicy, *stubDirectory, *stubSink, *Scope, repository.GradeRepository, repository.SubmissionRepository) {
	t.Helper()

	db := setupServiceDB(t)
	require.NoError(t, db.Create(&assignment).Error)

	directory := &stubDirectory{notEnrolled: map[uint]bool{}}
	sink := &stubSink{disabled: map[uint]bool{}}

	submissionRepo := repository.NewSubmissionRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	submissions := NewSubmissionStore(submissionRepo, directory, testLogger())
	grades := NewGradeStore(gradeRepo, repository.NewScaleRepository(db), testLogger())

	policy := NewWindowPolicy(submissions, grades, directory, sink, testLogger())
	scope := NewScope(assignment, Actor{ID: 7, Role: models.RoleStudent})
	return policy, directory, sink, scope, gradeRepo, submissionRepo
}

func TestSubmissionsOpenDefault(t *testing.T) {
	policy, _, _, scope, _, _ := windowFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100})

	open, err := policy.SubmissionsOpen(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.True(t, open)
}

func TestSubmissionsOpenBeforeAllowFrom(t *testing.T) {
	allowFrom := time.Now().Add(time.Hour)
	policy, _, _, scope, _, _ := windowFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100, AllowFrom: &allowFrom})

	open, err := policy.SubmissionsOpen(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.False(t, open)
}

func TestSubmissionsOpenAfterCutoff(t *testing.T) {
	cutoff := time.Now().Add(-time.Hour)
	policy, _, _, scope, _, _ := windowFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100, CutoffDate: &cutoff})

	open, err := policy.SubmissionsOpen(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.False(t, open)
}

func TestSubmissionsOpenDueDateClosesWhenLateBlocked(t *testing.T) {
	due := time.Now().Add(-time.Hour)

	// Without the late block the due date alone never closes the window.
	policy, _, _, scope, _, _ := windowFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100, DueDate: &due})
	open, err := policy.SubmissionsOpen(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.True(t, open)

	policy, _, _, scope, _, _ = windowFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100, DueDate: &due, PreventLateSubmissions: true})
	open, err = policy.SubmissionsOpen(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.False(t, open)
}

func TestSubmissionsOpenExtensionWidensWindow(t *testing.T) {
	due := time.Now().Add(-time.Hour)
	extension := time.Now().Add(time.Hour)
	policy, _, _, scope, gradeRepo, _ := windowFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100, DueDate: &due, PreventLateSubmissions: true})

	require.NoError(t, gradeRepo.Create(context.Background(), &models.Grade{AssignmentID: 1, UserID: 7, ExtensionDueDate: &extension}))

	open, err := policy.SubmissionsOpen(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.True(t, open)
}

func TestSubmissionsOpenExtensionOverridesDueDate(t *testing.T) {
	due := time.Now().Add(time.Hour)
	extension := time.Now().Add(-time.Hour)
	policy, _, _, scope, gradeRepo, _ := windowFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100, DueDate: &due, PreventLateSubmissions: true})

	require.NoError(t, gradeRepo.Create(context.Background(), &models.Grade{AssignmentID: 1, UserID: 7, ExtensionDueDate: &extension}))

	// The extension is the extended user's close time outright, even when it
	// lands before the due date.
	open, err := policy.SubmissionsOpen(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.False(t, open)

	// Users without an extension still run on the assignment dates.
	open, err = policy.SubmissionsOpen(context.Background(), scope, 8, false)
	require.NoError(t, err)
	require.True(t, open)
}

func TestSubmissionsOpenRequiresEnrolment(t *testing.T) {
	policy, directory, _, scope, _, _ := windowFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100})
	directory.notEnrolled[7] = true

	open, err := policy.SubmissionsOpen(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.False(t, open)

	open, err = policy.SubmissionsOpen(context.Background(), scope, 7, true)
	require.NoError(t, err)
	require.True(t, open)
}

func TestSubmissionsOpenSubmittedBlocksReeditWithDrafts(t *testing.T) {
	policy, _, _, scope, _, submissionRepo := windowFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100, SubmissionDrafts: true})

	require.NoError(t, submissionRepo.Create(context.Background(), &models.Submission{
		AssignmentID: 1, UserID: 7, Status: models.SubmissionStatusSubmitted,
	}))

	// Draft tracking makes submitted the terminal editing state.
	open, err := policy.SubmissionsOpen(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.False(t, open)
}

func TestSubmissionsOpenSubmittedEditableWithoutDrafts(t *testing.T) {
	policy, _, _, scope, _, submissionRepo := windowFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100})

	require.NoError(t, submissionRepo.Create(context.Background(), &models.Submission{
		AssignmentID: 1, UserID: 7, Status: models.SubmissionStatusSubmitted,
	}))

	// Without draft tracking every save lands as submitted, so the record
	// stays editable until the window itself closes.
	open, err := policy.SubmissionsOpen(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.True(t, open)
}

func TestSubmissionsOpenLockedGradeCloses(t *testing.T) {
	policy, _, _, scope, gradeRepo, _ := windowFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100})

	require.NoError(t, gradeRepo.Create(context.Background(), &models.Grade{AssignmentID: 1, UserID: 7, Locked: true}))

	open, err := policy.SubmissionsOpen(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.False(t, open)
}

func TestSubmissionsOpenGradebookLockCloses(t *testing.T) {
	policy, _, sink, scope, _, _ := windowFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100})
	sink.disabled[7] = true

	open, err := policy.SubmissionsOpen(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.False(t, open)
}

func TestSubmissionsOpenGradebookLookupFailureClosesWithoutError(t *testing.T) {
	policy, _, sink, scope, _, _ := windowFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100})
	sink.disabledErr = errors.New("gradebook unreachable")

	// An unreachable gradebook closes the window but is not surfaced as an
	// error to the caller.
	open, err := policy.SubmissionsOpen(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.False(t, open)
}

func TestSubmissionsOpenTeamRecordBlocksMembers(t *testing.T) {
	policy, directory, _, scope, _, submissionRepo := windowFixture(t, models.Assignment{
		ID: 1, CourseID: 1, Grade: 100, TeamSubmission: true, SubmissionDrafts: true,
	})
	directory.groups = map[uint][]Group{7: {{ID: 3, Name: "Blue"}}}

	require.NoError(t, submissionRepo.Create(context.Background(), &models.Submission{
		AssignmentID: 1, GroupID: 3, Status: models.SubmissionStatusSubmitted,
	}))

	open, err := policy.SubmissionsOpen(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.False(t, open)
}
