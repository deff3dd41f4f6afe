package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/plugin"
	"github.com/noah-isme/assignflow-api/internal/repository"
)

type submissionFixture struct {
	service     *SubmissionService
	guard       *ReplayGuard
	sink        *stubSink
	notifier    *stubNotifier
	directory   *stubDirectory
	submissions repository.SubmissionRepository
	texts       repository.SubmissionTextRepository
	db          *gorm.DB
}

func newSubmissionFixture(t *testing.T, assignment models.Assignment) *submissionFixture {
	t.Helper()

	db := setupServiceDB(t)
	require.NoError(t, db.Create(&assignment).Error)

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	directory := &stubDirectory{notEnrolled: map[uint]bool{}, groups: map[uint][]Group{}, members: map[uint][]uint{}}
	sink := &stubSink{disabled: map[uint]bool{}}
	notifier := &stubNotifier{}

	submissionRepo := repository.NewSubmissionRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	textRepo := repository.NewSubmissionTextRepository(db)

	registry := plugin.NewRegistry(
		[]plugin.SubmissionPlugin{plugin.NewOnlineTextPlugin(textRepo)},
		nil,
		repository.NewPluginConfigRepository(db),
	)

	submissions := NewSubmissionStore(submissionRepo, directory, testLogger())
	grades := NewGradeStore(gradeRepo, repository.NewScaleRepository(db), testLogger())
	team := NewTeamService(submissions, submissionRepo, directory, testLogger())
	windows := NewWindowPolicy(submissions, grades, directory, sink, testLogger())
	syncer := NewGradebookSyncer(sink, directory, testLogger())
	guard := NewReplayGuard(redisClient, time.Minute)
	activity := NewActivityRecorder(repository.NewActivityLogRepository(db), testLogger())

	service := NewSubmissionService(
		submissions, grades, team, windows, registry, syncer, notifier,
		&stubCaps{}, guard, activity, testLogger(),
	)

	return &submissionFixture{
		service:     service,
		guard:       guard,
		sink:        sink,
		notifier:    notifier,
		directory:   directory,
		submissions: submissionRepo,
		texts:       textRepo,
		db:          db,
	}
}

func TestSaveSubmissionKeepsDraftWhenDraftsEnabled(t *testing.T) {
	fixture := newSubmissionFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100, SubmissionDrafts: true})
	scope := NewScope(models.Assignment{ID: 1, CourseID: 1, Grade: 100, SubmissionDrafts: true}, Actor{ID: 7, Role: models.RoleStudent})

	submission, err := fixture.service.SaveSubmission(context.Background(), scope, plugin.SubmissionData{OnlineText: "<p>my essay</p>"})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusDraft, submission.Status)
	require.Empty(t, fixture.notifier.receipts, "drafts never announce")

	text, err := fixture.texts.GetBySubmission(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, "<p>my essay</p>", text.Text)
	require.Equal(t, 2, text.WordCount)
}

func TestSaveSubmissionDoublesAsSubmitWithoutDrafts(t *testing.T) {
	fixture := newSubmissionFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100})
	scope := NewScope(models.Assignment{ID: 1, CourseID: 1, Grade: 100}, Actor{ID: 7, Role: models.RoleStudent})

	submission, err := fixture.service.SaveSubmission(context.Background(), scope, plugin.SubmissionData{OnlineText: "done"})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, submission.Status)
	require.Equal(t, []uint{7}, fixture.notifier.receipts)
	require.NotEmpty(t, fixture.sink.upserts, "submitted work reaches the gradebook")
}

func TestSaveSubmissionSanitizesMarkup(t *testing.T) {
	fixture := newSubmissionFixture(t, models.Assignment{ID: 1, CourseID: 1, Grade: 100, SubmissionDrafts: true})
	scope := NewScope(models.Assignment{ID: 1, CourseID: 1, Grade: 100, SubmissionDrafts: true}, Actor{ID: 7, Role: models.RoleStudent})

	submission, err := fixture.service.SaveSubmission(context.Background(), scope, plugin.SubmissionData{
		OnlineText: `<p>hello</p><script>alert("x")</script>`,
	})
	require.NoError(t, err)

	text, err := fixture.texts.GetBySubmission(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, "<p>hello</p>", text.Text)
}

func TestSaveSubmissionClosedWindow(t *testing.T) {
	cutoff := time.Now().Add(-time.Hour)
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100, SubmissionDrafts: true, CutoffDate: &cutoff}
	fixture := newSubmissionFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 7, Role: models.RoleStudent})

	_, err := fixture.service.SaveSubmission(context.Background(), scope, plugin.SubmissionData{OnlineText: "late"})
	require.ErrorIs(t, err, ErrSubmissionsClosed)
}

func TestSubmitForGradingHappyPath(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100, SubmissionDrafts: true}
	fixture := newSubmissionFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 7, Role: models.RoleStudent})

	_, err := fixture.service.SaveSubmission(context.Background(), scope, plugin.SubmissionData{OnlineText: "ready"})
	require.NoError(t, err)

	token, err := fixture.service.IssueSubmitToken(context.Background(), scope)
	require.NoError(t, err)

	submission, err := fixture.service.SubmitForGrading(context.Background(), scope, token)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, submission.Status)
	require.Equal(t, []uint{7}, fixture.notifier.receipts)

	// The grading record exists as soon as the submission is final.
	var grade models.Grade
	require.NoError(t, fixture.db.Where("assignment_id = ? AND user_id = ?", 1, 7).First(&grade).Error)
}

func TestSubmitForGradingRejectsReplayedToken(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100, SubmissionDrafts: true}
	fixture := newSubmissionFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 7, Role: models.RoleStudent})

	_, err := fixture.service.SaveSubmission(context.Background(), scope, plugin.SubmissionData{OnlineText: "ready"})
	require.NoError(t, err)

	token, err := fixture.service.IssueSubmitToken(context.Background(), scope)
	require.NoError(t, err)
	_, err = fixture.service.SubmitForGrading(context.Background(), scope, token)
	require.NoError(t, err)

	_, err = fixture.service.SubmitForGrading(context.Background(), scope, token)
	require.ErrorIs(t, err, ErrReplayRejected)
}

func TestSubmitForGradingIdempotentWhenAlreadySubmitted(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100, SubmissionDrafts: true}
	fixture := newSubmissionFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 7, Role: models.RoleStudent})

	_, err := fixture.service.SaveSubmission(context.Background(), scope, plugin.SubmissionData{OnlineText: "ready"})
	require.NoError(t, err)

	token, err := fixture.service.IssueSubmitToken(context.Background(), scope)
	require.NoError(t, err)
	first, err := fixture.service.SubmitForGrading(context.Background(), scope, token)
	require.NoError(t, err)

	// A fresh token against an already-submitted record is a silent no-op.
	token, err = fixture.service.IssueSubmitToken(context.Background(), scope)
	require.NoError(t, err)
	second, err := fixture.service.SubmitForGrading(context.Background(), scope, token)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, fixture.notifier.receipts, 1, "the no-op sends no second receipt")
}

func TestSubmitForGradingRejectsEmptySubmission(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100, SubmissionDrafts: true}
	fixture := newSubmissionFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 7, Role: models.RoleStudent})

	token, err := fixture.service.IssueSubmitToken(context.Background(), scope)
	require.NoError(t, err)

	_, err = fixture.service.SubmitForGrading(context.Background(), scope, token)
	require.ErrorIs(t, err, ErrSubmissionEmpty)
}

func TestSubmitForGradingTeamReceiptsReachMembers(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100, SubmissionDrafts: true, TeamSubmission: true}
	fixture := newSubmissionFixture(t, assignment)
	fixture.directory.groups[7] = []Group{{ID: 3, Name: "Blue"}}
	fixture.directory.groups[8] = []Group{{ID: 3, Name: "Blue"}}
	fixture.directory.members[3] = []uint{7, 8}
	scope := NewScope(assignment, Actor{ID: 7, Role: models.RoleStudent})

	_, err := fixture.service.SaveSubmission(context.Background(), scope, plugin.SubmissionData{OnlineText: "team work"})
	require.NoError(t, err)

	token, err := fixture.service.IssueSubmitToken(context.Background(), scope)
	require.NoError(t, err)
	submission, err := fixture.service.SubmitForGrading(context.Background(), scope, token)
	require.NoError(t, err)
	require.True(t, submission.IsTeamRecord())

	require.Len(t, fixture.notifier.teams, 1)
	require.Equal(t, []uint{7, 8}, fixture.notifier.teams[0])
}

func TestRevertToDraftReopensIndividual(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100}
	fixture := newSubmissionFixture(t, assignment)
	student := NewScope(assignment, Actor{ID: 7, Role: models.RoleStudent})

	_, err := fixture.service.SaveSubmission(context.Background(), student, plugin.SubmissionData{OnlineText: "v1"})
	require.NoError(t, err)

	teacher := NewScope(assignment, Actor{ID: 20, Role: models.RoleTeacher})
	submission, err := fixture.service.RevertToDraft(context.Background(), teacher, 7)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusDraft, submission.Status)
}

func TestRevertToDraftUnknownSubmission(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100}
	fixture := newSubmissionFixture(t, assignment)
	teacher := NewScope(assignment, Actor{ID: 20, Role: models.RoleTeacher})

	_, err := fixture.service.RevertToDraft(context.Background(), teacher, 99)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
