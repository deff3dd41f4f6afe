package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/grading"
	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/plugin"
	"github.com/noah-isme/assignflow-api/internal/repository"
)

type gradingFixture struct {
	service   *GradingService
	rubrics   *grading.Service
	sink      *stubSink
	directory *stubDirectory
	grades    repository.GradeRepository
	db        *gorm.DB
}

func newGradingFixture(t *testing.T, assignment models.Assignment) *gradingFixture {
	t.Helper()

	db := setupServiceDB(t)
	require.NoError(t, db.Create(&assignment).Error)

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	directory := &stubDirectory{groups: map[uint][]Group{}, members: map[uint][]uint{}}
	sink := &stubSink{}

	gradeRepo := repository.NewGradeRepository(db)
	registry := plugin.NewRegistry(
		nil,
		[]plugin.FeedbackPlugin{plugin.NewCommentsPlugin(repository.NewFeedbackCommentRepository(db))},
		repository.NewPluginConfigRepository(db),
	)

	grades := NewGradeStore(gradeRepo, repository.NewScaleRepository(db), testLogger())
	rubrics := grading.NewService(repository.NewGradingDefinitionRepository(db))
	syncer := NewGradebookSyncer(sink, directory, testLogger())
	guard := NewReplayGuard(redisClient, time.Minute)
	activity := NewActivityRecorder(repository.NewActivityLogRepository(db), testLogger())

	service := NewGradingService(
		grades, gradeRepo, repository.NewAssignmentRepository(db), registry, rubrics,
		syncer, directory, &stubCaps{}, guard, activity, plugin.TypeComments, testLogger(),
	)

	return &gradingFixture{service: service, rubrics: rubrics, sink: sink, directory: directory, grades: gradeRepo, db: db}
}

func floatPtr(v float64) *float64 { return &v }

func TestApplyGradeValueGraded(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100}
	fixture := newGradingFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 20, Role: models.RoleTeacher})

	grade, result, err := fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{
		Grade:    floatPtr(85),
		Feedback: plugin.FeedbackData{Comment: "good structure"},
	})
	require.NoError(t, err)
	require.Equal(t, 85.0, *grade.Grade)
	require.Equal(t, uint(20), grade.GraderID)
	require.False(t, grade.Mailed, "regrades re-arm the feedback notice")
	require.Equal(t, "good structure", grade.FeedbackText)
	require.Equal(t, 1, result.Pushed)
}

func TestApplyGradeRejectsOutOfRange(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100}
	fixture := newGradingFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 20, Role: models.RoleTeacher})

	_, _, err := fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{Grade: floatPtr(120)})
	require.ErrorIs(t, err, ErrInvalidGrade)

	_, _, err = fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{Grade: floatPtr(-1)})
	require.ErrorIs(t, err, ErrInvalidGrade)
}

func TestApplyGradeScaleValidatesIndex(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: -5}
	fixture := newGradingFixture(t, assignment)
	require.NoError(t, fixture.db.Create(&models.Scale{ID: 5, Name: "Letters", Options: "Fail, Pass, Merit, Distinction"}).Error)
	scope := NewScope(assignment, Actor{ID: 20, Role: models.RoleTeacher})

	grade, _, err := fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{Grade: floatPtr(3)})
	require.NoError(t, err)
	require.Equal(t, 3.0, *grade.Grade)

	_, _, err = fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{Grade: floatPtr(5)})
	require.ErrorIs(t, err, ErrInvalidGrade)

	_, _, err = fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{Grade: floatPtr(1.5)})
	require.ErrorIs(t, err, ErrInvalidGrade)
}

func TestApplyGradeTextAssignmentRejectsValue(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 0}
	fixture := newGradingFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 20, Role: models.RoleTeacher})

	_, _, err := fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{Grade: floatPtr(1)})
	require.ErrorIs(t, err, ErrInvalidGrade)

	// Feedback alone is fine on a text-graded assignment.
	grade, _, err := fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{
		Feedback: plugin.FeedbackData{Comment: "see annotations"},
	})
	require.NoError(t, err)
	require.Nil(t, grade.Grade)
	require.Equal(t, "see annotations", grade.FeedbackText)
}

func TestApplyGradeRubricOverridesDirectValue(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100}
	fixture := newGradingFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 20, Role: models.RoleTeacher})

	definition := json.RawMessage(`{"criteria":[
		{"id":"clarity","description":"Clarity","levels":[{"score":0,"definition":"poor"},{"score":2,"definition":"great"}]},
		{"id":"depth","description":"Depth","levels":[{"score":0,"definition":"shallow"},{"score":2,"definition":"thorough"}]}
	]}`)
	require.NoError(t, fixture.rubrics.SaveDefinition(context.Background(), 1, definition, true))

	// With an active rubric a bare value is rejected.
	_, _, err := fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{Grade: floatPtr(50)})
	require.ErrorIs(t, err, ErrInvalidGrade)

	grade, _, err := fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{
		AdvancedFill: json.RawMessage(`{"selections":{"clarity":1,"depth":0}}`),
	})
	require.NoError(t, err)
	require.Equal(t, 50.0, *grade.Grade, "half the attainable rubric score maps to half the max grade")
}

func TestApplyGradeTeamFanOut(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100, TeamSubmission: true}
	fixture := newGradingFixture(t, assignment)
	fixture.directory.groups[7] = []Group{{ID: 3, Name: "Blue"}}
	fixture.directory.members[3] = []uint{7, 8, 9}
	scope := NewScope(assignment, Actor{ID: 20, Role: models.RoleTeacher})

	_, result, err := fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{
		Grade:      floatPtr(70),
		Feedback:   plugin.FeedbackData{Comment: "shared effort"},
		ApplyToAll: true,
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.Pushed)

	for _, memberID := range []uint{8, 9} {
		grade, err := fixture.grades.GetByOwner(context.Background(), 1, memberID)
		require.NoError(t, err)
		require.Equal(t, 70.0, *grade.Grade)
		require.Equal(t, uint(20), grade.GraderID)
		require.False(t, grade.Mailed)
	}
}

func TestApplyGradeWithoutApplyToAllGradesOneMember(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100, TeamSubmission: true}
	fixture := newGradingFixture(t, assignment)
	fixture.directory.groups[7] = []Group{{ID: 3, Name: "Blue"}}
	fixture.directory.members[3] = []uint{7, 8}
	scope := NewScope(assignment, Actor{ID: 20, Role: models.RoleTeacher})

	_, result, err := fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{Grade: floatPtr(70)})
	require.NoError(t, err)
	require.Equal(t, 1, result.Pushed)

	_, err = fixture.grades.GetByOwner(context.Background(), 1, 8)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestApplyGradeSuppressedWhileBlindMarking(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100, BlindMarking: true}
	fixture := newGradingFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 20, Role: models.RoleTeacher})

	grade, result, err := fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{Grade: floatPtr(60)})
	require.NoError(t, err)
	require.Equal(t, 60.0, *grade.Grade, "the grade itself is stored")
	require.Zero(t, result.Pushed, "nothing reaches the gradebook while identities are hidden")
	require.Empty(t, fixture.sink.upserts)
}

func TestSetLockedIdempotent(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100}
	fixture := newGradingFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 20, Role: models.RoleTeacher})

	grade, err := fixture.service.SetLocked(context.Background(), scope, 7, true)
	require.NoError(t, err)
	require.True(t, grade.Locked)

	again, err := fixture.service.SetLocked(context.Background(), scope, 7, true)
	require.NoError(t, err)
	require.True(t, again.Locked)

	grade, err = fixture.service.SetLocked(context.Background(), scope, 7, false)
	require.NoError(t, err)
	require.False(t, grade.Locked)
}

func TestGrantExtensionSetAndClear(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100}
	fixture := newGradingFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 20, Role: models.RoleTeacher})

	until := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	grade, err := fixture.service.GrantExtension(context.Background(), scope, 7, &until)
	require.NoError(t, err)
	require.NotNil(t, grade.ExtensionDueDate)

	grade, err = fixture.service.GrantExtension(context.Background(), scope, 7, nil)
	require.NoError(t, err)
	require.Nil(t, grade.ExtensionDueDate)
}

func TestRevealIdentitiesBackfillsGradebook(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100, BlindMarking: true}
	fixture := newGradingFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 30, Role: models.RoleManager})

	_, _, err := fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{Grade: floatPtr(60)})
	require.NoError(t, err)
	_, _, err = fixture.service.ApplyGrade(context.Background(), scope, 8, GradeOptions{Grade: floatPtr(75)})
	require.NoError(t, err)
	require.Empty(t, fixture.sink.upserts)

	token, err := fixture.service.IssueRevealToken(context.Background(), scope)
	require.NoError(t, err)

	revealed, result, err := fixture.service.RevealIdentities(context.Background(), scope, token)
	require.NoError(t, err)
	require.True(t, revealed.RevealIdentities)
	require.Equal(t, 2, result.Pushed)
	require.Len(t, fixture.sink.gradeRows(), 2)

	var stored models.Assignment
	require.NoError(t, fixture.db.First(&stored, 1).Error)
	require.True(t, stored.RevealIdentities, "the transition is persisted")
}

func TestRevealIdentitiesNoOpWithoutBlindMarking(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100}
	fixture := newGradingFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 30, Role: models.RoleManager})

	token, err := fixture.service.IssueRevealToken(context.Background(), scope)
	require.NoError(t, err)

	revealed, result, err := fixture.service.RevealIdentities(context.Background(), scope, token)
	require.NoError(t, err)
	require.False(t, revealed.RevealIdentities)
	require.Zero(t, result.Pushed)
}

func TestRevealIdentitiesRejectsReplayedToken(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100, BlindMarking: true}
	fixture := newGradingFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 30, Role: models.RoleManager})

	token, err := fixture.service.IssueRevealToken(context.Background(), scope)
	require.NoError(t, err)
	_, _, err = fixture.service.RevealIdentities(context.Background(), scope, token)
	require.NoError(t, err)

	_, _, err = fixture.service.RevealIdentities(context.Background(), scope, token)
	require.ErrorIs(t, err, ErrReplayRejected)
}

func TestApplyGradeDeniedWithoutCapability(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100}
	fixture := newGradingFixture(t, assignment)
	fixture.service.caps = &stubCaps{denied: map[string]bool{CapabilityGrade: true}}
	scope := NewScope(assignment, Actor{ID: 7, Role: models.RoleStudent})

	_, _, err := fixture.service.ApplyGrade(context.Background(), scope, 7, GradeOptions{Grade: floatPtr(10)})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDisplayGrade(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: 100}
	fixture := newGradingFixture(t, assignment)
	scope := NewScope(assignment, Actor{ID: 20, Role: models.RoleTeacher})

	require.Equal(t, "-", fixture.service.DisplayGrade(context.Background(), scope, models.Grade{}))
	require.Equal(t, "85 / 100", fixture.service.DisplayGrade(context.Background(), scope, models.Grade{Grade: floatPtr(85)}))
	require.Equal(t, "92.5 / 100", fixture.service.DisplayGrade(context.Background(), scope, models.Grade{Grade: floatPtr(92.5)}))
}

func TestDisplayGradeScaleLabel(t *testing.T) {
	assignment := models.Assignment{ID: 1, CourseID: 1, Grade: -5}
	fixture := newGradingFixture(t, assignment)
	require.NoError(t, fixture.db.Create(&models.Scale{ID: 5, Name: "Outcome", Options: "Fail, Pass, Merit, Distinction"}).Error)
	scope := NewScope(assignment, Actor{ID: 20, Role: models.RoleTeacher})

	require.Equal(t, "Merit", fixture.service.DisplayGrade(context.Background(), scope, models.Grade{Grade: floatPtr(3)}))
	require.Equal(t, "-", fixture.service.DisplayGrade(context.Background(), scope, models.Grade{Grade: floatPtr(9)}))
}
