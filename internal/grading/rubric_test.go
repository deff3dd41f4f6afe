package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/repository"
)

func setupGradingService(t *testing.T) (*Service, repository.GradingDefinitionRepository) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.GradingDefinition{}, &models.GradingFill{}))

	repo := repository.NewGradingDefinitionRepository(db)
	return NewService(repo), repo
}

func twoCriteriaDefinition() json.RawMessage {
	return json.RawMessage(`{"criteria":[
		{"id":"clarity","description":"Clarity","levels":[
			{"score":0,"definition":"unclear"},
			{"score":1,"definition":"readable"},
			{"score":3,"definition":"crisp"}
		]},
		{"id":"depth","description":"Depth","levels":[
			{"score":1,"definition":"surface"},
			{"score":4,"definition":"thorough"}
		]}
	]}`)
}

func TestSaveDefinitionRejectsInvalidDocuments(t *testing.T) {
	service, _ := setupGradingService(t)

	cases := map[string]string{
		"not json":          `{"criteria":`,
		"no criteria":       `{"criteria":[]}`,
		"missing levels":    `{"criteria":[{"id":"a","description":"x"}]}`,
		"single level":      `{"criteria":[{"id":"a","description":"x","levels":[{"score":1,"definition":"only"}]}]}`,
		"negative score":    `{"criteria":[{"id":"a","description":"x","levels":[{"score":-1,"definition":"bad"},{"score":1,"definition":"ok"}]}]}`,
		"empty criterionid": `{"criteria":[{"id":"","description":"x","levels":[{"score":0,"definition":"a"},{"score":1,"definition":"b"}]}]}`,
	}

	for name, doc := range cases {
		err := service.SaveDefinition(context.Background(), 1, json.RawMessage(doc), true)
		require.ErrorIs(t, err, ErrInvalidDefinition, name)
	}
}

func TestSaveDefinitionUpsertsSingleRowPerAssignment(t *testing.T) {
	service, repo := setupGradingService(t)

	require.NoError(t, service.SaveDefinition(context.Background(), 1, twoCriteriaDefinition(), false))
	_, active, err := service.ActiveInstance(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, active, "inactive definitions resolve no instance")

	require.NoError(t, service.SaveDefinition(context.Background(), 1, twoCriteriaDefinition(), true))
	_, active, err = service.ActiveInstance(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, active)

	record, err := repo.GetActive(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, MethodRubric, record.Method)
}

func TestSubmitAndGetGradeMapsScoreOntoRange(t *testing.T) {
	service, _ := setupGradingService(t)
	require.NoError(t, service.SaveDefinition(context.Background(), 1, twoCriteriaDefinition(), true))

	instance, active, err := service.ActiveInstance(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, active)

	// Minimum total is 0+1=1, maximum 3+4=7. clarity=1 (1) + depth=1 (4)
	// gives raw 5, mapped to (5-1)/(7-1)*90 = 60.
	value, err := instance.SubmitAndGetGrade(context.Background(), json.RawMessage(`{"selections":{"clarity":1,"depth":1}}`), 10, 20, 90)
	require.NoError(t, err)
	require.InDelta(t, 60.0, value, 1e-9)

	// The bottom selection of every criterion maps to zero.
	value, err = instance.SubmitAndGetGrade(context.Background(), json.RawMessage(`{"selections":{"clarity":0,"depth":0}}`), 10, 20, 90)
	require.NoError(t, err)
	require.Zero(t, value)

	// The top selection maps to the maximum grade.
	value, err = instance.SubmitAndGetGrade(context.Background(), json.RawMessage(`{"selections":{"clarity":2,"depth":1}}`), 10, 20, 90)
	require.NoError(t, err)
	require.InDelta(t, 90.0, value, 1e-9)
}

func TestSubmitAndGetGradeRejectsIncompleteFills(t *testing.T) {
	service, _ := setupGradingService(t)
	require.NoError(t, service.SaveDefinition(context.Background(), 1, twoCriteriaDefinition(), true))

	instance, _, err := service.ActiveInstance(context.Background(), 1)
	require.NoError(t, err)

	_, err = instance.SubmitAndGetGrade(context.Background(), json.RawMessage(`{"selections":{"clarity":1}}`), 10, 20, 100)
	require.ErrorIs(t, err, ErrInvalidFill)

	_, err = instance.SubmitAndGetGrade(context.Background(), json.RawMessage(`{"selections":{"clarity":9,"depth":0}}`), 10, 20, 100)
	require.ErrorIs(t, err, ErrInvalidFill)

	_, err = instance.SubmitAndGetGrade(context.Background(), json.RawMessage(`not json`), 10, 20, 100)
	require.ErrorIs(t, err, ErrInvalidFill)
}

func TestSubmitAndGetGradeUpsertsFillPerGrade(t *testing.T) {
	service, repo := setupGradingService(t)
	require.NoError(t, service.SaveDefinition(context.Background(), 1, twoCriteriaDefinition(), true))

	instance, _, err := service.ActiveInstance(context.Background(), 1)
	require.NoError(t, err)

	_, err = instance.SubmitAndGetGrade(context.Background(), json.RawMessage(`{"selections":{"clarity":0,"depth":0}}`), 10, 20, 100)
	require.NoError(t, err)
	_, err = instance.SubmitAndGetGrade(context.Background(), json.RawMessage(`{"selections":{"clarity":2,"depth":1}}`), 10, 21, 100)
	require.NoError(t, err)

	fill, err := repo.GetFill(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, uint(21), fill.RaterID, "a regrade replaces the stored fill")
	require.InDelta(t, 7.0, fill.RawGrade, 1e-9)
}
