package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
)

func setupRepoDB(t *testing.T, dst ...interface{}) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(dst...))

	return db
}

func TestSubmissionGetByOwnerAddressing(t *testing.T) {
	db := setupRepoDB(t, &models.Submission{})
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	individual := models.Submission{AssignmentID: 1, UserID: 7, GroupID: 0, Status: models.SubmissionStatusDraft}
	team := models.Submission{AssignmentID: 1, UserID: 0, GroupID: 3, Status: models.SubmissionStatusDraft}
	require.NoError(t, repo.Create(ctx, &individual))
	require.NoError(t, repo.Create(ctx, &team))

	got, err := repo.GetByOwner(ctx, 1, 7, 0)
	require.NoError(t, err)
	require.Equal(t, individual.ID, got.ID)
	require.False(t, got.IsTeamRecord())

	got, err = repo.GetByOwner(ctx, 1, 0, 3)
	require.NoError(t, err)
	require.Equal(t, team.ID, got.ID)
	require.True(t, got.IsTeamRecord())

	// The individual record is invisible under the team address and vice
	// versa.
	_, err = repo.GetByOwner(ctx, 1, 7, 3)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.GetByOwner(ctx, 2, 7, 0)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubmissionDeleteByAssignment(t *testing.T) {
	db := setupRepoDB(t, &models.Submission{})
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Submission{AssignmentID: 1, UserID: 7, Status: models.SubmissionStatusDraft}))
	require.NoError(t, repo.Create(ctx, &models.Submission{AssignmentID: 2, UserID: 7, Status: models.SubmissionStatusDraft}))

	require.NoError(t, repo.DeleteByAssignment(ctx, 1))

	remaining, err := repo.ListByAssignment(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, remaining)

	remaining, err = repo.ListByAssignment(ctx, 2)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
}

func TestGradeListUnmailedFiltersGradedRows(t *testing.T) {
	db := setupRepoDB(t, &models.Grade{})
	repo := NewGradeRepository(db)
	ctx := context.Background()

	value := 70.0
	graded := models.Grade{AssignmentID: 1, UserID: 7, Grade: &value, Mailed: false}
	ungraded := models.Grade{AssignmentID: 1, UserID: 8, Mailed: false}
	alreadyMailed := models.Grade{AssignmentID: 1, UserID: 9, Grade: &value, Mailed: true}
	require.NoError(t, repo.Create(ctx, &graded))
	require.NoError(t, repo.Create(ctx, &ungraded))
	require.NoError(t, repo.Create(ctx, &alreadyMailed))

	pending, err := repo.ListUnmailed(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, uint(7), pending[0].UserID)
}

func TestGradeListUnmailedOrdersOldestFirst(t *testing.T) {
	db := setupRepoDB(t, &models.Grade{})
	repo := NewGradeRepository(db)
	ctx := context.Background()

	value := 70.0
	now := time.Now()
	newer := models.Grade{AssignmentID: 1, UserID: 8, Grade: &value, UpdatedAt: now}
	older := models.Grade{AssignmentID: 1, UserID: 7, Grade: &value, UpdatedAt: now.Add(-time.Hour)}
	require.NoError(t, db.Create(&newer).Error)
	require.NoError(t, db.Create(&older).Error)

	pending, err := repo.ListUnmailed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, uint(7), pending[0].UserID)

	pending, err = repo.ListUnmailed(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1, "the limit caps one pass")
}
