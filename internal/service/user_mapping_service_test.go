package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/assignflow-api/internal/repository"
)

func TestParticipantIDStableAcrossLookups(t *testing.T) {
	db := setupServiceDB(t)
	service := NewUserMappingService(repository.NewUserMappingRepository(db), testLogger())

	first, err := service.ParticipantID(context.Background(), 1, 7)
	require.NoError(t, err)
	require.NotZero(t, first)

	second, err := service.ParticipantID(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestParticipantIDScopedPerAssignment(t *testing.T) {
	db := setupServiceDB(t)
	service := NewUserMappingService(repository.NewUserMappingRepository(db), testLogger())

	one, err := service.ParticipantID(context.Background(), 1, 7)
	require.NoError(t, err)
	other, err := service.ParticipantID(context.Background(), 2, 7)
	require.NoError(t, err)
	require.NotEqual(t, one, other)
}

func TestUserForParticipantRoundTrip(t *testing.T) {
	db := setupServiceDB(t)
	service := NewUserMappingService(repository.NewUserMappingRepository(db), testLogger())

	participantID, err := service.ParticipantID(context.Background(), 1, 7)
	require.NoError(t, err)

	userID, err := service.UserForParticipant(context.Background(), 1, participantID)
	require.NoError(t, err)
	require.Equal(t, uint(7), userID)
}

func TestUserForParticipantUnknown(t *testing.T) {
	db := setupServiceDB(t)
	service := NewUserMappingService(repository.NewUserMappingRepository(db), testLogger())

	_, err := service.UserForParticipant(context.Background(), 1, 999)
	require.ErrorIs(t, err, ErrMappingNotFound)
}
