package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/testing/suite"
)

func TestArchiveRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping docker-backed test in short mode")
	}

	ctx, s := suite.New(t)

	record := &entity.FinishedMatch{
		RoomID:    "room-it",
		BoardSize: 15,
		Players: []*entity.Player{
			{ID: "p1", Name: "Alice", Mark: entity.MarkBlack, IsHost: true},
			{ID: "p2", Name: "Bob", Mark: entity.MarkWhite},
		},
		Moves: []entity.Move{
			{Number: 1, X: 7, Y: 7, Mark: entity.MarkBlack, PlayerID: "p1", Timestamp: time.Now().UTC()},
		},
		WinnerID:   "p2",
		WinnerMark: entity.MarkWhite,
		EndReason:  entity.EndReasonSurrender,
		StartedAt:  time.Now().UTC().Add(-time.Minute),
		EndedAt:    time.Now().UTC(),
		Duration:   time.Minute,
	}

	require.NoError(t, s.Archive.SaveFinishedMatch(ctx, record))

	got, err := s.Archive.GetLastByRoomID(ctx, "room-it")
	require.NoError(t, err)
	assert.Equal(t, record.WinnerID, got.WinnerID)
	assert.Equal(t, record.EndReason, got.EndReason)
	assert.Len(t, got.Moves, 1)

	ttl, err := s.Storage.TTL(ctx, "match:last:room-it").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	_, err = s.Archive.GetLastByRoomID(ctx, "never-played")
	assert.ErrorIs(t, err, repository.ErrMatchNotFound)
}
