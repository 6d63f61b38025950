package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

var ErrMatchNotFound = errors.New("finished match not found")

// recordTTL keeps the last result of a room retrievable for a day; long-term
// history belongs to the external leaderboard service.
const recordTTL = 24 * time.Hour

type ArchiveRepository interface {
	SaveFinishedMatch(ctx context.Context, record *entity.FinishedMatch) error
	GetLastByRoomID(ctx context.Context, roomID string) (*entity.FinishedMatch, error)
}

type dbArchive struct {
	client *redis.Client
}

func NewArchiveRepository(client *redis.Client) ArchiveRepository {
	return &dbArchive{
		client: client,
	}
}

func (that *dbArchive) SaveFinishedMatch(ctx context.Context, record *entity.FinishedMatch) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal finished match: %w", err)
	}

	recordKey := "match:last:" + record.RoomID
	if err = that.client.Set(ctx, recordKey, recordJSON, recordTTL).Err(); err != nil {
		return fmt.Errorf("failed to set finished match: %w", err)
	}

	return nil
}

func (that *dbArchive) GetLastByRoomID(ctx context.Context, roomID string) (*entity.FinishedMatch, error) {
	recordKey := "match:last:" + roomID

	response, err := that.client.Get(ctx, recordKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrMatchNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get finished match by room ID: %w", err)
	}

	var record entity.FinishedMatch
	if err = json.Unmarshal([]byte(response), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal finished match: %w", err)
	}

	return &record, nil
}
