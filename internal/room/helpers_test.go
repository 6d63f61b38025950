package room

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type sentEvent struct {
	PlayerID string
	Action   string
	Payload  any
}

// recordingSender captures every outbound event instead of hitting a socket.
type recordingSender struct {
	mu     sync.Mutex
	events []sentEvent
}

func (that *recordingSender) Send(playerID, action string, payload any) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = append(that.events, sentEvent{PlayerID: playerID, Action: action, Payload: payload})
}

func (that *recordingSender) count(playerID, action string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	n := 0
	for _, event := range that.events {
		if event.PlayerID == playerID && event.Action == action {
			n++
		}
	}

	return n
}

func (that *recordingSender) last(playerID, action string) (sentEvent, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for i := len(that.events) - 1; i >= 0; i-- {
		event := that.events[i]
		if event.PlayerID == playerID && event.Action == action {
			return event, true
		}
	}

	return sentEvent{}, false
}

// recordingArchiver hands saved records to the test through a channel, since
// the engine archives asynchronously.
type recordingArchiver struct {
	saved chan *entity.FinishedMatch
}

func newRecordingArchiver() *recordingArchiver {
	return &recordingArchiver{saved: make(chan *entity.FinishedMatch, 8)}
}

func (that *recordingArchiver) SaveFinishedMatch(_ context.Context, record *entity.FinishedMatch) error {
	that.saved <- record
	return nil
}

func (that *recordingArchiver) waitForRecord(t *testing.T) *entity.FinishedMatch {
	t.Helper()

	select {
	case record := <-that.saved:
		return record
	case <-time.After(2 * time.Second):
		t.Fatal("no finished match archived")
		return nil
	}
}

func testRules() Rules {
	return Rules{
		BoardSize:       15,
		WinLength:       5,
		MinPlayers:      2,
		MaxPlayers:      8,
		DefaultTurnTime: time.Hour,
		DisconnectGrace: time.Hour,
	}
}

func newTestRegistry(t *testing.T, rules Rules) (*Registry, *recordingSender, *recordingArchiver) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sender := &recordingSender{}
	archiver := newRecordingArchiver()
	presence := &LogPresence{Logger: logger}

	registry := NewRegistry(logger, rules, sender, archiver, presence)
	t.Cleanup(registry.Shutdown)

	return registry, sender, archiver
}

// startedMatch seats p1 (host, black) and p2 (white) and starts the game.
func startedMatch(t *testing.T, registry *Registry, cfg entity.RoomConfig) *Room {
	t.Helper()

	if cfg.Name == "" {
		cfg.Name = "test room"
	}

	created, err := registry.CreateRoom("p1", "Alice", cfg)
	require.NoError(t, err)

	_, err = registry.JoinRoom("p2", "Bob", created.ID, cfg.Password)
	require.NoError(t, err)

	target, err := registry.Room(created.ID)
	require.NoError(t, err)

	require.NoError(t, target.SetReady("p2", true))
	require.NoError(t, target.Start("p1"))

	return target
}

func snapshotOf(t *testing.T, target *Room) *entity.Room {
	t.Helper()

	snapshot, err := target.Snapshot()
	require.NoError(t, err)

	return snapshot
}
