package room

import (
	"context"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Sender delivers an outbound event to one identity. Implementations must be
// fire and forget: a slow or absent connection never blocks the caller.
type Sender interface {
	Send(playerID, action string, payload any)
}

// Archiver receives the finished-match record for durable storage. Failures
// are logged and never affect in-memory state.
type Archiver interface {
	SaveFinishedMatch(ctx context.Context, record *entity.FinishedMatch) error
}

// Presence consumes seat lifecycle notifications for the social layer. The
// engine does not depend on this collaborator succeeding.
type Presence interface {
	PlayerJoined(roomID, playerID string)
	PlayerLeft(roomID, playerID string)
	PlayerDisconnected(roomID, playerID string)
	PlayerReconnected(roomID, playerID string)
}

// LogPresence is the default collaborator: it just records the notifications.
type LogPresence struct {
	Logger *slog.Logger
}

func (that *LogPresence) PlayerJoined(roomID, playerID string) {
	that.Logger.Info("player joined", "roomID", roomID, "playerID", playerID)
}

func (that *LogPresence) PlayerLeft(roomID, playerID string) {
	that.Logger.Info("player left", "roomID", roomID, "playerID", playerID)
}

func (that *LogPresence) PlayerDisconnected(roomID, playerID string) {
	that.Logger.Info("player disconnected", "roomID", roomID, "playerID", playerID)
}

func (that *LogPresence) PlayerReconnected(roomID, playerID string) {
	that.Logger.Info("player reconnected", "roomID", roomID, "playerID", playerID)
}

// Rules carries the engine-wide settings resolved from config.
type Rules struct {
	BoardSize       int
	WinLength       int
	MinPlayers      int
	MaxPlayers      int
	DefaultTurnTime time.Duration
	DisconnectGrace time.Duration
}
