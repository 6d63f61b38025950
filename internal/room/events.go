package room

import (
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Outbound actions. Every accepted transition is mirrored by one of these;
// rejected inputs get an error payload on the action that was rejected.
const (
	ActionRoomUpdate  = "room:update"
	ActionGameStarted = "game:started"
	ActionGameMove    = "game:move"
	ActionGameEnded   = "game:ended"
	ActionGameCleared = "game:cleared"

	ActionDrawOffered   = "draw:offered"
	ActionDrawRejected  = "draw:rejected"
	ActionDrawCancelled = "draw:cancelled"

	ActionPlayerDisconnected = "player:disconnected"
	ActionPlayerReconnected  = "player:reconnected"
)

type RoomPayload struct {
	Room *entity.Room `json:"room"`
}

type MovePayload struct {
	Move       entity.Move `json:"move"`
	Turn       string      `json:"turn"`
	TurnEndsAt time.Time   `json:"turn_ends_at"`
}

type EndedPayload struct {
	Room   *entity.Room `json:"room"`
	Reason string       `json:"reason"`
}

type DrawPayload struct {
	RequesterID string `json:"requester_id"`
}

type PlayerPayload struct {
	PlayerID string `json:"player_id"`
}
