package websocket

import (
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// PlayerInfo identifies the connecting player. The identity is supplied by
// the identity provider and trusted as-is.
type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type ConnectPayload struct {
	Player PlayerInfo `json:"player"`
}

// ConnectResponse carries the reconnect snapshot. Room is nil when the
// identity is not seated anywhere.
type ConnectResponse struct {
	Player PlayerInfo   `json:"player"`
	Room   *entity.Room `json:"room,omitempty"`
}

type CreateRoomPayload struct {
	Name            string `json:"name"`
	MaxPlayers      int    `json:"max_players"`
	Password        string `json:"password,omitempty"`
	TurnTimeSeconds int    `json:"turn_time_seconds,omitempty"`
	FirstTurn       string `json:"first_turn,omitempty"`
	HostMark        string `json:"host_mark,omitempty"`
}

type JoinRoomPayload struct {
	RoomID   string `json:"room_id"`
	Password string `json:"password,omitempty"`
}

type RoomIDPayload struct {
	RoomID string `json:"room_id"`
}

type ReadyPayload struct {
	RoomID  string `json:"room_id"`
	IsReady bool   `json:"is_ready"`
}

type TurnPayload struct {
	RoomID string `json:"room_id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

type DrawResponsePayload struct {
	RoomID string `json:"room_id"`
	Accept bool   `json:"accept"`
}

type RoomResponse struct {
	Room *entity.Room `json:"room"`
}

// HeartbeatResponse acks an inbound heartbeat. Server time lets the client
// render the remaining turn clock without trusting its own clock.
type HeartbeatResponse struct {
	ServerTime time.Time `json:"server_time"`
}
