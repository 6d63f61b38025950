package entity

import "time"

const (
	RoomWaiting = "waiting"
	RoomPlaying = "playing"
	RoomClosed  = "closed"
)

// RoomConfig is what a create-room request carries.
type RoomConfig struct {
	Name       string        `json:"name"`
	MaxPlayers int           `json:"max_players"`
	Password   string        `json:"password,omitempty"`
	TurnTime   time.Duration `json:"turn_time,omitempty"`
	FirstTurn  string        `json:"first_turn,omitempty"`
	HostMark   string        `json:"host_mark,omitempty"`
}

// Room is a lobby+match container with a bounded set of seated identities.
// Players keeps join order; the first seat after a host reassignment is the
// new host.
type Room struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	HostID     string    `json:"host_id"`
	Players    []*Player `json:"players"`
	MaxPlayers int       `json:"max_players"`
	IsPrivate  bool      `json:"is_private"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`

	TurnTime  time.Duration `json:"turn_time"`
	FirstTurn string        `json:"first_turn"`
	HostMark  string        `json:"host_mark"`

	PasswordHash []byte `json:"-"`

	Match *Match `json:"match,omitempty"`
}

func (that *Room) IsWaiting() bool {
	return that.Status == RoomWaiting
}

func (that *Room) IsPlaying() bool {
	return that.Status == RoomPlaying
}

func (that *Room) IsClosed() bool {
	return that.Status == RoomClosed
}

func (that *Room) IsFull() bool {
	return len(that.Players) >= that.MaxPlayers
}

func (that *Room) PlayerByID(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}

	return nil
}

func (that *Room) PlayerByMark(mark string) *Player {
	for _, player := range that.Players {
		if player.Mark == mark {
			return player
		}
	}

	return nil
}

func (that *Room) RemovePlayer(id string) *Player {
	for i, player := range that.Players {
		if player.ID != id {
			continue
		}

		that.Players = append(that.Players[:i], that.Players[i+1:]...)

		return player
	}

	return nil
}

// Snapshot returns a deep copy safe to serialize outside the room's
// serialized context.
func (that *Room) Snapshot() *Room {
	clone := *that

	clone.Players = make([]*Player, len(that.Players))
	for i, player := range that.Players {
		clone.Players[i] = player.Clone()
	}

	if that.Match != nil {
		clone.Match = that.Match.Clone()
	}

	clone.PasswordHash = nil

	return &clone
}

// RoomInfo is the public listing shape, it never exposes seat identities or
// the password hash.
type RoomInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
	IsPrivate  bool   `json:"is_private"`
	Status     string `json:"status"`
}

// FinishedMatch is the record handed to the persistence collaborator when a
// match ends. Best effort: a failed write never touches in-memory state.
type FinishedMatch struct {
	RoomID     string        `json:"room_id"`
	Players    []*Player     `json:"players"`
	Moves      []Move        `json:"moves"`
	BoardSize  int           `json:"board_size"`
	WinnerID   string        `json:"winner_id,omitempty"`
	WinnerMark string        `json:"winner_mark,omitempty"`
	IsDraw     bool          `json:"is_draw"`
	EndReason  string        `json:"end_reason"`
	StartedAt  time.Time     `json:"started_at"`
	EndedAt    time.Time     `json:"ended_at"`
	Duration   time.Duration `json:"duration"`
}
