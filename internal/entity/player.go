package entity

import "time"

type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Mark    string `json:"mark,omitempty"`
	IsHost  bool   `json:"is_host"`
	IsReady bool   `json:"is_ready"`

	Connected      bool       `json:"connected"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
}

func (that *Player) MarkDisconnected(now time.Time) {
	that.Connected = false
	that.DisconnectedAt = &now
}

func (that *Player) MarkConnected() {
	that.Connected = true
	that.DisconnectedAt = nil
}

func (that *Player) Clone() *Player {
	clone := *that
	if that.DisconnectedAt != nil {
		at := *that.DisconnectedAt
		clone.DisconnectedAt = &at
	}

	return &clone
}
