package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_AppendMove(t *testing.T) {
	t.Run("Numbers moves and flips the turn", func(t *testing.T) {
		// Given: a fresh match with black to move
		match := NewMatch("room-1", 15, MarkBlack, time.Now())

		// When: black and white each place a stone
		first := match.AppendMove("p1", MarkBlack, 7, 7, time.Now())
		second := match.AppendMove("p2", MarkWhite, 8, 8, time.Now())

		// Then: move numbers are strictly increasing and the turn alternates
		assert.Equal(t, 1, first.Number)
		assert.Equal(t, 2, second.Number)
		assert.Equal(t, MarkBlack, match.Turn)
		assert.Equal(t, MarkBlack, match.Board[7*15+7])
		assert.Equal(t, MarkWhite, match.Board[8*15+8])
	})
}

func TestMatch_ReplayBoard(t *testing.T) {
	t.Run("Board equals the fold of the move log", func(t *testing.T) {
		// Given: a match with an interleaved move sequence
		match := NewMatch("room-1", 15, MarkBlack, time.Now())
		mark := MarkBlack
		for i := 0; i < 9; i++ {
			match.AppendMove("p", mark, i%15, i/15+3*(i%2), time.Now())
			mark = ToggleMark(mark)
		}

		// When: folding the move log over an empty grid
		replayed := ReplayBoard(match.BoardSize, match.Moves)

		// Then: it reproduces the held board exactly
		require.Equal(t, match.Board, replayed)
	})
}

func TestMatch_Clone(t *testing.T) {
	t.Run("Mutating the clone leaves the original untouched", func(t *testing.T) {
		// Given: a match with one move and a pending draw
		match := NewMatch("room-1", 15, MarkBlack, time.Now())
		match.AppendMove("p1", MarkBlack, 0, 0, time.Now())
		match.Draw = &DrawRequest{RequesterID: "p1", Status: DrawPending, CreatedAt: time.Now()}

		// When: cloning and mutating the copy
		clone := match.Clone()
		clone.Board[0] = MarkWhite
		clone.Moves[0].X = 99
		clone.Draw.Status = DrawAccepted

		// Then: the original is unchanged
		assert.Equal(t, MarkBlack, match.Board[0])
		assert.Equal(t, 0, match.Moves[0].X)
		assert.Equal(t, DrawPending, match.Draw.Status)
	})
}

func TestRoom_Snapshot(t *testing.T) {
	t.Run("Snapshot is a deep copy without the password hash", func(t *testing.T) {
		// Given: a playing room with seated players
		room := &Room{
			ID:           "room-1",
			HostID:       "p1",
			Status:       RoomPlaying,
			PasswordHash: []byte("secret-hash"),
			Players: []*Player{
				{ID: "p1", Mark: MarkBlack, IsHost: true, Connected: true},
				{ID: "p2", Mark: MarkWhite, Connected: true},
			},
			Match: NewMatch("room-1", 15, MarkBlack, time.Now()),
		}

		// When: taking a snapshot and mutating it
		snapshot := room.Snapshot()
		snapshot.Players[0].Mark = MarkWhite
		snapshot.Match.Board[0] = MarkBlack

		// Then: the hash is hidden and the original state is isolated
		assert.Nil(t, snapshot.PasswordHash)
		assert.Equal(t, MarkBlack, room.Players[0].Mark)
		assert.Equal(t, EmptyCell, room.Match.Board[0])
	})
}

func TestRoom_SeatHelpers(t *testing.T) {
	t.Run("RemovePlayer keeps join order of the rest", func(t *testing.T) {
		room := &Room{Players: []*Player{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}}

		removed := room.RemovePlayer("p2")

		require.NotNil(t, removed)
		require.Len(t, room.Players, 2)
		assert.Equal(t, "p1", room.Players[0].ID)
		assert.Equal(t, "p3", room.Players[1].ID)
	})
}
