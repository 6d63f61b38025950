package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

func TestRegistry_CreateRoom(t *testing.T) {
	t.Run("Seats the creator as a connected host", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())

		created, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{Name: "lobby"})
		require.NoError(t, err)

		assert.Equal(t, "lobby", created.Name)
		assert.Equal(t, "p1", created.HostID)
		assert.Equal(t, entity.RoomWaiting, created.Status)
		require.Len(t, created.Players, 1)
		assert.True(t, created.Players[0].IsHost)
		assert.True(t, created.Players[0].Connected)
	})

	t.Run("Applies defaults for capacity, countdown and first turn", func(t *testing.T) {
		rules := testRules()
		rules.DefaultTurnTime = 45 * time.Second
		registry, _, _ := newTestRegistry(t, rules)

		created, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{})
		require.NoError(t, err)

		assert.Equal(t, rules.MinPlayers, created.MaxPlayers)
		assert.Equal(t, 45*time.Second, created.TurnTime)
		assert.Equal(t, entity.MarkBlack, created.FirstTurn)
		assert.Equal(t, entity.MarkBlack, created.HostMark)
	})

	t.Run("Rejects a capacity outside the allowed range", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())

		_, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{MaxPlayers: 99})
		assert.ErrorIs(t, err, apperror.ErrBadRoomConfig)

		_, err = registry.CreateRoom("p1", "Alice", entity.RoomConfig{MaxPlayers: 1})
		assert.ErrorIs(t, err, apperror.ErrBadRoomConfig)
	})

	t.Run("Rejects an unknown first turn mark", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())

		_, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{FirstTurn: "X"})

		assert.ErrorIs(t, err, apperror.ErrBadRoomConfig)
	})

	t.Run("Rejects an unknown host mark", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())

		_, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{HostMark: "X"})

		assert.ErrorIs(t, err, apperror.ErrBadRoomConfig)
	})

	t.Run("An identity cannot create while seated elsewhere", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())

		_, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{})
		require.NoError(t, err)

		_, err = registry.CreateRoom("p1", "Alice", entity.RoomConfig{})

		assert.ErrorIs(t, err, apperror.ErrAlreadyInRoom)
	})

	t.Run("A password makes the room private and hides the hash", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())

		created, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{Password: "hunter2"})
		require.NoError(t, err)

		assert.True(t, created.IsPrivate)
		assert.Nil(t, created.PasswordHash)
	})
}

func TestRegistry_JoinRoom(t *testing.T) {
	t.Run("Joining broadcasts the updated roster to everyone seated", func(t *testing.T) {
		registry, sender, _ := newTestRegistry(t, testRules())
		created, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{})
		require.NoError(t, err)

		joined, err := registry.JoinRoom("p2", "Bob", created.ID, "")
		require.NoError(t, err)

		require.Len(t, joined.Players, 2)
		assert.Equal(t, "p2", joined.Players[1].ID)
		assert.Equal(t, 1, sender.count("p1", ActionRoomUpdate))
	})

	t.Run("Rejects the wrong password and leaves the seat free", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())
		created, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{Password: "hunter2"})
		require.NoError(t, err)

		_, err = registry.JoinRoom("p2", "Bob", created.ID, "wrong")
		assert.ErrorIs(t, err, apperror.ErrWrongPassword)

		// the failed attempt must not leave a dangling seat reservation
		_, err = registry.JoinRoom("p2", "Bob", created.ID, "hunter2")
		assert.NoError(t, err)
	})

	t.Run("Rejects joining a full room", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())
		created, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{MaxPlayers: 2})
		require.NoError(t, err)
		_, err = registry.JoinRoom("p2", "Bob", created.ID, "")
		require.NoError(t, err)

		_, err = registry.JoinRoom("p3", "Carol", created.ID, "")
		assert.ErrorIs(t, err, apperror.ErrRoomFull)

		// rollback again: the rejected identity can join another room
		other, err := registry.CreateRoom("p4", "Dave", entity.RoomConfig{})
		require.NoError(t, err)
		_, err = registry.JoinRoom("p3", "Carol", other.ID, "")
		assert.NoError(t, err)
	})

	t.Run("Rejects an unknown room id", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())

		_, err := registry.JoinRoom("p1", "Alice", "no-such-room", "")

		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("An identity seated elsewhere cannot join", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())
		first, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{})
		require.NoError(t, err)
		second, err := registry.CreateRoom("p2", "Bob", entity.RoomConfig{})
		require.NoError(t, err)

		_, err = registry.JoinRoom("p2", "Bob", first.ID, "")

		assert.ErrorIs(t, err, apperror.ErrAlreadyInRoom)
		_, err = registry.Room(second.ID)
		assert.NoError(t, err)
	})
}

func TestRegistry_LeaveRoom(t *testing.T) {
	t.Run("Host leaving promotes the earliest joined seat", func(t *testing.T) {
		registry, sender, _ := newTestRegistry(t, testRules())
		created, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{MaxPlayers: 3})
		require.NoError(t, err)
		_, err = registry.JoinRoom("p2", "Bob", created.ID, "")
		require.NoError(t, err)
		_, err = registry.JoinRoom("p3", "Carol", created.ID, "")
		require.NoError(t, err)

		require.NoError(t, registry.LeaveRoom("p1", created.ID))

		target, err := registry.Room(created.ID)
		require.NoError(t, err)
		snapshot := snapshotOf(t, target)

		assert.Equal(t, "p2", snapshot.HostID)
		assert.True(t, snapshot.PlayerByID("p2").IsHost)
		assert.Nil(t, snapshot.PlayerByID("p1"))
		assert.GreaterOrEqual(t, sender.count("p2", ActionRoomUpdate), 1)

		// the departed identity is free to seat again
		_, err = registry.CreateRoom("p1", "Alice", entity.RoomConfig{})
		assert.NoError(t, err)
	})

	t.Run("The last player leaving drops the room", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())
		created, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{})
		require.NoError(t, err)

		require.NoError(t, registry.LeaveRoom("p1", created.ID))

		require.Eventually(t, func() bool {
			_, err := registry.Room(created.ID)
			return err != nil
		}, 2*time.Second, 10*time.Millisecond)

		_, err = registry.RoomByPlayer("p1")
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("A mark holder leaving an ongoing match forfeits it", func(t *testing.T) {
		registry, _, archiver := newTestRegistry(t, testRules())
		target := startedMatch(t, registry, entity.RoomConfig{})

		require.NoError(t, registry.LeaveRoom("p2", target.ID()))

		record := archiver.waitForRecord(t)
		assert.Equal(t, "p1", record.WinnerID)
		assert.Equal(t, entity.EndReasonForfeit, record.EndReason)

		snapshot := snapshotOf(t, target)
		assert.Equal(t, entity.RoomWaiting, snapshot.Status)
	})
}

func TestRegistry_List(t *testing.T) {
	t.Run("Lists every open room with its public shape", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())
		_, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{Name: "open"})
		require.NoError(t, err)
		_, err = registry.CreateRoom("p2", "Bob", entity.RoomConfig{Name: "locked", Password: "pw"})
		require.NoError(t, err)

		infos := registry.List()
		require.Len(t, infos, 2)

		byName := make(map[string]entity.RoomInfo, len(infos))
		for _, info := range infos {
			byName[info.Name] = info
		}

		assert.False(t, byName["open"].IsPrivate)
		assert.True(t, byName["locked"].IsPrivate)
		assert.Equal(t, 1, byName["open"].Players)
		assert.Equal(t, entity.RoomWaiting, byName["open"].Status)
	})

	t.Run("An empty registry lists nothing", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())

		assert.Empty(t, registry.List())
	})
}

func TestRegistry_HandleDisconnect(t *testing.T) {
	t.Run("A disconnect for an unseated identity is a no-op", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())

		registry.HandleDisconnect("ghost")
	})

	t.Run("A waiting-room disconnect releases the seat", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t, testRules())
		created, err := registry.CreateRoom("p1", "Alice", entity.RoomConfig{})
		require.NoError(t, err)
		_, err = registry.JoinRoom("p2", "Bob", created.ID, "")
		require.NoError(t, err)

		registry.HandleDisconnect("p2")

		require.Eventually(t, func() bool {
			_, err := registry.RoomByPlayer("p2")
			return err != nil
		}, 2*time.Second, 10*time.Millisecond)
	})
}
