package room

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
)

const opsQueueSize = 64

// archiveTimeout bounds the best-effort write of a finished match.
const archiveTimeout = 5 * time.Second

// hooks let the registry keep its indexes in sync with departures that
// originate inside the room (grace expiry, forfeits).
type hooks struct {
	playerLeft func(playerID string)
	roomEmpty  func(roomID string)
}

// Room owns one room's state. Every mutation - client events, timer expiries,
// registry operations - is funneled through a single ops queue drained by one
// goroutine, so no two of them ever run concurrently. Timers never touch
// state from their callback: they post an event into the queue, guarded by a
// generation counter captured at arm time.
type Room struct {
	logger   *slog.Logger
	rules    Rules
	sender   Sender
	archive  Archiver
	presence Presence
	hook     hooks

	state *entity.Room

	ops       chan func()
	closed    chan struct{}
	closeOnce sync.Once

	gen         uint64
	turnTimer   *time.Timer
	graceTimers map[string]*time.Timer
}

func newRoom(logger *slog.Logger, rules Rules, sender Sender, archive Archiver, presence Presence, hook hooks, state *entity.Room) *Room {
	room := &Room{
		logger:      logger.With("component", "room", "roomID", state.ID),
		rules:       rules,
		sender:      sender,
		archive:     archive,
		presence:    presence,
		hook:        hook,
		state:       state,
		ops:         make(chan func(), opsQueueSize),
		closed:      make(chan struct{}),
		graceTimers: make(map[string]*time.Timer),
	}

	go room.run()

	return room
}

func (that *Room) ID() string {
	return that.state.ID
}

// run drains the serialized context. The externally observable broadcast
// order equals the order operations were admitted here.
func (that *Room) run() {
	for {
		select {
		case op := <-that.ops:
			op()
		case <-that.closed:
			return
		}
	}
}

// do admits an operation into the serialized context and waits for its
// result. A closed room rejects the operation.
func (that *Room) do(fn func() error) error {
	errCh := make(chan error, 1)

	select {
	case that.ops <- func() { errCh <- fn() }:
	case <-that.closed:
		return apperror.ErrRoomClosed
	}

	select {
	case err := <-errCh:
		return err
	case <-that.closed:
		return apperror.ErrRoomClosed
	}
}

// post admits an operation without waiting. Used by timer callbacks.
func (that *Room) post(fn func()) {
	select {
	case that.ops <- fn:
	case <-that.closed:
	}
}

// Join seats a player. Rooms that are already playing accept the seat as a
// spectator: no mark is assigned until the next match starts.
func (that *Room) Join(player *entity.Player) error {
	return that.do(func() error {
		if that.state.IsClosed() {
			return apperror.ErrRoomClosed
		}

		if that.state.IsFull() {
			return apperror.ErrRoomFull
		}

		player.Connected = true
		that.state.Players = append(that.state.Players, player)

		that.broadcast(ActionRoomUpdate, RoomPayload{Room: that.state.Snapshot()})
		that.presence.PlayerJoined(that.state.ID, player.ID)

		return nil
	})
}

// Leave removes a seated player. Leaving an ongoing match with a mark
// forfeits it to the opponent.
func (that *Room) Leave(playerID string) error {
	return that.do(func() error {
		if that.state.PlayerByID(playerID) == nil {
			return apperror.ErrNotSeated
		}

		that.removePlayer(playerID, entity.EndReasonForfeit)

		return nil
	})
}

// SetReady flips a player's ready flag. Meaningful only while waiting; the
// host is implicitly ready.
func (that *Room) SetReady(playerID string, ready bool) error {
	return that.do(func() error {
		if !that.state.IsWaiting() {
			return apperror.ErrGameStarted
		}

		player := that.state.PlayerByID(playerID)
		if player == nil {
			return apperror.ErrNotSeated
		}

		player.IsReady = ready
		that.broadcast(ActionRoomUpdate, RoomPayload{Room: that.state.Snapshot()})

		return nil
	})
}

// Start begins the match. Host only; requires enough players and every
// non-host player ready. The host always plays black, the earliest-joined
// other player white; FirstTurn decides which mark moves first.
func (that *Room) Start(playerID string) error {
	return that.do(func() error {
		if playerID != that.state.HostID {
			return apperror.ErrNotHost
		}

		if !that.state.IsWaiting() {
			return apperror.ErrGameStarted
		}

		if len(that.state.Players) < that.rules.MinPlayers {
			return apperror.ErrNotEnoughPlayers
		}

		for _, player := range that.state.Players {
			if player.ID != that.state.HostID && !player.IsReady {
				return apperror.ErrPlayersNotReady
			}
		}

		that.assignMarks()

		now := time.Now()
		match := entity.NewMatch(that.state.ID, that.rules.BoardSize, that.state.FirstTurn, now)
		match.TurnStartedAt = now
		match.TurnEndsAt = now.Add(that.state.TurnTime)

		that.state.Match = match
		that.state.Status = entity.RoomPlaying

		that.gen++
		that.armTurnTimer()

		that.broadcast(ActionGameStarted, RoomPayload{Room: that.state.Snapshot()})
		that.logger.Info("game started", "firstTurn", match.Turn)

		return nil
	})
}

// MakeMove validates and applies one move. Exactly one of two racing
// submissions for the same turn can pass: both are serialized here and the
// second sees a flipped turn pointer.
func (that *Room) MakeMove(playerID string, x, y int) error {
	return that.do(func() error {
		match, err := that.ongoingMatch()
		if err != nil {
			return err
		}

		player := that.state.PlayerByID(playerID)
		if player == nil || player.Mark == entity.EmptyCell {
			return apperror.ErrNotSeated
		}

		if player.Mark != match.Turn {
			return apperror.ErrNotYourTurn
		}

		if err = gomoku.ValidateMove(match.Board, match.BoardSize, x, y); err != nil {
			return fmt.Errorf("invalid move: %w", err)
		}

		now := time.Now()
		move := match.AppendMove(playerID, player.Mark, x, y, now)

		that.gen++

		if gomoku.CheckWin(match.Board, match.BoardSize, x, y, player.Mark, that.rules.WinLength) {
			that.finishMatch(player, entity.EndReasonWin)
			return nil
		}

		if gomoku.IsBoardFull(match.Board) {
			that.finishMatch(nil, entity.EndReasonDraw)
			return nil
		}

		match.TurnStartedAt = now
		match.TurnEndsAt = now.Add(that.state.TurnTime)
		that.armTurnTimer()

		that.broadcast(ActionGameMove, MovePayload{
			Move:       move,
			Turn:       match.Turn,
			TurnEndsAt: match.TurnEndsAt,
		})

		return nil
	})
}

// Surrender immediately ends the match with the opponent as winner.
func (that *Room) Surrender(playerID string) error {
	return that.do(func() error {
		if _, err := that.ongoingMatch(); err != nil {
			return err
		}

		player := that.state.PlayerByID(playerID)
		if player == nil || player.Mark == entity.EmptyCell {
			return apperror.ErrNotSeated
		}

		winner := that.state.PlayerByMark(entity.ToggleMark(player.Mark))
		that.finishMatch(winner, entity.EndReasonSurrender)

		return nil
	})
}

// Clear discards a finished match and returns the room to waiting. Every
// non-host ready flag is reset.
func (that *Room) Clear(playerID string) error {
	return that.do(func() error {
		if that.state.PlayerByID(playerID) == nil {
			return apperror.ErrNotSeated
		}

		match := that.state.Match
		if match == nil {
			return apperror.ErrGameNotStarted
		}

		if match.IsOngoing() {
			return apperror.ErrGameStarted
		}

		that.state.Match = nil
		that.state.Status = entity.RoomWaiting

		for _, player := range that.state.Players {
			player.Mark = entity.EmptyCell
			if player.ID != that.state.HostID {
				player.IsReady = false
			}
		}

		that.gen++
		that.broadcast(ActionGameCleared, RoomPayload{Room: that.state.Snapshot()})

		return nil
	})
}

// RequestDraw opens a draw negotiation. At most one pending request per
// match; a concurrent second request is rejected, never overwritten.
func (that *Room) RequestDraw(playerID string) error {
	return that.do(func() error {
		match, err := that.ongoingMatch()
		if err != nil {
			return err
		}

		player := that.state.PlayerByID(playerID)
		if player == nil || player.Mark == entity.EmptyCell {
			return apperror.ErrNotSeated
		}

		if match.HasPendingDraw() {
			return apperror.ErrDrawPending
		}

		match.Draw = &entity.DrawRequest{
			RequesterID: playerID,
			Status:      entity.DrawPending,
			CreatedAt:   time.Now(),
		}

		if opponent := that.state.PlayerByMark(entity.ToggleMark(player.Mark)); opponent != nil {
			that.sender.Send(opponent.ID, ActionDrawOffered, DrawPayload{RequesterID: playerID})
		}

		return nil
	})
}

// RespondDraw settles a pending request. Accepting ends the match as a draw;
// rejecting notifies the requester only and changes nothing else.
func (that *Room) RespondDraw(playerID string, accept bool) error {
	return that.do(func() error {
		match, err := that.ongoingMatch()
		if err != nil {
			return err
		}

		if !match.HasPendingDraw() {
			return apperror.ErrNoDrawPending
		}

		if match.Draw.RequesterID == playerID {
			return apperror.ErrOwnDrawRequest
		}

		player := that.state.PlayerByID(playerID)
		if player == nil || player.Mark == entity.EmptyCell {
			return apperror.ErrNotSeated
		}

		if !accept {
			match.Draw.Status = entity.DrawRejected
			that.sender.Send(match.Draw.RequesterID, ActionDrawRejected, DrawPayload{RequesterID: match.Draw.RequesterID})

			return nil
		}

		match.Draw.Status = entity.DrawAccepted
		that.finishMatch(nil, entity.EndReasonDraw)

		return nil
	})
}

// CancelDraw withdraws a pending request. Requester only.
func (that *Room) CancelDraw(playerID string) error {
	return that.do(func() error {
		match, err := that.ongoingMatch()
		if err != nil {
			return err
		}

		if !match.HasPendingDraw() {
			return apperror.ErrNoDrawPending
		}

		if match.Draw.RequesterID != playerID {
			return apperror.ErrNotDrawRequester
		}

		match.Draw.Status = entity.DrawCancelled

		player := that.state.PlayerByID(playerID)
		if opponent := that.state.PlayerByMark(entity.ToggleMark(player.Mark)); opponent != nil {
			that.sender.Send(opponent.ID, ActionDrawCancelled, DrawPayload{RequesterID: playerID})
		}

		return nil
	})
}

// Snapshot returns a deep copy of the room, safe to serialize outside the
// serialized context.
func (that *Room) Snapshot() (*entity.Room, error) {
	var snapshot *entity.Room

	err := that.do(func() error {
		snapshot = that.state.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// Info returns the public listing shape.
func (that *Room) Info() (entity.RoomInfo, error) {
	var info entity.RoomInfo

	err := that.do(func() error {
		info = entity.RoomInfo{
			ID:         that.state.ID,
			Name:       that.state.Name,
			Players:    len(that.state.Players),
			MaxPlayers: that.state.MaxPlayers,
			IsPrivate:  that.state.IsPrivate,
			Status:     that.state.Status,
		}
		return nil
	})
	if err != nil {
		return entity.RoomInfo{}, err
	}

	return info, nil
}

// MarkDisconnected flags a seated player as gone. While waiting the seat is
// released immediately; while playing a disconnect-grace timer is armed and
// the opponent is informed. Not an error to the disconnected party, who by
// definition cannot receive it.
func (that *Room) MarkDisconnected(playerID string) {
	that.post(func() {
		player := that.state.PlayerByID(playerID)
		if player == nil || !player.Connected {
			return
		}

		if that.state.IsWaiting() {
			that.removePlayer(playerID, entity.EndReasonForfeit)
			return
		}

		player.MarkDisconnected(time.Now())
		that.broadcast(ActionPlayerDisconnected, PlayerPayload{PlayerID: playerID})
		that.presence.PlayerDisconnected(that.state.ID, playerID)
		that.armGraceTimer(playerID)
	})
}

// Reconcile resolves a (re)connecting identity to this room. Idempotent:
// only the disconnected-to-connected transition broadcasts; repeated calls
// return the same snapshot and nothing else.
func (that *Room) Reconcile(playerID string) (*entity.Room, error) {
	var snapshot *entity.Room

	err := that.do(func() error {
		player := that.state.PlayerByID(playerID)
		if player == nil {
			return apperror.ErrNotSeated
		}

		if !player.Connected {
			that.cancelGraceTimer(playerID)
			player.MarkConnected()
			that.broadcast(ActionPlayerReconnected, PlayerPayload{PlayerID: playerID})
			that.presence.PlayerReconnected(that.state.ID, playerID)
		}

		snapshot = that.state.Snapshot()

		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// Close shuts the room down unconditionally. Used by registry shutdown.
func (that *Room) Close() {
	that.post(func() {
		that.state.Status = entity.RoomClosed
		that.shutdown()
	})
}

// --- internals, all run inside the serialized context ---

func (that *Room) ongoingMatch() (*entity.Match, error) {
	match := that.state.Match
	if match == nil || !that.state.IsPlaying() {
		return nil, apperror.ErrGameNotStarted
	}

	if match.IsFinished() {
		return nil, apperror.ErrGameFinished
	}

	return match, nil
}

// assignMarks gives the configured mark to the host (black unless the room
// settings say otherwise) and the other one to the earliest-joined other
// player. Extra seats stay unmarked and spectate.
func (that *Room) assignMarks() {
	for _, player := range that.state.Players {
		player.Mark = entity.EmptyCell
	}

	host := that.state.PlayerByID(that.state.HostID)
	host.Mark = that.state.HostMark

	for _, player := range that.state.Players {
		if player.ID != that.state.HostID {
			player.Mark = entity.ToggleMark(that.state.HostMark)
			break
		}
	}
}

// finishMatch settles the result, stops the turn timer, broadcasts the
// outcome and hands the record to the archiver. winner == nil means draw.
func (that *Room) finishMatch(winner *entity.Player, reason string) {
	match := that.state.Match
	match.Status = entity.StatusFinished

	if winner != nil {
		match.WinnerID = winner.ID
		match.WinnerMark = winner.Mark
	} else {
		match.IsDraw = true
	}
	match.EndReason = reason

	that.gen++
	that.stopTurnTimer()

	that.broadcast(ActionGameEnded, EndedPayload{Room: that.state.Snapshot(), Reason: reason})
	that.archiveMatch()

	that.logger.Info("game ended", "reason", reason, "winner", match.WinnerID, "draw", match.IsDraw)
}

// archiveMatch emits the finished-match record without blocking the room.
func (that *Room) archiveMatch() {
	snapshot := that.state.Snapshot()
	match := snapshot.Match
	now := time.Now()

	record := &entity.FinishedMatch{
		RoomID:     snapshot.ID,
		Players:    snapshot.Players,
		Moves:      match.Moves,
		BoardSize:  match.BoardSize,
		WinnerID:   match.WinnerID,
		WinnerMark: match.WinnerMark,
		IsDraw:     match.IsDraw,
		EndReason:  match.EndReason,
		StartedAt:  match.StartedAt,
		EndedAt:    now,
		Duration:   now.Sub(match.StartedAt),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		if err := that.archive.SaveFinishedMatch(ctx, record); err != nil {
			that.logger.Error("failed to archive finished match", "error", err)
		}
	}()
}

// removePlayer is the single departure path: explicit leave, waiting-room
// disconnect and grace expiry all end here. matchReason says how an ongoing
// match the player holds a mark in should end.
func (that *Room) removePlayer(playerID, matchReason string) {
	player := that.state.PlayerByID(playerID)
	if player == nil {
		return
	}

	match := that.state.Match
	if match != nil && match.IsOngoing() && player.Mark != entity.EmptyCell {
		winner := that.state.PlayerByMark(entity.ToggleMark(player.Mark))
		that.finishMatch(winner, matchReason)

		that.state.Match = nil
		that.state.Status = entity.RoomWaiting

		for _, seated := range that.state.Players {
			seated.Mark = entity.EmptyCell
			if seated.ID != that.state.HostID {
				seated.IsReady = false
			}
		}
	}

	that.cancelGraceTimer(playerID)
	that.state.RemovePlayer(playerID)
	that.hook.playerLeft(playerID)
	that.presence.PlayerLeft(that.state.ID, playerID)

	if len(that.state.Players) == 0 {
		that.state.Status = entity.RoomClosed
		that.shutdown()

		return
	}

	if playerID == that.state.HostID {
		next := that.state.Players[0]
		next.IsHost = true
		next.IsReady = false
		that.state.HostID = next.ID
	}

	that.broadcast(ActionRoomUpdate, RoomPayload{Room: that.state.Snapshot()})
}

func (that *Room) shutdown() {
	that.stopTurnTimer()

	for playerID, timer := range that.graceTimers {
		timer.Stop()
		delete(that.graceTimers, playerID)
	}

	that.hook.roomEmpty(that.state.ID)

	that.closeOnce.Do(func() {
		close(that.closed)
	})

	that.logger.Info("room closed")
}

// armTurnTimer schedules the turn countdown. The callback posts an event
// into the ops queue and checks the generation captured here, so a move that
// lands first invalidates it.
func (that *Room) armTurnTimer() {
	that.stopTurnTimer()

	gen := that.gen

	that.turnTimer = time.AfterFunc(that.state.TurnTime, func() {
		that.post(func() {
			if that.gen != gen {
				return
			}

			that.handleTurnTimeout()
		})
	})
}

func (that *Room) stopTurnTimer() {
	if that.turnTimer != nil {
		that.turnTimer.Stop()
		that.turnTimer = nil
	}
}

// handleTurnTimeout applies the timeout policy: the player whose countdown
// expired forfeits and the opponent wins.
func (that *Room) handleTurnTimeout() {
	match := that.state.Match
	if match == nil || !match.IsOngoing() {
		return
	}

	loser := that.state.PlayerByMark(match.Turn)
	winner := that.state.PlayerByMark(entity.ToggleMark(match.Turn))

	that.logger.Info("turn timed out", "mark", match.Turn, "playerID", loser.ID)
	that.finishMatch(winner, entity.EndReasonTimeout)
}

// armGraceTimer starts the disconnect countdown. Expiry is posted into the
// ops queue carrying the timer armed here, so a late firing that was already
// in flight when the countdown got superseded is a no-op.
func (that *Room) armGraceTimer(playerID string) {
	that.cancelGraceTimer(playerID)

	var timer *time.Timer
	timer = time.AfterFunc(that.rules.DisconnectGrace, func() {
		that.post(func() {
			that.handleGraceExpiry(playerID, timer)
		})
	})

	that.graceTimers[playerID] = timer
}

// handleGraceExpiry evicts a player whose disconnect grace ran out. Only the
// countdown currently armed for the player may act: a stale timer posts its
// expiry but no longer matches the map entry and must not cut a fresh grace
// window short.
func (that *Room) handleGraceExpiry(playerID string, timer *time.Timer) {
	if that.graceTimers[playerID] != timer {
		return
	}

	player := that.state.PlayerByID(playerID)
	if player == nil || player.Connected {
		return
	}

	delete(that.graceTimers, playerID)
	that.logger.Info("disconnect grace expired", "playerID", playerID)
	that.removePlayer(playerID, entity.EndReasonForfeit)
}

func (that *Room) cancelGraceTimer(playerID string) {
	if timer, ok := that.graceTimers[playerID]; ok {
		timer.Stop()
		delete(that.graceTimers, playerID)
	}
}

func (that *Room) broadcast(action string, payload any) {
	for _, player := range that.state.Players {
		that.sender.Send(player.ID, action, payload)
	}
}
