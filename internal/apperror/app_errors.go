package apperror

import "errors"

// Validation errors: reported to the originating connection only,
// never broadcast, no state change.
var (
	ErrOutOfBounds   = errors.New("coordinates are out of bounds")
	ErrCellOccupied  = errors.New("cell is already occupied")
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrWrongPassword = errors.New("wrong room password")
)

// Authorization errors.
var (
	ErrNotHost   = errors.New("only the host can do that")
	ErrNotSeated = errors.New("player is not seated in this room")
)

// Capacity errors.
var (
	ErrRoomFull      = errors.New("room is full")
	ErrAlreadyInRoom = errors.New("player is already seated in a room")
	ErrBadRoomConfig = errors.New("invalid room configuration")
)

// Stale state errors: the client should resynchronize via game:state.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomClosed       = errors.New("room is closed")
	ErrGameNotStarted   = errors.New("game is not started")
	ErrGameStarted      = errors.New("game is already started")
	ErrGameFinished     = errors.New("game is already finished")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrPlayersNotReady  = errors.New("not all players are ready")
)

// Draw negotiation errors.
var (
	ErrDrawPending      = errors.New("a draw request is already pending")
	ErrNoDrawPending    = errors.New("no pending draw request")
	ErrOwnDrawRequest   = errors.New("cannot respond to your own draw request")
	ErrNotDrawRequester = errors.New("only the requester can cancel a draw request")
)
