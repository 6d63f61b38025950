package entity

import "time"

const (
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"

	MarkBlack = "B"
	MarkWhite = "W"

	EmptyCell = ""
)

// End reasons carried in the game:ended payload.
const (
	EndReasonWin       = "win"
	EndReasonDraw      = "draw"
	EndReasonSurrender = "surrender"
	EndReasonTimeout   = "timeout"
	EndReasonForfeit   = "forfeit"
)

const (
	DrawPending   = "pending"
	DrawAccepted  = "accepted"
	DrawRejected  = "rejected"
	DrawCancelled = "cancelled"
)

// Move is immutable once appended. Number is 1-based and equals the length
// of the move log at the time of the append.
type Move struct {
	Number    int       `json:"number"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Mark      string    `json:"mark"`
	PlayerID  string    `json:"player_id"`
	Timestamp time.Time `json:"timestamp"`
}

type DrawRequest struct {
	RequesterID string    `json:"requester_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Match is the active game instance owned by a playing Room. Board is a flat
// size*size grid and is always exactly the left-fold of Moves over an empty
// grid.
type Match struct {
	RoomID    string   `json:"room_id"`
	BoardSize int      `json:"board_size"`
	Board     []string `json:"board"`
	Moves     []Move   `json:"moves"`

	Turn          string    `json:"turn"`
	TurnStartedAt time.Time `json:"turn_started_at"`
	TurnEndsAt    time.Time `json:"turn_ends_at"`

	Status     string `json:"status"`
	WinnerID   string `json:"winner_id,omitempty"`
	WinnerMark string `json:"winner_mark,omitempty"`
	IsDraw     bool   `json:"is_draw"`
	EndReason  string `json:"end_reason,omitempty"`

	StartedAt time.Time    `json:"started_at"`
	Draw      *DrawRequest `json:"draw,omitempty"`
}

func NewMatch(roomID string, boardSize int, firstTurn string, now time.Time) *Match {
	return &Match{
		RoomID:    roomID,
		BoardSize: boardSize,
		Board:     make([]string, boardSize*boardSize),
		Turn:      firstTurn,
		Status:    StatusOngoing,
		StartedAt: now,
	}
}

func (that *Match) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Match) IsFinished() bool {
	return that.Status == StatusFinished
}

// AppendMove places the mark on the board and flips the turn. The caller is
// responsible for having validated the move first.
func (that *Match) AppendMove(playerID, mark string, x, y int, now time.Time) Move {
	move := Move{
		Number:    len(that.Moves) + 1,
		X:         x,
		Y:         y,
		Mark:      mark,
		PlayerID:  playerID,
		Timestamp: now,
	}

	that.Board[y*that.BoardSize+x] = mark
	that.Moves = append(that.Moves, move)
	that.Turn = ToggleMark(mark)

	return move
}

func (that *Match) HasPendingDraw() bool {
	return that.Draw != nil && that.Draw.Status == DrawPending
}

// ReplayBoard folds a move log over an empty grid. It rebuilds the final
// board from an archived record and verifies the board invariant in tests.
func ReplayBoard(boardSize int, moves []Move) []string {
	board := make([]string, boardSize*boardSize)
	for _, move := range moves {
		board[move.Y*boardSize+move.X] = move.Mark
	}

	return board
}

func (that *Match) Clone() *Match {
	clone := *that

	clone.Board = make([]string, len(that.Board))
	copy(clone.Board, that.Board)

	clone.Moves = make([]Move, len(that.Moves))
	copy(clone.Moves, that.Moves)

	if that.Draw != nil {
		draw := *that.Draw
		clone.Draw = &draw
	}

	return &clone
}

func ToggleMark(mark string) string {
	if mark == MarkBlack {
		return MarkWhite
	}

	return MarkBlack
}
