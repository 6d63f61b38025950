package gomoku

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// directions are the four axes a winning run can lie on: horizontal,
// vertical and both diagonals. Each is walked in both orientations.
var directions = [4][2]int{
	{1, 0},
	{0, 1},
	{1, 1},
	{1, -1},
}

// ValidateMove - checks that the coordinates are on the board and the cell is free.
func ValidateMove(board []string, size, x, y int) error {
	if x < 0 || x >= size || y < 0 || y >= size {
		return fmt.Errorf("%w: (%d,%d)", apperror.ErrOutOfBounds, x, y)
	}

	if board[y*size+x] != entity.EmptyCell {
		return fmt.Errorf("%w: (%d,%d)", apperror.ErrCellOccupied, x, y)
	}

	return nil
}

// CheckWin reports whether the mark just placed at (x, y) completes a run of
// at least winLength through that cell on any axis.
func CheckWin(board []string, size, x, y int, mark string, winLength int) bool {
	for _, dir := range directions {
		count := 1
		count += countRun(board, size, x, y, dir[0], dir[1], mark)
		count += countRun(board, size, x, y, -dir[0], -dir[1], mark)

		if count >= winLength {
			return true
		}
	}

	return false
}

// countRun walks from (x, y) in direction (dx, dy) counting consecutive
// cells holding mark, excluding the starting cell itself.
func countRun(board []string, size, x, y, dx, dy int, mark string) int {
	count := 0

	for {
		x += dx
		y += dy

		if x < 0 || x >= size || y < 0 || y >= size {
			break
		}

		if board[y*size+x] != mark {
			break
		}

		count++
	}

	return count
}

// IsBoardFull reports whether no empty cell remains, which together with a
// failed win check means a draw.
func IsBoardFull(board []string) bool {
	for _, cell := range board {
		if cell == entity.EmptyCell {
			return false
		}
	}

	return true
}
