package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
)

// OutcomeDraw marks a full board without a winner.
const OutcomeDraw = "-"

// WinCombos lists rows, then columns, then diagonals. Winner scans in this order.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Turn returns the side to move, or Empty when the game is over.
// The side is derived from the piece counts, so boards are expected to evolve only through Apply.
func Turn(board Board) Mark {
	if IsTerminal(board) {
		return Empty
	}

	var xCount, oCount int
	for _, mark := range board {
		switch mark {
		case X:
			xCount++
		case O:
			oCount++
		}
	}

	if oCount < xCount {
		return O
	}

	return X
}

// LegalActions returns the empty cells in row-major order, or nothing once the game is over.
func LegalActions(board Board) []Action {
	if IsTerminal(board) {
		return []Action{}
	}

	actions := make([]Action, 0, CellCount)
	for i, mark := range board {
		if mark == Empty {
			actions = append(actions, ActionFromCell(i))
		}
	}

	return actions
}

// Apply returns a copy of board with the side to move placed at action.
func Apply(board Board, action Action) (Board, error) {
	if err := Validate(board); err != nil {
		return board, err
	}

	player := Turn(board)
	if player == Empty {
		return board, fmt.Errorf("%w: game is over", apperror.ErrInvalidMove)
	}

	if !action.IsValid() {
		return board, fmt.Errorf("%w: %w %s", apperror.ErrInvalidMove, apperror.ErrInvalidCell, action)
	}

	if board[action.Cell()] != Empty {
		return board, fmt.Errorf("%w: %w %s", apperror.ErrInvalidMove, apperror.ErrCellOccupied, action)
	}

	board[action.Cell()] = player

	return board, nil
}

// Winner returns the mark holding a complete line, or Empty.
func Winner(board Board) Mark {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != Empty && a == b && b == c {
			return a
		}
	}

	return Empty
}

func IsTerminal(board Board) bool {
	if Winner(board) != Empty {
		return true
	}

	for _, mark := range board {
		if mark == Empty {
			return false
		}
	}

	return true
}

// Utility scores a finished board from X's point of view. It does not check terminality.
func Utility(board Board) int {
	switch Winner(board) {
	case X:
		return 1
	case O:
		return -1
	default:
		return 0
	}
}

// Outcome returns "X" or "O" for a won board, "-" for a draw and "" while the game goes on.
func Outcome(board Board) string {
	if winner := Winner(board); winner != Empty {
		return string(winner)
	}

	if IsTerminal(board) {
		return OutcomeDraw
	}

	return ""
}
