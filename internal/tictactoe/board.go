package tictactoe

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
)

// Mark is the content of a single cell.
type Mark string

const (
	X     Mark = "X"
	O     Mark = "O"
	Empty Mark = ""
)

const (
	Size      = 3
	CellCount = Size * Size
)

// Board is a 3x3 grid stored row-major: cell (row, col) lives at index row*3+col.
// Board is a value type, so every operation that changes it returns a copy.
type Board [CellCount]Mark

// Action identifies a cell by row and column.
type Action struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// NoAction is returned by the search when the board admits no move.
var NoAction = Action{Row: -1, Col: -1}

// ActionFromCell converts a row-major cell index into an Action.
func ActionFromCell(cell int) Action {
	if cell < 0 || cell >= CellCount {
		return NoAction
	}

	return Action{Row: cell / Size, Col: cell % Size}
}

func (that Action) Cell() int {
	return that.Row*Size + that.Col
}

func (that Action) IsValid() bool {
	return that.Row >= 0 && that.Row < Size && that.Col >= 0 && that.Col < Size
}

func (that Action) String() string {
	return fmt.Sprintf("(%d, %d)", that.Row, that.Col)
}

// IsPlayer reports whether the mark belongs to one of the two sides.
func (that Mark) IsPlayer() bool {
	return that == X || that == O
}

// Opponent returns the other side, or Empty for Empty.
func (that Mark) Opponent() Mark {
	switch that {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// InitialState returns a board with every cell empty.
func InitialState() Board {
	return Board{}
}

func (that Board) At(row, col int) Mark {
	return that[row*Size+col]
}

func (that Board) String() string {
	var sb strings.Builder

	for row := 0; row < Size; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := 0; col < Size; col++ {
			mark := that.At(row, col)
			if mark == Empty {
				sb.WriteByte('.')
				continue
			}
			sb.WriteString(string(mark))
		}
	}

	return sb.String()
}

// Validate rejects boards holding anything other than X, O or Empty.
func Validate(board Board) error {
	for i, mark := range board {
		if mark != Empty && !mark.IsPlayer() {
			return fmt.Errorf("%w: cell %d holds %q", apperror.ErrMalformedBoard, i, string(mark))
		}
	}

	return nil
}

// ParseBoard builds a Board from its wire form: nine row-major strings.
func ParseBoard(cells []string) (Board, error) {
	var board Board

	if len(cells) != CellCount {
		return board, fmt.Errorf("%w: expected %d cells, got %d", apperror.ErrMalformedBoard, CellCount, len(cells))
	}

	for i, cell := range cells {
		board[i] = Mark(cell)
	}

	if err := Validate(board); err != nil {
		return Board{}, err
	}

	return board, nil
}
