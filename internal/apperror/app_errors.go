package apperror

import "errors"

var (
	ErrInvalidMove    = errors.New("invalid move")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrInvalidCell    = errors.New("invalid cell index")
	ErrMalformedBoard = errors.New("malformed board")

	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrNoActiveGames    = errors.New("no active games")
	ErrInvalidMark      = errors.New("invalid player mark")
)
