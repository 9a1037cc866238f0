package entity

import (
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	PlayerX   = string(tictactoe.X)
	PlayerO   = string(tictactoe.O)
	PlayerTie = tictactoe.OutcomeDraw
)

const WithBotType = "bot"

type Game struct {
	ID      string          `json:"id"`
	Board   tictactoe.Board `json:"board"`
	Winner  string          `json:"winner"`
	Status  string          `json:"status"`
	Turn    string          `json:"player_turn"`
	Players []*Player       `json:"players,omitempty"`
	Type    string          `json:"type,omitempty"`
}

func NewGame(id string) *Game {
	return &Game{
		ID:     id,
		Board:  tictactoe.InitialState(),
		Turn:   PlayerX,
		Status: StatusWaiting,
		Type:   WithBotType,
	}
}

// UpdateGameState derives winner, status and turn from the board.
func (that *Game) UpdateGameState() {
	switch outcome := tictactoe.Outcome(that.Board); outcome {
	// one player wins
	case PlayerX, PlayerO:
		that.Winner = outcome
		that.Status = StatusFinished
		that.Turn = ""
	// tie
	case PlayerTie:
		that.Winner = PlayerTie
		that.Status = StatusFinished
		that.Turn = ""
	// game continue
	default:
		that.Status = StatusOngoing
		that.Turn = string(tictactoe.Turn(that.Board))
	}
}

func (that *Game) MakeTurn(playerMark string, cell int) error {
	if cell < 0 || cell >= len(that.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.IsFinished() {
		return apperror.ErrGameFinished
	}

	if string(tictactoe.Turn(that.Board)) != playerMark {
		return apperror.ErrNotYourTurn
	}

	board, err := tictactoe.Apply(that.Board, tictactoe.ActionFromCell(cell))
	if err != nil {
		return fmt.Errorf("failed to apply turn: %w", err)
	}

	that.Board = board
	that.UpdateGameState()

	return nil
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

func (that *Game) IsWithBot() bool {
	return that.Type == WithBotType
}

// BotPlayer returns the computer side of the game, or nil.
func (that *Game) BotPlayer() *Player {
	for _, player := range that.Players {
		if player.IsBot() {
			return player
		}
	}

	return nil
}

func (that *Game) GetRandomMarks() (string, string) {
	if rand.Intn(2) == 0 { //nolint: gosec // it's ok
		return PlayerX, PlayerO
	}
	return PlayerO, PlayerX
}
