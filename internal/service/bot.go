package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/minimax"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

var (
	ErrBotNotFound      = errors.New("bot player not found")
	ErrNoAvailableMoves = errors.New("no available moves")
)

type BotService interface {
	MakeTurn(ctx context.Context, game *entity.Game) error
	Suggest(ctx context.Context, board tictactoe.Board) (minimax.Result, error)
}

type searcher interface {
	Search(ctx context.Context, board tictactoe.Board) (minimax.Result, error)
}

type botService struct {
	logger   *slog.Logger
	searcher searcher
	timeout  time.Duration
}

// NewBotService plays the bot side with the given searcher; a zero timeout disables the per-move deadline.
func NewBotService(logger *slog.Logger, searcher searcher, timeout time.Duration) BotService {
	return &botService{
		logger:   logger.With("component", "bot"),
		searcher: searcher,
		timeout:  timeout,
	}
}

func (that *botService) MakeTurn(ctx context.Context, game *entity.Game) error {
	botPlayer := game.BotPlayer()
	if botPlayer == nil {
		return ErrBotNotFound
	}

	result, err := that.Suggest(ctx, game.Board)
	if err != nil {
		return fmt.Errorf("bot failed to search: %w", err)
	}

	if result.Action == tictactoe.NoAction {
		return ErrNoAvailableMoves
	}

	if err = game.MakeTurn(botPlayer.Mark, result.Action.Cell()); err != nil {
		return fmt.Errorf("bot failed to make turn: %w", err)
	}

	that.logger.Debug("bot made turn",
		"gameID", game.ID,
		"mark", botPlayer.Mark,
		"cell", result.Action.Cell(),
		"score", result.Score,
	)

	return nil
}

// Suggest returns the optimal action for the side to move on board.
func (that *botService) Suggest(ctx context.Context, board tictactoe.Board) (minimax.Result, error) {
	if that.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, that.timeout)
		defer cancel()
	}

	result, err := that.searcher.Search(ctx, board)
	if err != nil {
		return result, fmt.Errorf("failed to search best action: %w", err)
	}

	return result, nil
}
