package usecase

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/minimax"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

type GameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error)

	GetOrCreateGame(ctx context.Context, playerID, mark string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)

	MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error)
	Hint(ctx context.Context, playerID string) (minimax.Result, error)

	BestAction(ctx context.Context, board tictactoe.Board) (minimax.Result, error)
}

type playerService interface {
	CreatePlayer(ctx context.Context) (*entity.Player, error)
	GetPlayerByID(ctx context.Context, id string) (*entity.Player, error)
}

type gamePlayService interface {
	GetOrCreateGame(ctx context.Context, playerID, mark string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)
	MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error)
	Hint(ctx context.Context, playerID string) (minimax.Result, error)
	CleanupGame(ctx context.Context, game *entity.Game)
}

type botService interface {
	Suggest(ctx context.Context, board tictactoe.Board) (minimax.Result, error)
}

type gameUseCase struct {
	playerService   playerService
	gamePlayService gamePlayService
	botService      botService
}

func NewGameUseCase(playerService playerService, gamePlayService gamePlayService, botService botService) GameUseCase {
	return &gameUseCase{
		playerService:   playerService,
		gamePlayService: gamePlayService,
		botService:      botService,
	}
}

func (that *gameUseCase) GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error) {
	if playerID == "" {
		player, err := that.playerService.CreatePlayer(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not create player: %w", err)
		}

		return player, nil
	}

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return player, nil
}

func (that *gameUseCase) GetOrCreateGame(ctx context.Context, playerID, mark string) (*entity.Game, error) {
	game, err := that.gamePlayService.GetOrCreateGame(ctx, playerID, mark)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	game, err := that.gamePlayService.GetGameByPlayerID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

// MakeTurn plays a turn; a game that ends with it is removed from storage and returned in its final state.
func (that *gameUseCase) MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error) {
	game, err := that.gamePlayService.MakeTurn(ctx, playerID, cell)
	if err != nil {
		return game, fmt.Errorf("failed to make turn: %w", err)
	}

	if game.IsFinished() {
		that.gamePlayService.CleanupGame(ctx, game)
	}

	return game, nil
}

func (that *gameUseCase) Hint(ctx context.Context, playerID string) (minimax.Result, error) {
	result, err := that.gamePlayService.Hint(ctx, playerID)
	if err != nil {
		return result, fmt.Errorf("failed to get hint: %w", err)
	}

	return result, nil
}

// BestAction searches an arbitrary board that is not bound to any stored game.
func (that *gameUseCase) BestAction(ctx context.Context, board tictactoe.Board) (minimax.Result, error) {
	if err := tictactoe.Validate(board); err != nil {
		return minimax.Result{Action: tictactoe.NoAction}, err
	}

	result, err := that.botService.Suggest(ctx, board)
	if err != nil {
		return result, fmt.Errorf("failed to find best action: %w", err)
	}

	return result, nil
}
