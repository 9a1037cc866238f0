package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/minimax"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

type GamePlayService interface {
	GetOrCreateGame(ctx context.Context, playerID, mark string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)
	MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error)
	Hint(ctx context.Context, playerID string) (minimax.Result, error)
	CleanupGame(ctx context.Context, game *entity.Game)
}

type gamePlayService struct {
	logger *slog.Logger

	playerService PlayerService
	gameService   GameService
	botService    BotService
}

func NewGamePlayService(logger *slog.Logger, playerService PlayerService, gameService GameService, botService BotService) GamePlayService {
	return &gamePlayService{
		logger:        logger.With("component", "gameplay"),
		playerService: playerService,
		gameService:   gameService,
		botService:    botService,
	}
}

// GetOrCreateGame returns the player's current game or starts a new one against the bot.
// An empty mark lets the service pick the player's side at random.
func (that *gamePlayService) GetOrCreateGame(ctx context.Context, playerID, mark string) (*entity.Game, error) {
	if mark != "" && mark != entity.PlayerX && mark != entity.PlayerO {
		return nil, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID != "" {
		game, err := that.gameService.GetGameByID(ctx, player.GameID)
		switch {
		case err == nil && !game.IsWaiting():
			return game, nil
		case err == nil:
			// the bot never joined this game, start over
			that.discardGame(ctx, game.ID)
		case !errors.Is(err, repository.ErrGameNotFound):
			return nil, fmt.Errorf("failed to get game: %w", err)
		}

		player.GameID = ""
		player.Mark = ""
	}

	game, err := that.gameService.CreateGame(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err = that.addBotToGame(ctx, game, player, mark); err != nil {
		that.discardGame(ctx, game.ID)
		player.GameID = ""
		player.Mark = ""

		return nil, fmt.Errorf("failed to add bot to game: %w", err)
	}

	that.logger.Info("game created", "gameID", game.ID, "playerID", player.ID, "mark", player.Mark)

	return game, nil
}

// addBotToGame seats the bot and plays its opening move. The player is bound to
// the game only once the game is stored as ongoing.
func (that *gamePlayService) addBotToGame(ctx context.Context, game *entity.Game, player *entity.Player, mark string) error {
	playerMark, botMark := game.GetRandomMarks()
	if mark != "" {
		playerMark = mark
		botMark = string(tictactoe.Mark(mark).Opponent())
	}

	player.Mark = playerMark
	game.Players = append(game.Players, entity.NewBotPlayer(game.ID, botMark))
	game.Status = entity.StatusOngoing

	if botMark == entity.PlayerX {
		if err := that.botService.MakeTurn(ctx, game); err != nil {
			return fmt.Errorf("bot failed to make first turn: %w", err)
		}
	}

	if err := that.gameService.UpdateGame(ctx, game); err != nil {
		return fmt.Errorf("failed to update game with bot: %w", err)
	}

	if err := that.playerService.UpdatePlayer(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}

// discardGame removes a game that never became playable.
func (that *gamePlayService) discardGame(ctx context.Context, gameID string) {
	if err := that.gameService.DeleteGame(ctx, gameID); err != nil && !errors.Is(err, repository.ErrGameNotFound) {
		that.logger.Error("failed to discard game", "gameID", gameID, "error", err)
	}
}

func (that *gamePlayService) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, apperror.ErrNoActiveGames
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return game, nil
}

// MakeTurn plays the player's move and, unless the game ended, the bot's reply.
func (that *gamePlayService) MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, apperror.ErrNoActiveGames
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if err = game.ConfirmOngoingState(); err != nil {
		return game, err
	}

	if err = game.MakeTurn(player.Mark, cell); err != nil {
		return game, fmt.Errorf("failed to make turn: %w", err)
	}

	if !game.IsFinished() && game.IsWithBot() {
		if err = that.botService.MakeTurn(ctx, game); err != nil {
			return nil, fmt.Errorf("bot failed to make turn: %w", err)
		}
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

// Hint returns the action the engine would play for the player.
func (that *gamePlayService) Hint(ctx context.Context, playerID string) (minimax.Result, error) {
	game, err := that.GetGameByPlayerID(ctx, playerID)
	if err != nil {
		return minimax.Result{}, err
	}

	if err = game.ConfirmOngoingState(); err != nil {
		return minimax.Result{}, err
	}

	if game.BotPlayer() != nil && game.Turn == game.BotPlayer().Mark {
		return minimax.Result{}, apperror.ErrNotYourTurn
	}

	result, err := that.botService.Suggest(ctx, game.Board)
	if err != nil {
		return minimax.Result{}, fmt.Errorf("failed to suggest turn: %w", err)
	}

	return result, nil
}

// CleanupGame removes a finished game and frees its human players.
func (that *gamePlayService) CleanupGame(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "CleanupGame", "gameID", game.ID)

	if err := that.gameService.DeleteGame(ctx, game.ID); err != nil {
		log.Error("failed to delete game", "error", err)
	}

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		freed := *player
		freed.GameID = ""
		freed.Mark = ""
		if err := that.playerService.UpdatePlayer(ctx, &freed); err != nil {
			log.Error("failed to update", "player", player.ID, "error", err)
		}
	}

	log.Info("game cleaned up", "winner", game.Winner)
}
