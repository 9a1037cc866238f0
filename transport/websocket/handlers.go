package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
)

var clientErrors = []error{
	apperror.ErrInvalidMove,
	apperror.ErrCellOccupied,
	apperror.ErrInvalidCell,
	apperror.ErrInvalidMark,
	apperror.ErrGameFinished,
	apperror.ErrGameIsNotStarted,
	apperror.ErrNotYourTurn,
	apperror.ErrNoActiveGames,
	repository.ErrPlayerNotFound,
	repository.ErrGameNotFound,
}

func (that *Server) handleConnect(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleConnect")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return that.sendErrorResponse(conn, msg.Action, "invalid payload")
	}

	id := playerID(payloadReq, conn)

	player, err := that.gameUseCase.GetOrCreatePlayer(ctx, id)
	if errors.Is(err, repository.ErrPlayerNotFound) && id == conn.playerID {
		log.Info("session player not found, creating a new one", "playerID", id)
		player, err = that.gameUseCase.GetOrCreatePlayer(ctx, "")
	}

	if err != nil {
		log.Error("failed to create or get player", "error", err)
		return that.sendUseCaseError(conn, msg.Action, "failed to connect player", err)
	}

	conn.playerID = player.ID

	if player.GameID != "" {
		return that.handleExistingGame(ctx, msg, conn, player)
	}

	if err = conn.send(msg.Action, Payload{Player: player}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected player", "playerID", player.ID)

	return nil
}

// handleExistingGame - resends the game the player is in on reconnect.
func (that *Server) handleExistingGame(ctx context.Context, msg *Message, conn *connection, player *entity.Player) error {
	log := that.logger.With("method", "handleExistingGame")

	game, err := that.gameUseCase.GetGameByPlayerID(ctx, player.ID)
	if err != nil {
		log.Error("failed to get game", "gameID", player.GameID, "error", err)
		return that.sendUseCaseError(conn, msg.Action, "failed to get the game", err)
	}

	return conn.send(msg.Action, Payload{Player: player, Game: maskGameDetails(game)})
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleNewGame")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return that.sendErrorResponse(conn, msg.Action, "invalid payload")
	}

	id := playerID(payloadReq, conn)
	if id == "" {
		log.Info("player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "player is required")
	}

	game, err := that.gameUseCase.GetOrCreateGame(ctx, id, payloadReq.Mark)
	if err != nil {
		log.Error("failed to create or get game", "playerID", id, "error", err)
		return that.sendUseCaseError(conn, msg.Action, "failed to create a new game", err)
	}

	payloadResp := Payload{
		Player: humanPlayer(game),
		Game:   maskGameDetails(game),
	}

	if err = conn.send(msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("game started", "gameID", game.ID)

	return nil
}

func (that *Server) handleGameTurn(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleGameTurn")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return that.sendErrorResponse(conn, msg.Action, "invalid payload")
	}

	id := playerID(payloadReq, conn)
	if id == "" {
		log.Info("player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "player is required")
	}

	if payloadReq.Cell == nil {
		log.Info("cell is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "cell is required")
	}

	log = log.With("playerID", id)

	game, err := that.gameUseCase.MakeTurn(ctx, id, *payloadReq.Cell)
	if err != nil {
		log.Info("failed to make turn", "error", err)
		return that.sendUseCaseError(conn, msg.Action, "failed to make turn", err)
	}

	payloadResp := Payload{
		Player: humanPlayer(game),
		Game:   maskGameDetails(game),
	}

	if err = conn.send(msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	if game.IsFinished() {
		log.Info("game finished", "gameID", game.ID, "winner", game.Winner)
	}

	return nil
}

func (that *Server) handleGameHint(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleGameHint")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return that.sendErrorResponse(conn, msg.Action, "invalid payload")
	}

	id := playerID(payloadReq, conn)
	if id == "" {
		log.Info("player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "player is required")
	}

	result, err := that.gameUseCase.Hint(ctx, id)
	if err != nil {
		log.Info("failed to get hint", "playerID", id, "error", err)
		return that.sendUseCaseError(conn, msg.Action, "failed to get hint", err)
	}

	return conn.send(msg.Action, Payload{Hint: newHint(result)})
}

// playerID takes the player from the payload and falls back to the session player.
func playerID(payload Payload, conn *connection) string {
	if payload.Player != nil && payload.Player.ID != "" {
		return payload.Player.ID
	}

	return conn.playerID
}

func humanPlayer(game *entity.Game) *entity.Player {
	for _, player := range game.Players {
		if !player.IsBot() {
			return player
		}
	}

	return nil
}

// maskGameDetails hides internal details from the game payload.
func maskGameDetails(game *entity.Game) *entity.Game {
	masked := *game
	masked.Players = nil
	masked.Type = ""

	return &masked
}

// sendUseCaseError reports domain errors as they are and hides everything else behind fallback.
func (that *Server) sendUseCaseError(conn *connection, action, fallback string, err error) error {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return that.sendErrorResponse(conn, action, err.Error())
		}
	}

	return that.sendErrorResponse(conn, action, fallback)
}

func (that *Server) sendErrorResponse(conn *connection, action, errorMsg string) error {
	if err := conn.send(action, Payload{Error: errorMsg}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}
