package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-engine/internal/minimax"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

type createGameRequest struct {
	PlayerID string `json:"player_id"`
	Mark     string `json:"mark"`
}

type turnRequest struct {
	PlayerID string `json:"player_id"`
	Cell     *int   `json:"cell"`
}

type bestActionRequest struct {
	Board []string `json:"board"`
}

type actionResponse struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Cell  int    `json:"cell"`
	Score int    `json:"score"`
	Nodes int64  `json:"nodes"`
	Turn  string `json:"turn,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newActionResponse(result minimax.Result, turn tictactoe.Mark) actionResponse {
	cell := -1
	if result.Action != tictactoe.NoAction {
		cell = result.Action.Cell()
	}

	return actionResponse{
		Row:   result.Action.Row,
		Col:   result.Action.Col,
		Cell:  cell,
		Score: result.Score,
		Nodes: result.Nodes,
		Turn:  string(turn),
	}
}

func (that *Server) ping(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "pong")
}

func (that *Server) createPlayer(ctx echo.Context) error {
	player, err := that.gameUseCase.GetOrCreatePlayer(ctx.Request().Context(), "")
	if err != nil {
		return that.sendError(ctx, "createPlayer", err)
	}

	return ctx.JSON(http.StatusCreated, player)
}

func (that *Server) getGame(ctx echo.Context) error {
	game, err := that.gameUseCase.GetGameByPlayerID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return that.sendError(ctx, "getGame", err)
	}

	return ctx.JSON(http.StatusOK, game)
}

func (that *Server) createGame(ctx echo.Context) error {
	var req createGameRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if req.PlayerID == "" {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "player_id is required"})
	}

	game, err := that.gameUseCase.GetOrCreateGame(ctx.Request().Context(), req.PlayerID, req.Mark)
	if err != nil {
		return that.sendError(ctx, "createGame", err)
	}

	return ctx.JSON(http.StatusOK, game)
}

func (that *Server) makeTurn(ctx echo.Context) error {
	var req turnRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if req.PlayerID == "" || req.Cell == nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "player_id and cell are required"})
	}

	game, err := that.gameUseCase.MakeTurn(ctx.Request().Context(), req.PlayerID, *req.Cell)
	if err != nil {
		return that.sendError(ctx, "makeTurn", err)
	}

	return ctx.JSON(http.StatusOK, game)
}

func (that *Server) hint(ctx echo.Context) error {
	result, err := that.gameUseCase.Hint(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return that.sendError(ctx, "hint", err)
	}

	return ctx.JSON(http.StatusOK, newActionResponse(result, ""))
}

func (that *Server) bestAction(ctx echo.Context) error {
	var req bestActionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	board, err := tictactoe.ParseBoard(req.Board)
	if err != nil {
		return that.sendError(ctx, "bestAction", err)
	}

	result, err := that.gameUseCase.BestAction(ctx.Request().Context(), board)
	if err != nil {
		return that.sendError(ctx, "bestAction", err)
	}

	return ctx.JSON(http.StatusOK, newActionResponse(result, tictactoe.Turn(board)))
}
