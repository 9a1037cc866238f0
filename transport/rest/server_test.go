package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/minimax"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
)

type mockGameUseCase struct {
	mock.Mock
}

func (that *mockGameUseCase) GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error) {
	args := that.Called(ctx, playerID)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

func (that *mockGameUseCase) GetOrCreateGame(ctx context.Context, playerID, mark string) (*entity.Game, error) {
	args := that.Called(ctx, playerID, mark)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	args := that.Called(ctx, playerID)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error) {
	args := that.Called(ctx, playerID, cell)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) Hint(ctx context.Context, playerID string) (minimax.Result, error) {
	args := that.Called(ctx, playerID)
	result, _ := args.Get(0).(minimax.Result)
	return result, args.Error(1)
}

func (that *mockGameUseCase) BestAction(ctx context.Context, board tictactoe.Board) (minimax.Result, error) {
	args := that.Called(ctx, board)
	result, _ := args.Get(0).(minimax.Result)
	return result, args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doRequest(t *testing.T, server *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	return rec
}

func TestServer_Ping(t *testing.T) {
	server := New(discardLogger(), &mockGameUseCase{})

	rec := doRequest(t, server, http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServer_BestAction(t *testing.T) {
	logger := discardLogger()
	bot := service.NewBotService(logger, minimax.New(logger, minimax.Options{}), 0)
	server := New(logger, usecase.NewGameUseCase(nil, nil, bot))

	t.Run("Winning move is returned", func(t *testing.T) {
		// Given: X can complete the top row
		body := `{"board": ["X","X","","O","O","","","",""]}`

		// When: asking for the best action
		rec := doRequest(t, server, http.MethodPost, "/api/best-action", body)

		// Then: the winning cell is returned with a positive score
		require.Equal(t, http.StatusOK, rec.Code)

		var resp actionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.Row)
		assert.Equal(t, 2, resp.Col)
		assert.Equal(t, 2, resp.Cell)
		assert.Equal(t, 1, resp.Score)
		assert.Equal(t, "X", resp.Turn)
		assert.Positive(t, resp.Nodes)
	})

	t.Run("Empty board draws", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodPost, "/api/best-action", `{"board": ["","","","","","","","",""]}`)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp actionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.Score)
		assert.Equal(t, 0, resp.Cell)
		assert.Equal(t, "X", resp.Turn)
	})

	t.Run("Terminal board has no action", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodPost, "/api/best-action", `{"board": ["X","X","X","O","O","","","",""]}`)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp actionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, -1, resp.Row)
		assert.Equal(t, -1, resp.Col)
		assert.Equal(t, -1, resp.Cell)
		assert.Equal(t, 1, resp.Score)
		assert.Empty(t, resp.Turn)
	})

	t.Run("Malformed boards are rejected", func(t *testing.T) {
		for _, body := range []string{
			`{"board": ["x","","","","","","","",""]}`,
			`{"board": ["X","O"]}`,
			`{"board": `,
		} {
			rec := doRequest(t, server, http.MethodPost, "/api/best-action", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
	})
}

func TestServer_CreatePlayer(t *testing.T) {
	useCase := &mockGameUseCase{}
	useCase.On("GetOrCreatePlayer", mock.Anything, "").Return(&entity.Player{ID: "p1"}, nil).Once()
	server := New(discardLogger(), useCase)

	rec := doRequest(t, server, http.MethodPost, "/api/players", "")

	require.Equal(t, http.StatusCreated, rec.Code)

	var player entity.Player
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &player))
	assert.Equal(t, "p1", player.ID)
	useCase.AssertExpectations(t)
}

func TestServer_CreateGame(t *testing.T) {
	t.Run("Game is started", func(t *testing.T) {
		// Given: a player asking to play O
		useCase := &mockGameUseCase{}
		game := entity.NewGame("g1")
		game.Status = entity.StatusOngoing
		useCase.On("GetOrCreateGame", mock.Anything, "p1", "O").Return(game, nil).Once()
		server := New(discardLogger(), useCase)

		// When: creating a game
		rec := doRequest(t, server, http.MethodPost, "/api/games", `{"player_id": "p1", "mark": "O"}`)

		// Then: the game is returned
		require.Equal(t, http.StatusOK, rec.Code)

		var got entity.Game
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "g1", got.ID)
		assert.Equal(t, entity.StatusOngoing, got.Status)
		useCase.AssertExpectations(t)
	})

	t.Run("Player id is required", func(t *testing.T) {
		server := New(discardLogger(), &mockGameUseCase{})

		rec := doRequest(t, server, http.MethodPost, "/api/games", `{"mark": "O"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Invalid mark", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		useCase.On("GetOrCreateGame", mock.Anything, "p1", "Z").
			Return(nil, fmt.Errorf("failed to get or create game: %w", apperror.ErrInvalidMark)).Once()
		server := New(discardLogger(), useCase)

		rec := doRequest(t, server, http.MethodPost, "/api/games", `{"player_id": "p1", "mark": "Z"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_MakeTurn(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "Occupied cell", err: fmt.Errorf("%w: %w", apperror.ErrInvalidMove, apperror.ErrCellOccupied), status: http.StatusUnprocessableEntity},
		{name: "Not your turn", err: apperror.ErrNotYourTurn, status: http.StatusUnprocessableEntity},
		{name: "Out of range cell", err: apperror.ErrInvalidCell, status: http.StatusBadRequest},
		{name: "Game finished", err: apperror.ErrGameFinished, status: http.StatusConflict},
		{name: "Unknown player", err: repository.ErrPlayerNotFound, status: http.StatusNotFound},
		{name: "No active game", err: apperror.ErrNoActiveGames, status: http.StatusNotFound},
		{name: "Search deadline", err: context.DeadlineExceeded, status: http.StatusServiceUnavailable},
		{name: "Storage failure", err: errors.New("connection refused"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useCase := &mockGameUseCase{}
			useCase.On("MakeTurn", mock.Anything, "p1", 4).Return(nil, fmt.Errorf("failed to make turn: %w", tt.err)).Once()
			server := New(discardLogger(), useCase)

			rec := doRequest(t, server, http.MethodPost, "/api/games/turn", `{"player_id": "p1", "cell": 4}`)

			assert.Equal(t, tt.status, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}

	t.Run("Internal errors are not leaked", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		useCase.On("MakeTurn", mock.Anything, "p1", 4).Return(nil, errors.New("redis: secret detail")).Once()
		server := New(discardLogger(), useCase)

		rec := doRequest(t, server, http.MethodPost, "/api/games/turn", `{"player_id": "p1", "cell": 4}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret")
	})

	t.Run("Cell zero is accepted", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		game := entity.NewGame("g1")
		useCase.On("MakeTurn", mock.Anything, "p1", 0).Return(game, nil).Once()
		server := New(discardLogger(), useCase)

		rec := doRequest(t, server, http.MethodPost, "/api/games/turn", `{"player_id": "p1", "cell": 0}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		useCase.AssertExpectations(t)
	})

	t.Run("Missing cell", func(t *testing.T) {
		server := New(discardLogger(), &mockGameUseCase{})

		rec := doRequest(t, server, http.MethodPost, "/api/games/turn", `{"player_id": "p1"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_GetGameAndHint(t *testing.T) {
	useCase := &mockGameUseCase{}
	useCase.On("GetGameByPlayerID", mock.Anything, "p1").Return(entity.NewGame("g1"), nil).Once()
	useCase.On("GetGameByPlayerID", mock.Anything, "p2").Return(nil, apperror.ErrNoActiveGames).Once()
	useCase.On("Hint", mock.Anything, "p1").
		Return(minimax.Result{Action: tictactoe.Action{Row: 1, Col: 1}, Score: 0, Nodes: 42}, nil).Once()
	server := New(discardLogger(), useCase)

	t.Run("Game of the player", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodGet, "/api/players/p1/game", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":"g1"`)
	})

	t.Run("Player without a game", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodGet, "/api/players/p2/game", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Hint", func(t *testing.T) {
		rec := doRequest(t, server, http.MethodGet, "/api/players/p1/hint", "")

		require.Equal(t, http.StatusOK, rec.Code)

		var resp actionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 4, resp.Cell)
		assert.Equal(t, int64(42), resp.Nodes)
	})

	useCase.AssertExpectations(t)
}
