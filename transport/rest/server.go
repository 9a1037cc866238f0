package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/minimax"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

type gameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error)
	GetOrCreateGame(ctx context.Context, playerID, mark string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)
	MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error)
	Hint(ctx context.Context, playerID string) (minimax.Result, error)
	BestAction(ctx context.Context, board tictactoe.Board) (minimax.Result, error)
}

type Server struct {
	logger *slog.Logger
	echo   *echo.Echo

	gameUseCase gameUseCase
}

func New(logger *slog.Logger, gameUseCase gameUseCase) *Server {
	server := &Server{
		logger:      logger.With("component", "rest"),
		echo:        echo.New(),
		gameUseCase: gameUseCase,
	}

	server.echo.HideBanner = true
	server.echo.HidePort = true

	server.echo.Use(middleware.Recover())
	server.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			server.logger.Debug("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))

	server.echo.GET("/ping", server.ping)

	api := server.echo.Group("/api")
	api.POST("/players", server.createPlayer)
	api.GET("/players/:id/game", server.getGame)
	api.GET("/players/:id/hint", server.hint)
	api.POST("/games", server.createGame)
	api.POST("/games/turn", server.makeTurn)
	api.POST("/best-action", server.bestAction)

	return server
}

func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	that.echo.ServeHTTP(w, r)
}

// Start - starts HTTP server and blocks until it stops.
func (that *Server) Start(port string) error {
	that.echo.Server.ReadTimeout = 10 * time.Second
	that.echo.Server.WriteTimeout = 10 * time.Second
	that.echo.Server.IdleTimeout = 30 * time.Second

	if err := that.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Shutdown(ctx context.Context) error {
	if err := that.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
