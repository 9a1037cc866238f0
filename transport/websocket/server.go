package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/minimax"
)

const (
	sessionCookieName = "user_session"
	sessionTTL        = 24 * time.Hour
	maxMessageSize    = 4096
)

type gameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error)
	GetOrCreateGame(ctx context.Context, playerID, mark string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)
	MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error)
	Hint(ctx context.Context, playerID string) (minimax.Result, error)
}

type handlerFunc func(ctx context.Context, msg *Message, conn *connection) error

type Server struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
	upgrader    websocket.Upgrader
	httpServer  *http.Server

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, gameUseCase gameUseCase) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		gameUseCase: gameUseCase,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers["connect"] = server.handleConnect
	server.handlers["game:new"] = server.handleNewGame
	server.handlers["game:turn"] = server.handleGameTurn
	server.handlers["game:hint"] = server.handleGameHint

	return server
}

// Start - starts WebSocket server and blocks until ctx is done or the server fails.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", that)

	that.httpServer = &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := that.httpServer.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := that.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// ServeHTTP - upgrades the connection to WebSocket and processes its messages.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeConnection")

	if !websocket.IsWebSocketUpgrade(req) {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	playerID, header := that.session(req)

	conn, err := that.upgrader.Upgrade(writer, req, header)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	defer conn.Close()

	log.Info("WebSocket connection established", "playerID", playerID)

	that.handleMessages(req.Context(), &connection{conn: conn, playerID: playerID})
}

// handleMessages - processes messages from the client until it disconnects.
func (that *Server) handleMessages(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "handleMessages")

	conn.conn.SetReadLimit(maxMessageSize)

	for {
		_, body, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}

			log.Info("WebSocket connection closed")

			return
		}

		var message Message
		if err = json.Unmarshal(body, &message); err != nil {
			log.Info("failed to unmarshal message", "error", err)

			if err = that.sendErrorResponse(conn, "", "malformed message"); err != nil {
				log.Error("failed to send error response", "error", err)
			}

			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Info("unknown action", "action", message.Action)

			if err = that.sendErrorResponse(conn, message.Action, "unknown action"); err != nil {
				log.Error("failed to send error response", "error", err)
			}

			continue
		}

		if err = handler(ctx, &message, conn); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// session - resolves the player behind the session cookie. A client without
// one gets a new player and a Set-Cookie header carrying its id.
func (that *Server) session(req *http.Request) (string, http.Header) {
	log := that.logger.With("method", "session")

	if cookie, err := req.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		log.Debug("session cookie found", "playerID", cookie.Value)
		return cookie.Value, nil
	}

	player, err := that.gameUseCase.GetOrCreatePlayer(req.Context(), "")
	if err != nil {
		log.Error("failed to create player for session", "error", err)
		return "", nil
	}

	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    player.ID,
		Expires:  time.Now().Add(sessionTTL),
		Path:     "/ws",
		HttpOnly: true,
	}

	log.Debug("session cookie not found, new one created", "playerID", player.ID)

	return player.ID, http.Header{"Set-Cookie": {cookie.String()}}
}
