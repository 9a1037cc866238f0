package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/minimax"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

const writeWait = 10 * time.Second

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player *entity.Player `json:"player,omitempty"`
	Game   *entity.Game   `json:"game,omitempty"`
	Mark   string         `json:"mark,omitempty"`
	Cell   *int           `json:"cell,omitempty"`
	Hint   *Hint          `json:"hint,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type Hint struct {
	Row   int   `json:"row"`
	Col   int   `json:"col"`
	Cell  int   `json:"cell"`
	Score int   `json:"score"`
	Nodes int64 `json:"nodes"`
}

func newHint(result minimax.Result) *Hint {
	cell := -1
	if result.Action != tictactoe.NoAction {
		cell = result.Action.Cell()
	}

	return &Hint{
		Row:   result.Action.Row,
		Col:   result.Action.Col,
		Cell:  cell,
		Score: result.Score,
		Nodes: result.Nodes,
	}
}

// connection serialises writes; gorilla allows one concurrent writer per conn.
// playerID is only touched by the read loop.
type connection struct {
	conn     *websocket.Conn
	mu       sync.Mutex
	playerID string
}

func (that *connection) send(action string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if err = that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteJSON(Message{Action: action, Payload: body}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
