// Package minimax picks optimal tic-tac-toe moves by exhaustive minimax search with alpha-beta pruning.
//
// X maximises and O minimises the utility of tictactoe.Utility. Legal actions are explored in
// row-major order and the first action reaching a strictly better value wins ties, so results are
// reproducible. Pruning cuts only when alpha > beta; equal bounds keep exploring.
package minimax

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

const (
	minusInfinity = math.MinInt
	plusInfinity  = math.MaxInt

	// how often, in visited nodes, the context is polled.
	cancelCheckInterval = 1024
)

var ErrNodeBudgetExceeded = errors.New("search node budget exceeded")

type Options struct {
	// Parallel evaluates the root actions concurrently. The chosen action does not depend on it.
	Parallel bool
	// NodeBudget caps the number of visited nodes; zero means unlimited.
	NodeBudget int64
}

// Result is the outcome of a search.
type Result struct {
	Action tictactoe.Action `json:"action"`
	Score  int              `json:"score"`
	Nodes  int64            `json:"nodes"`
}

type Searcher struct {
	logger *slog.Logger
	opts   Options
}

func New(logger *slog.Logger, opts Options) *Searcher {
	return &Searcher{
		logger: logger.With("component", "minimax"),
		opts:   opts,
	}
}

var defaultSearcher = New(slog.New(slog.NewTextHandler(io.Discard, nil)), Options{})

// BestAction returns the optimal action for the side to move, or tictactoe.NoAction
// when the board is terminal or malformed.
func BestAction(board tictactoe.Board) tictactoe.Action {
	result, err := defaultSearcher.Search(context.Background(), board)
	if err != nil {
		return tictactoe.NoAction
	}

	return result.Action
}

// Search runs a full search from board. On a terminal board it returns tictactoe.NoAction
// with the board's utility as the score.
func (that *Searcher) Search(ctx context.Context, board tictactoe.Board) (Result, error) {
	log := that.logger.With("method", "Search")

	if err := tictactoe.Validate(board); err != nil {
		return Result{Action: tictactoe.NoAction}, err
	}

	if err := ctx.Err(); err != nil {
		return Result{Action: tictactoe.NoAction}, err
	}

	player := tictactoe.Turn(board)
	if player == tictactoe.Empty {
		return Result{Action: tictactoe.NoAction, Score: tictactoe.Utility(board)}, nil
	}

	nodes := &atomic.Int64{}
	nodes.Add(1)

	actions := tictactoe.LegalActions(board)

	scores, err := that.scoreActions(ctx, nodes, board, player, actions)
	if err != nil {
		log.Debug("search aborted", "nodes", nodes.Load(), "error", err)
		return Result{Action: tictactoe.NoAction, Nodes: nodes.Load()}, err
	}

	result := Result{Action: tictactoe.NoAction, Nodes: nodes.Load()}
	best := minusInfinity
	if player == tictactoe.O {
		best = plusInfinity
	}

	for i, score := range scores {
		if (player == tictactoe.X && score > best) || (player == tictactoe.O && score < best) {
			best = score
			result.Action = actions[i]
		}
	}
	result.Score = best

	log.Debug("search finished",
		"player", string(player),
		"action", result.Action.String(),
		"score", result.Score,
		"nodes", result.Nodes,
		"parallel", that.opts.Parallel,
	)

	return result, nil
}

// scoreActions evaluates every root action with a full window. Scores are returned in the order of actions.
func (that *Searcher) scoreActions(
	ctx context.Context,
	nodes *atomic.Int64,
	board tictactoe.Board,
	player tictactoe.Mark,
	actions []tictactoe.Action,
) ([]int, error) {
	scores := make([]int, len(actions))

	if !that.opts.Parallel {
		st := &search{ctx: ctx, nodes: nodes, budget: that.opts.NodeBudget}
		for i, action := range actions {
			score, err := st.child(board, player, action)
			if err != nil {
				return nil, err
			}
			scores[i] = score
		}

		return scores, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, action := range actions {
		i, action := i, action
		g.Go(func() error {
			st := &search{ctx: gctx, nodes: nodes, budget: that.opts.NodeBudget}
			score, err := st.child(board, player, action)
			if err != nil {
				return err
			}
			scores[i] = score
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return scores, nil
}

// search holds the bookkeeping of one recursion. Boards are passed by value, so workers never share one.
type search struct {
	ctx    context.Context
	nodes  *atomic.Int64
	budget int64
}

func (that *search) child(board tictactoe.Board, player tictactoe.Mark, action tictactoe.Action) (int, error) {
	next, err := tictactoe.Apply(board, action)
	if err != nil {
		return 0, err
	}

	if player == tictactoe.X {
		return that.minValue(next, minusInfinity, plusInfinity)
	}

	return that.maxValue(next, minusInfinity, plusInfinity)
}

func (that *search) visit() error {
	n := that.nodes.Add(1)

	if that.budget > 0 && n > that.budget {
		return ErrNodeBudgetExceeded
	}

	if n%cancelCheckInterval == 0 {
		return that.ctx.Err()
	}

	return nil
}

func (that *search) maxValue(board tictactoe.Board, alpha, beta int) (int, error) {
	if err := that.visit(); err != nil {
		return 0, err
	}

	if tictactoe.IsTerminal(board) {
		return tictactoe.Utility(board), nil
	}

	v := minusInfinity
	for _, action := range tictactoe.LegalActions(board) {
		next, err := tictactoe.Apply(board, action)
		if err != nil {
			return 0, err
		}

		score, err := that.minValue(next, alpha, beta)
		if err != nil {
			return 0, err
		}

		v = max(v, score)
		alpha = max(alpha, v)
		if alpha > beta {
			break
		}
	}

	return v, nil
}

func (that *search) minValue(board tictactoe.Board, alpha, beta int) (int, error) {
	if err := that.visit(); err != nil {
		return 0, err
	}

	if tictactoe.IsTerminal(board) {
		return tictactoe.Utility(board), nil
	}

	v := plusInfinity
	for _, action := range tictactoe.LegalActions(board) {
		next, err := tictactoe.Apply(board, action)
		if err != nil {
			return 0, err
		}

		score, err := that.maxValue(next, alpha, beta)
		if err != nil {
			return 0, err
		}

		v = min(v, score)
		beta = min(beta, v)
		if alpha > beta {
			break
		}
	}

	return v, nil
}
