package bots

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"bestplay/rules"
)

// MaxDepth bounds the recursion of a single search.
const MaxDepth = 32

var ErrInvalidDepth = errors.New("invalid search depth")

type Option func(b *MinimaxBot)

func WithEvaluator(evaluator PositionEvaluator) Option {
	return func(b *MinimaxBot) {
		if evaluator != nil {
			b.Evaluator = evaluator
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(b *MinimaxBot) {
		b.Logger = logger
	}
}

// MinimaxBot searches a fixed number of plies with alpha-beta pruning.
// A zero TimeLimit searches to full depth.
type MinimaxBot struct {
	Depth     int
	TimeLimit time.Duration
	Evaluator PositionEvaluator
	Logger    zerolog.Logger
}

func NewMinimaxBot(depth int, timeLimit time.Duration, options ...Option) *MinimaxBot {
	b := &MinimaxBot{
		Depth:     depth,
		TimeLimit: timeLimit,
		Evaluator: DefaultEvaluator{Logger: zerolog.Nop()},
		Logger:    zerolog.Nop(),
	}
	for _, option := range options {
		option(b)
	}
	return b
}

func (b *MinimaxBot) Name() string {
	return fmt.Sprintf("Minimax Bot (depth %d)", b.Depth)
}

func (b *MinimaxBot) BestMove(pos rules.Position) (rules.Move, bool) {
	return b.BestMoveContext(context.Background(), pos)
}

// BestMoveContext is BestMove with a search that stops early once ctx is
// done, returning the best move found so far.
func (b *MinimaxBot) BestMoveContext(ctx context.Context, pos rules.Position) (rules.Move, bool) {
	if pos == nil {
		return rules.NoMove, false
	}
	result, err := b.Search(ctx, pos, b.Depth)
	if err != nil {
		b.Logger.Error().Err(err).Str("fen", pos.FEN()).Msg("search failed")
		return rules.NoMove, false
	}
	return result.Move, result.HasMove()
}

// Stats counts the work done by one search.
type Stats struct {
	Nodes   int `json:"nodes"`
	Leaves  int `json:"leaves"`
	Cutoffs int `json:"cutoffs"`
}

// Result is the outcome of a root search. With no legal move at the root
// Move is rules.NoMove and Status says why.
type Result struct {
	Move        rules.Move
	Score       float64
	Depth       int
	Status      rules.Status
	Stats       Stats
	Interrupted bool
	Elapsed     time.Duration
}

func (r Result) HasMove() bool { return !r.Move.IsNone() }

// Search picks the root move with the greatest minimax value, treating
// the side to move as the maximizer. Ties keep the earliest move in
// generation order. Depth 0 returns the static evaluation and no move.
//
// The position is mutated during the search and restored before Search
// returns, including on error.
func (b *MinimaxBot) Search(ctx context.Context, pos rules.Position, depth int) (Result, error) {
	if depth < 0 || depth > MaxDepth {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}

	s := b.newSearch(ctx)
	result := Result{Move: rules.NoMove, Depth: depth, Status: pos.Status()}

	moves := pos.LegalMoves()
	if depth == 0 || len(moves) == 0 {
		s.stats.Nodes++
		s.stats.Leaves++
		result.Score = s.eval.Evaluate(pos)
		result.Stats = s.stats
		result.Elapsed = time.Since(s.start)
		if len(moves) == 0 {
			b.Logger.Debug().Stringer("status", result.Status).Str("fen", pos.FEN()).Msg("no legal moves")
		}
		return result, nil
	}

	s.stats.Nodes++
	best := math.Inf(-1)
	for _, m := range moves {
		value, err := withMove(pos, m, func() (float64, error) {
			return s.minimax(pos, depth-1, math.Inf(-1), math.Inf(1), false)
		})
		if err != nil {
			return Result{}, err
		}
		if value > best || result.Move.IsNone() {
			best = value
			result.Move = m
		}
		if s.interrupted {
			break
		}
	}

	result.Score = best
	result.Stats = s.stats
	result.Interrupted = s.interrupted
	result.Elapsed = time.Since(s.start)

	b.Logger.Debug().
		Int("depth", depth).
		Stringer("move", result.Move).
		Float64("score", result.Score).
		Int("nodes", s.stats.Nodes).
		Int("cutoffs", s.stats.Cutoffs).
		Bool("interrupted", result.Interrupted).
		Dur("elapsed", result.Elapsed).
		Msg("search finished")
	return result, nil
}

type search struct {
	ctx         context.Context
	eval        PositionEvaluator
	start       time.Time
	deadline    time.Time
	stats       Stats
	interrupted bool
}

func (b *MinimaxBot) newSearch(ctx context.Context) *search {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &search{ctx: ctx, eval: b.Evaluator, start: time.Now()}
	if s.eval == nil {
		s.eval = DefaultEvaluator{Logger: zerolog.Nop()}
	}
	if b.TimeLimit > 0 {
		s.deadline = s.start.Add(b.TimeLimit)
	}
	return s
}

func (s *search) expired() bool {
	if s.interrupted {
		return true
	}
	if s.ctx.Err() != nil || (!s.deadline.IsZero() && time.Now().After(s.deadline)) {
		s.interrupted = true
	}
	return s.interrupted
}

func (s *search) minimax(pos rules.Position, depth int, alpha, beta float64, maximizing bool) (float64, error) {
	s.stats.Nodes++
	if depth == 0 || pos.IsGameOver() || s.expired() {
		s.stats.Leaves++
		return s.eval.Evaluate(pos), nil
	}

	moves := pos.LegalMoves()
	if len(moves) == 0 {
		s.stats.Leaves++
		return s.eval.Evaluate(pos), nil
	}

	best := math.Inf(1)
	if maximizing {
		best = math.Inf(-1)
	}
	for _, m := range moves {
		value, err := withMove(pos, m, func() (float64, error) {
			return s.minimax(pos, depth-1, alpha, beta, !maximizing)
		})
		if err != nil {
			return 0, err
		}
		if maximizing {
			best = math.Max(best, value)
			alpha = math.Max(alpha, best)
		} else {
			best = math.Min(best, value)
			beta = math.Min(beta, best)
		}
		if beta <= alpha {
			s.stats.Cutoffs++
			break
		}
	}
	return best, nil
}

// withMove applies m, runs fn and undoes m on every exit path.
func withMove(pos rules.Position, m rules.Move, fn func() (float64, error)) (value float64, err error) {
	if err := pos.Apply(m); err != nil {
		return 0, err
	}
	defer func() {
		if undoErr := pos.Undo(); undoErr != nil && err == nil {
			err = fmt.Errorf("undo %s: %w", m, undoErr)
		}
	}()
	return fn()
}
