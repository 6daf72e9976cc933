package bots

import "bestplay/rules"

// ChessBot is the surface every bot exposes to match runners and the CLI.
// BestMove reports false when the side to move has no legal move.
type ChessBot interface {
	BestMove(pos rules.Position) (rules.Move, bool)
	Name() string
}

// PositionEvaluator scores a position without searching.
type PositionEvaluator interface {
	Evaluate(pos rules.Position) float64
}

// EvaluatorFunc adapts a plain function to PositionEvaluator.
type EvaluatorFunc func(pos rules.Position) float64

func (f EvaluatorFunc) Evaluate(pos rules.Position) float64 { return f(pos) }
