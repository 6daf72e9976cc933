package bots

import (
	"fmt"
	"math"

	"bestplay/rules"
)

// Minimax is the unpruned search MinimaxBot is measured against. It
// visits every node to the given depth and chooses the same move and
// value as the pruned search.
func Minimax(pos rules.Position, depth int, eval PositionEvaluator) (rules.Move, float64, error) {
	if depth < 0 || depth > MaxDepth {
		return rules.NoMove, 0, fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}
	moves := pos.LegalMoves()
	if depth == 0 || len(moves) == 0 {
		return rules.NoMove, eval.Evaluate(pos), nil
	}

	best, bestMove := math.Inf(-1), rules.NoMove
	for _, m := range moves {
		value, err := withMove(pos, m, func() (float64, error) {
			return minimaxValue(pos, depth-1, false, eval)
		})
		if err != nil {
			return rules.NoMove, 0, err
		}
		if value > best || bestMove.IsNone() {
			best, bestMove = value, m
		}
	}
	return bestMove, best, nil
}

func minimaxValue(pos rules.Position, depth int, maximizing bool, eval PositionEvaluator) (float64, error) {
	if depth == 0 || pos.IsGameOver() {
		return eval.Evaluate(pos), nil
	}
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return eval.Evaluate(pos), nil
	}

	best := math.Inf(1)
	if maximizing {
		best = math.Inf(-1)
	}
	for _, m := range moves {
		value, err := withMove(pos, m, func() (float64, error) {
			return minimaxValue(pos, depth-1, !maximizing, eval)
		})
		if err != nil {
			return 0, err
		}
		if maximizing {
			best = math.Max(best, value)
		} else {
			best = math.Min(best, value)
		}
	}
	return best, nil
}
