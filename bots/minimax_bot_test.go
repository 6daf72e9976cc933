package bots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"bestplay/rules"
)

func treeBot(depth int, eval PositionEvaluator) *MinimaxBot {
	return NewMinimaxBot(depth, 0, WithEvaluator(eval))
}

func TestSearchMatchesPlainMinimax(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 300; i++ {
		treeDepth := 1 + rng.Intn(5)
		root := randomTree(rng, treeDepth)

		for depth := 1; depth <= treeDepth; depth++ {
			plainEval := &countingEvaluator{}
			wantMove, wantScore, err := Minimax(newTreePosition(root), depth, plainEval)
			require.NoError(t, err)

			pos := newTreePosition(root)
			prunedEval := &countingEvaluator{}
			got, err := treeBot(depth, prunedEval).Search(context.Background(), pos, depth)
			require.NoError(t, err)

			require.Equal(t, wantMove, got.Move, "tree %d depth %d", i, depth)
			require.Equal(t, wantScore, got.Score, "tree %d depth %d", i, depth)
			require.LessOrEqual(t, prunedEval.calls, plainEval.calls, "pruning never evaluates more leaves")
			require.Equal(t, "root", pos.FEN(), "search must leave the root position in place")
			require.Equal(t, pos.applies, pos.undos)
		}
	}
}

func TestSearchPrunes(t *testing.T) {
	// Each root move gets a fresh window, so a depth-2 search visits
	// every reply.
	root := node(
		node(leaf(3), leaf(5)),
		node(leaf(2), leaf(9), leaf(7)),
		node(leaf(4), leaf(1)),
	)
	eval := &countingEvaluator{}
	pos := newTreePosition(root)

	got, err := treeBot(2, eval).Search(context.Background(), pos, 2)
	require.NoError(t, err)

	require.Equal(t, rules.Square(0), got.Move.From)
	require.Equal(t, 3.0, got.Score)
	require.Equal(t, 7, eval.calls)

	// Depth 3 tree: inner alpha-beta windows do cut.
	deep := node(
		node(node(leaf(5), leaf(6)), node(leaf(7), leaf(4), leaf(5))),
		node(node(leaf(3)), node(leaf(6), leaf(9))),
	)
	eval = &countingEvaluator{}
	got, err = treeBot(3, eval).Search(context.Background(), newTreePosition(deep), 3)
	require.NoError(t, err)

	_, want, err := Minimax(newTreePosition(deep), 3, &countingEvaluator{})
	require.NoError(t, err)
	require.Equal(t, want, got.Score)
	require.Positive(t, got.Stats.Cutoffs)
	require.Less(t, eval.calls, 8)
}

func TestSearchDepthZero(t *testing.T) {
	root := node(leaf(1), leaf(2))
	root.value = 17
	pos := newTreePosition(root)
	eval := &countingEvaluator{}

	got, err := treeBot(0, eval).Search(context.Background(), pos, 0)
	require.NoError(t, err)

	require.False(t, got.HasMove())
	require.Equal(t, 17.0, got.Score)
	require.Equal(t, 1, got.Stats.Nodes)
	require.Equal(t, 1, eval.calls)
	require.Zero(t, pos.applies, "depth 0 explores no moves")
}

func TestSearchNoLegalMoves(t *testing.T) {
	root := leaf(-4)
	pos := newTreePosition(root)

	got, err := treeBot(3, &countingEvaluator{}).Search(context.Background(), pos, 3)
	require.NoError(t, err)
	require.False(t, got.HasMove())
	require.Equal(t, rules.NoMove, got.Move)
	require.Equal(t, rules.Checkmate, got.Status)
	require.Equal(t, -4.0, got.Score)

	move, ok := treeBot(3, &countingEvaluator{}).BestMove(pos)
	require.False(t, ok)
	require.True(t, move.IsNone())
}

func TestSearchTiesKeepFirstMove(t *testing.T) {
	root := node(leaf(1), leaf(5), leaf(5), leaf(5))
	got, err := treeBot(1, &countingEvaluator{}).Search(context.Background(), newTreePosition(root), 1)
	require.NoError(t, err)
	require.Equal(t, rules.Square(1), got.Move.From)
}

func TestSearchInvalidDepth(t *testing.T) {
	pos := newTreePosition(node(leaf(1)))
	for _, depth := range []int{-1, MaxDepth + 1} {
		_, err := treeBot(depth, &countingEvaluator{}).Search(context.Background(), pos, depth)
		require.ErrorIs(t, err, ErrInvalidDepth)
	}
}

func TestSearchRestoresPositionOnError(t *testing.T) {
	root := node(node(leaf(1), leaf(2)), node(leaf(3), leaf(4)))
	pos := newTreePosition(root)
	pos.failAt = "root/1/0"

	_, err := treeBot(2, &countingEvaluator{}).Search(context.Background(), pos, 2)
	require.ErrorIs(t, err, errBrokenMove)
	require.Equal(t, "root", pos.FEN())
	require.Equal(t, pos.applies, pos.undos)
}

func TestSearchInterrupted(t *testing.T) {
	root := node(node(leaf(1), leaf(2)), node(leaf(3), leaf(4)))
	pos := newTreePosition(root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := treeBot(2, &countingEvaluator{}).Search(ctx, pos, 2)
	require.NoError(t, err)
	require.True(t, got.Interrupted)
	require.True(t, got.HasMove(), "an interrupted search still reports its best move so far")
	require.Equal(t, "root", pos.FEN())

	bot := NewMinimaxBot(2, time.Nanosecond, WithEvaluator(&countingEvaluator{}))
	got, err = bot.Search(context.Background(), newTreePosition(root), 2)
	require.NoError(t, err)
	require.True(t, got.HasMove())
}

func TestBestMoveContextCanceled(t *testing.T) {
	root := node(node(leaf(1), leaf(2)), node(leaf(3), leaf(4)))
	pos := newTreePosition(root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eval := &countingEvaluator{}
	move, ok := treeBot(MaxDepth, eval).BestMoveContext(ctx, pos)
	require.True(t, ok)
	require.Equal(t, rules.Square(0), move.From, "only the first root move is looked at")
	require.Equal(t, 1, eval.calls)
	require.Equal(t, "root", pos.FEN())
}

func TestSearchDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	root := randomTree(rng, 4)

	first, err := treeBot(4, &countingEvaluator{}).Search(context.Background(), newTreePosition(root), 4)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := treeBot(4, &countingEvaluator{}).Search(context.Background(), newTreePosition(root), 4)
		require.NoError(t, err)
		require.Equal(t, first.Move, again.Move)
		require.Equal(t, first.Score, again.Score)
		require.Equal(t, first.Stats, again.Stats)
	}
}

func TestMinimaxBotName(t *testing.T) {
	require.Equal(t, "Minimax Bot (depth 4)", NewMinimaxBot(4, 0).Name())
}
