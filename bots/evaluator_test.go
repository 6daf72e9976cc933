package bots

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"bestplay/rules"
)

const backRankFEN = "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1"

func mustGame(t *testing.T, fen string) *rules.Game {
	t.Helper()
	g, err := rules.FromFEN(fen)
	require.NoError(t, err)
	return g
}

func boardOf(turn rules.Color, pieces map[rules.Square]rules.Piece) *boardPosition {
	return &boardPosition{board: rules.NewBoard(pieces, turn)}
}

func TestEvaluatorStartPosition(t *testing.T) {
	e := NewEvaluator(zerolog.Nop())

	f := e.Breakdown(rules.NewGame())
	require.Zero(t, f.Material)
	require.Zero(t, f.Mobility, "20 moves each")
	require.InDelta(t, 1.0, f.CompactnessWhite, 1e-12)
	require.InDelta(t, 1.0, f.CompactnessBlack, 1e-12)
	require.Zero(t, f.Compactness)
	require.InDelta(t, 1.0, f.Expansion, 1e-12)
	require.InDelta(t, 1.0, f.KingSafetyWhite, 1e-12)
	require.InDelta(t, 1.0, f.KingSafetyBlack, 1e-12)
	require.InDelta(t, 0.2, f.Weighted, 1e-12)
	require.InDelta(t, 0.2, f.Adjusted, 1e-12)

	blackToMove := mustGame(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1")
	f = e.Breakdown(blackToMove)
	require.InDelta(t, 0.2, f.Weighted, 1e-12)
	require.InDelta(t, -0.2, f.Adjusted, 1e-12, "the combined score is negated with black to move")
}

func TestEvaluatorBackRank(t *testing.T) {
	g := mustGame(t, backRankFEN)
	f := NewEvaluator(zerolog.Nop()).Breakdown(g)

	require.Equal(t, 2.0, f.Material)
	require.Equal(t, 9.0, f.Mobility, "17 white moves against 8 black replies after a pass")
	require.InDelta(t, 3.5, f.CompactnessWhite, 1e-12)
	require.InDelta(t, 1.5, f.CompactnessBlack, 1e-12)
	require.InDelta(t, 2.0, f.Compactness, 1e-12)
	require.InDelta(t, 1/1.75, f.Expansion, 1e-12)
	require.InDelta(t, 1.0, f.KingSafetyWhite, 1e-12)
	require.InDelta(t, 1.0, f.KingSafetyBlack, 1e-12)
	require.InDelta(t, (2+9+2+1/1.75)/5, f.Weighted, 1e-12)
	require.Equal(t, f.Adjusted, NewEvaluator(zerolog.Nop()).Evaluate(g))
}

func TestEvaluatorLeavesPositionUntouched(t *testing.T) {
	g := rules.NewGame()
	require.NoError(t, rules.ApplyAll(g, "e2e4", "c7c5"))
	before, ply := g.FEN(), g.Ply()

	NewEvaluator(zerolog.Nop()).Evaluate(g)

	require.Equal(t, before, g.FEN())
	require.Equal(t, ply, g.Ply())
}

func TestMaterialMirrorSymmetry(t *testing.T) {
	for _, fen := range []string{
		rules.StartFEN,
		backRankFEN,
		"r1bqk2r/pppp1ppp/2n2n2/2b1p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4",
		"8/P6k/8/8/8/8/5q2/K7 w - - 0 1",
		"4k3/8/8/8/8/8/8/QQQ1K3 w - - 0 1",
	} {
		b := mustGame(t, fen).Board()
		require.Equal(t, -Material(b), Material(b.Mirror()), fen)
	}
}

func TestCompactness(t *testing.T) {
	t.Run("side without pieces", func(t *testing.T) {
		b := rules.NewBoard(map[rules.Square]rules.Piece{
			rules.E1: {Type: rules.King, Color: rules.Black},
		}, rules.White)
		require.Zero(t, Compactness(b, rules.White))
		require.Equal(t, 1.0, Compactness(b, rules.Black))
	})

	t.Run("spread pieces", func(t *testing.T) {
		b := mustGame(t, "k7/8/8/8/8/8/8/K6R w - - 0 1").Board()
		require.InDelta(t, 4.0, Compactness(b, rules.White), 1e-12, "one rank by eight files over two pieces")
	})
}

func TestExpansion(t *testing.T) {
	b := mustGame(t, "4k3/8/8/3P4/8/8/8/4K3 w - - 0 1").Board()
	require.InDelta(t, 3.0, Expansion(b, rules.White), 1e-12, "(1 + 5) / 2")
	require.InDelta(t, 1.0, Expansion(b, rules.Black), 1e-12)
	require.InDelta(t, 3.0, ExpansionRatio(b), 1e-12)

	lone := rules.NewBoard(map[rules.Square]rules.Piece{
		rules.A1: {Type: rules.King, Color: rules.White},
	}, rules.White)
	require.Zero(t, Expansion(lone, rules.Black))
	require.Zero(t, ExpansionRatio(lone), "no opponent pieces")
}

func TestKingSafety(t *testing.T) {
	t.Run("no king", func(t *testing.T) {
		b := rules.NewBoard(map[rules.Square]rules.Piece{
			rules.A1: {Type: rules.Rook, Color: rules.White},
		}, rules.White)
		require.Zero(t, KingSafety(b, rules.White))
		require.Zero(t, KingSafety(b, rules.Black))
	})

	t.Run("every flight square attacked", func(t *testing.T) {
		// Queen on b2 covers a2 and b1, the c3 pawn covers the queen.
		b := rules.NewBoard(map[rules.Square]rules.Piece{
			rules.A1:              {Type: rules.King, Color: rules.White},
			rules.NewSquare(1, 1): {Type: rules.Queen, Color: rules.Black},
			rules.NewSquare(2, 2): {Type: rules.Pawn, Color: rules.Black},
			rules.H8:              {Type: rules.King, Color: rules.Black},
		}, rules.White)
		require.Zero(t, KingSafety(b, rules.White), "zero free squares gives zero")
	})

	t.Run("ratio", func(t *testing.T) {
		// The a1 rook attacks f1 but the king shadows h1, leaving four free
		// squares. The king covers all five of its neighbours.
		b := mustGame(t, "6k1/8/8/8/8/8/8/r5K1 w - - 0 1").Board()
		require.InDelta(t, 5.0/4.0, KingSafety(b, rules.White), 1e-12)
	})
}

func TestEvaluatorTotal(t *testing.T) {
	e := NewEvaluator(zerolog.Nop())

	empty := boardOf(rules.White, nil)
	require.NotPanics(t, func() { e.Evaluate(empty) })
	require.Zero(t, e.Evaluate(empty))

	kingless := boardOf(rules.Black, map[rules.Square]rules.Piece{
		rules.A1: {Type: rules.Rook, Color: rules.White},
		rules.H8: {Type: rules.Knight, Color: rules.Black},
	})
	f := e.Breakdown(kingless)
	require.Equal(t, 2.0, f.Material)
	require.Zero(t, f.KingSafety)
	require.Equal(t, -f.Weighted, f.Adjusted)
	require.Zero(t, kingless.passes, "the pass is undone")

	mated := rules.NewGame()
	require.NoError(t, rules.ApplyAll(mated, "f2f3", "e7e5", "g2g4", "d8h4"))
	require.NotPanics(t, func() { e.Evaluate(mated) })
}

func TestEvaluatorDebugLog(t *testing.T) {
	var buf bytes.Buffer
	e := NewEvaluator(zerolog.New(&buf).Level(zerolog.DebugLevel))
	e.Evaluate(rules.NewGame())

	out := buf.String()
	require.True(t, strings.Contains(out, `"material":0`), out)
	require.True(t, strings.Contains(out, `"turn":"white"`), out)

	buf.Reset()
	quiet := NewEvaluator(zerolog.New(&buf).Level(zerolog.InfoLevel))
	quiet.Evaluate(rules.NewGame())
	require.Empty(t, buf.String())
}
