package bots

import (
	"github.com/rs/zerolog"

	"bestplay/rules"
)

// FactorCount is the number of heuristic factors averaged into a score.
const FactorCount = 5

// PieceValues are the material weights in pawn units.
var PieceValues = map[rules.PieceType]float64{
	rules.Pawn:   1,
	rules.Knight: 3,
	rules.Bishop: 3.25,
	rules.Rook:   5,
	rules.Queen:  9,
	rules.King:   0,
}

// Factors is the breakdown behind a single evaluation.
type Factors struct {
	Material    float64 `json:"material"`
	Mobility    float64 `json:"mobility"`
	Compactness float64 `json:"compactness"`
	Expansion   float64 `json:"expansion"`
	KingSafety  float64 `json:"king_safety"`

	CompactnessWhite float64 `json:"compactness_white"`
	CompactnessBlack float64 `json:"compactness_black"`
	KingSafetyWhite  float64 `json:"king_safety_white"`
	KingSafetyBlack  float64 `json:"king_safety_black"`

	Weighted float64 `json:"weighted"`
	// Adjusted is Weighted with White to move and its negation with Black to move.
	Adjusted float64 `json:"adjusted"`
}

// DefaultEvaluator averages material, mobility, compactness, expansion
// and king safety. The factors carry different units and sign
// conventions; they are combined as an unweighted mean.
type DefaultEvaluator struct {
	Logger zerolog.Logger
}

func NewEvaluator(logger zerolog.Logger) DefaultEvaluator {
	return DefaultEvaluator{Logger: logger}
}

func (e DefaultEvaluator) Evaluate(pos rules.Position) float64 {
	return e.Breakdown(pos).Adjusted
}

// Breakdown computes every factor for pos. pos is left as it was found.
func (e DefaultEvaluator) Breakdown(pos rules.Position) Factors {
	b := pos.Board()

	var f Factors
	f.Material = Material(b)
	f.Mobility = e.mobility(pos)
	f.CompactnessWhite = Compactness(b, rules.White)
	f.CompactnessBlack = Compactness(b, rules.Black)
	f.Compactness = f.CompactnessWhite - f.CompactnessBlack
	f.Expansion = ExpansionRatio(b)
	f.KingSafetyWhite = KingSafety(b, rules.White)
	f.KingSafetyBlack = KingSafety(b, rules.Black)
	f.KingSafety = f.KingSafetyWhite - f.KingSafetyBlack

	f.Weighted = (f.Material + f.Mobility + f.Compactness + f.Expansion + f.KingSafety) / FactorCount
	f.Adjusted = f.Weighted
	if b.Turn() != rules.White {
		f.Adjusted = -f.Weighted
	}

	if e.Logger.GetLevel() <= zerolog.DebugLevel {
		e.Logger.Debug().
			Float64("material", f.Material).
			Float64("mobility", f.Mobility).
			Float64("compactness_white", f.CompactnessWhite).
			Float64("compactness_black", f.CompactnessBlack).
			Float64("expansion", f.Expansion).
			Float64("king_safety_white", f.KingSafetyWhite).
			Float64("king_safety_black", f.KingSafetyBlack).
			Float64("adjusted", f.Adjusted).
			Stringer("turn", b.Turn()).
			Msg("evaluated position")
	}
	return f
}

// Material is White's weighted material minus Black's.
func Material(b rules.Board) float64 {
	var score float64
	for _, t := range rules.PieceTypes {
		score += float64(b.Count(t, rules.White)-b.Count(t, rules.Black)) * PieceValues[t]
	}
	return score
}

// mobility counts legal moves for the side to move minus the opponent's
// legal moves after a pass.
func (e DefaultEvaluator) mobility(pos rules.Position) float64 {
	own := len(pos.LegalMoves())
	if err := pos.ApplyNull(); err != nil {
		e.Logger.Warn().Err(err).Str("fen", pos.FEN()).Msg("null move rejected")
		return float64(own)
	}
	opponent := len(pos.LegalMoves())
	if err := pos.Undo(); err != nil {
		e.Logger.Error().Err(err).Msg("failed to undo null move")
	}
	return float64(own - opponent)
}

// Compactness is the bounding-box area of a side's pieces divided by
// their count. Lower means more clustered; 0 when the side has no pieces.
func Compactness(b rules.Board, c rules.Color) float64 {
	squares := b.Squares(c)
	if len(squares) == 0 {
		return 0
	}
	minRank, maxRank, minFile, maxFile := 7, 0, 7, 0
	for _, sq := range squares {
		minRank, maxRank = min(minRank, sq.Rank()), max(maxRank, sq.Rank())
		minFile, maxFile = min(minFile, sq.File()), max(maxFile, sq.File())
	}
	area := (maxRank - minRank + 1) * (maxFile - minFile + 1)
	return float64(area) / float64(len(squares))
}

// Expansion is the average advancement of a side's pieces counted from
// its own back rank, 1 through 8. 0 when the side has no pieces.
func Expansion(b rules.Board, c rules.Color) float64 {
	squares := b.Squares(c)
	if len(squares) == 0 {
		return 0
	}
	var sum int
	for _, sq := range squares {
		if c == rules.White {
			sum += sq.Rank() + 1
		} else {
			sum += 8 - sq.Rank()
		}
	}
	return float64(sum) / float64(len(squares))
}

// ExpansionRatio divides the side to move's expansion by the opponent's.
func ExpansionRatio(b rules.Board) float64 {
	own := Expansion(b, b.Turn())
	opponent := Expansion(b, b.Turn().Other())
	if opponent == 0 {
		return 0
	}
	return own / opponent
}

// KingSafety is the number of squares around c's king covered by c's own
// pieces divided by the number not attacked by the opponent.
func KingSafety(b rules.Board, c rules.Color) float64 {
	king, ok := b.King(c)
	if !ok {
		return 0
	}
	own := rules.AttackMap(b, c)
	enemy := rules.AttackMap(b, c.Other())

	var covered, free int
	for _, sq := range rules.KingNeighbors(king) {
		bit := uint64(1) << uint(sq)
		if own&bit != 0 {
			covered++
		}
		if enemy&bit == 0 {
			free++
		}
	}
	if free == 0 {
		return 0
	}
	return float64(covered) / float64(free)
}
