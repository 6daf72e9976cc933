package bots

import "bestplay/rules"

// NewbornBot always plays the first legal move in generation order.
type NewbornBot struct{}

func NewNewbornBot() *NewbornBot {
	return &NewbornBot{}
}

func (b *NewbornBot) BestMove(pos rules.Position) (rules.Move, bool) {
	moves := pos.LegalMoves()
	if len(moves) > 0 {
		return moves[0], true
	}
	return rules.NoMove, false
}

func (b *NewbornBot) Name() string {
	return "Newborn"
}
