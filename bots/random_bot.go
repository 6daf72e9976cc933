package bots

import (
	"sync"

	"golang.org/x/exp/rand"

	"bestplay/rules"
)

// RandomBot plays a uniformly random legal move. Bots built from the same
// seed play the same moves given the same positions.
type RandomBot struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomBot(seed uint64) *RandomBot {
	return &RandomBot{rng: rand.New(rand.NewSource(seed))}
}

func (b *RandomBot) BestMove(pos rules.Position) (rules.Move, bool) {
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return rules.NoMove, false
	}
	b.mu.Lock()
	i := b.rng.Intn(len(moves))
	b.mu.Unlock()
	return moves[i], true
}

func (b *RandomBot) Name() string {
	return "Random Bot"
}
