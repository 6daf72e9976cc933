// Package game plays bots against each other on a shared position.
package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"bestplay/bots"
	"bestplay/rules"
)

// DefaultMaxPlies stops a match that neither side can finish.
const DefaultMaxPlies = 300

var ErrNoBot = errors.New("match needs a bot for each side")

type Match struct {
	White    bots.ChessBot
	Black    bots.ChessBot
	MaxPlies int
	Logger   zerolog.Logger
}

func NewMatch(white, black bots.ChessBot, logger zerolog.Logger) *Match {
	return &Match{White: white, Black: black, MaxPlies: DefaultMaxPlies, Logger: logger}
}

// Record describes a finished match.
type Record struct {
	Moves    []string     `json:"moves"`
	Status   rules.Status `json:"status"`
	Winner   rules.Color  `json:"winner"`
	FinalFEN string       `json:"final_fen"`
	// Truncated is set when the ply limit ended the match.
	Truncated bool `json:"truncated"`
}

func (r Record) Result() string {
	switch {
	case r.Winner == rules.White:
		return "1-0"
	case r.Winner == rules.Black:
		return "0-1"
	case r.Status.Terminal():
		return "1/2-1/2"
	}
	return "*"
}

// Play alternates the bots on pos until the game ends, the ply limit is
// reached or ctx is done. pos is left at the final position.
func (m *Match) Play(ctx context.Context, pos rules.Position) (Record, error) {
	if m.White == nil || m.Black == nil {
		return Record{}, ErrNoBot
	}
	maxPlies := m.MaxPlies
	if maxPlies <= 0 {
		maxPlies = DefaultMaxPlies
	}

	var rec Record
	for ply := 0; ; ply++ {
		if status := pos.Status(); status.Terminal() {
			rec.Status = status
			if status == rules.Checkmate {
				rec.Winner = pos.SideToMove().Other()
			}
			break
		}
		if ply >= maxPlies {
			rec.Truncated = true
			break
		}
		if err := ctx.Err(); err != nil {
			return rec, err
		}

		bot := m.White
		if pos.SideToMove() == rules.Black {
			bot = m.Black
		}
		move, ok := bestMove(ctx, bot, pos)
		if err := ctx.Err(); err != nil {
			return rec, err
		}
		if !ok {
			// A bot only passes when it has no legal move, which Status
			// should already have reported.
			rec.Status = pos.Status()
			break
		}
		if err := pos.Apply(move); err != nil {
			return rec, fmt.Errorf("%s: %w", bot.Name(), err)
		}
		rec.Moves = append(rec.Moves, move.String())
		m.Logger.Debug().Str("bot", bot.Name()).Stringer("move", move).Int("ply", ply+1).Msg("bot moved")
	}

	rec.FinalFEN = pos.FEN()
	m.Logger.Info().
		Str("white", m.White.Name()).
		Str("black", m.Black.Name()).
		Str("result", rec.Result()).
		Stringer("status", rec.Status).
		Int("plies", len(rec.Moves)).
		Msg("match finished")
	return rec, nil
}

// contextBot is a ChessBot whose search can be cut short.
type contextBot interface {
	BestMoveContext(ctx context.Context, pos rules.Position) (rules.Move, bool)
}

func bestMove(ctx context.Context, bot bots.ChessBot, pos rules.Position) (rules.Move, bool) {
	if cb, ok := bot.(contextBot); ok {
		return cb.BestMoveContext(ctx, pos)
	}
	return bot.BestMove(pos)
}

// FindMove returns the legal move from one square to another, preferring
// a queen promotion when several moves match.
func FindMove(pos rules.Position, from, to rules.Square) (rules.Move, bool) {
	found := rules.NoMove
	for _, mv := range pos.LegalMoves() {
		if mv.From != from || mv.To != to {
			continue
		}
		if found.IsNone() || mv.Promo == rules.Queen {
			found = mv
		}
	}
	return found, !found.IsNone()
}
