// Package rules owns chess positions: legal move generation, move
// application and undo, game termination and FEN interchange.
package rules

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrInvalidFEN    = errors.New("invalid fen")
	ErrNothingToUndo = errors.New("nothing to undo")
)

type Status int

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	InsufficientMaterial
	SeventyFiveMoveRule
	FivefoldRepetition
)

func (s Status) String() string {
	switch s {
	case Ongoing:
		return "ongoing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case InsufficientMaterial:
		return "insufficient material"
	case SeventyFiveMoveRule:
		return "seventy-five move rule"
	case FivefoldRepetition:
		return "fivefold repetition"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Terminal reports whether the status ends the game.
func (s Status) Terminal() bool { return s != Ongoing }

// Position is the capability the search and evaluation code depend on.
// Implementations hold a single mutable position and a history of the
// moves applied to it.
type Position interface {
	// LegalMoves returns the legal moves for the side to move in a
	// deterministic order.
	LegalMoves() []Move
	// Apply plays m, failing with ErrIllegalMove if it is not legal here.
	Apply(m Move) error
	// ApplyNull passes the turn to the opponent without moving.
	ApplyNull() error
	// Undo reverses the most recent Apply or ApplyNull exactly.
	Undo() error
	IsGameOver() bool
	Status() Status
	SideToMove() Color
	Board() Board
	FEN() string
	// Ply counts the moves currently applied on top of the imported position.
	Ply() int
}

// ParseMove finds the legal move in pos whose UCI text is s.
func ParseMove(pos Position, s string) (Move, error) {
	for _, m := range pos.LegalMoves() {
		if m.String() == s {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %s in %s", ErrIllegalMove, s, pos.FEN())
}

// ApplyAll plays a sequence of UCI moves, stopping at the first failure.
func ApplyAll(pos Position, moves ...string) error {
	for _, s := range moves {
		m, err := ParseMove(pos, s)
		if err != nil {
			return err
		}
		if err := pos.Apply(m); err != nil {
			return err
		}
	}
	return nil
}
