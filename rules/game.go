package rules

import (
	"encoding/binary"
	"fmt"

	"github.com/notnil/chess"
)

// Byte layout of chess.Position.MarshalBinary: twelve bitboards, then
// the half-move clock, the move number, the en passant square and a
// flag byte.
const (
	binBoardLen   = 96
	binHalfMove   = 96
	binMoveNumber = 97
	binEnPassant  = 99
	binFlags      = 100
	binLen        = 101

	flagTurn      = 1 << 4
	flagEnPassant = 1 << 5
)

// Game implements Position on top of notnil/chess. Each applied move
// pushes the successor position on a stack; Undo pops it.
type Game struct {
	stack []*chess.Position
	keys  []string
}

var _ Position = (*Game)(nil)

// NewGame returns a game at the standard starting position.
func NewGame() *Game {
	g, err := FromFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return g
}

// FromFEN imports a position string. Malformed strings fail with ErrInvalidFEN.
func FromFEN(fen string) (*Game, error) {
	normalized, err := NormalizeFEN(fen)
	if err != nil {
		return nil, err
	}
	pos, err := decodeFEN(normalized)
	if err != nil {
		return nil, err
	}
	g := &Game{}
	if err := g.push(pos); err != nil {
		return nil, err
	}
	return g, nil
}

func decodeFEN(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFEN, fen, err)
	}
	return chess.NewGame(opt).Position(), nil
}

func (g *Game) push(pos *chess.Position) error {
	key, err := repetitionKey(pos)
	if err != nil {
		return err
	}
	g.stack = append(g.stack, pos)
	g.keys = append(g.keys, key)
	return nil
}

func (g *Game) top() *chess.Position {
	return g.stack[len(g.stack)-1]
}

func (g *Game) LegalMoves() []Move {
	valid := g.top().ValidMoves()
	out := make([]Move, 0, len(valid))
	for _, mv := range valid {
		out = append(out, fromChessMove(mv))
	}
	return out
}

func (g *Game) Apply(m Move) error {
	top := g.top()
	for _, mv := range top.ValidMoves() {
		if fromChessMove(mv) == m {
			return g.push(top.Update(mv))
		}
	}
	return fmt.Errorf("%w: %s in %s", ErrIllegalMove, m, top.String())
}

// ApplyNull passes the turn: the side to move flips, en passant is
// cleared and the clocks advance as for a quiet move.
func (g *Game) ApplyNull() error {
	pos, err := nullMove(g.top())
	if err != nil {
		return err
	}
	return g.push(pos)
}

func (g *Game) Undo() error {
	if len(g.stack) <= 1 {
		return ErrNothingToUndo
	}
	n := len(g.stack) - 1
	g.stack[n] = nil
	g.stack = g.stack[:n]
	g.keys = g.keys[:n]
	return nil
}

func (g *Game) Status() Status {
	switch g.top().Status() {
	case chess.Checkmate:
		return Checkmate
	case chess.Stalemate:
		return Stalemate
	}
	if insufficientMaterial(g.Board()) {
		return InsufficientMaterial
	}
	if g.top().HalfMoveClock() >= 150 {
		return SeventyFiveMoveRule
	}
	if g.repetitions() >= 5 {
		return FivefoldRepetition
	}
	return Ongoing
}

func (g *Game) IsGameOver() bool { return g.Status().Terminal() }

func (g *Game) repetitions() int {
	key := g.keys[len(g.keys)-1]
	n := 0
	for _, k := range g.keys {
		if k == key {
			n++
		}
	}
	return n
}

func (g *Game) SideToMove() Color { return fromChessColor(g.top().Turn()) }

func (g *Game) Board() Board {
	cb := g.top().Board()
	b := Board{turn: g.SideToMove()}
	for sq := A1; sq <= H8; sq++ {
		if p := cb.Piece(chess.Square(sq)); p != chess.NoPiece {
			b.squares[sq] = Piece{Type: fromChessPieceType(p.Type()), Color: fromChessColor(p.Color())}
		}
	}
	return b
}

func (g *Game) FEN() string { return g.top().String() }

func (g *Game) Ply() int { return len(g.stack) - 1 }

func nullMove(pos *chess.Position) (*chess.Position, error) {
	data, err := pos.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if len(data) != binLen {
		return nil, fmt.Errorf("null move: unexpected position encoding of %d bytes", len(data))
	}
	if data[binHalfMove] < 255 {
		data[binHalfMove]++
	}
	if pos.Turn() == chess.Black {
		n := binary.BigEndian.Uint16(data[binMoveNumber:])
		binary.BigEndian.PutUint16(data[binMoveNumber:], n+1)
	}
	data[binEnPassant] = byte(0xff)
	data[binFlags] ^= flagTurn
	data[binFlags] &^= flagEnPassant

	next := &chess.Position{}
	if err := next.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("null move: %w", err)
	}
	return next, nil
}

// repetitionKey is the binary position without its move counters, so
// identical placements with the same rights and side to move compare equal.
func repetitionKey(pos *chess.Position) (string, error) {
	data, err := pos.MarshalBinary()
	if err != nil {
		return "", err
	}
	if len(data) != binLen {
		return "", fmt.Errorf("repetition key: unexpected position encoding of %d bytes", len(data))
	}
	return string(data[:binBoardLen]) + string(data[binEnPassant:]), nil
}

func insufficientMaterial(b Board) bool {
	var knights int
	var bishopColors [2]int
	for sq := A1; sq <= H8; sq++ {
		switch b.Piece(sq).Type {
		case Pawn, Rook, Queen:
			return false
		case Knight:
			knights++
		case Bishop:
			bishopColors[(sq.File()+sq.Rank())%2]++
		}
	}
	bishops := bishopColors[0] + bishopColors[1]
	switch {
	case knights == 0:
		return bishopColors[0] == 0 || bishopColors[1] == 0
	case knights == 1:
		return bishops == 0
	}
	return false
}

func fromChessMove(mv *chess.Move) Move {
	return Move{
		From:  Square(mv.S1()),
		To:    Square(mv.S2()),
		Promo: fromChessPieceType(mv.Promo()),
	}
}

func fromChessColor(c chess.Color) Color {
	switch c {
	case chess.White:
		return White
	case chess.Black:
		return Black
	}
	return NoColor
}

func fromChessPieceType(t chess.PieceType) PieceType {
	switch t {
	case chess.Pawn:
		return Pawn
	case chess.Knight:
		return Knight
	case chess.Bishop:
		return Bishop
	case chess.Rook:
		return Rook
	case chess.Queen:
		return Queen
	case chess.King:
		return King
	}
	return NoPieceType
}
