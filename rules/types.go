package rules

import "strings"

type Color int8

const (
	NoColor Color = iota
	White
	Black
)

func (c Color) Other() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	}
	return NoColor
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	}
	return "none"
}

type PieceType int8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// PieceTypes lists the real piece kinds, pawn first.
var PieceTypes = [...]PieceType{Pawn, Knight, Bishop, Rook, Queen, King}

func (t PieceType) String() string {
	switch t {
	case Pawn:
		return "p"
	case Knight:
		return "n"
	case Bishop:
		return "b"
	case Rook:
		return "r"
	case Queen:
		return "q"
	case King:
		return "k"
	}
	return ""
}

type Piece struct {
	Type  PieceType
	Color Color
}

var NoPiece = Piece{}

// String returns the FEN letter: upper case for White.
func (p Piece) String() string {
	s := p.Type.String()
	if p.Color == White {
		return strings.ToUpper(s)
	}
	return s
}

// Square indexes the board from A1 (0) to H8 (63), file-major within a rank.
type Square int8

const NoSquare Square = -1

const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
)

const H8 Square = 63

func NewSquare(file, rank int) Square {
	return Square(file + rank*8)
}

func (sq Square) File() int { return int(sq) % 8 }
func (sq Square) Rank() int { return int(sq) / 8 }

func (sq Square) Valid() bool { return sq >= 0 && sq <= H8 }

func (sq Square) String() string {
	if !sq.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + sq.File()), byte('1' + sq.Rank())})
}

// ParseSquare reads an algebraic square such as "e4".
func ParseSquare(s string) (Square, bool) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, false
	}
	return NewSquare(int(s[0]-'a'), int(s[1]-'1')), true
}

// Move is a transition between two positions. Moves are produced by a
// Position and are only meaningful against the position that produced them.
type Move struct {
	From  Square
	To    Square
	Promo PieceType
}

var NoMove = Move{From: NoSquare, To: NoSquare}

func (m Move) IsNone() bool { return m == NoMove }

// String renders the move in UCI long algebraic form.
func (m Move) String() string {
	if m.IsNone() {
		return "0000"
	}
	return m.From.String() + m.To.String() + m.Promo.String()
}
