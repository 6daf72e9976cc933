package rules

// Board is an immutable snapshot of piece placement and the side to move.
type Board struct {
	squares [64]Piece
	turn    Color
}

// NewBoard builds a snapshot from a square map. Squares outside the board are ignored.
func NewBoard(pieces map[Square]Piece, turn Color) Board {
	var b Board
	for sq, p := range pieces {
		if sq.Valid() {
			b.squares[sq] = p
		}
	}
	b.turn = turn
	return b
}

func (b Board) Piece(sq Square) Piece {
	if !sq.Valid() {
		return NoPiece
	}
	return b.squares[sq]
}

func (b Board) Turn() Color { return b.turn }

// Squares returns the occupied squares of one color in ascending order.
func (b Board) Squares(c Color) []Square {
	var out []Square
	for sq := A1; sq <= H8; sq++ {
		if p := b.squares[sq]; p.Type != NoPieceType && p.Color == c {
			out = append(out, sq)
		}
	}
	return out
}

func (b Board) Count(t PieceType, c Color) int {
	n := 0
	for _, p := range b.squares {
		if p.Type == t && p.Color == c {
			n++
		}
	}
	return n
}

// King returns the square of the first king of the given color.
func (b Board) King(c Color) (Square, bool) {
	for sq := A1; sq <= H8; sq++ {
		if p := b.squares[sq]; p.Type == King && p.Color == c {
			return sq, true
		}
	}
	return NoSquare, false
}

// Mirror swaps colors and reflects ranks, including the side to move.
func (b Board) Mirror() Board {
	var m Board
	for sq := A1; sq <= H8; sq++ {
		p := b.squares[sq]
		if p.Type == NoPieceType {
			continue
		}
		m.squares[NewSquare(sq.File(), 7-sq.Rank())] = Piece{Type: p.Type, Color: p.Color.Other()}
	}
	m.turn = b.turn.Other()
	return m
}

// Placement renders the first FEN field.
func (b Board) Placement() string {
	buf := make([]byte, 0, 72)
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			p := b.squares[NewSquare(file, rank)]
			if p.Type == NoPieceType {
				empty++
				continue
			}
			if empty > 0 {
				buf = append(buf, byte('0'+empty))
				empty = 0
			}
			buf = append(buf, p.String()...)
		}
		if empty > 0 {
			buf = append(buf, byte('0'+empty))
		}
		if rank > 0 {
			buf = append(buf, '/')
		}
	}
	return string(buf)
}
