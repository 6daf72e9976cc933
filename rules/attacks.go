package rules

var (
	knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
	rookDirs    = [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	bishopDirs  = [4][2]int{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
)

func offset(sq Square, df, dr int) (Square, bool) {
	f, r := sq.File()+df, sq.Rank()+dr
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return NoSquare, false
	}
	return NewSquare(f, r), true
}

// KingNeighbors returns the up-to-8 squares adjacent to sq.
func KingNeighbors(sq Square) []Square {
	out := make([]Square, 0, 8)
	for _, s := range kingSteps {
		if n, ok := offset(sq, s[0], s[1]); ok {
			out = append(out, n)
		}
	}
	return out
}

// Attacks returns the set of squares attacked by the piece on sq as a
// bitset indexed by Square. Pins are ignored; sliders stop at the first
// occupied square, which is included.
func Attacks(b Board, sq Square) uint64 {
	p := b.Piece(sq)
	var set uint64
	add := func(t Square) { set |= 1 << uint(t) }

	switch p.Type {
	case Pawn:
		dr := 1
		if p.Color == Black {
			dr = -1
		}
		for _, df := range [2]int{-1, 1} {
			if t, ok := offset(sq, df, dr); ok {
				add(t)
			}
		}
	case Knight:
		for _, s := range knightSteps {
			if t, ok := offset(sq, s[0], s[1]); ok {
				add(t)
			}
		}
	case King:
		for _, s := range kingSteps {
			if t, ok := offset(sq, s[0], s[1]); ok {
				add(t)
			}
		}
	case Bishop:
		slide(b, sq, bishopDirs[:], add)
	case Rook:
		slide(b, sq, rookDirs[:], add)
	case Queen:
		slide(b, sq, bishopDirs[:], add)
		slide(b, sq, rookDirs[:], add)
	}
	return set
}

func slide(b Board, from Square, dirs [][2]int, add func(Square)) {
	for _, d := range dirs {
		t := from
		for {
			var ok bool
			if t, ok = offset(t, d[0], d[1]); !ok {
				break
			}
			add(t)
			if b.Piece(t).Type != NoPieceType {
				break
			}
		}
	}
}

// AttackMap returns every square attacked by at least one piece of color c.
func AttackMap(b Board, c Color) uint64 {
	var set uint64
	for _, sq := range b.Squares(c) {
		set |= Attacks(b, sq)
	}
	return set
}
