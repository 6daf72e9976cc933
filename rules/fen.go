package rules

import (
	"fmt"
	"strconv"
	"strings"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// NormalizeFEN validates a position string and returns it with all six
// fields present. Four-field strings get "0 1" counters.
func NormalizeFEN(fen string) (string, error) {
	fields := strings.Fields(fen)
	switch len(fields) {
	case 4:
		fields = append(fields, "0", "1")
	case 6:
	default:
		return "", invalidFEN(fen, "expected 4 or 6 fields, got %d", len(fields))
	}

	if err := validatePlacement(fields[0]); err != nil {
		return "", invalidFEN(fen, "%v", err)
	}
	if fields[1] != "w" && fields[1] != "b" {
		return "", invalidFEN(fen, "side to move %q", fields[1])
	}
	if !validCastling(fields[2]) {
		return "", invalidFEN(fen, "castling rights %q", fields[2])
	}
	if fields[3] != "-" {
		sq, ok := ParseSquare(fields[3])
		if !ok || (sq.Rank() != 2 && sq.Rank() != 5) {
			return "", invalidFEN(fen, "en passant square %q", fields[3])
		}
	}
	if n, err := strconv.Atoi(fields[4]); err != nil || n < 0 {
		return "", invalidFEN(fen, "half-move clock %q", fields[4])
	}
	if n, err := strconv.Atoi(fields[5]); err != nil || n < 1 {
		return "", invalidFEN(fen, "full-move number %q", fields[5])
	}
	return strings.Join(fields, " "), nil
}

func invalidFEN(fen, format string, args ...any) error {
	return fmt.Errorf("%w: %q: %s", ErrInvalidFEN, fen, fmt.Sprintf(format, args...))
}

func validatePlacement(placement string) error {
	rows := strings.Split(placement, "/")
	if len(rows) != 8 {
		return fmt.Errorf("expected 8 ranks, got %d", len(rows))
	}
	kings := map[rune]int{}
	for i, row := range rows {
		width := 0
		for _, r := range row {
			switch {
			case r >= '1' && r <= '8':
				width += int(r - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", r):
				if (r == 'p' || r == 'P') && (i == 0 || i == 7) {
					return fmt.Errorf("pawn on back rank %d", 8-i)
				}
				if r == 'k' || r == 'K' {
					kings[r]++
				}
				width++
			default:
				return fmt.Errorf("unexpected character %q", r)
			}
		}
		if width != 8 {
			return fmt.Errorf("rank %d has %d files", 8-i, width)
		}
	}
	if kings['K'] != 1 || kings['k'] != 1 {
		return fmt.Errorf("need exactly one king per side, got %d white and %d black", kings['K'], kings['k'])
	}
	return nil
}

func validCastling(s string) bool {
	if s == "-" {
		return true
	}
	if len(s) == 0 || len(s) > 4 {
		return false
	}
	seen := map[rune]bool{}
	for _, r := range s {
		if !strings.ContainsRune("KQkq", r) || seen[r] {
			return false
		}
		seen[r] = true
	}
	return true
}
