package bots

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/rand"

	"bestplay/rules"
)

// treeNode is a node of a hand-built game tree. Leaves carry the value the
// tree evaluator reports; interior values are ignored.
type treeNode struct {
	value    float64
	children []*treeNode
}

func leaf(v float64) *treeNode { return &treeNode{value: v} }

func node(children ...*treeNode) *treeNode { return &treeNode{children: children} }

func randomTree(rng *rand.Rand, depth int) *treeNode {
	n := &treeNode{value: float64(rng.Intn(21) - 10)}
	if depth == 0 {
		return n
	}
	width := rng.Intn(5)
	if depth > 1 && width == 0 {
		width = 1
	}
	for i := 0; i < width; i++ {
		n.children = append(n.children, randomTree(rng, depth-1))
	}
	return n
}

var errBrokenMove = errors.New("broken move")

// treePosition walks a treeNode tree through the rules.Position contract.
// Child i is reached by the move from square i to square i.
type treePosition struct {
	path    []*treeNode
	choices []int

	applies int
	undos   int
	// failAt makes Apply fail when the path matches it.
	failAt string
}

var _ rules.Position = (*treePosition)(nil)

func newTreePosition(root *treeNode) *treePosition {
	return &treePosition{path: []*treeNode{root}}
}

func (p *treePosition) current() *treeNode { return p.path[len(p.path)-1] }

func (p *treePosition) LegalMoves() []rules.Move {
	var moves []rules.Move
	for i := range p.current().children {
		moves = append(moves, rules.Move{From: rules.Square(i), To: rules.Square(i)})
	}
	return moves
}

func (p *treePosition) Apply(m rules.Move) error {
	i := int(m.From)
	if i < 0 || i >= len(p.current().children) || m.To != m.From {
		return fmt.Errorf("%w: %s", rules.ErrIllegalMove, m)
	}
	next := p.FEN() + "/" + fmt.Sprint(i)
	if p.failAt != "" && next == p.failAt {
		return errBrokenMove
	}
	p.path = append(p.path, p.current().children[i])
	p.choices = append(p.choices, i)
	p.applies++
	return nil
}

func (p *treePosition) ApplyNull() error {
	p.path = append(p.path, &treeNode{})
	p.choices = append(p.choices, -1)
	p.applies++
	return nil
}

func (p *treePosition) Undo() error {
	if len(p.path) <= 1 {
		return rules.ErrNothingToUndo
	}
	p.path = p.path[:len(p.path)-1]
	p.choices = p.choices[:len(p.choices)-1]
	p.undos++
	return nil
}

func (p *treePosition) IsGameOver() bool { return len(p.current().children) == 0 }

func (p *treePosition) Status() rules.Status {
	if p.IsGameOver() {
		return rules.Checkmate
	}
	return rules.Ongoing
}

func (p *treePosition) SideToMove() rules.Color {
	if len(p.choices)%2 == 0 {
		return rules.White
	}
	return rules.Black
}

func (p *treePosition) Board() rules.Board { return rules.NewBoard(nil, p.SideToMove()) }

func (p *treePosition) FEN() string {
	parts := []string{"root"}
	for _, c := range p.choices {
		parts = append(parts, fmt.Sprint(c))
	}
	return strings.Join(parts, "/")
}

func (p *treePosition) Ply() int { return len(p.choices) }

// countingEvaluator reports leaf values and counts calls.
type countingEvaluator struct {
	calls int
}

func (e *countingEvaluator) Evaluate(pos rules.Position) float64 {
	e.calls++
	return pos.(*treePosition).current().value
}

// boardPosition serves a fixed board with no legal moves. It lets the
// evaluator see boards a FEN import would reject.
type boardPosition struct {
	board  rules.Board
	passes int
}

var _ rules.Position = (*boardPosition)(nil)

func (p *boardPosition) LegalMoves() []rules.Move { return nil }
func (p *boardPosition) Apply(m rules.Move) error {
	return fmt.Errorf("%w: %s", rules.ErrIllegalMove, m)
}
func (p *boardPosition) ApplyNull() error { p.passes++; return nil }
func (p *boardPosition) Undo() error {
	if p.passes == 0 {
		return rules.ErrNothingToUndo
	}
	p.passes--
	return nil
}
func (p *boardPosition) IsGameOver() bool     { return true }
func (p *boardPosition) Status() rules.Status { return rules.Stalemate }
func (p *boardPosition) SideToMove() rules.Color {
	if p.passes%2 == 1 {
		return p.board.Turn().Other()
	}
	return p.board.Turn()
}
func (p *boardPosition) Board() rules.Board { return p.board }
func (p *boardPosition) FEN() string        { return p.board.Placement() }
func (p *boardPosition) Ply() int           { return p.passes }
