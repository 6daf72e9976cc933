// Package uci speaks the Universal Chess Interface text protocol on top
// of the minimax bot.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bestplay/bots"
	"bestplay/rules"
)

const (
	EngineName   = "BestPlay"
	EngineAuthor = "BestPlay authors"
)

// Engine answers UCI commands. Searches run in the background so that
// "stop" and "isready" are served while a search is in progress.
type Engine struct {
	Depth     int
	TimeLimit time.Duration
	Evaluator bots.PositionEvaluator
	Logger    zerolog.Logger

	mu  sync.Mutex // guards out
	out io.Writer

	pos    *rules.Game
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an engine that searches depth plies unless a "go" command
// says otherwise.
func New(depth int, timeLimit time.Duration, logger zerolog.Logger, out io.Writer) *Engine {
	return &Engine{
		Depth:     depth,
		TimeLimit: timeLimit,
		Evaluator: bots.NewEvaluator(logger.With().Str("component", "evaluator").Logger()),
		Logger:    logger,
		out:       out,
		pos:       rules.NewGame(),
	}
}

// Run reads commands from in until "quit", end of input or ctx is done.
// A search still running at end of input is allowed to finish.
func (e *Engine) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			e.stop()
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]
		e.Logger.Debug().Str("command", line).Msg("uci command")

		switch cmd {
		case "uci":
			e.printf("id name %s\n", EngineName)
			e.printf("id author %s\n", EngineAuthor)
			e.printf("uciok\n")
		case "isready":
			e.printf("readyok\n")
		case "ucinewgame":
			e.wait()
			e.pos = rules.NewGame()
		case "position":
			e.wait()
			e.handlePosition(args)
		case "go":
			e.wait()
			e.handleGo(ctx, args)
		case "stop":
			e.stop()
		case "quit":
			e.stop()
			return nil
		case "d":
			e.wait()
			e.printf("info string fen %s\n", e.pos.FEN())
		default:
			e.printf("info string unknown command %s\n", cmd)
		}
	}
	e.wait()
	return scanner.Err()
}

func (e *Engine) printf(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintf(e.out, format, args...)
}

// handlePosition accepts "startpos" or "fen <fields>", each optionally
// followed by "moves ...". A bad position or move leaves the current
// position in place.
func (e *Engine) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}
	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *rules.Game
	switch args[0] {
	case "startpos":
		pos = rules.NewGame()
	case "fen":
		var err error
		if pos, err = rules.FromFEN(strings.Join(args[1:movesAt], " ")); err != nil {
			e.printf("info string invalid position: %v\n", err)
			return
		}
	default:
		e.printf("info string invalid position: %s\n", strings.Join(args, " "))
		return
	}

	if movesAt < len(args) {
		if err := rules.ApplyAll(pos, args[movesAt+1:]...); err != nil {
			e.printf("info string invalid move: %v\n", err)
			return
		}
	}
	e.pos = pos
}

type goOptions struct {
	depth    int
	moveTime time.Duration
	infinite bool
}

func (e *Engine) parseGoOptions(args []string) goOptions {
	opts := goOptions{depth: e.Depth, moveTime: e.TimeLimit}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "infinite":
			opts.infinite = true
		case "depth", "movetime":
			if i+1 >= len(args) {
				continue
			}
			n, err := strconv.Atoi(args[i+1])
			i++
			if err != nil || n < 0 {
				continue
			}
			if args[i-1] == "depth" {
				opts.depth = min(n, bots.MaxDepth)
			} else {
				opts.moveTime = time.Duration(n) * time.Millisecond
			}
		}
	}
	if opts.infinite {
		opts.depth, opts.moveTime = bots.MaxDepth, 0
	}
	return opts
}

// handleGo starts a background search of the current position. The
// reported score is the static evaluation of that position.
func (e *Engine) handleGo(ctx context.Context, args []string) {
	opts := e.parseGoOptions(args)
	score := e.Evaluator.Evaluate(e.pos)

	searchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel, e.done = cancel, done

	pos := e.pos
	bot := bots.NewMinimaxBot(opts.depth, opts.moveTime,
		bots.WithEvaluator(e.Evaluator),
		bots.WithLogger(e.Logger.With().Str("component", "search").Logger()),
	)
	go func() {
		defer close(done)
		defer cancel()

		result, err := bot.Search(searchCtx, pos, opts.depth)
		if err != nil {
			e.Logger.Error().Err(err).Str("fen", pos.FEN()).Msg("search failed")
			e.printf("bestmove 0000\n")
			return
		}
		e.printf("info depth %d nodes %d time %d\n", result.Depth, result.Stats.Nodes, result.Elapsed.Milliseconds())
		e.printf("info score cp %d\n", int(score*100))
		e.printf("bestmove %s\n", result.Move)
	}()
}

// wait blocks until the running search, if any, has reported its move.
func (e *Engine) wait() {
	if e.done == nil {
		return
	}
	<-e.done
	e.cancel, e.done = nil, nil
}

func (e *Engine) stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wait()
}
