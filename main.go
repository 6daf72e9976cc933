package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"

	"bestplay/bots"
	"bestplay/config"
	"bestplay/game"
	"bestplay/rules"
	"bestplay/store"
	"bestplay/uci"
)

const usage = `usage: bestplay <command> [flags]

commands:
  analyze   search a position and print the best move
  eval      print the evaluation factors of a position
  match     play two bots against each other
  history   list or delete stored analyses
  uci       speak the UCI protocol on stdin and stdout
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "bestplay:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}
	switch args[0] {
	case "analyze":
		return analyze(ctx, args[1:], out)
	case "eval":
		return evaluate(args[1:], out)
	case "match":
		return match(ctx, args[1:], out)
	case "history":
		return showHistory(args[1:], out)
	case "uci":
		return serveUCI(ctx, args[1:], os.Stdin, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}

// commandFlags parses the flags shared by every command. A -config file
// is applied first so explicit flags win.
func commandFlags(name string, args []string, extra func(fs *flag.FlagSet)) (config.Config, error) {
	cfg := config.Default()
	if path := configPath(args); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.String("config", "", "YAML config file")
	cfg.RegisterFlags(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func configPath(args []string) string {
	for i, a := range args {
		a = strings.TrimLeft(a, "-")
		if v, ok := strings.CutPrefix(a, "config="); ok {
			return v
		}
		if a == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func loadPosition(fen, moves string) (*rules.Game, error) {
	var pos *rules.Game
	if fen == "" || fen == "startpos" {
		pos = rules.NewGame()
	} else {
		var err error
		if pos, err = rules.FromFEN(fen); err != nil {
			return nil, err
		}
	}
	if moves = strings.TrimSpace(moves); moves != "" {
		for _, s := range strings.Split(moves, ",") {
			m, err := resolveMove(pos, strings.TrimSpace(s))
			if err != nil {
				return nil, err
			}
			if err := pos.Apply(m); err != nil {
				return nil, err
			}
		}
	}
	return pos, nil
}

// resolveMove reads a UCI move. A bare square pair that reaches the last
// rank promotes to a queen.
func resolveMove(pos rules.Position, s string) (rules.Move, error) {
	if len(s) != 4 {
		return rules.ParseMove(pos, s)
	}
	from, okFrom := rules.ParseSquare(s[:2])
	to, okTo := rules.ParseSquare(s[2:])
	if !okFrom || !okTo {
		return rules.NoMove, fmt.Errorf("%w: %q", rules.ErrIllegalMove, s)
	}
	m, ok := game.FindMove(pos, from, to)
	if !ok {
		return rules.NoMove, fmt.Errorf("%w: %s in %s", rules.ErrIllegalMove, s, pos.FEN())
	}
	return m, nil
}

func analyze(ctx context.Context, args []string, out io.Writer) error {
	var fen, moves string
	cfg, err := commandFlags("analyze", args, func(fs *flag.FlagSet) {
		fs.StringVar(&fen, "fen", "startpos", "position string or startpos")
		fs.StringVar(&moves, "moves", "", "comma separated UCI moves played from the position")
	})
	if err != nil {
		return err
	}
	logger, closeLog, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer closeLog()

	pos, err := loadPosition(fen, moves)
	if err != nil {
		return err
	}

	var history *store.Store
	if cfg.StoreDir != "" {
		if history, err = store.Open(cfg.StoreDir); err != nil {
			return err
		}
		defer history.Close()

		saved, ok, err := history.Load(pos.FEN(), cfg.Depth)
		if err != nil {
			return err
		}
		if ok && !saved.Interrupted {
			logger.Debug().Str("fen", saved.FEN).Int("depth", saved.Depth).Msg("analysis loaded from store")
			printAnalysis(out, saved.Move, saved.Score, saved.Status)
			return nil
		}
	}

	evaluator := bots.NewEvaluator(logger.With().Str("component", "evaluator").Logger())
	bot := bots.NewMinimaxBot(cfg.Depth, cfg.TimeLimit,
		bots.WithEvaluator(evaluator),
		bots.WithLogger(logger.With().Str("component", "search").Logger()),
	)
	result, err := bot.Search(ctx, pos, cfg.Depth)
	if err != nil {
		return err
	}

	move := "(none)"
	if result.HasMove() {
		move = result.Move.String()
	}
	printAnalysis(out, move, result.Score, result.Status.String())
	logger.Info().
		Int("depth", result.Depth).
		Int("nodes", result.Stats.Nodes).
		Int("cutoffs", result.Stats.Cutoffs).
		Dur("elapsed", result.Elapsed).
		Bool("interrupted", result.Interrupted).
		Msg("analysis complete")

	if history != nil {
		return history.Save(store.Analysis{
			FEN:         pos.FEN(),
			Depth:       result.Depth,
			Move:        move,
			Score:       result.Score,
			Status:      result.Status.String(),
			Nodes:       result.Stats.Nodes,
			Interrupted: result.Interrupted,
		})
	}
	return nil
}

func printAnalysis(out io.Writer, move string, score float64, status string) {
	fmt.Fprintf(out, "bestmove %s\n", move)
	fmt.Fprintf(out, "info score cp %d\n", int(score*100))
	if move == "(none)" {
		fmt.Fprintf(out, "info status %s\n", status)
	}
}

func evaluate(args []string, out io.Writer) error {
	var fen, moves string
	cfg, err := commandFlags("eval", args, func(fs *flag.FlagSet) {
		fs.StringVar(&fen, "fen", "startpos", "position string or startpos")
		fs.StringVar(&moves, "moves", "", "comma separated UCI moves played from the position")
	})
	if err != nil {
		return err
	}
	pos, err := loadPosition(fen, moves)
	if err != nil {
		return err
	}

	logger, closeLog, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer closeLog()

	f := bots.NewEvaluator(logger).Breakdown(pos)
	fmt.Fprintf(out, "material     %8.2f\n", f.Material)
	fmt.Fprintf(out, "mobility     %8.2f\n", f.Mobility)
	fmt.Fprintf(out, "compactness  %8.2f (white %.2f, black %.2f)\n", f.Compactness, f.CompactnessWhite, f.CompactnessBlack)
	fmt.Fprintf(out, "expansion    %8.2f\n", f.Expansion)
	fmt.Fprintf(out, "king safety  %8.2f (white %.2f, black %.2f)\n", f.KingSafety, f.KingSafetyWhite, f.KingSafetyBlack)
	fmt.Fprintf(out, "score        %8.2f (%s to move)\n", f.Adjusted, pos.SideToMove())
	return nil
}

func match(ctx context.Context, args []string, out io.Writer) error {
	var fen, white, black string
	cfg, err := commandFlags("match", args, func(fs *flag.FlagSet) {
		fs.StringVar(&fen, "fen", "startpos", "starting position")
		fs.StringVar(&white, "white", "minimax", "white bot: minimax, random or newborn")
		fs.StringVar(&black, "black", "random", "black bot: minimax, random or newborn")
	})
	if err != nil {
		return err
	}
	logger, closeLog, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer closeLog()

	pos, err := loadPosition(fen, "")
	if err != nil {
		return err
	}
	whiteBot, err := newBot(white, cfg, cfg.Seed, logger)
	if err != nil {
		return err
	}
	blackBot, err := newBot(black, cfg, cfg.Seed+1, logger)
	if err != nil {
		return err
	}

	m := game.NewMatch(whiteBot, blackBot, logger.With().Str("component", "match").Logger())
	m.MaxPlies = cfg.MaxPlies
	rec, err := m.Play(ctx, pos)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, strings.Join(rec.Moves, " "))
	fmt.Fprintf(out, "%s (%s)\n", rec.Result(), rec.Status)
	return nil
}

func newBot(name string, cfg config.Config, seed uint64, logger zerolog.Logger) (bots.ChessBot, error) {
	switch name {
	case "minimax":
		return bots.NewMinimaxBot(cfg.Depth, cfg.TimeLimit, bots.WithLogger(logger)), nil
	case "random":
		return bots.NewRandomBot(seed), nil
	case "newborn":
		return bots.NewNewbornBot(), nil
	}
	return nil, fmt.Errorf("unknown bot %q", name)
}

func showHistory(args []string, out io.Writer) error {
	var fen string
	var remove bool
	cfg, err := commandFlags("history", args, func(fs *flag.FlagSet) {
		fs.StringVar(&fen, "fen", "", "position whose analysis to delete")
		fs.BoolVar(&remove, "delete", false, "delete the analysis of -fen at -depth")
	})
	if err != nil {
		return err
	}
	if cfg.StoreDir == "" {
		return errors.New("history needs -store")
	}
	s, err := store.Open(cfg.StoreDir)
	if err != nil {
		return err
	}
	defer s.Close()

	if remove {
		pos, err := loadPosition(fen, "")
		if err != nil {
			return err
		}
		return s.Delete(pos.FEN(), cfg.Depth)
	}

	all, err := s.List()
	if err != nil {
		return err
	}
	for _, a := range all {
		fmt.Fprintf(out, "%2d %-7s %8.2f %s\n", a.Depth, a.Move, a.Score, a.FEN)
	}
	return nil
}

func serveUCI(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	cfg, err := commandFlags("uci", args, nil)
	if err != nil {
		return err
	}
	logger, closeLog, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer closeLog()

	return uci.New(cfg.Depth, cfg.TimeLimit, logger.With().Str("component", "uci").Logger(), out).Run(ctx, in)
}
