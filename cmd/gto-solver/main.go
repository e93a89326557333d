// Command gto-solver solves a heads-up betting subgame from the command
// line and prints the resulting strategy per betting history.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/pterm/pterm"

	"github.com/cfrlab/gto"
	"github.com/cfrlab/gto/cache"
	"github.com/cfrlab/gto/cards"
	"github.com/cfrlab/gto/game"
)

var (
	stack0 = flag.Float64("stack0", 100, "Button stack in big blinds")
	stack1 = flag.Float64("stack1", 100, "Big blind stack in big blinds")
	sb     = flag.Float64("sb", 0.5, "Small blind")
	bb     = flag.Float64("bb", 1, "Big blind")
	ante   = flag.Float64("ante", 0, "Ante per player")

	range0 = flag.String("range0", "random", "Button range notation")
	range1 = flag.String("range1", "random", "Big blind range notation")
	board  = flag.String("board", "", "Board cards, e.g. AhKd7c (empty for preflop)")
	pot    = flag.Float64("pot", 0, "Starting pot for postflop subgames")

	betSizes  = flag.String("bet-sizes", "0.5,1.0", "Bet/raise sizes as pot fractions, comma separated")
	maxRaises = flag.Int("max-raises", 4, "Maximum bets and raises on the street")
	noLimp    = flag.Bool("no-limp", false, "Disallow the preflop open call (push/fold style)")

	buckets    = flag.Int("buckets", 20, "Hand buckets per seat")
	iterations = flag.Int("iterations", 10000, "Maximum CFR iterations")
	target     = flag.Float64("target", 0.001, "Exploitability target in bb/hand")
	checkpoint = flag.Int("checkpoint", 100, "Iterations between exploitability checks")
	timeout    = flag.Duration("timeout", 0, "Wall-clock budget (0 = unbounded)")
	mode       = flag.String("mode", "full", "Traversal mode: full, chance or external")
	workers    = flag.Int("workers", 0, "Sweep parallelism (0 = NumCPU)")
	seed       = flag.Int64("seed", 1, "Random seed")
	purify     = flag.Float64("purify", 0, "Drop action probabilities below this threshold")

	cacheDir  = flag.String("cache-dir", "", "Directory for the persistent solution cache")
	cacheSize = flag.Int("cache-size", 64, "In-memory cache capacity")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	if err := run(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run() error {
	desc, cfg, err := buildRequest()
	if err != nil {
		return err
	}

	pterm.DefaultSection.Println("gto-solver")
	pterm.Info.Printf("stacks %.1f/%.1f bb, ranges %q vs %q, board %q\n",
		desc.Stacks[0], desc.Stacks[1], desc.Ranges[0], desc.Ranges[1], *board)

	spinner, _ := pterm.DefaultSpinner.Start("solving")
	start := time.Now()

	res, err := solve(desc, cfg)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success(fmt.Sprintf("%s in %s", res.Status, time.Since(start).Round(time.Millisecond)))

	printSummary(res)
	printStrategy(res.Strategy)
	return nil
}

func buildRequest() (*game.Description, gto.Config, error) {
	fractions, err := parseFractions(*betSizes)
	if err != nil {
		return nil, gto.Config{}, err
	}
	boardCards, err := cards.ParseCards(*board)
	if err != nil {
		return nil, gto.Config{}, err
	}

	desc := &game.Description{
		Stacks: [game.NumSeats]float64{*stack0, *stack1},
		Blinds: game.Blinds{Small: *sb, Big: *bb, Ante: *ante},
		Sizing: game.BetSizing{
			Preflop:   fractions,
			Flop:      fractions,
			Turn:      fractions,
			River:     fractions,
			MaxRaises: *maxRaises,
			NoLimp:    *noLimp,
		},
		Ranges: [game.NumSeats]string{*range0, *range1},
		Board:  boardCards,
		Pot:    *pot,
	}

	cfg := gto.DefaultConfig()
	cfg.Abstraction.Buckets = *buckets
	cfg.Monitor.MaxIterations = *iterations
	cfg.Monitor.Target = *target
	cfg.Monitor.CheckpointInterval = *checkpoint
	cfg.Monitor.MaxDuration = *timeout
	cfg.Workers = *workers
	cfg.Seed = *seed
	cfg.PurifyThreshold = *purify

	switch *mode {
	case "full":
		cfg.Mode = gto.FullTraversal
	case "chance":
		cfg.Mode = gto.ChanceSampling
	case "external":
		cfg.Mode = gto.ExternalSampling
	default:
		return nil, gto.Config{}, fmt.Errorf("unknown traversal mode %q", *mode)
	}

	return desc, cfg, nil
}

func solve(desc *game.Description, cfg gto.Config) (*gto.SolveResult, error) {
	ctx := context.Background()

	if *cacheDir == "" {
		return gto.Solve(ctx, desc, cfg)
	}

	c, err := cache.New(*cacheSize, *cacheDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			glog.Errorf("closing cache: %v", cerr)
		}
	}()
	return c.GetOrSolve(ctx, desc, cfg)
}

func printSummary(res *gto.SolveResult) {
	pterm.DefaultSection.Println("result")
	data := pterm.TableData{
		{"status", res.Status.String()},
		{"iterations", strconv.Itoa(res.Iterations)},
		{"exploitability", fmt.Sprintf("%.6f bb/hand", res.Exploitability)},
		{"infosets", strconv.Itoa(res.Strategy.NumInfoSets())},
	}
	_ = pterm.DefaultTable.WithData(data).Render()
}

// printStrategy renders one table per betting history: rows are the acting
// player's buckets, columns the legal actions.
func printStrategy(s *gto.Strategy) {
	all := s.All()

	type group struct {
		history string
		player  int8
		sets    []gto.InfoSetStrategy
	}
	byHistory := make(map[string]*group)
	var order []string
	for _, is := range all {
		key := fmt.Sprintf("p%d|%s", is.Player, is.History)
		g, ok := byHistory[key]
		if !ok {
			g = &group{history: is.History, player: is.Player}
			byHistory[key] = g
			order = append(order, key)
		}
		g.sets = append(g.sets, is)
	}
	sort.Strings(order)

	for _, key := range order {
		g := byHistory[key]
		title := fmt.Sprintf("player %d to act", g.player)
		if g.history != "" {
			title += fmt.Sprintf(" after %q", g.history)
		}
		pterm.DefaultSection.WithLevel(2).Println(title)

		header := []string{"bucket"}
		for _, a := range g.sets[0].Actions {
			header = append(header, a.String())
		}

		data := pterm.TableData{header}
		for _, is := range g.sets {
			row := []string{strconv.Itoa(int(is.Bucket))}
			for _, p := range is.Probs {
				row = append(row, fmt.Sprintf("%.3f", p))
			}
			if !is.Visited {
				row[0] += "*"
			}
			data = append(data, row)
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	}
}

func parseFractions(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []float64
	for _, part := range strings.Split(s, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("bet size %q: %v", part, err)
		}
		out = append(out, f)
	}
	return out, nil
}
