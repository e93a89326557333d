package gto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/cfrlab/gto/cards"
	"github.com/cfrlab/gto/game"
)

// Fingerprint identifies a solve request: two requests with equal
// fingerprints produce byte-identical solutions.
type Fingerprint [sha256.Size]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// ComputeFingerprint hashes a canonical rendering of the game description
// and every configuration field that can change the solution, plus the
// strategy format version. Worker count is excluded: parallelism does not
// affect the result.
func ComputeFingerprint(desc *game.Description, cfg Config) Fingerprint {
	cfg = cfg.withDefaults()
	h := sha256.New()

	fmt.Fprintf(h, "v%d\n", strategyFormatVersion)
	writeDescription(h, desc)

	fmt.Fprintf(h, "abs|%d|%d|%d|%d|%d|%d|%d\n",
		cfg.Abstraction.Buckets, cfg.Abstraction.HistogramBins,
		cfg.Abstraction.EquitySamples, cfg.Abstraction.PairSamples,
		cfg.Abstraction.Metric, cfg.Abstraction.Seed, cfg.Abstraction.MaxKMeansIters)
	fmt.Fprintf(h, "disc|%t|%t|%g|%g|%g\n",
		cfg.Discount.UseRegretMatchingPlus, cfg.Discount.LinearWeighting,
		cfg.Discount.DiscountAlpha, cfg.Discount.DiscountBeta, cfg.Discount.DiscountGamma)
	fmt.Fprintf(h, "mon|%d|%g|%d|%g|%d|%d\n",
		cfg.Monitor.CheckpointInterval, cfg.Monitor.Target,
		cfg.Monitor.PlateauWindow, cfg.Monitor.PlateauEpsilon,
		cfg.Monitor.MaxIterations, cfg.Monitor.MaxDuration)
	fmt.Fprintf(h, "solve|%d|%d|%g|%d\n",
		cfg.Mode, cfg.MaxTreeNodes, cfg.PurifyThreshold, cfg.Seed)

	var f Fingerprint
	copy(f[:], h.Sum(nil))
	return f
}

func writeDescription(w io.Writer, desc *game.Description) {
	fmt.Fprintf(w, "stacks|%g|%g\n", desc.Stacks[0], desc.Stacks[1])
	fmt.Fprintf(w, "blinds|%g|%g|%g\n", desc.Blinds.Small, desc.Blinds.Big, desc.Blinds.Ante)
	fmt.Fprintf(w, "sizing|%v|%v|%v|%v|%d|%t\n",
		desc.Sizing.Preflop, desc.Sizing.Flop, desc.Sizing.Turn, desc.Sizing.River,
		desc.Sizing.MaxRaises, desc.Sizing.NoLimp)
	fmt.Fprintf(w, "ranges|%s|%s\n", desc.Ranges[0], desc.Ranges[1])
	fmt.Fprintf(w, "board|%s|%g\n", cards.CardsString(desc.Board), desc.Pot)
}
