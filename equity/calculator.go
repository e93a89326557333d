// Package equity computes showdown equities of hole card combos against
// opponent ranges, with exhaustive runout enumeration when the board is
// nearly complete and seeded Monte Carlo sampling otherwise.
package equity

import (
	"math/rand"

	"github.com/paulhankin/poker"
	"github.com/pkg/errors"

	"github.com/cfrlab/gto/cards"
)

// evalCards maps our packed cards to the evaluator's representation once.
var evalCards [cards.NumCards]poker.Card

func init() {
	suits := [4]poker.Suit{poker.Club, poker.Diamond, poker.Heart, poker.Spade}
	for c := 0; c < cards.NumCards; c++ {
		card := cards.Card(c)
		r := int(card.Rank()) + 2
		if r == 14 {
			r = 1 // evaluator uses rank 1 for aces
		}
		pc, err := poker.MakeCard(suits[card.Suit()], poker.Rank(r))
		if err != nil {
			panic(err)
		}
		evalCards[c] = pc
	}
}

// Calculator computes combo-vs-range equities. The zero value is usable;
// a single instance may be shared by concurrent readers since all methods
// are pure.
type Calculator struct{}

// NewCalculator returns a Calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// eval7 scores a complete 7-card hand. Higher is better.
func eval7(hole cards.Combo, board []cards.Card) int16 {
	var hand [7]poker.Card
	hand[0] = evalCards[hole.Hi]
	hand[1] = evalCards[hole.Lo]
	for i, c := range board {
		hand[2+i] = evalCards[c]
	}
	return poker.Eval7(&hand)
}

// Showdown returns hero's share of the pot against a single villain combo
// on a complete 5-card board: 1 for a win, 0.5 for a chop, 0 for a loss.
func (c *Calculator) Showdown(hero, villain cards.Combo, board []cards.Card) (float64, error) {
	if len(board) != 5 {
		return 0, errors.Errorf("showdown requires a complete board, got %d cards", len(board))
	}
	if hero.Conflicts(villain) || hero.ConflictsAny(board) || villain.ConflictsAny(board) {
		return 0, errors.Errorf("card conflict between %v, %v and board %v", hero, villain, board)
	}

	h := eval7(hero, board)
	v := eval7(villain, board)
	switch {
	case h > v:
		return 1, nil
	case h < v:
		return 0, nil
	default:
		return 0.5, nil
	}
}

// ComboVsRange returns hero's average equity against every compatible combo
// in the villain range, over all runouts of the given partial board. Boards
// missing at most one card are enumerated exactly; earlier streets are
// sampled with the given sample count and seed.
func (c *Calculator) ComboVsRange(hero cards.Combo, villain []cards.Combo, board []cards.Card, samples int, seed int64) (float64, error) {
	runouts, err := c.runouts(hero, board, samples, seed)
	if err != nil {
		return 0, err
	}

	var total, n float64
	for _, runout := range runouts {
		eq, weight := c.equityOnRunout(hero, villain, runout)
		total += eq * weight
		n += weight
	}

	if n == 0 {
		// Every villain combo conflicts with hero or the board.
		return 0.5, nil
	}
	return total / n, nil
}

// Distribution returns a normalized histogram of hero's per-runout equity
// against the villain range, with the given number of bins. The histogram
// characterizes how the hand's strength is distributed across futures,
// which is what the abstraction engine clusters on.
func (c *Calculator) Distribution(hero cards.Combo, villain []cards.Combo, board []cards.Card, bins, samples int, seed int64) ([]float64, error) {
	if bins <= 0 {
		return nil, errors.Errorf("histogram requires a positive bin count, got %d", bins)
	}

	runouts, err := c.runouts(hero, board, samples, seed)
	if err != nil {
		return nil, err
	}

	hist := make([]float64, bins)
	var mass float64
	for _, runout := range runouts {
		eq, weight := c.equityOnRunout(hero, villain, runout)
		if weight == 0 {
			continue
		}
		bin := int(eq * float64(bins))
		if bin >= bins {
			bin = bins - 1
		}
		hist[bin]++
		mass++
	}

	if mass == 0 {
		// Degenerate range; a flat histogram keeps clustering well-defined.
		for i := range hist {
			hist[i] = 1 / float64(bins)
		}
		return hist, nil
	}

	for i := range hist {
		hist[i] /= mass
	}
	return hist, nil
}

// equityOnRunout computes hero equity against all compatible villain combos
// on one complete board, returning the equity and the number of combos that
// contributed (the weight).
func (c *Calculator) equityOnRunout(hero cards.Combo, villain []cards.Combo, board []cards.Card) (float64, float64) {
	heroScore := eval7(hero, board)

	var wins, ties, total float64
	for _, v := range villain {
		if v.Conflicts(hero) || v.ConflictsAny(board) {
			continue
		}
		vScore := eval7(v, board)
		if heroScore > vScore {
			wins++
		} else if heroScore == vScore {
			ties++
		}
		total++
	}

	if total == 0 {
		return 0, 0
	}
	return (wins + ties/2) / total, total
}

// runouts expands a partial board into complete 5-card boards. One missing
// card enumerates exactly; more are sampled without replacement per sample.
func (c *Calculator) runouts(hero cards.Combo, board []cards.Card, samples int, seed int64) ([][]cards.Card, error) {
	switch missing := 5 - len(board); {
	case missing < 0:
		return nil, errors.Errorf("board has %d cards, more than 5", len(board))
	case missing == 0:
		return [][]cards.Card{board}, nil
	case missing == 1:
		var result [][]cards.Card
		for _, card := range remaining(hero, board) {
			result = append(result, appendCard(board, card))
		}
		return result, nil
	default:
		if samples <= 0 {
			samples = 200
		}
		rng := rand.New(rand.NewSource(seed))
		deck := remaining(hero, board)
		result := make([][]cards.Card, 0, samples)
		for s := 0; s < samples; s++ {
			runout := append(make([]cards.Card, 0, 5), board...)
			// Partial Fisher-Yates over a reusable copy of the deck.
			for i := 0; i < missing; i++ {
				j := i + rng.Intn(len(deck)-i)
				deck[i], deck[j] = deck[j], deck[i]
				runout = append(runout, deck[i])
			}
			result = append(result, runout)
		}
		return result, nil
	}
}

func remaining(hero cards.Combo, board []cards.Card) []cards.Card {
	var used [cards.NumCards]bool
	used[hero.Hi] = true
	used[hero.Lo] = true
	for _, c := range board {
		used[c] = true
	}

	deck := make([]cards.Card, 0, cards.NumCards-2-len(board))
	for c := cards.Card(0); c < cards.NumCards; c++ {
		if !used[c] {
			deck = append(deck, c)
		}
	}
	return deck
}

func appendCard(board []cards.Card, c cards.Card) []cards.Card {
	out := make([]cards.Card, 0, len(board)+1)
	out = append(out, board...)
	return append(out, c)
}
