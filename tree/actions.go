package tree

import (
	"math"
	"sort"

	"github.com/cfrlab/gto/game"
)

// minChip is the smallest meaningful bet increment in big blinds. Bet
// amounts closer than this are considered duplicates.
const minChip = 0.01

// bettingState is the public state of the betting street during skeleton
// construction.
type bettingState struct {
	street     game.Street
	committed  [game.NumSeats]float64
	effective  float64 // commitment cap per seat (effective stack + root commitment)
	toAct      int
	numActions int
	numRaises  int
	history    string
}

func (s *bettingState) pot() float64 {
	return s.committed[0] + s.committed[1]
}

func (s *bettingState) toCall() float64 {
	return s.committed[1-s.toAct] - s.committed[s.toAct]
}

func (s *bettingState) behind() float64 {
	return s.effective - s.committed[s.toAct]
}

// legalActions expands the bet sizing schedule into the bounded action set
// at this state. Fold/check/call come first, then bets or raises in
// ascending size with all-in always last; the ordering is deterministic so
// identical descriptions yield identical trees.
func legalActions(s *bettingState, sizing game.BetSizing, maxRaises int) []game.Action {
	fractions := sizing.ForStreet(s.street)
	diff := s.toCall()
	behind := s.behind()

	var actions []game.Action
	if diff > minChip {
		actions = append(actions, game.Action{Type: game.Fold})

		limp := s.street == game.Preflop && s.numActions == 0
		if !(sizing.NoLimp && limp) {
			actions = append(actions, game.Action{Type: game.Call, Amount: diff})
		}

		if s.numRaises < maxRaises && behind > diff+minChip {
			amounts := raiseAmounts(fractions, s.pot(), diff, behind)
			for _, amount := range amounts {
				actions = append(actions, game.Action{Type: game.Raise, Amount: amount})
			}
		}
		return actions
	}

	actions = append(actions, game.Action{Type: game.Check})
	if behind > minChip && s.numRaises < maxRaises {
		for _, amount := range betAmounts(fractions, s.pot(), behind) {
			actions = append(actions, game.Action{Type: game.Bet, Amount: amount})
		}
	}
	return actions
}

// betAmounts expands pot fractions into bet sizes capped at the remaining
// effective stack, deduplicated, with all-in appended.
func betAmounts(fractions []float64, pot, behind float64) []float64 {
	amounts := make([]float64, 0, len(fractions)+1)
	for _, f := range fractions {
		amount := f * pot
		if amount > behind {
			amount = behind
		}
		if amount >= minChip {
			amounts = append(amounts, amount)
		}
	}
	amounts = append(amounts, behind) // all-in
	return dedupAmounts(amounts)
}

// raiseAmounts sizes raises as call-plus-fraction-of-resulting-pot, capped
// at the remaining effective stack, with the all-in raise appended.
func raiseAmounts(fractions []float64, pot, diff, behind float64) []float64 {
	amounts := make([]float64, 0, len(fractions)+1)
	for _, f := range fractions {
		amount := diff + f*(pot+diff)
		if amount > behind {
			amount = behind
		}
		if amount > diff+minChip {
			amounts = append(amounts, amount)
		}
	}
	amounts = append(amounts, behind) // all-in
	return dedupAmounts(amounts)
}

func dedupAmounts(amounts []float64) []float64 {
	sort.Float64s(amounts)
	out := amounts[:0]
	for _, a := range amounts {
		if len(out) == 0 || math.Abs(a-out[len(out)-1]) >= minChip {
			out = append(out, a)
		}
	}
	return out
}
