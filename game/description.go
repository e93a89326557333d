// Package game defines the immutable description of a betting subgame:
// stacks, blinds, bet sizing schedule, starting ranges and board. A
// Description is created once per solve request and validated before any
// tree is constructed.
package game

import (
	"github.com/pkg/errors"

	"github.com/cfrlab/gto/cards"
)

// ErrInvalidParams marks a malformed or contradictory game description.
// It is returned (wrapped) before any tree construction and is never
// retried. Test with errors.Cause(err) == game.ErrInvalidParams.
var ErrInvalidParams = errors.New("invalid game parameters")

// NumSeats is the supported table size. The engine solves heads-up
// subgames; larger configurations must be decomposed by the caller.
const NumSeats = 2

// Seat indices. The button posts the small blind, acts first preflop and
// last postflop.
const (
	Button   = 0
	BigBlind = 1
)

// Blinds is the forced-bet structure in big blind units.
type Blinds struct {
	Small float64
	Big   float64
	Ante  float64
}

// BetSizing enumerates the allowed bet and raise sizes per street as
// fractions of the current pot. An empty street slice disables betting on
// that street (check/fold/call only). All-in is always available on top of
// the configured fractions. MaxRaises caps re-raises per street to keep the
// action set bounded.
type BetSizing struct {
	Preflop   []float64
	Flop      []float64
	Turn      []float64
	River     []float64
	MaxRaises int
	// NoLimp removes the open call preflop, so the button must fold or
	// raise. Push/fold games set this together with an empty Preflop
	// fraction list, leaving all-in as the only raise.
	NoLimp bool
}

// ForStreet returns the configured pot fractions for a street.
func (b BetSizing) ForStreet(s Street) []float64 {
	switch s {
	case Preflop:
		return b.Preflop
	case Flop:
		return b.Flop
	case Turn:
		return b.Turn
	default:
		return b.River
	}
}

// Description is the immutable input to a solve: who is playing, with what
// stacks and ranges, on what board, with what betting structure. Pot is the
// number of big blinds already in the middle for postflop subgames (assumed
// contributed evenly); it is ignored preflop, where the blinds seed the pot.
type Description struct {
	Stacks [NumSeats]float64
	Blinds Blinds
	Sizing BetSizing
	Ranges [NumSeats]string
	Board  []cards.Card
	Pot    float64
}

// Street returns the street the subgame starts on.
func (d *Description) Street() Street {
	return StreetForBoard(len(d.Board))
}

// Committed returns each seat's chips already in the pot at the root.
func (d *Description) Committed() [NumSeats]float64 {
	if d.Street() == Preflop {
		return [NumSeats]float64{
			Button:   d.Blinds.Small + d.Blinds.Ante,
			BigBlind: d.Blinds.Big + d.Blinds.Ante,
		}
	}
	return [NumSeats]float64{d.Pot / 2, d.Pot / 2}
}

// StartingPot returns the total chips in the middle at the root.
func (d *Description) StartingPot() float64 {
	committed := d.Committed()
	return committed[Button] + committed[BigBlind]
}

// FirstToAct returns the seat opening the action: the button preflop, the
// big blind postflop.
func (d *Description) FirstToAct() int {
	if d.Street() == Preflop {
		return Button
	}
	return BigBlind
}

// ParseRanges expands the seat range notations into combo sets, removing
// combos that conflict with the board.
func (d *Description) ParseRanges() ([NumSeats][]cards.Combo, error) {
	var ranges [NumSeats][]cards.Combo
	for seat, notation := range d.Ranges {
		combos, err := cards.ParseRange(notation)
		if err != nil {
			return ranges, errors.Wrapf(ErrInvalidParams, "seat %d range: %v", seat, err)
		}
		combos = cards.RemoveConflicts(combos, d.Board)
		if len(combos) == 0 {
			return ranges, errors.Wrapf(ErrInvalidParams, "seat %d range %q has no combos compatible with board %v",
				seat, notation, d.Board)
		}
		ranges[seat] = combos
	}
	return ranges, nil
}

// Validate rejects malformed descriptions with ErrInvalidParams. It is
// called before tree construction; a Description that validates is safe to
// build from.
func (d *Description) Validate() error {
	for seat, stack := range d.Stacks {
		if stack <= 0 {
			return errors.Wrapf(ErrInvalidParams, "seat %d stack %v must be positive", seat, stack)
		}
	}

	if d.Blinds.Big <= 0 {
		return errors.Wrapf(ErrInvalidParams, "big blind %v must be positive", d.Blinds.Big)
	}
	if d.Blinds.Small < 0 || d.Blinds.Small > d.Blinds.Big {
		return errors.Wrapf(ErrInvalidParams, "small blind %v must be in [0, %v]", d.Blinds.Small, d.Blinds.Big)
	}
	if d.Blinds.Ante < 0 {
		return errors.Wrapf(ErrInvalidParams, "ante %v must be non-negative", d.Blinds.Ante)
	}

	switch len(d.Board) {
	case 0, 3, 4, 5:
	default:
		return errors.Wrapf(ErrInvalidParams, "board must have 0, 3, 4 or 5 cards, got %d", len(d.Board))
	}
	seen := make(map[cards.Card]struct{}, len(d.Board))
	for _, c := range d.Board {
		if _, dup := seen[c]; dup {
			return errors.Wrapf(ErrInvalidParams, "duplicate board card %v", c)
		}
		seen[c] = struct{}{}
	}

	if d.Street() != Preflop && d.Pot <= 0 {
		return errors.Wrapf(ErrInvalidParams, "postflop subgame requires a positive starting pot, got %v", d.Pot)
	}

	for _, fraction := range d.Sizing.ForStreet(d.Street()) {
		if fraction <= 0 {
			return errors.Wrapf(ErrInvalidParams, "bet size fraction %v must be positive", fraction)
		}
	}
	if d.Sizing.MaxRaises < 0 {
		return errors.Wrapf(ErrInvalidParams, "max raises %d must be non-negative", d.Sizing.MaxRaises)
	}

	if _, err := d.ParseRanges(); err != nil {
		return err
	}

	return nil
}
