package game

import "fmt"

// ActionType enumerates the abstracted betting actions.
type ActionType uint8

const (
	Fold ActionType = iota
	Check
	Call
	Bet
	Raise
)

func (t ActionType) String() string {
	switch t {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Bet:
		return "bet"
	case Raise:
		return "raise"
	default:
		return "unknown"
	}
}

// Action is one abstracted betting action. Amount is the number of big
// blinds added to the pot by the actor and is zero except for bets and
// raises.
type Action struct {
	Type   ActionType
	Amount float64
}

// String renders the action in compact history notation: "f", "x", "c",
// "b2.5", "r7". The compact form is stable and is used in info set keys.
func (a Action) String() string {
	switch a.Type {
	case Fold:
		return "f"
	case Check:
		return "x"
	case Call:
		return "c"
	case Bet:
		return fmt.Sprintf("b%g", a.Amount)
	case Raise:
		return fmt.Sprintf("r%g", a.Amount)
	default:
		return "?"
	}
}

// Street is the betting round within a hand.
type Street uint8

const (
	Preflop Street = iota
	Flop
	Turn
	River
)

func (s Street) String() string {
	switch s {
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	default:
		return "unknown"
	}
}

// StreetForBoard maps a board size to the street being played.
func StreetForBoard(n int) Street {
	switch n {
	case 0:
		return Preflop
	case 3:
		return Flop
	case 4:
		return Turn
	default:
		return River
	}
}
