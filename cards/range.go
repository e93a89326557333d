package cards

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ParseRange expands hand range notation into the set of combos it covers.
//
// Supported tokens, comma separated:
//
//	"AA"        all 6 combos of a pair
//	"AKs"       4 suited combos
//	"AKo"       12 offsuit combos
//	"AK"        suited and offsuit (16 combos)
//	"TT+"       pairs TT and above
//	"A5s+"      suited aces A5s through AKs
//	"KK-JJ"     inclusive pair run
//	"AKs-ATs"   inclusive kicker run with fixed high card
//	"AhKd"      one specific combo
//	"random"    the full 1326-combo range
//
// Duplicate coverage collapses; the result is sorted for determinism.
func ParseRange(s string) ([]Combo, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty range")
	}

	if strings.EqualFold(s, "random") {
		return allCombos(), nil
	}

	set := make(map[Combo]struct{})
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		combos, err := parseRangeToken(tok)
		if err != nil {
			return nil, errors.Wrapf(err, "range token %q", tok)
		}
		for _, c := range combos {
			set[c] = struct{}{}
		}
	}

	if len(set) == 0 {
		return nil, errors.Errorf("range %q expands to no combos", s)
	}

	result := make([]Combo, 0, len(set))
	for c := range set {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Hi != result[j].Hi {
			return result[i].Hi < result[j].Hi
		}
		return result[i].Lo < result[j].Lo
	})
	return result, nil
}

func parseRangeToken(tok string) ([]Combo, error) {
	if len(tok) == 4 && strings.IndexByte(rankChars, upper(tok[1])) < 0 {
		// Specific combo like "AhKd": second char is a suit, not a rank.
		c, err := ParseCombo(tok)
		if err != nil {
			return nil, err
		}
		return []Combo{c}, nil
	}

	if strings.Contains(tok, "-") {
		return parseDashRange(tok)
	}

	if strings.HasSuffix(tok, "+") {
		return parsePlusRange(strings.TrimSuffix(tok, "+"))
	}

	return parseHandClass(tok)
}

// parseHandClass expands "AA", "AKs", "AKo" or "AK" (both).
func parseHandClass(tok string) ([]Combo, error) {
	if len(tok) < 2 || len(tok) > 3 {
		return nil, errors.Errorf("invalid hand class %q", tok)
	}

	hi, lo, err := parseRankPair(tok[0], tok[1])
	if err != nil {
		return nil, err
	}

	if hi == lo {
		if len(tok) != 2 {
			return nil, errors.Errorf("pair %q cannot be suited or offsuit", tok)
		}
		return pairCombos(hi), nil
	}

	switch {
	case len(tok) == 2:
		return append(suitedCombos(hi, lo), offsuitCombos(hi, lo)...), nil
	case tok[2] == 's' || tok[2] == 'S':
		return suitedCombos(hi, lo), nil
	case tok[2] == 'o' || tok[2] == 'O':
		return offsuitCombos(hi, lo), nil
	default:
		return nil, errors.Errorf("invalid suitedness %q in %q", tok[2], tok)
	}
}

// parsePlusRange expands "TT+" and "A5s+"-style tokens.
func parsePlusRange(base string) ([]Combo, error) {
	if len(base) < 2 || len(base) > 3 {
		return nil, errors.Errorf("invalid open range %q+", base)
	}

	hi, lo, err := parseRankPair(base[0], base[1])
	if err != nil {
		return nil, err
	}

	var result []Combo
	if hi == lo {
		for r := hi; r <= Ace; r++ {
			result = append(result, pairCombos(r)...)
		}
		return result, nil
	}

	// Kicker run: fixed high card, kicker from lo up to just below hi.
	for r := lo; r < hi; r++ {
		combos, err := parseHandClass(hi.String() + r.String() + base[2:])
		if err != nil {
			return nil, err
		}
		result = append(result, combos...)
	}
	return result, nil
}

// parseDashRange expands "KK-JJ" and "AKs-ATs"-style tokens.
func parseDashRange(tok string) ([]Combo, error) {
	parts := strings.Split(tok, "-")
	if len(parts) != 2 {
		return nil, errors.Errorf("invalid dash range %q", tok)
	}

	from, to := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if len(from) != len(to) {
		return nil, errors.Errorf("mismatched endpoints in %q", tok)
	}

	fromHi, fromLo, err := parseRankPair(from[0], from[1])
	if err != nil {
		return nil, err
	}
	toHi, toLo, err := parseRankPair(to[0], to[1])
	if err != nil {
		return nil, err
	}

	var result []Combo
	if fromHi == fromLo { // pair run
		if toHi != toLo {
			return nil, errors.Errorf("pair range %q must end with a pair", tok)
		}
		lo, hi := toHi, fromHi
		if lo > hi {
			lo, hi = hi, lo
		}
		for r := lo; r <= hi; r++ {
			result = append(result, pairCombos(r)...)
		}
		return result, nil
	}

	if fromHi != toHi {
		return nil, errors.Errorf("kicker range %q must share its high card", tok)
	}
	lo, hi := toLo, fromLo
	if lo > hi {
		lo, hi = hi, lo
	}
	for r := lo; r <= hi; r++ {
		combos, err := parseHandClass(fromHi.String() + r.String() + from[2:])
		if err != nil {
			return nil, err
		}
		result = append(result, combos...)
	}
	return result, nil
}

func parseRankPair(a, b byte) (hi, lo Rank, err error) {
	ri := strings.IndexByte(rankChars, upper(a))
	rj := strings.IndexByte(rankChars, upper(b))
	if ri < 0 || rj < 0 {
		return 0, 0, errors.Errorf("invalid ranks %q%q", a, b)
	}
	hi, lo = Rank(ri), Rank(rj)
	if lo > hi {
		hi, lo = lo, hi
	}
	return hi, lo, nil
}

func pairCombos(r Rank) []Combo {
	var result []Combo
	for s1 := Clubs; s1 <= Spades; s1++ {
		for s2 := s1 + 1; s2 <= Spades; s2++ {
			c, _ := MakeCombo(MakeCard(r, s1), MakeCard(r, s2))
			result = append(result, c)
		}
	}
	return result
}

func suitedCombos(hi, lo Rank) []Combo {
	var result []Combo
	for s := Clubs; s <= Spades; s++ {
		c, _ := MakeCombo(MakeCard(hi, s), MakeCard(lo, s))
		result = append(result, c)
	}
	return result
}

func offsuitCombos(hi, lo Rank) []Combo {
	var result []Combo
	for s1 := Clubs; s1 <= Spades; s1++ {
		for s2 := Clubs; s2 <= Spades; s2++ {
			if s1 == s2 {
				continue
			}
			c, _ := MakeCombo(MakeCard(hi, s1), MakeCard(lo, s2))
			result = append(result, c)
		}
	}
	return result
}

func allCombos() []Combo {
	result := make([]Combo, 0, 1326)
	for a := Card(0); a < NumCards; a++ {
		for b := a + 1; b < NumCards; b++ {
			result = append(result, Combo{Hi: b, Lo: a})
		}
	}
	return result
}
