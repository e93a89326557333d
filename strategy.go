package gto

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/cfrlab/gto/game"
	"github.com/cfrlab/gto/tree"
)

// strategyFormatVersion tags serialized strategies. Decoding rejects any
// other version; bump it whenever the encoded layout changes.
const strategyFormatVersion = 1

// Strategy is the extracted average strategy profile of a finished solve:
// one normalized action distribution per information set, addressed densely
// by infoset id and indexed by key for lookups.
type Strategy struct {
	infoSets []tree.InfoSet
	probs    [][]float64
	visited  []bool
	byKey    map[string]int32
}

// InfoSetStrategy is the readable view of one information set's policy.
type InfoSetStrategy struct {
	Key     string
	Player  int8
	Bucket  int32
	History string
	Actions []game.Action
	Probs   []float64
	// Visited is false when the infoset was never reached during the
	// solve; its Probs are then the uniform fallback.
	Visited bool
}

// extractStrategy normalizes the policy table's strategy sums into a
// Strategy. Action probabilities below purify are zeroed and the rest
// renormalized, which trims the numerical noise CFR leaves on dominated
// actions; purify <= 0 disables it.
func extractStrategy(t *tree.Tree, pt *policyTable, purify float64) *Strategy {
	n := t.NumInfoSets()
	s := &Strategy{
		infoSets: t.InfoSets,
		probs:    make([][]float64, n),
		visited:  make([]bool, n),
		byKey:    make(map[string]int32, n),
	}

	for id := 0; id < n; id++ {
		probs, visited := pt.averageStrategy(int32(id))
		if purify > 0 && visited {
			purifyDist(probs, purify)
		}
		s.probs[id] = probs
		s.visited[id] = visited
		s.byKey[t.InfoSets[id].Key()] = int32(id)
	}
	return s
}

// purifyDist zeroes entries below threshold and renormalizes. If everything
// falls below threshold the maximum entry survives alone.
func purifyDist(probs []float64, threshold float64) {
	var total float64
	for i, p := range probs {
		if p < threshold {
			probs[i] = 0
		} else {
			total += p
		}
	}

	if total <= 0 {
		best := floats.MaxIdx(probs)
		for i := range probs {
			probs[i] = 0
		}
		probs[best] = 1
		return
	}
	floats.Scale(1/total, probs)
}

// NumInfoSets returns the number of information sets covered.
func (s *Strategy) NumInfoSets() int { return len(s.probs) }

// At returns the policy for an information set key.
func (s *Strategy) At(key string) (InfoSetStrategy, bool) {
	id, ok := s.byKey[key]
	if !ok {
		return InfoSetStrategy{}, false
	}
	return s.at(id), true
}

// All returns every information set's policy in dense id order.
func (s *Strategy) All() []InfoSetStrategy {
	out := make([]InfoSetStrategy, len(s.probs))
	for id := range s.probs {
		out[id] = s.at(int32(id))
	}
	return out
}

func (s *Strategy) at(id int32) InfoSetStrategy {
	is := s.infoSets[id]
	return InfoSetStrategy{
		Key:     is.Key(),
		Player:  is.Player,
		Bucket:  is.Bucket,
		History: is.History,
		Actions: is.Actions,
		Probs:   s.probs[id],
		Visited: s.visited[id],
	}
}

// strategyRecord is the gob wire form of a Strategy.
type strategyRecord struct {
	Version  int
	InfoSets []tree.InfoSet
	Probs    [][]float64
	Visited  []bool
}

// MarshalBinary encodes the strategy with its format version.
func (s *Strategy) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	rec := strategyRecord{
		Version:  strategyFormatVersion,
		InfoSets: s.infoSets,
		Probs:    s.probs,
		Visited:  s.visited,
	}
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, errors.Wrap(err, "encoding strategy")
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a strategy, rejecting unknown format versions.
func (s *Strategy) UnmarshalBinary(data []byte) error {
	var rec strategyRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return errors.Wrap(err, "decoding strategy")
	}
	if rec.Version != strategyFormatVersion {
		return errors.Errorf("strategy format version %d, want %d", rec.Version, strategyFormatVersion)
	}

	s.infoSets = rec.InfoSets
	s.probs = rec.Probs
	s.visited = rec.Visited
	s.byKey = make(map[string]int32, len(rec.InfoSets))
	for id, is := range rec.InfoSets {
		s.byKey[is.Key()] = int32(id)
	}
	return nil
}
