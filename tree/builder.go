package tree

import (
	"math"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/cfrlab/gto/abstraction"
	"github.com/cfrlab/gto/game"
)

// ErrResourceExhaustion marks a tree too large for the configured node
// budget. Reduce bucket counts or the bet sizing schedule to shrink it.
var ErrResourceExhaustion = errors.New("game tree exceeds node budget")

// defaultMaxRaises caps bets and raises per street when the description
// does not specify a cap.
const defaultMaxRaises = 4

// conservationTol is the numerical tolerance for the zero-sum payoff check.
const conservationTol = 1e-9

// Build constructs the dense game tree for a validated description over its
// abstraction. maxNodes bounds the arena size (<= 0 means no bound). The
// construction is side-effect free and deterministic: identical inputs
// yield an identical arena.
func Build(desc *game.Description, abs *abstraction.Abstraction, maxNodes int) (*Tree, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	b := &builder{desc: desc, abs: abs}
	skeleton := b.buildSkeleton()
	deals := collectDeals(abs)

	arenaSize := 1 + len(deals)*len(skeleton.Nodes)
	if maxNodes > 0 && arenaSize > maxNodes {
		return nil, errors.Wrapf(ErrResourceExhaustion,
			"%d nodes over %d deals (budget %d); reduce bucket counts or bet sizes", arenaSize, len(deals), maxNodes)
	}

	t := &Tree{
		Nodes:    make([]Node, 0, arenaSize),
		InfoSets: b.infoSets,
		Deals:    deals,
		Skeleton: skeleton,
		Abs:      abs,
		Desc:     desc,
	}
	b.stamp(t)

	if err := t.checkConservation(); err != nil {
		return nil, err
	}

	glog.V(1).Infof("tree: %d nodes, %d infosets, %d deals, %d betting states",
		t.NumNodes(), t.NumInfoSets(), len(t.Deals), len(skeleton.Nodes))
	return t, nil
}

type builder struct {
	desc      *game.Description
	abs       *abstraction.Abstraction
	skeleton  Skeleton
	infoSets  []InfoSet
	maxRaises int
}

// buildSkeleton walks the betting street once, producing the public tree
// shared by every deal and allocating a dense block of information set ids
// per decision state.
func (b *builder) buildSkeleton() *Skeleton {
	b.maxRaises = b.desc.Sizing.MaxRaises
	if b.maxRaises == 0 {
		b.maxRaises = defaultMaxRaises
	}

	committed := b.desc.Committed()
	effective := math.Min(committed[0]+b.desc.Stacks[0], committed[1]+b.desc.Stacks[1])
	root := bettingState{
		street:    b.desc.Street(),
		committed: committed,
		effective: effective,
		toAct:     b.desc.FirstToAct(),
	}

	b.walk(&root)
	return &b.skeleton
}

// walk appends the skeleton node for the given state and recurses into the
// states its legal actions lead to. Returns the node's skeleton index.
func (b *builder) walk(s *bettingState) int32 {
	actions := legalActions(s, b.desc.Sizing, b.maxRaises)
	player := int8(s.toAct)

	idx := int32(len(b.skeleton.Nodes))
	b.skeleton.Nodes = append(b.skeleton.Nodes, SkelNode{
		Kind:      Decision,
		Player:    player,
		Actions:   actions,
		Children:  make([]int32, len(actions)),
		History:   s.history,
		Committed: s.committed,
	})

	base := int32(len(b.infoSets))
	b.skeleton.Nodes[idx].InfoSetBase = base
	for bucket := 0; bucket < b.abs.NumBuckets[player]; bucket++ {
		b.infoSets = append(b.infoSets, InfoSet{
			Player:  player,
			Bucket:  int32(bucket),
			History: s.history,
			Street:  s.street,
			Actions: actions,
		})
	}

	for i, action := range actions {
		b.skeleton.Nodes[idx].Children[i] = b.apply(s, action)
	}
	return idx
}

// apply advances the state by one action, emitting either a terminal
// skeleton node or recursing into the next decision.
func (b *builder) apply(s *bettingState, action game.Action) int32 {
	next := *s
	next.history = s.history + action.String()
	next.numActions = s.numActions + 1
	next.toAct = 1 - s.toAct

	switch action.Type {
	case game.Fold:
		return b.terminal(&next, FoldEnd, int8(1-s.toAct))

	case game.Call:
		next.committed[s.toAct] += action.Amount
		if s.street == game.Preflop && s.numActions == 0 {
			return b.walk(&next) // open limp keeps the street alive
		}
		return b.terminal(&next, ShowdownEnd, 0)

	case game.Check:
		if s.numActions > 0 {
			return b.terminal(&next, ShowdownEnd, 0)
		}
		return b.walk(&next)

	default: // Bet, Raise
		next.committed[s.toAct] += action.Amount
		next.numRaises = s.numRaises + 1
		return b.walk(&next)
	}
}

func (b *builder) terminal(s *bettingState, kind TerminalKind, winner int8) int32 {
	idx := int32(len(b.skeleton.Nodes))
	b.skeleton.Nodes = append(b.skeleton.Nodes, SkelNode{
		Kind:         Terminal,
		History:      s.history,
		Committed:    s.committed,
		TerminalKind: kind,
		Winner:       winner,
	})
	return idx
}

// collectDeals lists the bucket pairs with positive deal probability, in
// deterministic row-major order.
func collectDeals(abs *abstraction.Abstraction) []Deal {
	var deals []Deal
	for b0, row := range abs.DealWeights {
		for b1, w := range row {
			if w > 0 {
				deals = append(deals, Deal{B0: int32(b0), B1: int32(b1), Weight: w})
			}
		}
	}
	return deals
}

// stamp expands the skeleton into the dense arena: a root chance node over
// the deals, then one copy of the skeleton per deal with information set
// ids resolved against the dealt buckets and terminal payoffs resolved
// against the showdown equity matrix.
func (b *builder) stamp(t *Tree) {
	skelSize := int32(len(b.skeleton.Nodes))
	numDeals := int32(len(t.Deals))

	// Root chance node. Deal subtree d occupies the index range
	// [1 + d*skelSize, 1 + (d+1)*skelSize).
	t.Nodes = append(t.Nodes, Node{
		Kind:        Chance,
		Player:      -1,
		NumChildren: numDeals,
		ChildStart:  0,
		WeightAt:    0,
	})
	for d := int32(0); d < numDeals; d++ {
		t.Children = append(t.Children, 1+d*skelSize)
		t.ChanceWeights = append(t.ChanceWeights, t.Deals[d].Weight)
	}

	for d := int32(0); d < numDeals; d++ {
		deal := t.Deals[d]
		offset := 1 + d*skelSize
		buckets := [game.NumSeats]int32{deal.B0, deal.B1}

		for si := int32(0); si < skelSize; si++ {
			sn := &b.skeleton.Nodes[si]
			switch sn.Kind {
			case Decision:
				childStart := int32(len(t.Children))
				for _, child := range sn.Children {
					t.Children = append(t.Children, offset+child)
				}
				t.Nodes = append(t.Nodes, Node{
					Kind:        Decision,
					Player:      sn.Player,
					NumChildren: int32(len(sn.Children)),
					ChildStart:  childStart,
					InfoSet:     sn.InfoSetBase + buckets[sn.Player],
				})

			case Terminal:
				payoffAt := int32(len(t.Payoffs))
				p0, p1 := terminalPayoffs(sn, b.abs, deal)
				t.Payoffs = append(t.Payoffs, p0, p1)
				t.Nodes = append(t.Nodes, Node{
					Kind:     Terminal,
					Player:   -1,
					PayoffAt: payoffAt,
				})
			}
		}
	}
}

// terminalPayoffs computes the zero-sum payoff vector for one terminal
// under one deal, measured in net chips from the start of the hand.
func terminalPayoffs(sn *SkelNode, abs *abstraction.Abstraction, deal Deal) (float64, float64) {
	if sn.TerminalKind == FoldEnd {
		loser := 1 - sn.Winner
		amount := sn.Committed[loser]
		if sn.Winner == 0 {
			return amount, -amount
		}
		return -amount, amount
	}

	pot := sn.Pot()
	eq := abs.ShowdownEquity[deal.B0][deal.B1]
	return eq*pot - sn.Committed[0], (1-eq)*pot - sn.Committed[1]
}

// checkConservation verifies the chip conservation invariant: every
// terminal payoff vector sums to zero (no chips created or destroyed).
func (t *Tree) checkConservation() error {
	for i := range t.Nodes {
		if t.Nodes[i].Kind != Terminal {
			continue
		}
		p := t.Payoff(int32(i))
		if sum := p[0] + p[1]; math.Abs(sum) > conservationTol {
			return errors.Errorf("terminal %d violates chip conservation: payoffs %v sum to %v", i, p, sum)
		}
	}
	return nil
}
