// Package tree builds the extensive-form game tree for an abstracted
// betting subgame. Nodes live in a dense arena and are addressed by integer
// index; decision nodes map many-to-one onto information sets through a
// dense index table, so the tree stays an acyclic arena with no pointers
// between nodes.
package tree

import (
	"fmt"

	"github.com/cfrlab/gto/abstraction"
	"github.com/cfrlab/gto/game"
)

// NodeKind tags the closed set of node variants.
type NodeKind uint8

const (
	Chance NodeKind = iota
	Decision
	Terminal
)

func (k NodeKind) String() string {
	switch k {
	case Chance:
		return "chance"
	case Decision:
		return "decision"
	default:
		return "terminal"
	}
}

// Node is one arena slot. Which fields are meaningful depends on Kind:
// chance nodes have weighted children, decision nodes have an acting player
// and an information set, terminal nodes have a payoff vector. Children and
// payoffs are stored in shared arenas and referenced by offset.
type Node struct {
	Kind        NodeKind
	Player      int8
	NumChildren int32
	// ChildStart indexes into Tree.Children.
	ChildStart int32
	// InfoSet is the dense information set id (decision nodes).
	InfoSet int32
	// PayoffAt indexes into Tree.Payoffs with stride NumSeats (terminals).
	PayoffAt int32
	// WeightAt indexes into Tree.ChanceWeights (chance nodes).
	WeightAt int32
}

// InfoSet describes one information set: the acting player's view of a
// decision point, identified by (player, hand bucket, betting history).
type InfoSet struct {
	Player  int8
	Bucket  int32
	History string
	Street  game.Street
	Actions []game.Action
}

// Key returns a stable human-readable identifier for the information set.
func (is InfoSet) Key() string {
	return fmt.Sprintf("%s|%s|p%d|h%d", is.Street, is.History, is.Player, is.Bucket)
}

// Deal is one weighted chance outcome at the root: the pair of hand buckets
// dealt to the seats.
type Deal struct {
	B0, B1 int32
	Weight float64
}

// Tree is the dense extensive-form tree for one solve. Root is node 0, a
// chance node with one child per Deal. All slices are append-only after
// Build returns; traversal never mutates the tree.
type Tree struct {
	Nodes         []Node
	Children      []int32
	Payoffs       []float64 // stride game.NumSeats
	ChanceWeights []float64

	InfoSets []InfoSet
	Deals    []Deal

	// Skeleton is the betting-history shape shared by every deal,
	// retained for best-response sweeps over the public tree.
	Skeleton *Skeleton
	Abs      *abstraction.Abstraction
	Desc     *game.Description
}

// Root returns the root node index.
func (t *Tree) Root() int32 { return 0 }

// Child returns the ith child of node n.
func (t *Tree) Child(n int32, i int32) int32 {
	return t.Children[t.Nodes[n].ChildStart+i]
}

// ChanceWeight returns the probability of the ith outcome of chance node n.
func (t *Tree) ChanceWeight(n int32, i int32) float64 {
	return t.ChanceWeights[t.Nodes[n].WeightAt+int32(i)]
}

// Payoff returns the payoff vector of terminal node n. The returned slice
// aliases the arena and must not be mutated.
func (t *Tree) Payoff(n int32) []float64 {
	off := t.Nodes[n].PayoffAt
	return t.Payoffs[off : off+game.NumSeats]
}

// NumNodes returns the arena size.
func (t *Tree) NumNodes() int { return len(t.Nodes) }

// NumInfoSets returns the number of distinct information sets.
func (t *Tree) NumInfoSets() int { return len(t.InfoSets) }

// TerminalKind distinguishes how a betting line ended.
type TerminalKind uint8

const (
	FoldEnd TerminalKind = iota
	ShowdownEnd
)

// Skeleton is the public betting tree: the part of the game every deal
// shares. Index 0 is the root betting state.
type Skeleton struct {
	Nodes []SkelNode
}

// SkelNode is one betting state in the public tree.
type SkelNode struct {
	Kind     NodeKind // Decision or Terminal
	Player   int8
	Actions  []game.Action
	Children []int32 // skeleton indices, parallel to Actions
	History  string

	// Committed is each seat's total chips in the pot at this state,
	// blinds included.
	Committed [game.NumSeats]float64

	// Terminal bookkeeping.
	TerminalKind TerminalKind
	Winner       int8 // fold terminals: the seat collecting the pot

	// InfoSetBase is the information set id of this decision for bucket
	// 0 of the acting player; bucket b maps to InfoSetBase + b.
	InfoSetBase int32
}

// Pot returns the total chips in the middle at this state.
func (s *SkelNode) Pot() float64 {
	return s.Committed[0] + s.Committed[1]
}
