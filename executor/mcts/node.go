package mcts

import (
	"github.com/brensch/connect4/game"
)

// NodeID addresses a node in a Tree. The root is always 0.
type NodeID int32

const noNode NodeID = -1

// Node is a position in the search tree. Mover is the side whose drop
// produced Board; the side to play at this node is Mover.Opponent().
type Node struct {
	Board    game.Board
	Mover    game.Player
	Move     int
	Parent   NodeID
	Children []NodeID

	VisitCount int
	WinCount   int

	// Winner is set when Move completed four in a row.
	Winner   game.Player
	Terminal bool
}

// Tree is an arena of nodes. Children are owned by their parent through the
// Children slice; Parent is a plain index used only while backpropagating.
// Reset keeps the backing array so repeated searches reuse it.
type Tree struct {
	nodes []Node
}

func (t *Tree) Reset() {
	for i := range t.nodes {
		t.nodes[i].Children = nil
	}
	t.nodes = t.nodes[:0]
}

func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) Node(id NodeID) *Node { return &t.nodes[id] }

func (t *Tree) add(n Node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}
