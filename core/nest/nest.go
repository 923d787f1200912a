// Package nest defines the static decision tree of the transport choice
// model: mode groups nest vehicle types, vehicle types nest technologies.
// Topology and exponents are fixed for the life of a run.
package nest

import (
	"fmt"
	"sort"

	"github.com/MariannaR/edgeTransport/core/model"
)

// Node is one decision point in the tree. Leaves carry the vehicle
// type / technology pair they stand for; internal nodes carry the logit
// exponent governing substitution among their children.
type Node struct {
	Key         string
	Parent      string // empty for the root
	Level       int
	Exponent    float64 // substitution sharpness, > 0; smaller = more substitutable
	VehicleType string  // leaves only
	Technology  string  // leaves only
}

// IsLeaf reports whether the node maps to a concrete alternative.
func (n Node) IsLeaf() bool { return n.VehicleType != "" }

// Leaf returns the alternative this leaf stands for.
func (n Node) Leaf() model.Leaf {
	return model.Leaf{VehicleType: n.VehicleType, Technology: n.Technology}
}

// Tree is a validated, immutable nest topology for one sector.
type Tree struct {
	Sector    string
	Passenger bool // value-of-time surcharges apply to leaves

	nodes    map[string]Node
	children map[string][]string // child keys, sorted
	root     string
	levels   [][]string // keys grouped by depth, root first, sorted within level
}

// New validates the node set and builds the tree. It requires exactly one
// root, positive exponents on internal nodes, acyclic parent links, and a
// vehicle type / technology pair on every leaf.
func New(sector string, passenger bool, nodes []Node) (*Tree, error) {
	t := &Tree{
		Sector:    sector,
		Passenger: passenger,
		nodes:     make(map[string]Node, len(nodes)),
		children:  make(map[string][]string),
	}
	for _, n := range nodes {
		if n.Key == "" {
			return nil, fmt.Errorf("nest %s: node with empty key", sector)
		}
		if _, dup := t.nodes[n.Key]; dup {
			return nil, fmt.Errorf("nest %s: duplicate node %s", sector, n.Key)
		}
		t.nodes[n.Key] = n
		if n.Parent == "" {
			if t.root != "" {
				return nil, fmt.Errorf("nest %s: two roots %s and %s", sector, t.root, n.Key)
			}
			t.root = n.Key
		} else {
			t.children[n.Parent] = append(t.children[n.Parent], n.Key)
		}
	}
	if t.root == "" {
		return nil, fmt.Errorf("nest %s: no root node", sector)
	}
	for _, n := range t.nodes {
		if n.Parent != "" {
			if _, ok := t.nodes[n.Parent]; !ok {
				return nil, fmt.Errorf("nest %s: node %s references missing parent %s", sector, n.Key, n.Parent)
			}
		}
		if len(t.children[n.Key]) == 0 {
			if !n.IsLeaf() {
				return nil, fmt.Errorf("nest %s: childless node %s lacks a vehicle type/technology", sector, n.Key)
			}
		} else {
			if n.IsLeaf() {
				return nil, fmt.Errorf("nest %s: leaf %s has children", sector, n.Key)
			}
			if n.Exponent <= 0 {
				return nil, fmt.Errorf("nest %s: node %s exponent must be positive, got %g", sector, n.Key, n.Exponent)
			}
		}
	}
	for key := range t.children {
		sort.Strings(t.children[key])
	}
	if err := t.buildLevels(); err != nil {
		return nil, err
	}
	return t, nil
}

// buildLevels walks from the root and groups reachable keys by depth.
// A node the walk never reaches means the parent links contain a cycle
// or a disconnected island.
func (t *Tree) buildLevels() error {
	seen := make(map[string]bool, len(t.nodes))
	frontier := []string{t.root}
	for len(frontier) > 0 {
		sort.Strings(frontier)
		t.levels = append(t.levels, frontier)
		var next []string
		for _, key := range frontier {
			seen[key] = true
			next = append(next, t.children[key]...)
		}
		for _, key := range next {
			if seen[key] {
				return fmt.Errorf("nest %s: cycle through node %s", t.Sector, key)
			}
		}
		frontier = next
	}
	if len(seen) != len(t.nodes) {
		return fmt.Errorf("nest %s: %d nodes unreachable from root %s", t.Sector, len(t.nodes)-len(seen), t.root)
	}
	return nil
}

// Root returns the root node.
func (t *Tree) Root() Node { return t.nodes[t.root] }

// Node returns the node with the given key.
func (t *Tree) Node(key string) (Node, bool) {
	n, ok := t.nodes[key]
	return n, ok
}

// Children returns the children of a node in deterministic key order.
func (t *Tree) Children(key string) []Node {
	keys := t.children[key]
	out := make([]Node, len(keys))
	for i, k := range keys {
		out[i] = t.nodes[k]
	}
	return out
}

// Leaves returns all leaf nodes in deterministic key order.
func (t *Tree) Leaves() []Node {
	var out []Node
	for _, level := range t.levels {
		for _, key := range level {
			if n := t.nodes[key]; n.IsLeaf() {
				out = append(out, n)
			}
		}
	}
	return out
}

// BottomUp returns node keys grouped by depth, deepest level first.
// Iterating the groups in order visits every child before its parent.
func (t *Tree) BottomUp() [][]string {
	out := make([][]string, len(t.levels))
	for i := range t.levels {
		out[i] = t.levels[len(t.levels)-1-i]
	}
	return out
}

// TopDown returns node keys grouped by depth, root first.
func (t *Tree) TopDown() [][]string { return t.levels }

// LeavesUnder returns the leaves of the subtree rooted at key, in
// deterministic order.
func (t *Tree) LeavesUnder(key string) []Node {
	n, ok := t.nodes[key]
	if !ok {
		return nil
	}
	if n.IsLeaf() {
		return []Node{n}
	}
	var out []Node
	for _, c := range t.Children(key) {
		out = append(out, t.LeavesUnder(c.Key)...)
	}
	return out
}
