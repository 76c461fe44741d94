/*package tree implements a hashed octree. Nodes are stored in a map from
morton key to node and all navigation is done with key arithmetic followed by
a lookup, so a *Node returned by a Tree must not be kept across any call that
mutates the tree.

A tree is built from scratch every step with Build, which inserts each body
from the root, prunes empty nodes, and aggregates mass moments from the
leaves up. After Build returns the tree is read-only and may be traversed by
any number of goroutines.
*/
package tree

import (
	"fmt"

	"github.com/phil-mansfield/hotree/body"
	"github.com/phil-mansfield/hotree/geom"
	"github.com/phil-mansfield/hotree/morton"
	"gonum.org/v1/gonum/spatial/r3"
)

// Tree is a hashed octree. The tree owns every node in its map and returns
// each one to its pool when the node is removed.
type Tree struct {
	nodes  map[morton.Key]*Node
	pool   *NodePool
	bounds geom.Bounds
}

// New returns an empty tree which draws nodes from pool. A nil pool is
// replaced by a new one of DefaultPoolSize.
func New(pool *NodePool) *Tree {
	if pool == nil {
		pool = NewNodePool(DefaultPoolSize)
	}
	return &Tree{nodes: make(map[morton.Key]*Node), pool: pool}
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Pool returns the pool the tree draws nodes from.
func (t *Tree) Pool() *NodePool { return t.pool }

// Bounds returns the bounds of the root node.
func (t *Tree) Bounds() geom.Bounds { return t.bounds }

// Lookup returns the node with key k. ok is false if no such node exists.
func (t *Tree) Lookup(k morton.Key) (n *Node, ok bool) {
	n, ok = t.nodes[k]
	return n, ok
}

// Root returns the root node.
func (t *Tree) Root() (*Node, bool) { return t.Lookup(morton.Root) }

// store installs n under its key. Any node previously stored under that key
// is released to the pool.
func (t *Tree) store(n *Node) {
	if old, ok := t.nodes[n.Key]; ok && old != n {
		t.pool.Put(old)
	}
	t.nodes[n.Key] = n
}

// remove deletes the node with key k and releases it to the pool.
func (t *Tree) remove(k morton.Key) {
	if n, ok := t.nodes[k]; ok {
		delete(t.nodes, k)
		t.pool.Put(n)
	}
}

// Clear removes every node from the tree.
func (t *Tree) Clear() {
	for k, n := range t.nodes {
		delete(t.nodes, k)
		t.pool.Put(n)
	}
}

// Reset clears the tree and installs an empty root covering b.
func (t *Tree) Reset(b *geom.Bounds) error {
	if !(b.HalfWidth > 0) {
		return fmt.Errorf("Tree bounds must have a positive half-width, "+
			"but have %g.", b.HalfWidth)
	}

	t.Clear()
	t.bounds = *b
	root := t.pool.Get()
	root.InitRoot(b)
	t.store(root)
	return nil
}

// Build replaces the contents of the tree with bodies inside the cube b,
// then prunes and aggregates it. Bodies are inserted in slice order, so
// sorting them by key first keeps insertions local.
func (t *Tree) Build(bodies []body.Body, b *geom.Bounds) error {
	if err := t.Reset(b); err != nil {
		return err
	}

	for i := range bodies {
		if err := t.Insert(bodies[i].X, bodies[i].Mass); err != nil {
			return fmt.Errorf("Could not insert body %d: %s", i, err.Error())
		}
	}

	t.Prune()
	t.Aggregate()
	return nil
}

// Insert adds a body at x with mass m, starting from the root.
//
// A node holding no bodies takes the body directly. A node holding exactly
// one body first pushes that body down into a new child, then behaves like
// a node holding several: its count and mass grow and the body continues
// into the child for its octant, which is created if missing. Nodes at
// morton.MaxDepth cannot be split and absorb any further bodies.
func (t *Tree) Insert(x r3.Vec, m float64) error {
	root, ok := t.Root()
	if !ok {
		return fmt.Errorf("Tree has no root.")
	} else if !root.Contains(x) {
		return fmt.Errorf("Position %v is outside the root cube %v.",
			x, root.Cube())
	}

	key := morton.Root
	for {
		n, ok := t.Lookup(key)
		if !ok {
			panic(fmt.Sprintf("Key %#x is referenced but not stored.",
				uint64(key)))
		}

		if n.N == 0 {
			n.N, n.Mass, n.Barycenter = 1, m, x
			return nil
		}

		if n.Depth() >= morton.MaxDepth {
			n.addBody(x, m)
			return nil
		}

		if n.N == 1 && n.IsLeaf() {
			oct := geom.DetermineOctant(n.Center, n.Barycenter)
			child := t.pool.Get()
			child.InitChild(n, oct, n.Barycenter, n.Mass)
			n.setChild(oct)
			t.store(child)

			if n, ok = t.Lookup(key); !ok {
				panic(fmt.Sprintf("Node %#x vanished while splitting.",
					uint64(key)))
			}
		}

		n.addBody(x, m)
		oct := geom.DetermineOctant(n.Center, x)
		if n.HasChild(oct) {
			key = morton.ChildKey(key, oct)
			continue
		}

		child := t.pool.Get()
		child.InitChild(n, oct, x, m)
		n.setChild(oct)
		t.store(child)
		return nil
	}
}

// Prune removes every node with no bodies and no children, clearing the
// child bit in its parent. It returns the number of nodes removed.
func (t *Tree) Prune() int {
	if _, ok := t.Root(); !ok {
		return 0
	}
	return t.prune(morton.Root)
}

func (t *Tree) prune(k morton.Key) int {
	n, _ := t.Lookup(k)
	removed := 0
	for oct := 0; oct < 8; oct++ {
		if !n.HasChild(oct) {
			continue
		}
		ck := morton.ChildKey(k, oct)
		if _, ok := t.Lookup(ck); !ok {
			n.unsetChild(oct)
			continue
		}
		removed += t.prune(ck)
		if _, ok := t.Lookup(ck); !ok {
			n.unsetChild(oct)
		}
	}

	if n.N == 0 && n.IsLeaf() {
		t.remove(k)
		removed++
	}
	return removed
}

// Aggregate recomputes the count, mass, barycenter, and quadrupole of every
// internal node from its children, deepest nodes first.
func (t *Tree) Aggregate() {
	if _, ok := t.Root(); ok {
		t.aggregate(morton.Root)
	}
}

func (t *Tree) aggregate(k morton.Key) {
	n, _ := t.Lookup(k)
	if n.IsLeaf() {
		return
	}

	n.N, n.Mass = 0, 0
	sum := r3.Vec{}
	unweighted := r3.Vec{}
	for oct := 0; oct < 8; oct++ {
		if !n.HasChild(oct) {
			continue
		}
		ck := morton.ChildKey(k, oct)
		t.aggregate(ck)
		c, _ := t.Lookup(ck)

		n.N += c.N
		n.Mass += c.Mass
		sum = r3.Add(sum, r3.Scale(c.Mass, c.Barycenter))
		unweighted = r3.Add(unweighted, r3.Scale(float64(c.N), c.Barycenter))
	}

	if n.Mass > 0 {
		n.Barycenter = r3.Scale(1/n.Mass, sum)
	} else {
		n.Barycenter = r3.Scale(1/float64(n.N), unweighted)
	}

	n.Quad = [6]float64{}
	for oct := 0; oct < 8; oct++ {
		if !n.HasChild(oct) {
			continue
		}
		c, _ := t.Lookup(morton.ChildKey(k, oct))
		n.addQuad(r3.Sub(c.Barycenter, n.Barycenter), c.Mass)
		if c.N > 1 {
			for i := range n.Quad {
				n.Quad[i] += c.Quad[i]
			}
		}
	}
}
