package tree

import (
	"fmt"
	"math"
	"sort"

	"github.com/phil-mansfield/hotree/geom"
	"github.com/phil-mansfield/hotree/morton"
	"gonum.org/v1/gonum/spatial/r3"
)

// Parent returns the parent of the node with key k.
func (t *Tree) Parent(k morton.Key) (*Node, bool) {
	if k == morton.Root || morton.Depth(k) < 0 {
		return nil, false
	}
	return t.Lookup(morton.ParentKey(k))
}

// Child returns the child of the node with key k in octant oct.
func (t *Tree) Child(k morton.Key, oct int) (*Node, bool) {
	n, ok := t.Lookup(k)
	if !ok || !n.HasChild(oct) {
		return nil, false
	}
	return t.Lookup(morton.ChildKey(k, oct))
}

// Depth returns the depth of the deepest node in the tree, or -1 if the tree
// is empty.
func (t *Tree) Depth() int {
	depth := -1
	for k := range t.nodes {
		if d := morton.Depth(k); d > depth {
			depth = d
		}
	}
	return depth
}

// LeafFor returns the key of the deepest node whose cube contains x, found
// by descending octant by octant from the root. ok is false if x is outside
// the root.
func (t *Tree) LeafFor(x r3.Vec) (k morton.Key, ok bool) {
	n, ok := t.Root()
	if !ok || !n.Contains(x) {
		return 0, false
	}

	for {
		oct := geom.DetermineOctant(n.Center, x)
		c, ok := t.Child(n.Key, oct)
		if !ok {
			return n.Key, true
		}
		n = c
	}
}

// PathTo returns the octants visited when descending from the root to
// LeafFor(x). It is nil if x is outside the root.
func (t *Tree) PathTo(x r3.Vec) []int {
	k, ok := t.LeafFor(x)
	if !ok {
		return nil
	}

	path := make([]int, morton.Depth(k))
	for i := len(path) - 1; i >= 0; i-- {
		path[i] = morton.OctantOf(k)
		k = morton.ParentKey(k)
	}
	return path
}

// Walk calls fn on every node reachable from the root, parents before
// children and children in octant order. Walk stops descending below a node
// if fn returns false for it.
func (t *Tree) Walk(fn func(n *Node) bool) {
	if _, ok := t.Root(); ok {
		t.walk(morton.Root, fn)
	}
}

func (t *Tree) walk(k morton.Key, fn func(n *Node) bool) {
	n, _ := t.Lookup(k)
	if !fn(n) {
		return
	}
	for oct := 0; oct < 8; oct++ {
		if n.HasChild(oct) {
			t.walk(morton.ChildKey(k, oct), fn)
		}
	}
}

// Keys returns the key of every node in ascending order.
func (t *Tree) Keys() []morton.Key {
	keys := make([]morton.Key, 0, len(t.nodes))
	for k := range t.nodes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// NodeBounds returns the bounding cube of every node in Walk order.
func (t *Tree) NodeBounds() []geom.Cube {
	cubes := make([]geom.Cube, 0, len(t.nodes))
	t.Walk(func(n *Node) bool {
		cubes = append(cubes, n.Cube())
		return true
	})
	return cubes
}

// NodeBoundsTo returns the bounding cube of every node no deeper than
// maxDepth.
func (t *Tree) NodeBoundsTo(maxDepth int) []geom.Cube {
	cubes := []geom.Cube{}
	t.Walk(func(n *Node) bool {
		cubes = append(cubes, n.Cube())
		return n.Depth() < maxDepth
	})
	return cubes
}

// Validate checks the structural invariants of an aggregated tree and
// returns an error describing the first violation found.
func (t *Tree) Validate() error {
	if len(t.nodes) == 0 {
		return nil
	}
	if _, ok := t.Root(); !ok {
		return fmt.Errorf("Tree has %d nodes but no root.", len(t.nodes))
	}
	pad := 1e-9 * t.bounds.HalfWidth

	for k, n := range t.nodes {
		switch {
		case n.Key != k:
			return fmt.Errorf("Node stored under %#x has key %#x.",
				uint64(k), uint64(n.Key))
		case !morton.Valid(k):
			return fmt.Errorf("Node key %#x is malformed.", uint64(k))
		case n.N <= 0:
			return fmt.Errorf("Node %#x has N = %d.", uint64(k), n.N)
		case n.IsLeaf() && n.N > 1 && n.Depth() < morton.MaxDepth:
			return fmt.Errorf("Leaf %#x at depth %d has N = %d.",
				uint64(k), n.Depth(), n.N)
		case n.IsLeaf() && n.Quad != [6]float64{}:
			return fmt.Errorf("Leaf %#x has a non-zero quadrupole.", uint64(k))
		}

		if k != morton.Root {
			p, ok := t.Parent(k)
			if !ok {
				return fmt.Errorf("Node %#x has no parent.", uint64(k))
			} else if !p.HasChild(morton.OctantOf(k)) {
				return fmt.Errorf("Parent of %#x does not mark it as a child.",
					uint64(k))
			} else if !closeTo(n.Size, p.Size/2) {
				return fmt.Errorf("Node %#x has size %g, but its parent has "+
					"size %g.", uint64(k), n.Size, p.Size)
			}
		}

		if n.IsLeaf() {
			if !grown(n.Cube(), pad).Contains(n.Barycenter) {
				return fmt.Errorf("Leaf %#x with cube %v does not contain its "+
					"barycenter %v.", uint64(k), n.Cube(), n.Barycenter)
			}
			continue
		}

		count, mass := 0, 0.0
		for oct := 0; oct < 8; oct++ {
			if !n.HasChild(oct) {
				continue
			}
			c, ok := t.Lookup(morton.ChildKey(k, oct))
			if !ok {
				return fmt.Errorf("Node %#x marks missing child %d.",
					uint64(k), oct)
			}
			count += c.N
			mass += c.Mass
		}
		if count != n.N {
			return fmt.Errorf("Node %#x has N = %d, but its children hold %d.",
				uint64(k), n.N, count)
		} else if !closeTo(mass, n.Mass) {
			return fmt.Errorf("Node %#x has mass %g, but its children hold %g.",
				uint64(k), n.Mass, mass)
		}
	}

	count := 0
	t.Walk(func(*Node) bool { count++; return true })
	if count != len(t.nodes) {
		return fmt.Errorf("Only %d of %d nodes are reachable from the root.",
			count, len(t.nodes))
	}

	return nil
}

func closeTo(x, y float64) bool {
	return math.Abs(x-y) <= 1e-9*math.Max(math.Abs(x), math.Abs(y))
}

// grown returns c with pad added to each face.
func grown(c geom.Cube, pad float64) geom.Cube {
	c.Width += 2 * pad
	return c
}
