/*package force computes gravitational accelerations from a built hashed
octree using the Barnes-Hut approximation with quadrupole corrections.

Accelerations are in units where G = 1.
*/
package force

import (
	"fmt"

	"github.com/phil-mansfield/hotree/morton"
	"github.com/phil-mansfield/hotree/tree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Accept returns true if n is far enough from x to be treated as a single
// multipole: 4 s^2 < theta^2 d^2, where s is the node's edge length and d is
// the distance from x to the node's barycenter.
func Accept(n *tree.Node, x r3.Vec, theta float64) bool {
	d2 := r3.Norm2(r3.Sub(n.Barycenter, x))
	return 4*n.Size*n.Size < theta*theta*d2
}

// Workspace holds the scratch stacks for one goroutine's tree walks. A
// Workspace must not be shared between goroutines.
type Workspace struct {
	walk, interact []morton.Key
}

// NewWorkspace returns a Workspace which can walk trees of up to n nodes.
func NewWorkspace(n int) *Workspace {
	w := &Workspace{}
	w.Reserve(n)
	return w
}

// Reserve ensures the workspace can walk a tree of n nodes. Each node is
// pushed at most once onto either stack during a walk, so n is an upper
// bound on both.
func (w *Workspace) Reserve(n int) {
	if cap(w.walk) < n {
		w.walk = make([]morton.Key, 0, n)
		w.interact = make([]morton.Key, 0, n)
	}
}

func (w *Workspace) pushWalk(k morton.Key) {
	if len(w.walk) == cap(w.walk) {
		panic(fmt.Sprintf("Walk stack overflowed its capacity of %d.",
			cap(w.walk)))
	}
	w.walk = append(w.walk, k)
}

func (w *Workspace) pushInteract(k morton.Key) {
	if len(w.interact) == cap(w.interact) {
		panic(fmt.Sprintf("Interaction list overflowed its capacity of %d.",
			cap(w.interact)))
	}
	w.interact = append(w.interact, k)
}

// InteractionList returns the keys of the nodes whose fields sum to the
// acceleration at x. Leaves with barycenters equal to x are skipped, which
// excludes a body's interaction with itself and with any body at exactly
// the same position. The returned slice is owned by w and is overwritten by
// the next call.
func (w *Workspace) InteractionList(
	t *tree.Tree, x r3.Vec, theta float64,
) []morton.Key {
	w.Reserve(t.Len())
	w.walk = w.walk[:0]
	w.interact = w.interact[:0]

	if _, ok := t.Root(); !ok {
		return w.interact
	}
	w.pushWalk(morton.Root)

	for len(w.walk) > 0 {
		k := w.walk[len(w.walk)-1]
		w.walk = w.walk[:len(w.walk)-1]
		n, ok := t.Lookup(k)
		if !ok {
			panic(fmt.Sprintf("Walk reached missing node %#x.", uint64(k)))
		}

		if n.IsLeaf() {
			if n.Barycenter != x {
				w.pushInteract(k)
			}
			continue
		}

		for oct := 0; oct < 8; oct++ {
			if !n.HasChild(oct) {
				continue
			}
			ck := morton.ChildKey(k, oct)
			c, ok := t.Lookup(ck)
			if !ok {
				panic(fmt.Sprintf("Node %#x marks missing child %d.",
					uint64(k), oct))
			}

			if Accept(c, x, theta) {
				w.pushInteract(ck)
			} else {
				w.pushWalk(ck)
			}
		}
	}

	return w.interact
}
