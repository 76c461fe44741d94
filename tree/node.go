package tree

import (
	"math"

	"github.com/phil-mansfield/hotree/geom"
	"github.com/phil-mansfield/hotree/morton"
	"gonum.org/v1/gonum/spatial/r3"
)

// Indices into Node.Quad.
const (
	Qxx = iota
	Qxy
	Qxz
	Qyy
	Qyz
	Qzz
)

// Node is a single cube of the octree. Nodes refer to each other only
// through keys.
type Node struct {
	Key    morton.Key
	Center r3.Vec
	// Size is the edge length of the node's cube.
	Size float64
	// Bit i of ChildMask is set if the child in octant i exists.
	ChildMask uint8

	// N is the number of bodies contained in the node.
	N          int
	Mass       float64
	Barycenter r3.Vec
	// Quad is the upper triangle of the traceless quadrupole tensor about
	// Barycenter, ordered Qxx, Qxy, Qxz, Qyy, Qyz, Qzz.
	Quad [6]float64
}

// InitRoot sets n to the empty root node covering b.
func (n *Node) InitRoot(b *geom.Bounds) {
	n.Reset()
	n.Key = morton.Root
	n.Center = b.Center
	n.Size = 2 * b.HalfWidth
}

// InitChild sets n to the child of parent in octant oct which holds a single
// body at x with mass m. The parent is not modified.
func (n *Node) InitChild(parent *Node, oct int, x r3.Vec, m float64) {
	n.Reset()
	n.Key = morton.ChildKey(parent.Key, oct)
	n.Size = parent.Size / 2
	n.Center = r3.Add(parent.Center, r3.Scale(n.Size/2, geom.OctantDir(oct)))
	n.N = 1
	n.Mass = m
	n.Barycenter = x
}

// Reset returns n to the canonical empty state.
func (n *Node) Reset() { *n = Node{} }

// Contains returns true if x lies inside the node's closed cube.
func (n *Node) Contains(x r3.Vec) bool {
	h := n.Size / 2
	return math.Abs(x.X-n.Center.X) <= h &&
		math.Abs(x.Y-n.Center.Y) <= h &&
		math.Abs(x.Z-n.Center.Z) <= h
}

// HasChild returns true if n has a child in octant oct.
func (n *Node) HasChild(oct int) bool { return n.ChildMask&(1<<uint(oct)) != 0 }

// IsLeaf returns true if n has no children.
func (n *Node) IsLeaf() bool { return n.ChildMask == 0 }

// Cube returns the node's bounding cube.
func (n *Node) Cube() geom.Cube { return geom.Cube{Center: n.Center, Width: n.Size} }

// Depth returns the depth of the node below the root.
func (n *Node) Depth() int { return morton.Depth(n.Key) }

func (n *Node) setChild(oct int)   { n.ChildMask |= 1 << uint(oct) }
func (n *Node) unsetChild(oct int) { n.ChildMask &^= 1 << uint(oct) }

// addBody admits one more body into the node's running totals.
func (n *Node) addBody(x r3.Vec, m float64) {
	total := n.Mass + m
	if total > 0 {
		n.Barycenter = r3.Scale(1/total,
			r3.Add(r3.Scale(n.Mass, n.Barycenter), r3.Scale(m, x)))
	} else {
		n.Barycenter = r3.Scale(1/float64(n.N+1),
			r3.Add(r3.Scale(float64(n.N), n.Barycenter), x))
	}
	n.N++
	n.Mass = total
}

// addQuad adds the quadrupole contribution of a point mass m at offset d
// from the node's barycenter: m (3 d d^T - |d|^2 I).
func (n *Node) addQuad(d r3.Vec, m float64) {
	d2 := r3.Norm2(d)
	n.Quad[Qxx] += m * (3*d.X*d.X - d2)
	n.Quad[Qxy] += m * 3 * d.X * d.Y
	n.Quad[Qxz] += m * 3 * d.X * d.Z
	n.Quad[Qyy] += m * (3*d.Y*d.Y - d2)
	n.Quad[Qyz] += m * 3 * d.Y * d.Z
	n.Quad[Qzz] += m * (3*d.Z*d.Z - d2)
}

// QuadTimes returns Q d.
func (n *Node) QuadTimes(d r3.Vec) r3.Vec {
	q := &n.Quad
	return r3.Vec{
		X: q[Qxx]*d.X + q[Qxy]*d.Y + q[Qxz]*d.Z,
		Y: q[Qxy]*d.X + q[Qyy]*d.Y + q[Qyz]*d.Z,
		Z: q[Qxz]*d.X + q[Qyz]*d.Y + q[Qzz]*d.Z,
	}
}
