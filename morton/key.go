/*package morton encodes positions within a cubic domain into 63-bit Z-order
keys and sorts those keys.

A Key interleaves three 21-bit integer coordinates with x in the most
significant position of every 3-bit group, followed by z in the least. A marker
bit sits above the highest group, so the key of the root of an octree is 1 and
every level of refinement appends three bits:

    child  = parent<<3 | octant
    parent = child>>3

A full-depth key (depth 21) always has bit 63 set.
*/
package morton

import (
	"fmt"
	"math"
	"math/bits"

	"gonum.org/v1/gonum/spatial/r3"
)

// Key is a Morton key. Keys are only comparable if they were computed using
// the same domain.
type Key uint64

const (
	// Bits is the number of bits used for each dimension.
	Bits = 21
	// Cells is the number of grid cells along one side of the domain.
	Cells = 1 << Bits
	// MaxDepth is the depth of a full-resolution key.
	MaxDepth = Bits

	// Root is the key of the root of every tree.
	Root Key = 1

	marker Key = 1 << (3 * Bits)
	maxCell    = Cells - 1
)

// Masks for the magic-bits swizzle. Stage i spreads the bits of a 21-bit
// integer so that they are separated by 2^(4-i) zeros.
var sepMasks = [5]uint64{
	0x1f00000000ffff,
	0x1f0000ff0000ff,
	0x100f00f00f00f00f,
	0x10c30c30c30c30c3,
	0x1249249249249249,
}

// spread spaces the low 21 bits of x so that each occupies every third bit.
func spread(x uint64) uint64 {
	x &= maxCell
	x = (x | x<<32) & sepMasks[0]
	x = (x | x<<16) & sepMasks[1]
	x = (x | x<<8) & sepMasks[2]
	x = (x | x<<4) & sepMasks[3]
	x = (x | x<<2) & sepMasks[4]
	return x
}

// Interleave combines three integer cell coordinates into a full-depth key.
// Coordinates must be in the range [0, Cells).
func Interleave(ix, iy, iz uint64) Key {
	return marker | Key(spread(ix)<<2|spread(iy)<<1|spread(iz))
}

// Deinterleave splits a key into its three integer cell coordinates. This is
// the inverse of Interleave.
func Deinterleave(k Key) (ix, iy, iz uint64) {
	for i := uint(0); i < Bits; i++ {
		ix |= (uint64(k) >> (3*i + 2) & 1) << i
		iy |= (uint64(k) >> (3*i + 1) & 1) << i
		iz |= (uint64(k) >> (3 * i) & 1) << i
	}
	return ix, iy, iz
}

// quantize converts a rescaled coordinate into a cell index. Values outside
// the domain are clamped to the first or last cell.
func quantize(x float64) uint64 {
	if !(x > 0) {
		return 0
	} else if x >= maxCell {
		return maxCell
	}
	return uint64(x)
}

func checkHalfWidth(halfWidth float64) error {
	if !(halfWidth > 0) || math.IsInf(halfWidth, 0) {
		return fmt.Errorf(
			"Domain half-width must be positive and finite, but is %g.",
			halfWidth,
		)
	}
	return nil
}

// Encode computes the key of a position inside the domain [-halfWidth,
// +halfWidth)^3.
func Encode(x r3.Vec, halfWidth float64) (Key, error) {
	if err := checkHalfWidth(halfWidth); err != nil {
		return 0, err
	}

	scale := Cells / (2 * halfWidth)
	ix := quantize((x.X + halfWidth) * scale)
	iy := quantize((x.Y + halfWidth) * scale)
	iz := quantize((x.Z + halfWidth) * scale)

	return Interleave(ix, iy, iz), nil
}

// Decode returns the position of the lower corner of the grid cell
// represented by a full-depth key. decode(encode(x)) is within one cell width,
// 2*halfWidth / Cells, of x along every axis.
func Decode(k Key, halfWidth float64) (r3.Vec, error) {
	if err := checkHalfWidth(halfWidth); err != nil {
		return r3.Vec{}, err
	}
	if Depth(k) != MaxDepth {
		return r3.Vec{}, fmt.Errorf(
			"Key %#x has depth %d, but only depth %d keys can be decoded.",
			uint64(k), Depth(k), MaxDepth,
		)
	}

	ix, iy, iz := Deinterleave(k)
	width := 2 * halfWidth / Cells
	return r3.Vec{
		X: float64(ix)*width - halfWidth,
		Y: float64(iy)*width - halfWidth,
		Z: float64(iz)*width - halfWidth,
	}, nil
}

// ChildKey returns the key of the child of parent in the given octant.
func ChildKey(parent Key, octant int) Key {
	return parent<<3 | Key(octant&7)
}

// ParentKey returns the key of the node which contains child.
func ParentKey(child Key) Key { return child >> 3 }

// OctantOf returns the octant that k occupies within its parent.
func OctantOf(k Key) int { return int(k & 7) }

// Depth returns the number of levels between k and the root. The invalid key
// 0 has depth -1.
func Depth(k Key) int {
	if k == 0 {
		return -1
	}
	return (bits.Len64(uint64(k)) - 1) / 3
}

// Valid returns true if k has its marker bit at a 3-bit group boundary.
func Valid(k Key) bool {
	return k != 0 && (bits.Len64(uint64(k))-1)%3 == 0
}

// Ancestor returns the ancestor of k at the given depth. If depth is not
// above k, k is returned unchanged.
func Ancestor(k Key, depth int) Key {
	d := Depth(k)
	if depth >= d || depth < 0 {
		return k
	}
	return k >> uint(3*(d-depth))
}

// IsDescendant returns true if k lies strictly below ancestor.
func IsDescendant(k, ancestor Key) bool {
	dk, da := Depth(k), Depth(ancestor)
	if da < 0 || dk <= da {
		return false
	}
	return Ancestor(k, da) == ancestor
}
