package geom

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// octantDirs gives the direction of each octant's center relative to its
// parent's center. The x axis occupies the highest bit of an octant index and
// the z axis the lowest, matching the bit order of morton keys.
var octantDirs = [8]r3.Vec{
	{X: -1, Y: -1, Z: -1},
	{X: -1, Y: -1, Z: +1},
	{X: -1, Y: +1, Z: -1},
	{X: -1, Y: +1, Z: +1},
	{X: +1, Y: -1, Z: -1},
	{X: +1, Y: -1, Z: +1},
	{X: +1, Y: +1, Z: -1},
	{X: +1, Y: +1, Z: +1},
}

// OctantDir returns the unit-component direction of octant oct.
func OctantDir(oct int) r3.Vec { return octantDirs[oct&7] }

// DetermineOctant returns the octant of x relative to center. Points lying
// exactly on a dividing plane go to the lower side.
func DetermineOctant(center, x r3.Vec) int {
	oct := 0
	if x.X > center.X {
		oct |= 4
	}
	if x.Y > center.Y {
		oct |= 2
	}
	if x.Z > center.Z {
		oct |= 1
	}
	return oct
}

// OctantCenter returns the center of the octant oct of a cube with the given
// center and edge width.
func OctantCenter(center r3.Vec, width float64, oct int) r3.Vec {
	return r3.Add(center, r3.Scale(width/4, OctantDir(oct)))
}
