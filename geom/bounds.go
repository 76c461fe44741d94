/*package geom contains the cubic domains and octant geometry shared by the
tree and the force evaluator.
*/
package geom

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/hotree/morton"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultMargin is the factor by which NewBounds expands the tightest cube
// around a point set.
const DefaultMargin = 1.01

// Bounds is a cube which encloses every body in a simulation. Keys are only
// comparable when they were computed with identical Bounds.
type Bounds struct {
	Center    r3.Vec
	HalfWidth float64
}

// NewBounds returns the smallest cube which contains every point in xs,
// expanded by margin.
func NewBounds(xs []r3.Vec, margin float64) (*Bounds, error) {
	b := &Bounds{}
	if err := b.Init(xs, margin); err != nil {
		return nil, err
	}
	return b, nil
}

// Init sets b to the smallest cube centered on the midpoint of xs which
// contains all of xs, expanded by margin. If every point coincides, the
// half-width is 1.
func (b *Bounds) Init(xs []r3.Vec, margin float64) error {
	if len(xs) == 0 {
		return fmt.Errorf("Cannot compute the bounds of zero points.")
	} else if !(margin >= 1) || math.IsInf(margin, 0) {
		return fmt.Errorf("Bounds margin must be at least 1, but is %g.", margin)
	}

	min, max := xs[0], xs[0]
	for i, x := range xs {
		if !finite(x) {
			return fmt.Errorf("Point %d, %v, is not finite.", i, x)
		}
		min.X, max.X = math.Min(min.X, x.X), math.Max(max.X, x.X)
		min.Y, max.Y = math.Min(min.Y, x.Y), math.Max(max.Y, x.Y)
		min.Z, max.Z = math.Min(min.Z, x.Z), math.Max(max.Z, x.Z)
	}

	b.Center = r3.Scale(0.5, r3.Add(min, max))
	span := r3.Sub(max, min)
	h := math.Max(span.X, math.Max(span.Y, span.Z)) / 2
	if h == 0 {
		h = 1
	}
	b.HalfWidth = h * margin

	return nil
}

func finite(x r3.Vec) bool {
	return !math.IsNaN(x.X) && !math.IsNaN(x.Y) && !math.IsNaN(x.Z) &&
		!math.IsInf(x.X, 0) && !math.IsInf(x.Y, 0) && !math.IsInf(x.Z, 0)
}

// Contains returns true if x is inside the closed cube.
func (b Bounds) Contains(x r3.Vec) bool {
	return b.Cube().Contains(x)
}

// Key returns the full-depth morton key of x.
func (b Bounds) Key(x r3.Vec) (morton.Key, error) {
	return morton.Encode(r3.Sub(x, b.Center), b.HalfWidth)
}

// Cube returns the bounds as a Cube.
func (b Bounds) Cube() Cube {
	return Cube{Center: b.Center, Width: 2 * b.HalfWidth}
}

// Cube is an axis-aligned cube given by its center and edge width.
type Cube struct {
	Center r3.Vec
	Width  float64
}

// Child returns the octant oct of c.
func (c Cube) Child(oct int) Cube {
	return Cube{
		Center: OctantCenter(c.Center, c.Width, oct),
		Width:  c.Width / 2,
	}
}

// Contains returns true if x is inside the closed cube.
func (c Cube) Contains(x r3.Vec) bool {
	h := c.Width / 2
	return math.Abs(x.X-c.Center.X) <= h &&
		math.Abs(x.Y-c.Center.Y) <= h &&
		math.Abs(x.Z-c.Center.Z) <= h
}

// Min returns the lower corner of c.
func (c Cube) Min() r3.Vec {
	h := c.Width / 2
	return r3.Sub(c.Center, r3.Vec{X: h, Y: h, Z: h})
}

// Corners returns the eight vertices of c, indexed in octant order.
func (c Cube) Corners() [8]r3.Vec {
	var out [8]r3.Vec
	for oct := range out {
		out[oct] = r3.Add(c.Center, r3.Scale(c.Width/2, OctantDir(oct)))
	}
	return out
}
