/*package body contains the point masses evolved by a simulation along with
the operations which act on the full body array: key encoding, sorting,
integration, and conserved-quantity diagnostics.
*/
package body

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/hotree/geom"
	"github.com/phil-mansfield/hotree/morton"
	"gonum.org/v1/gonum/spatial/r3"
)

// Body is a single point mass. Key is derived from X and is only meaningful
// for the Bounds it was last computed with.
type Body struct {
	X, V r3.Vec
	Mass float64
	Key  morton.Key
}

// Check returns an error if any body has a negative or non-finite mass or a
// non-finite position or velocity.
func Check(bodies []Body) error {
	for i := range bodies {
		b := &bodies[i]
		if !(b.Mass >= 0) || math.IsInf(b.Mass, 0) {
			return fmt.Errorf("Body %d has invalid mass %g.", i, b.Mass)
		} else if !finite(b.X) {
			return fmt.Errorf("Body %d has invalid position %v.", i, b.X)
		} else if !finite(b.V) {
			return fmt.Errorf("Body %d has invalid velocity %v.", i, b.V)
		}
	}
	return nil
}

func finite(x r3.Vec) bool {
	for _, c := range [3]float64{x.X, x.Y, x.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Positions writes the position of every body to out, growing it if
// necessary, and returns it.
func Positions(bodies []Body, out []r3.Vec) []r3.Vec {
	if cap(out) < len(bodies) {
		out = make([]r3.Vec, len(bodies))
	}
	out = out[:len(bodies)]
	for i := range bodies {
		out[i] = bodies[i].X
	}
	return out
}

// Masses writes the mass of every body to out, growing it if necessary, and
// returns it.
func Masses(bodies []Body, out []float64) []float64 {
	if cap(out) < len(bodies) {
		out = make([]float64, len(bodies))
	}
	out = out[:len(bodies)]
	for i := range bodies {
		out[i] = bodies[i].Mass
	}
	return out
}

// EncodeKeys recomputes the cached key of every body within b.
func EncodeKeys(bodies []Body, b *geom.Bounds) error {
	for i := range bodies {
		k, err := b.Key(bodies[i].X)
		if err != nil {
			return err
		}
		bodies[i].Key = k
	}
	return nil
}
