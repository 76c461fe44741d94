package force

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Direct computes softened accelerations by summing over every pair. Pairs
// at identical positions are skipped, matching the tree walk.
func Direct(xs []r3.Vec, ms []float64, eps float64, acc []r3.Vec) error {
	if len(ms) != len(xs) || len(acc) != len(xs) {
		return fmt.Errorf("Got %d positions, %d masses, and %d acceleration "+
			"slots.", len(xs), len(ms), len(acc))
	}

	eps2 := eps * eps
	for i := range xs {
		a := r3.Vec{}
		for j := range xs {
			if xs[j] == xs[i] {
				continue
			}
			d := r3.Sub(xs[j], xs[i])
			r2 := r3.Norm2(d) + eps2
			a = r3.Add(a, r3.Scale(ms[j]/(r2*math.Sqrt(r2)), d))
		}
		acc[i] = a
	}
	return nil
}
