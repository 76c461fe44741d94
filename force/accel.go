package force

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/hotree/morton"
	"github.com/phil-mansfield/hotree/tree"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultSoftening is the length added in quadrature to every separation.
const DefaultSoftening = 0.025

// Accel sums the accelerations at x due to every node in list. With
// d = barycenter - x and r^2 = |d|^2 + eps^2, each node contributes
//
//     m d / r^3
//
// and nodes containing more than one body also contribute the quadrupole
// correction
//
//     -Q d / r^5 + (5/2) (d . Q d) d / r^7.
func Accel(t *tree.Tree, x r3.Vec, list []morton.Key, eps float64) r3.Vec {
	acc := r3.Vec{}
	eps2 := eps * eps

	for _, k := range list {
		n, ok := t.Lookup(k)
		if !ok {
			panic(fmt.Sprintf("Interaction list holds missing node %#x.",
				uint64(k)))
		}

		d := r3.Sub(n.Barycenter, x)
		r2 := r3.Norm2(d) + eps2
		if r2 == 0 {
			continue
		}
		inv2 := 1 / r2
		inv3 := inv2 / math.Sqrt(r2)

		acc = r3.Add(acc, r3.Scale(n.Mass*inv3, d))

		if n.N > 1 {
			inv5 := inv3 * inv2
			inv7 := inv5 * inv2
			qd := n.QuadTimes(d)
			dqd := r3.Dot(d, qd)
			acc = r3.Add(acc, r3.Scale(-inv5, qd))
			acc = r3.Add(acc, r3.Scale(2.5*dqd*inv7, d))
		}
	}

	return acc
}
