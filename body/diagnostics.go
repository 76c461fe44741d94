package body

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// TotalMass returns the summed mass of all bodies.
func TotalMass(bodies []Body) float64 {
	return floats.Sum(Masses(bodies, nil))
}

// KineticEnergy returns sum(m v^2 / 2).
func KineticEnergy(bodies []Body) float64 {
	e := make([]float64, len(bodies))
	for i := range bodies {
		e[i] = bodies[i].Mass * r3.Norm2(bodies[i].V) / 2
	}
	return floats.Sum(e)
}

// PotentialEnergy returns the softened pairwise gravitational potential
// energy, -sum m_i m_j / sqrt(r_ij^2 + eps^2). This is O(n^2).
func PotentialEnergy(bodies []Body, eps float64) float64 {
	e := make([]float64, len(bodies))
	eps2 := eps * eps
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			r2 := r3.Norm2(r3.Sub(bodies[i].X, bodies[j].X)) + eps2
			if r2 == 0 {
				continue
			}
			e[i] -= bodies[i].Mass * bodies[j].Mass / math.Sqrt(r2)
		}
	}
	return floats.Sum(e)
}

// CenterOfMass returns the mass-weighted mean position. A massless system
// returns the unweighted mean.
func CenterOfMass(bodies []Body) r3.Vec {
	if len(bodies) == 0 {
		return r3.Vec{}
	}

	m := TotalMass(bodies)
	sum := r3.Vec{}
	if m == 0 {
		for i := range bodies {
			sum = r3.Add(sum, bodies[i].X)
		}
		return r3.Scale(1/float64(len(bodies)), sum)
	}

	for i := range bodies {
		sum = r3.Add(sum, r3.Scale(bodies[i].Mass, bodies[i].X))
	}
	return r3.Scale(1/m, sum)
}

// Momentum returns the total momentum.
func Momentum(bodies []Body) r3.Vec {
	p := r3.Vec{}
	for i := range bodies {
		p = r3.Add(p, r3.Scale(bodies[i].Mass, bodies[i].V))
	}
	return p
}
