package body

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

// Uniform returns n bodies of the given mass placed uniformly at random in
// the cube [-halfWidth, +halfWidth)^3 with velocity components drawn
// uniformly from [-vScale, +vScale).
func Uniform(n int, halfWidth, vScale, mass float64, seed uint64) ([]Body, error) {
	switch {
	case n <= 0:
		return nil, fmt.Errorf("Body count must be positive, but is %d.", n)
	case !(halfWidth > 0):
		return nil, fmt.Errorf("HalfWidth must be positive, but is %g.", halfWidth)
	case !(vScale >= 0):
		return nil, fmt.Errorf("VelocityScale must be non-negative, but is %g.", vScale)
	case !(mass >= 0):
		return nil, fmt.Errorf("BodyMass must be non-negative, but is %g.", mass)
	}

	gen := rand.New(rand.NewSource(seed))
	bodies := make([]Body, n)
	for i := range bodies {
		bodies[i] = Body{
			X:    uniformVec(gen, halfWidth),
			V:    uniformVec(gen, vScale),
			Mass: mass,
		}
	}
	return bodies, nil
}

func uniformVec(gen *rand.Rand, h float64) r3.Vec {
	return r3.Vec{
		X: (2*gen.Float64() - 1) * h,
		Y: (2*gen.Float64() - 1) * h,
		Z: (2*gen.Float64() - 1) * h,
	}
}

// isotropic returns a vector of length r pointing in a random direction.
func isotropic(gen *rand.Rand, r float64) r3.Vec {
	z := 2*gen.Float64() - 1
	phi := 2 * math.Pi * gen.Float64()
	s := math.Sqrt(1 - z*z)
	return r3.Vec{X: r * s * math.Cos(phi), Y: r * s * math.Sin(phi), Z: r * z}
}

// Plummer returns n equal-mass bodies sampled from a Plummer sphere with
// scale radius a and the given total mass, in units where G = 1. Radii are
// truncated at 20a. The system is shifted into its center-of-mass frame.
func Plummer(n int, a, totalMass float64, seed uint64) ([]Body, error) {
	switch {
	case n <= 0:
		return nil, fmt.Errorf("Body count must be positive, but is %d.", n)
	case !(a > 0):
		return nil, fmt.Errorf("ScaleRadius must be positive, but is %g.", a)
	case !(totalMass > 0):
		return nil, fmt.Errorf("TotalMass must be positive, but is %g.", totalMass)
	}

	gen := rand.New(rand.NewSource(seed))
	bodies := make([]Body, n)
	m := totalMass / float64(n)
	vUnit := math.Sqrt(totalMass / a)

	for i := range bodies {
		var r float64
		for {
			u := gen.Float64()
			if u == 0 {
				continue
			}
			r = a / math.Sqrt(math.Pow(u, -2.0/3) - 1)
			if r < 20*a {
				break
			}
		}

		// von Neumann rejection on g(q) = q^2 (1 - q^2)^(7/2).
		var q float64
		for {
			q = gen.Float64()
			if 0.1*gen.Float64() < q*q*math.Pow(1-q*q, 3.5) {
				break
			}
		}
		ve := math.Sqrt2 * math.Pow(1+r*r/(a*a), -0.25) * vUnit

		bodies[i] = Body{
			X:    isotropic(gen, r),
			V:    isotropic(gen, q*ve),
			Mass: m,
		}
	}

	com, p := CenterOfMass(bodies), Momentum(bodies)
	vShift := r3.Scale(1/totalMass, p)
	for i := range bodies {
		bodies[i].X = r3.Sub(bodies[i].X, com)
		bodies[i].V = r3.Sub(bodies[i].V, vShift)
	}

	return bodies, nil
}
