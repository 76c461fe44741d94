package body

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Bodies are advanced with a drift-kick-drift leapfrog split into two calls:
// DriftHalf before accelerations are computed and KickDrift after.

// DriftHalf moves every body by half a time step at its current velocity.
func DriftHalf(bodies []Body, dt float64) {
	for i := range bodies {
		b := &bodies[i]
		b.X = r3.Add(b.X, r3.Scale(dt/2, b.V))
	}
}

// KickDrift updates every velocity by a full step of acceleration, then
// moves every body by half a step at the new velocity.
func KickDrift(bodies []Body, acc []r3.Vec, dt float64) error {
	if len(acc) != len(bodies) {
		return fmt.Errorf(
			"Got %d accelerations for %d bodies.", len(acc), len(bodies),
		)
	}

	for i := range bodies {
		b := &bodies[i]
		b.V = r3.Add(b.V, r3.Scale(dt, acc[i]))
		b.X = r3.Add(b.X, r3.Scale(dt/2, b.V))
	}
	return nil
}
