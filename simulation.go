/*package hotree runs gravitational N-body simulations with a Barnes-Hut
force calculation over a hashed octree.

Each call to Simulation.Step performs one drift-kick-drift leapfrog step:

    drift half step -> recompute bounds -> encode keys -> sort bodies by key
    -> build tree -> prune -> aggregate -> accelerations (in parallel)
    -> kick, drift half step

The tree is rebuilt from scratch every step and is read-only while
accelerations are computed.
*/
package hotree

import (
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/phil-mansfield/hotree/body"
	"github.com/phil-mansfield/hotree/force"
	"github.com/phil-mansfield/hotree/geom"
	"github.com/phil-mansfield/hotree/morton"
	"github.com/phil-mansfield/hotree/tree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Params holds the tunable parameters of a Simulation.
type Params struct {
	// Theta is the opening angle of the acceptance criterion.
	Theta float64
	// Dt is the time step.
	Dt float64
	// Softening is added in quadrature to every separation.
	Softening float64
	// Workers is the number of goroutines used to compute accelerations.
	Workers int
	// Margin is the factor by which the bounds are expanded past the
	// outermost bodies.
	Margin float64
	// Sort is the algorithm used to order bodies by key.
	Sort morton.SortMethod

	// Validate checks every tree invariant after each build.
	Validate bool
	// Log prints timings and memory usage for each step.
	Log bool
}

// DefaultParams returns the default simulation parameters.
func DefaultParams() Params {
	return Params{
		Theta:     force.DefaultTheta,
		Dt:        0.01,
		Softening: force.DefaultSoftening,
		Workers:   runtime.NumCPU(),
		Margin:    geom.DefaultMargin,
		Sort:      morton.ThreePassRadix,
	}
}

// Check returns an error if any parameter is out of range.
func (p *Params) Check() error {
	switch {
	case !(p.Theta > 0):
		return fmt.Errorf("Theta must be positive, but is %g.", p.Theta)
	case !(p.Dt > 0):
		return fmt.Errorf("Dt must be positive, but is %g.", p.Dt)
	case !(p.Softening >= 0):
		return fmt.Errorf("Softening must be non-negative, but is %g.",
			p.Softening)
	case p.Workers <= 0:
		return fmt.Errorf("Workers must be positive, but is %d.", p.Workers)
	case !(p.Margin >= 1):
		return fmt.Errorf("Margin must be at least 1, but is %g.", p.Margin)
	case p.Sort < 0 || p.Sort >= morton.EndSortMethod:
		return fmt.Errorf("Unknown sort method %d.", int(p.Sort))
	}
	return nil
}

// Simulation evolves a set of bodies under their mutual gravity.
type Simulation struct {
	p      Params
	bodies []body.Body

	bounds geom.Bounds
	tree   *tree.Tree
	sorter *body.Sorter
	eval   *force.Evaluator

	xs, acc []r3.Vec
	step    int
	time    float64

	onTree func(t *tree.Tree) error
	ms     runtime.MemStats
}

// NewSimulation returns a Simulation which evolves bodies. The Simulation
// takes ownership of the slice and reorders it every step.
func NewSimulation(bodies []body.Body, p Params) (*Simulation, error) {
	if len(bodies) == 0 {
		return nil, fmt.Errorf("Cannot simulate zero bodies.")
	} else if err := body.Check(bodies); err != nil {
		return nil, err
	} else if err := p.Check(); err != nil {
		return nil, err
	}

	eval, err := force.NewEvaluator(p.Theta, p.Softening, p.Workers)
	if err != nil {
		return nil, err
	}

	sim := &Simulation{
		p:      p,
		bodies: bodies,
		tree:   tree.New(tree.NewNodePool(2 * len(bodies))),
		sorter: body.NewSorter(p.Sort),
		eval:   eval,
		xs:     make([]r3.Vec, len(bodies)),
		acc:    make([]r3.Vec, len(bodies)),
	}

	if p.Log {
		log.Printf(
			"Simulating %d bodies with theta = %g, dt = %g, %d workers.",
			len(bodies), p.Theta, p.Dt, p.Workers,
		)
		sim.logMemory()
	}

	return sim, nil
}

// OnTree registers a function which is called with the tree of every step
// after accelerations are computed and before the tree is cleared. An error
// returned by fn aborts the step.
func (sim *Simulation) OnTree(fn func(t *tree.Tree) error) { sim.onTree = fn }

// Bodies returns the current bodies, ordered by their keys as of the last
// step.
func (sim *Simulation) Bodies() []body.Body { return sim.bodies }

// Accelerations returns the accelerations computed in the last step, in the
// same order as Bodies.
func (sim *Simulation) Accelerations() []r3.Vec { return sim.acc }

// Bounds returns the bounds used in the last step.
func (sim *Simulation) Bounds() geom.Bounds { return sim.bounds }

// Tree returns the simulation's tree. It is only populated while an OnTree
// function runs or after a call to ComputeForces.
func (sim *Simulation) Tree() *tree.Tree { return sim.tree }

// StepCount returns the number of completed steps.
func (sim *Simulation) StepCount() int { return sim.step }

// Time returns the simulation time.
func (sim *Simulation) Time() float64 { return sim.time }

// Params returns the simulation's parameters.
func (sim *Simulation) Params() Params { return sim.p }

// ComputeForces builds a tree from the current positions and computes the
// acceleration on every body. The tree is left populated.
func (sim *Simulation) ComputeForces() error {
	var t0, t1, t2 time.Time
	if sim.p.Log {
		t0 = time.Now()
	}

	xs := body.Positions(sim.bodies, sim.xs)
	if err := sim.bounds.Init(xs, sim.p.Margin); err != nil {
		return err
	}
	if err := body.EncodeKeys(sim.bodies, &sim.bounds); err != nil {
		return err
	}
	if err := sim.sorter.Sort(sim.bodies); err != nil {
		return err
	}
	if err := sim.tree.Build(sim.bodies, &sim.bounds); err != nil {
		return err
	}
	if sim.p.Validate {
		if err := sim.tree.Validate(); err != nil {
			return err
		}
	}

	if sim.p.Log {
		t1 = time.Now()
	}

	xs = body.Positions(sim.bodies, sim.xs)
	if err := sim.eval.Accelerations(sim.tree, xs, sim.acc); err != nil {
		return err
	}

	if sim.p.Log {
		t2 = time.Now()
		log.Printf(
			"Step %d: %d nodes, depth %d, build %.3g s, forces %.3g s.",
			sim.step, sim.tree.Len(), sim.tree.Depth(),
			t1.Sub(t0).Seconds(), t2.Sub(t1).Seconds(),
		)
	}

	return nil
}

// Step advances the simulation by one time step.
func (sim *Simulation) Step() error {
	body.DriftHalf(sim.bodies, sim.p.Dt)

	if err := sim.ComputeForces(); err != nil {
		return err
	}
	if sim.onTree != nil {
		if err := sim.onTree(sim.tree); err != nil {
			return err
		}
	}
	sim.tree.Clear()

	if err := body.KickDrift(sim.bodies, sim.acc, sim.p.Dt); err != nil {
		return err
	}

	sim.step++
	sim.time += sim.p.Dt
	return nil
}

// Run calls Step steps times. If hook is non-nil, it is called after every
// step with the number of completed steps.
func (sim *Simulation) Run(steps int, hook func(step int) error) error {
	for i := 0; i < steps; i++ {
		if err := sim.Step(); err != nil {
			return err
		}
		if hook != nil {
			if err := hook(sim.step); err != nil {
				return err
			}
		}
	}

	if sim.p.Log {
		sim.logMemory()
	}
	return nil
}

// Energy returns the kinetic and softened potential energy of the bodies.
// This is O(n^2).
func (sim *Simulation) Energy() (kinetic, potential float64) {
	return body.KineticEnergy(sim.bodies),
		body.PotentialEnergy(sim.bodies, sim.p.Softening)
}

func (sim *Simulation) logMemory() {
	runtime.ReadMemStats(&sim.ms)
	log.Printf(
		"Alloc: %5d MB, Sys: %5d MB",
		sim.ms.Alloc>>20, sim.ms.Sys>>20,
	)
}
