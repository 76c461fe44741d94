package force

import (
	"fmt"
	"runtime"

	"github.com/phil-mansfield/hotree/tree"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultTheta is the default opening angle.
const DefaultTheta = 1.0

// Evaluator computes accelerations for every body in parallel. Each worker
// handles one contiguous range of bodies with its own Workspace, so the
// only shared state is the read-only tree.
type Evaluator struct {
	Theta, Softening float64
	Workers          int

	workspaces []Workspace
}

// NewEvaluator returns an Evaluator. workers <= 0 uses one worker per CPU.
func NewEvaluator(theta, softening float64, workers int) (*Evaluator, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	e := &Evaluator{Theta: theta, Softening: softening, Workers: workers}
	if err := e.check(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Evaluator) check() error {
	switch {
	case !(e.Theta > 0):
		return fmt.Errorf("Theta must be positive, but is %g.", e.Theta)
	case !(e.Softening >= 0):
		return fmt.Errorf("Softening must be non-negative, but is %g.",
			e.Softening)
	case e.Workers <= 0:
		return fmt.Errorf("Workers must be positive, but is %d.", e.Workers)
	}
	return nil
}

// Ranges splits n items into workers contiguous ranges [start, end). The
// first n % workers ranges are one item longer than the rest.
func Ranges(n, workers int) [][2]int {
	per, rem := n/workers, n%workers
	out := make([][2]int, workers)
	for id := range out {
		start := id*per + minInt(id, rem)
		length := per
		if id < rem {
			length++
		}
		out[id] = [2]int{start, start + length}
	}
	return out
}

func minInt(x, y int) int {
	if x < y {
		return x
	}
	return y
}

// Accelerations writes the acceleration of a body at each position in xs to
// the corresponding element of acc. t must have been built from bodies at
// the positions in xs.
func (e *Evaluator) Accelerations(t *tree.Tree, xs, acc []r3.Vec) error {
	if err := e.check(); err != nil {
		return err
	} else if len(xs) != len(acc) {
		return fmt.Errorf("Got %d positions but %d acceleration slots.",
			len(xs), len(acc))
	} else if len(xs) == 0 {
		return nil
	}

	workers := e.Workers
	if workers > len(xs) {
		workers = len(xs)
	}
	if len(e.workspaces) < workers {
		e.workspaces = make([]Workspace, workers)
	}
	for id := 0; id < workers; id++ {
		e.workspaces[id].Reserve(t.Len())
	}

	ranges := Ranges(len(xs), workers)
	out := make(chan int, workers)

	for id := 0; id < workers-1; id++ {
		go e.chanAccelerations(id, t, xs, acc, ranges[id], out)
	}
	id := workers - 1
	e.chanAccelerations(id, t, xs, acc, ranges[id], out)

	for i := 0; i < workers; i++ {
		<-out
	}

	return nil
}

func (e *Evaluator) chanAccelerations(
	id int, t *tree.Tree, xs, acc []r3.Vec, rng [2]int, out chan<- int,
) {
	w := &e.workspaces[id]
	for i := rng[0]; i < rng[1]; i++ {
		list := w.InteractionList(t, xs[i], e.Theta)
		acc[i] = Accel(t, xs[i], list, e.Softening)
	}
	out <- id
}
