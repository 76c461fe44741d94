package hotree

import (
	"fmt"
	"math"
	"testing"

	"github.com/phil-mansfield/hotree/body"
	"github.com/phil-mansfield/hotree/morton"
	"github.com/phil-mansfield/hotree/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestParamsCheck(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Check())

	table := []func(p *Params){
		func(p *Params) { p.Theta = 0 },
		func(p *Params) { p.Dt = -1 },
		func(p *Params) { p.Softening = math.NaN() },
		func(p *Params) { p.Workers = 0 },
		func(p *Params) { p.Margin = 0.9 },
		func(p *Params) { p.Sort = morton.EndSortMethod },
	}
	for i, modify := range table {
		p := DefaultParams()
		modify(&p)
		assert.Error(t, p.Check(), "%d", i)
	}
}

func TestNewSimulationErrors(t *testing.T) {
	_, err := NewSimulation(nil, DefaultParams())
	assert.Error(t, err)
	_, err = NewSimulation([]body.Body{{Mass: -1}}, DefaultParams())
	assert.Error(t, err)
	p := DefaultParams()
	p.Theta = -1
	_, err = NewSimulation([]body.Body{{Mass: 1}}, p)
	assert.Error(t, err)
}

func TestBinaryOrbit(t *testing.T) {
	v := math.Sqrt(0.5)
	bodies := []body.Body{
		{X: r3.Vec{X: -0.5}, V: r3.Vec{Y: -v}, Mass: 1},
		{X: r3.Vec{X: 0.5}, V: r3.Vec{Y: v}, Mass: 1},
	}
	period := 2 * math.Pi * 0.5 / v

	p := DefaultParams()
	p.Softening = 0
	p.Dt = period / 1000
	p.Workers = 2
	p.Validate = true
	sim, err := NewSimulation(bodies, p)
	require.NoError(t, err)

	k0, u0 := sim.Energy()
	require.NoError(t, sim.Run(1000, func(step int) error {
		bs := sim.Bodies()
		d := r3.Norm(r3.Sub(bs[0].X, bs[1].X))
		if math.Abs(d-1) > 1e-3 {
			return fmt.Errorf("Separation %g at step %d.", d, step)
		}
		return nil
	}))

	k1, u1 := sim.Energy()
	assert.InDelta(t, k0+u0, k1+u1, 1e-3)
	assert.InDelta(t, 0, r3.Norm(body.Momentum(sim.Bodies())), 1e-12)
	assert.InDelta(t, 0, r3.Norm(body.CenterOfMass(sim.Bodies())), 1e-9)
	assert.Equal(t, 1000, sim.StepCount())
	assert.InDelta(t, period, sim.Time(), 1e-9)

	// After one period the bodies are back where they started.
	for _, b := range sim.Bodies() {
		if b.X.X < 0 {
			assert.InDelta(t, 0, r3.Norm(r3.Sub(b.X, r3.Vec{X: -0.5})), 1e-2)
		} else {
			assert.InDelta(t, 0, r3.Norm(r3.Sub(b.X, r3.Vec{X: 0.5})), 1e-2)
		}
	}
}

func TestPlummerEnergy(t *testing.T) {
	bodies, err := body.Plummer(200, 1, 1, 7)
	require.NoError(t, err)

	p := DefaultParams()
	p.Theta = 0.5
	p.Dt = 0.005
	p.Softening = 0.05
	p.Workers = 4
	sim, err := NewSimulation(bodies, p)
	require.NoError(t, err)

	k0, u0 := sim.Energy()
	m0 := body.TotalMass(sim.Bodies())
	require.NoError(t, sim.Run(40, nil))
	k1, u1 := sim.Energy()

	e0, e1 := k0+u0, k1+u1
	assert.InDelta(t, 0, (e1-e0)/math.Abs(e0), 2e-2)
	assert.InDelta(t, m0, body.TotalMass(sim.Bodies()), 1e-12)
	assert.Len(t, sim.Bodies(), 200)
}

func TestOnTree(t *testing.T) {
	bodies, err := body.Uniform(100, 1500, 1, 1, 3)
	require.NoError(t, err)
	p := DefaultParams()
	p.Dt = 1
	sim, err := NewSimulation(bodies, p)
	require.NoError(t, err)

	calls := 0
	sim.OnTree(func(tr *tree.Tree) error {
		calls++
		root, ok := tr.Root()
		if !ok {
			return fmt.Errorf("No root.")
		}
		assert.Equal(t, 100, root.N)
		assert.NotEmpty(t, tr.NodeBounds())
		assert.NoError(t, tr.Validate())
		return nil
	})
	require.NoError(t, sim.Run(3, nil))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 0, sim.Tree().Len())

	sim.OnTree(func(*tree.Tree) error { return fmt.Errorf("stop") })
	assert.Error(t, sim.Step())

	sim.OnTree(nil)
	assert.Error(t, sim.Run(5, func(step int) error {
		if step == 5 {
			return fmt.Errorf("stop at %d", step)
		}
		return nil
	}))
}

func TestComputeForces(t *testing.T) {
	bodies, err := body.Uniform(50, 1, 0, 1, 4)
	require.NoError(t, err)
	p := DefaultParams()
	p.Theta = 1e-6
	sim, err := NewSimulation(bodies, p)
	require.NoError(t, err)
	require.NoError(t, sim.ComputeForces())

	assert.Equal(t, 0, sim.StepCount())
	assert.True(t, sim.Tree().Len() > 0)
	b := sim.Bounds()
	for _, bd := range sim.Bodies() {
		assert.True(t, b.Contains(bd.X))
	}

	bs := sim.Bodies()
	for i := 1; i < len(bs); i++ {
		assert.LessOrEqual(t, uint64(bs[i-1].Key), uint64(bs[i].Key))
	}

	// Total force vanishes when every pair is summed exactly.
	f := r3.Vec{}
	for i, a := range sim.Accelerations() {
		f = r3.Add(f, r3.Scale(bs[i].Mass, a))
	}
	assert.InDelta(t, 0, r3.Norm(f), 1e-9)
}
