package force

import (
	"math"
	"sort"
	"testing"

	"github.com/phil-mansfield/hotree/body"
	"github.com/phil-mansfield/hotree/geom"
	"github.com/phil-mansfield/hotree/morton"
	"github.com/phil-mansfield/hotree/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r3"
)

func buildTree(t testing.TB, bodies []body.Body) *tree.Tree {
	b, err := geom.NewBounds(body.Positions(bodies, nil), geom.DefaultMargin)
	require.NoError(t, err)
	require.NoError(t, body.EncodeKeys(bodies, b))
	require.NoError(t, body.Sort(bodies, morton.ThreePassRadix))

	tr := tree.New(nil)
	require.NoError(t, tr.Build(bodies, b))
	return tr
}

// randomBodies returns a Plummer sphere already sorted by key, so that
// building a tree from it does not reorder it.
func randomBodies(t testing.TB, n int, seed uint64) []body.Body {
	bodies, err := body.Plummer(n, 1, 1, seed)
	require.NoError(t, err)
	buildTree(t, bodies)
	return bodies
}

func treeAccelerations(
	t testing.TB, bodies []body.Body, theta, eps float64, workers int,
) []r3.Vec {
	tr := buildTree(t, bodies)
	e, err := NewEvaluator(theta, eps, workers)
	require.NoError(t, err)
	xs := body.Positions(bodies, nil)
	acc := make([]r3.Vec, len(xs))
	require.NoError(t, e.Accelerations(tr, xs, acc))
	return acc
}

func directAccelerations(t testing.TB, bodies []body.Body, eps float64) []r3.Vec {
	acc := make([]r3.Vec, len(bodies))
	require.NoError(t, Direct(
		body.Positions(bodies, nil), body.Masses(bodies, nil), eps, acc,
	))
	return acc
}

// relErrors returns the median and maximum of |a - b| / |b|.
func relErrors(a, b []r3.Vec) (median, max float64) {
	errs := make([]float64, len(a))
	for i := range a {
		errs[i] = r3.Norm(r3.Sub(a[i], b[i])) / r3.Norm(b[i])
	}
	sort.Float64s(errs)
	return errs[len(errs)/2], errs[len(errs)-1]
}

func TestAccept(t *testing.T) {
	n := &tree.Node{Size: 1, Barycenter: r3.Vec{X: 10}}
	table := []struct {
		x     r3.Vec
		theta float64
		res   bool
	}{
		{r3.Vec{}, 1, true},
		{r3.Vec{}, 0.1, false},
		{r3.Vec{X: 8}, 1, false},
		{r3.Vec{X: 8}, 1.01, true},
		{r3.Vec{X: 10}, 100, false},
	}

	for i, test := range table {
		if res := Accept(n, test.x, test.theta); res != test.res {
			t.Errorf("%d) Accept(%v, %g) = %v, not %v\n",
				i, test.x, test.theta, res, test.res)
		}
	}
}

func TestRanges(t *testing.T) {
	table := []struct {
		n, workers int
		out        [][2]int
	}{
		{10, 3, [][2]int{{0, 4}, {4, 7}, {7, 10}}},
		{2, 4, [][2]int{{0, 1}, {1, 2}, {2, 2}, {2, 2}}},
		{8, 2, [][2]int{{0, 4}, {4, 8}}},
		{0, 1, [][2]int{{0, 0}}},
	}

	for i, test := range table {
		assert.Equal(t, test.out, Ranges(test.n, test.workers), "%d", i)
	}
}

func TestExactAtSmallTheta(t *testing.T) {
	bodies := randomBodies(t, 300, 1)
	eps := DefaultSoftening
	acc := treeAccelerations(t, bodies, 1e-8, eps, 3)
	exp := directAccelerations(t, bodies, eps)

	_, max := relErrors(acc, exp)
	assert.Less(t, max, 1e-8)
}

func TestMACConsistency(t *testing.T) {
	bodies := randomBodies(t, 2000, 2)
	eps := DefaultSoftening
	exp := directAccelerations(t, bodies, eps)

	prevMedian := 0.0
	for _, theta := range []float64{0.2, 0.5, 1.0} {
		acc := treeAccelerations(t, bodies, theta, eps, 4)
		median, _ := relErrors(acc, exp)
		assert.Less(t, median, 0.01*theta, "theta = %g", theta)
		assert.GreaterOrEqual(t, median, prevMedian, "theta = %g", theta)
		prevMedian = median
	}
}

func TestTwoBodySymmetry(t *testing.T) {
	bodies := []body.Body{
		{X: r3.Vec{X: -1, Y: 0.5, Z: 0.2}, Mass: 2},
		{X: r3.Vec{X: 2, Y: -0.3, Z: 0.1}, Mass: 5},
	}
	acc := treeAccelerations(t, bodies, 1, DefaultSoftening, 2)

	// The tree sorts bodies, so match them back up by mass.
	var a2, a5 r3.Vec
	for i, b := range bodies {
		if b.Mass == 2 {
			a2 = acc[i]
		} else {
			a5 = acc[i]
		}
	}
	p := r3.Add(r3.Scale(2, a2), r3.Scale(5, a5))
	assert.InDelta(t, 0, r3.Norm(p), 1e-12)
	assert.Greater(t, r3.Norm(a2), 0.0)
}

func TestSelfExclusion(t *testing.T) {
	acc := treeAccelerations(t, []body.Body{{X: r3.Vec{X: 1}, Mass: 1}},
		1, DefaultSoftening, 1)
	assert.Equal(t, r3.Vec{}, acc[0])

	x := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	acc = treeAccelerations(t, []body.Body{{X: x, Mass: 1}, {X: x, Mass: 1}},
		1, DefaultSoftening, 2)
	assert.InDelta(t, 0, r3.Norm(acc[0]), 1e-6)
	assert.InDelta(t, 0, r3.Norm(acc[1]), 1e-6)
}

func TestWorkersAgree(t *testing.T) {
	bodies := randomBodies(t, 500, 3)
	one := treeAccelerations(t, append([]body.Body{}, bodies...),
		0.7, DefaultSoftening, 1)
	for _, workers := range []int{2, 3, 8, 1000} {
		many := treeAccelerations(t, append([]body.Body{}, bodies...),
			0.7, DefaultSoftening, workers)
		assert.Equal(t, one, many, "workers = %d", workers)
	}
}

func TestEvaluatorErrors(t *testing.T) {
	_, err := NewEvaluator(0, 0.1, 1)
	assert.Error(t, err)
	_, err = NewEvaluator(1, -0.1, 1)
	assert.Error(t, err)

	e, err := NewEvaluator(1, 0.1, 0)
	require.NoError(t, err)
	assert.Greater(t, e.Workers, 0)

	tr := tree.New(nil)
	assert.NoError(t, e.Accelerations(tr, nil, nil))
	assert.Error(t, e.Accelerations(tr, make([]r3.Vec, 2), make([]r3.Vec, 1)))

	assert.Error(t, Direct(make([]r3.Vec, 2), make([]float64, 1), 0,
		make([]r3.Vec, 2)))
}

func TestWorkspaceOverflow(t *testing.T) {
	w := NewWorkspace(1)
	w.pushWalk(morton.Root)
	assert.Panics(t, func() { w.pushWalk(morton.Root) })
	w.pushInteract(morton.Root)
	assert.Panics(t, func() { w.pushInteract(morton.Root) })
}

func TestInteractionList(t *testing.T) {
	bodies := randomBodies(t, 400, 4)
	tr := buildTree(t, bodies)
	w := NewWorkspace(0)

	for _, b := range bodies[:50] {
		list := w.InteractionList(tr, b.X, 0.8)
		assert.LessOrEqual(t, len(list), tr.Len())

		// Every body other than b lies below exactly one listed node.
		count := 0
		for _, k := range list {
			n, ok := tr.Lookup(k)
			require.True(t, ok)
			count += n.N
			if n.IsLeaf() {
				assert.NotEqual(t, b.X, n.Barycenter)
			}
		}
		assert.Equal(t, len(bodies)-1, count)
	}
}

type particle struct {
	x r3.Vec
	m float64
}

func (p *particle) Coord3() r3.Vec { return p.x }
func (p *particle) Mass() float64  { return p.m }

func TestAgainstGonum(t *testing.T) {
	bodies := randomBodies(t, 1000, 5)
	eps := DefaultSoftening
	acc := treeAccelerations(t, bodies, 0.3, eps, 4)

	ps := make([]barneshut.Particle3, len(bodies))
	for i := range bodies {
		ps[i] = &particle{x: bodies[i].X, m: bodies[i].Mass}
	}
	softGravity := func(_, _ barneshut.Particle3, m1, m2 float64, v r3.Vec) r3.Vec {
		r2 := r3.Norm2(v) + eps*eps
		return r3.Scale(m1*m2/(r2*math.Sqrt(r2)), v)
	}

	// At theta = 0 gonum sums every pair, giving an exact reference.
	vol := barneshut.Volume{Particles: ps}
	vol.Reset()
	ref := make([]r3.Vec, len(ps))
	for i, p := range ps {
		ref[i] = r3.Scale(1/p.Mass(), vol.ForceOn(p, 0, softGravity))
	}

	median, max := relErrors(ref, directAccelerations(t, bodies, eps))
	assert.Less(t, median, 1e-12)
	assert.Less(t, max, 1e-9)

	median, _ = relErrors(acc, ref)
	assert.Less(t, median, 1e-3)
}

func BenchmarkAccelerations(b *testing.B) {
	bodies, _ := body.Plummer(1<<14, 1, 1, 6)
	tr := buildTree(b, bodies)
	e, _ := NewEvaluator(DefaultTheta, DefaultSoftening, 0)
	xs := body.Positions(bodies, nil)
	acc := make([]r3.Vec, len(xs))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Accelerations(tr, xs, acc)
	}
}
