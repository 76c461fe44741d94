/*package plot draws projections of bodies and tree nodes with matplotlib.

Plotting calls are buffered by pyplot and only run when the caller invokes
pyplot.Execute.
*/
package plot

import (
	"fmt"
	"strings"

	"github.com/phil-mansfield/hotree/body"
	"github.com/phil-mansfield/hotree/geom"
	plt "github.com/phil-mansfield/pyplot"
	"gonum.org/v1/gonum/spatial/r3"
)

// Axes is a plane which positions are projected onto.
type Axes int

const (
	XY Axes = iota
	XZ
	YZ
	EndAxes
)

func AxesFromString(s string) (Axes, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "XY":
		return XY, true
	case "XZ":
		return XZ, true
	case "YZ":
		return YZ, true
	}
	return XY, false
}

func (a Axes) String() string {
	switch a {
	case XY:
		return "XY"
	case XZ:
		return "XZ"
	case YZ:
		return "YZ"
	}
	panic(fmt.Sprintf("Unknown Axes %d.", int(a)))
}

// Labels returns the names of the horizontal and vertical axes.
func (a Axes) Labels() (string, string) {
	s := a.String()
	return "$" + strings.ToLower(s[:1]) + "$", "$" + strings.ToLower(s[1:]) + "$"
}

// Project returns the coordinates of x in the plane.
func (a Axes) Project(x r3.Vec) (float64, float64) {
	switch a {
	case XY:
		return x.X, x.Y
	case XZ:
		return x.X, x.Z
	case YZ:
		return x.Y, x.Z
	}
	panic(fmt.Sprintf("Unknown Axes %d.", int(a)))
}

func project(bodies []body.Body, a Axes) (xs, ys []float64) {
	xs, ys = make([]float64, len(bodies)), make([]float64, len(bodies))
	for i := range bodies {
		xs[i], ys[i] = a.Project(bodies[i].X)
	}
	return xs, ys
}

// outline returns the closed square traced by the projection of c.
func outline(c geom.Cube, a Axes) (xs, ys []float64) {
	cx, cy := a.Project(c.Center)
	h := c.Width / 2
	xs = []float64{cx - h, cx + h, cx + h, cx - h, cx - h}
	ys = []float64{cy - h, cy - h, cy + h, cy + h, cy - h}
	return xs, ys
}

// limits returns the square range which contains every cube and body.
func limits(bodies []body.Body, cubes []geom.Cube, a Axes) (lo, hi float64) {
	first := true
	update := func(x, y float64) {
		if first {
			lo, hi = x, x
			first = false
		}
		for _, v := range []float64{x, y} {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}

	for _, c := range cubes {
		xs, ys := outline(c, a)
		update(xs[0], ys[0])
		update(xs[2], ys[2])
	}
	for i := range bodies {
		update(a.Project(bodies[i].X))
	}

	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return lo, hi
}

// Projection plots bodies and the outlines of cubes onto the given plane
// and saves the figure to fname.
func Projection(
	fname string, bodies []body.Body, cubes []geom.Cube, a Axes, title string,
) error {
	if a < 0 || a >= EndAxes {
		return fmt.Errorf("Unknown Axes %d.", int(a))
	} else if len(bodies) == 0 && len(cubes) == 0 {
		return fmt.Errorf("Nothing to plot in %s.", fname)
	}

	plt.Figure(plt.FigSize(8, 8))

	for _, c := range cubes {
		xs, ys := outline(c, a)
		plt.Plot(xs, ys, "r", plt.LW(1))
	}

	style := "ok"
	if len(bodies) > 1000 {
		style = "k,"
	}
	xs, ys := project(bodies, a)
	plt.Plot(xs, ys, style)

	if title != "" {
		plt.Title(title)
	}
	xLabel, yLabel := a.Labels()
	plt.XLabel(xLabel, plt.FontSize(16))
	plt.YLabel(yLabel, plt.FontSize(16))

	lo, hi := limits(bodies, cubes, a)
	plt.XLim(lo, hi)
	plt.YLim(lo, hi)
	plt.SaveFig(fname)
	return nil
}
