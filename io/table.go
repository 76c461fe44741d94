package io

import (
	"fmt"

	"github.com/phil-mansfield/hotree/body"
	"github.com/phil-mansfield/table"
	"gonum.org/v1/gonum/spatial/r3"
)

// BodyColumns are the columns of a body table: x y z vx vy vz m.
var BodyColumns = []int{0, 1, 2, 3, 4, 5, 6}

// ReadBodyTable reads bodies from a whitespace separated text file with the
// columns listed in BodyColumns.
func ReadBodyTable(fname string) ([]body.Body, error) {
	cols, err := table.ReadTable(fname, BodyColumns, nil)
	if err != nil {
		return nil, err
	}

	x, y, z := cols[0], cols[1], cols[2]
	vx, vy, vz := cols[3], cols[4], cols[5]
	m := cols[6]

	if len(x) == 0 {
		return nil, fmt.Errorf("Table %s contains no bodies.", fname)
	}

	bodies := make([]body.Body, len(x))
	for i := range bodies {
		bodies[i] = body.Body{
			X:    r3.Vec{X: x[i], Y: y[i], Z: z[i]},
			V:    r3.Vec{X: vx[i], Y: vy[i], Z: vz[i]},
			Mass: m[i],
		}
	}

	if err := body.Check(bodies); err != nil {
		return nil, fmt.Errorf("Invalid body in table %s: %s", fname, err)
	}
	return bodies, nil
}
