package io

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/phil-mansfield/hotree/body"
	"github.com/phil-mansfield/hotree/morton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func writeFile(t *testing.T, dir, name, text string) string {
	fname := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fname, []byte(text), 0644))
	return fname
}

func TestExampleRunFile(t *testing.T) {
	fname := writeFile(t, t.TempDir(), "run.config", ExampleRunFile)
	wrap, err := ReadRunConfig(fname)
	require.NoError(t, err)

	con := wrap.Run
	assert.Equal(t, "path/to/output/dir", con.Output)
	assert.Equal(t, 1000, con.Steps)
	assert.Equal(t, 0.01, con.Dt)
	assert.Equal(t, 1.0, con.Theta)
	assert.Equal(t, 0.025, con.Softening)
	assert.Equal(t, morton.ThreePassRadix, con.Sort())
	assert.Equal(t, 100, con.SnapshotEvery)
	assert.False(t, con.ValidLogFile())

	ic := wrap.InitialConditions
	assert.Equal(t, Uniform, ic.ICType())
	assert.Equal(t, 10000, ic.Bodies)
	assert.Equal(t, 1500.0, ic.HalfWidth)
}

func TestRunConfigOverrides(t *testing.T) {
	text := `[Run]
Output = out
Steps = 10
Dt = 0.5
Theta = 0.4
SortMethod = merge
Validate = true
LogFile = log.out

[InitialConditions]
Type = Plummer
Bodies = 64
ScaleRadius = 2
TotalMass = 3
Seed = 9`
	wrap, err := ReadRunConfig(writeFile(t, t.TempDir(), "run.config", text))
	require.NoError(t, err)

	assert.Equal(t, 0.4, wrap.Run.Theta)
	assert.Equal(t, morton.Merge, wrap.Run.Sort())
	assert.True(t, wrap.Run.Validate)
	assert.Equal(t, "log.out", wrap.Run.LogFile)
	assert.Equal(t, Plummer, wrap.InitialConditions.ICType())
	assert.Equal(t, int64(9), wrap.InitialConditions.Seed)
	assert.Equal(t, 2.0, wrap.InitialConditions.ScaleRadius)
}

func TestRunConfigErrors(t *testing.T) {
	table := []func(w *RunWrapper){
		func(w *RunWrapper) { w.Run.Output = "" },
		func(w *RunWrapper) { w.Run.Steps = -1 },
		func(w *RunWrapper) { w.Run.Dt = 0 },
		func(w *RunWrapper) { w.Run.Theta = 0 },
		func(w *RunWrapper) { w.Run.Softening = -1 },
		func(w *RunWrapper) { w.Run.Margin = 0.5 },
		func(w *RunWrapper) { w.Run.SortMethod = "bogo" },
		func(w *RunWrapper) { w.Run.SnapshotEvery = 0 },
		func(w *RunWrapper) { w.InitialConditions.Type = "Hernquist" },
		func(w *RunWrapper) { w.InitialConditions.Bodies = 0 },
		func(w *RunWrapper) { w.InitialConditions.HalfWidth = 0 },
		func(w *RunWrapper) {
			w.InitialConditions.Type = "Plummer"
			w.InitialConditions.ScaleRadius = 0
		},
		func(w *RunWrapper) { w.InitialConditions.Type = "Table" },
	}

	for i, modify := range table {
		wrap := DefaultRunWrapper()
		wrap.Run.Output = "out"
		wrap.Run.Dt = 1
		wrap.InitialConditions.Bodies = 10
		require.NoError(t, wrap.CheckInit(), "%d", i)
		modify(wrap)
		assert.Error(t, wrap.CheckInit(), "%d", i)
	}

	fname := writeFile(t, t.TempDir(), "bad.config", "[Run]\nNotAField = 1\n")
	_, err := ReadRunConfig(fname)
	assert.Error(t, err)
}

func TestICType(t *testing.T) {
	for ic := Uniform; ic < EndICType; ic++ {
		res, ok := ICTypeFromString(ic.String())
		assert.True(t, ok)
		assert.Equal(t, ic, res)
	}
	_, ok := ICTypeFromString("nfw")
	assert.False(t, ok)
	assert.Panics(t, func() { _ = EndICType.String() })
}

func TestExamplePlotFile(t *testing.T) {
	dir := t.TempDir()
	wrap, err := ReadPlotConfig(writeFile(t, dir, "plot.config", ExamplePlotFile))
	require.NoError(t, err)
	assert.Equal(t, "path/to/snap0000.dat", wrap.Plot.Input)
	assert.Equal(t, "XY", wrap.Plot.Axes)
	assert.False(t, wrap.Plot.Nodes)
	assert.Equal(t, 4, wrap.Plot.MaxNodeDepth)

	text := "[Plot]\nInput = a\nOutput = b\nAxes = QQ\n"
	_, err = ReadPlotConfig(writeFile(t, dir, "bad.config", text))
	assert.Error(t, err)
	text = "[Plot]\nInput = a\nOutput = b\nMaxNodeDepth = 30\n"
	_, err = ReadPlotConfig(writeFile(t, dir, "bad.config", text))
	assert.Error(t, err)
	text = "[Plot]\nOutput = b\n"
	_, err = ReadPlotConfig(writeFile(t, dir, "bad.config", text))
	assert.Error(t, err)
}

func TestReadBodyTable(t *testing.T) {
	dir := t.TempDir()
	text := `1 2 3 0.1 0.2 0.3 5
-1 -2 -3 0 0 0 0.5
`
	bodies, err := ReadBodyTable(writeFile(t, dir, "bodies.txt", text))
	require.NoError(t, err)
	require.Len(t, bodies, 2)
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, bodies[0].X)
	assert.Equal(t, r3.Vec{X: 0.1, Y: 0.2, Z: 0.3}, bodies[0].V)
	assert.Equal(t, 5.0, bodies[0].Mass)
	assert.Equal(t, r3.Vec{X: -1, Y: -2, Z: -3}, bodies[1].X)
	assert.Equal(t, 0.5, bodies[1].Mass)

	_, err = ReadBodyTable(writeFile(t, dir, "neg.txt", "0 0 0 0 0 0 -1\n"))
	assert.Error(t, err)
	_, err = ReadBodyTable(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	bodies, err := body.Plummer(257, 1, 1, 11)
	require.NoError(t, err)

	hd := &SnapshotHeader{Step: 12, Time: 0.12, Dt: 0.01, Theta: 0.7,
		Softening: 0.025, Center: [3]float64{1, 2, 3}, HalfWidth: 30}
	fname := filepath.Join(t.TempDir(), "snap0012.dat")
	require.NoError(t, WriteSnapshot(fname, hd, bodies))
	assert.Equal(t, int64(257), hd.Count)

	rhd, rbodies, err := ReadSnapshot(fname)
	require.NoError(t, err)
	assert.Equal(t, *hd, *rhd)
	require.Len(t, rbodies, len(bodies))
	for i := range bodies {
		assert.Equal(t, bodies[i].X, rbodies[i].X)
		assert.Equal(t, bodies[i].V, rbodies[i].V)
		assert.Equal(t, bodies[i].Mass, rbodies[i].Mass)
	}

	hhd := &SnapshotHeader{}
	require.NoError(t, ReadSnapshotHeader(fname, hhd))
	assert.Equal(t, *hd, *hhd)

	b := rhd.Bounds()
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, b.Center)
	assert.Equal(t, 30.0, b.HalfWidth)
	hhd.SetBounds(b)
	assert.Equal(t, *hd, *hhd)
}

func TestSnapshotBigEndian(t *testing.T) {
	hd := SnapshotHeader{Step: 1, Count: 1, HalfWidth: 2}
	buf := &bytes.Buffer{}
	blocks := []interface{}{
		int32(-1), headerSize(), hd,
		[]r3.Vec{{X: 1}}, []r3.Vec{{Y: 2}}, []float64{3},
	}
	for _, block := range blocks {
		require.NoError(t, binary.Write(buf, binary.BigEndian, block))
	}

	rhd := &SnapshotHeader{}
	bodies, err := readSnapshot(buf, rhd)
	require.NoError(t, err)
	assert.Equal(t, hd, *rhd)
	assert.Equal(t, []body.Body{{X: r3.Vec{X: 1}, V: r3.Vec{Y: 2}, Mass: 3}},
		bodies)
}

func TestSnapshotErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, int32(7))
	_, err := readSnapshot(buf, &SnapshotHeader{})
	assert.Error(t, err)

	buf.Reset()
	binary.Write(buf, binary.LittleEndian, int32(0))
	binary.Write(buf, binary.LittleEndian, headerSize()+8)
	_, err = readSnapshot(buf, &SnapshotHeader{})
	assert.Error(t, err)

	// Truncated data block.
	buf.Reset()
	hd := &SnapshotHeader{}
	require.NoError(t, writeSnapshot(buf, hd, []body.Body{{Mass: 1}, {Mass: 2}}))
	data := buf.Bytes()
	_, err = readSnapshot(bytes.NewReader(data[:len(data)-4]), hd)
	assert.Error(t, err)

	_, _, err = ReadSnapshot(filepath.Join(t.TempDir(), "missing.dat"))
	assert.Error(t, err)
}
