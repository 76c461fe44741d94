package io

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/phil-mansfield/hotree/body"
	"github.com/phil-mansfield/hotree/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// Endianness used when writing snapshots. Snapshots of either
	// endianness can be read.
	DefaultEndiannessFlag int32 = 0
)

/*
The binary format used for snapshots is as follows:
    |-- 1 --||-- 2 --||-- 3 --||-- ... 4 ... --||-- ... 5 ... --||-- 6 --|

    1 - (int32) Flag indicating the endianness of the file. 0 indicates a
        little endian byte ordering and -1 indicates a big endian byte order.
    2 - (int32) Size of a SnapshotHeader struct. Checked for consistency.
    3 - (SnapshotHeader) Meta-information about the snapshot.
    4 - ([][3]float64) Contiguous block of x, y, z coordinates.
    5 - ([][3]float64) Contiguous block of v_x, v_y, v_z coordinates.
    6 - ([]float64) Contiguous block of masses.
*/
type SnapshotHeader struct {
	Step, Count int64

	Time, Dt         float64
	Theta, Softening float64

	// Bounds used to build the tree in the step which wrote the snapshot.
	Center    [3]float64
	HalfWidth float64
}

// Bounds returns the header's tree bounds.
func (hd *SnapshotHeader) Bounds() geom.Bounds {
	return geom.Bounds{
		Center:    r3.Vec{X: hd.Center[0], Y: hd.Center[1], Z: hd.Center[2]},
		HalfWidth: hd.HalfWidth,
	}
}

// SetBounds writes b into the header.
func (hd *SnapshotHeader) SetBounds(b geom.Bounds) {
	hd.Center = [3]float64{b.Center.X, b.Center.Y, b.Center.Z}
	hd.HalfWidth = b.HalfWidth
}

// endianness converts an endianness flag to a byte order.
func endianness(flag int32) (binary.ByteOrder, error) {
	switch flag {
	case 0:
		return binary.LittleEndian, nil
	case -1:
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("Unrecognized endianness flag, %d.", flag)
}

func headerSize() int32 {
	return int32(binary.Size(SnapshotHeader{}))
}

// WriteSnapshot writes bodies to fname. hd.Count is set to len(bodies).
func WriteSnapshot(fname string, hd *SnapshotHeader, bodies []body.Body) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = writeSnapshot(f, hd, bodies); err != nil {
		return fmt.Errorf("Could not write snapshot %s: %s", fname, err)
	}
	return f.Close()
}

func writeSnapshot(w io.Writer, hd *SnapshotHeader, bodies []body.Body) error {
	order, err := endianness(DefaultEndiannessFlag)
	if err != nil {
		return err
	}

	hd.Count = int64(len(bodies))
	bw := bufio.NewWriter(w)
	xs := make([]r3.Vec, len(bodies))
	vs := make([]r3.Vec, len(bodies))
	ms := body.Masses(bodies, nil)
	for i := range bodies {
		xs[i], vs[i] = bodies[i].X, bodies[i].V
	}

	blocks := []interface{}{DefaultEndiannessFlag, headerSize(), hd, xs, vs, ms}
	for _, block := range blocks {
		if err := binary.Write(bw, order, block); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func readSnapshotHeader(r io.Reader, hd *SnapshotHeader) (binary.ByteOrder, error) {
	// The flag values are symmetric, so the order of this read is irrelevant.
	var flag int32
	if err := binary.Read(r, binary.LittleEndian, &flag); err != nil {
		return nil, err
	}
	order, err := endianness(flag)
	if err != nil {
		return nil, err
	}

	var size int32
	if err := binary.Read(r, order, &size); err != nil {
		return nil, err
	} else if size != headerSize() {
		return nil, fmt.Errorf(
			"Expected SnapshotHeader size of %d, found %d.", headerSize(), size,
		)
	}

	if err := binary.Read(r, order, hd); err != nil {
		return nil, err
	} else if hd.Count < 0 {
		return nil, fmt.Errorf("Header has negative count, %d.", hd.Count)
	}
	return order, nil
}

// ReadSnapshotHeader reads the header of the snapshot fname into hd.
func ReadSnapshotHeader(fname string, hd *SnapshotHeader) error {
	f, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err = readSnapshotHeader(f, hd); err != nil {
		return fmt.Errorf("Could not read snapshot %s: %s", fname, err)
	}
	return nil
}

// ReadSnapshot reads the header and bodies of the snapshot fname. Keys of
// the returned bodies are not set.
func ReadSnapshot(fname string) (*SnapshotHeader, []body.Body, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	hd := &SnapshotHeader{}
	bodies, err := readSnapshot(bufio.NewReader(f), hd)
	if err != nil {
		return nil, nil, fmt.Errorf("Could not read snapshot %s: %s", fname, err)
	}
	return hd, bodies, nil
}

func readSnapshot(r io.Reader, hd *SnapshotHeader) ([]body.Body, error) {
	order, err := readSnapshotHeader(r, hd)
	if err != nil {
		return nil, err
	}

	xs := make([]r3.Vec, hd.Count)
	vs := make([]r3.Vec, hd.Count)
	ms := make([]float64, hd.Count)
	for _, block := range []interface{}{xs, vs, ms} {
		if err := binary.Read(r, order, block); err != nil {
			return nil, err
		}
	}

	bodies := make([]body.Body, hd.Count)
	for i := range bodies {
		bodies[i] = body.Body{X: xs[i], V: vs[i], Mass: ms[i]}
	}
	return bodies, nil
}
