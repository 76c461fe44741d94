package body

import (
	"fmt"

	"github.com/phil-mansfield/hotree/morton"
)

// Sorter orders bodies by their cached keys. Its buffers are reused across
// calls, so a single Sorter should be kept for the lifetime of a simulation.
type Sorter struct {
	Method morton.SortMethod

	keys []morton.Key
	idx  []int
	buf  []Body
}

// NewSorter returns a Sorter which uses the given method.
func NewSorter(m morton.SortMethod) *Sorter {
	return &Sorter{Method: m}
}

// Sort sorts bodies by key. Bodies with equal keys keep their relative order.
func (s *Sorter) Sort(bodies []Body) error {
	n := len(bodies)
	if n == 0 {
		return fmt.Errorf("Cannot sort an empty body slice.")
	}

	if cap(s.keys) < n {
		s.keys = make([]morton.Key, n)
		s.idx = make([]int, n)
		s.buf = make([]Body, n)
	}
	s.keys, s.idx, s.buf = s.keys[:n], s.idx[:n], s.buf[:n]

	for i := range bodies {
		s.keys[i] = bodies[i].Key
		s.idx[i] = i
	}

	if err := morton.Sort(s.Method, s.keys, s.idx); err != nil {
		return err
	}

	for i, j := range s.idx {
		s.buf[i] = bodies[j]
	}
	copy(bodies, s.buf)

	return nil
}

// Sort sorts bodies by key using the given method.
func Sort(bodies []Body, m morton.SortMethod) error {
	return NewSorter(m).Sort(bodies)
}
