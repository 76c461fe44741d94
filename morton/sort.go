package morton

import (
	"fmt"
	"strings"
)

// SortMethod selects one of the key sorting algorithms. All methods produce
// the same ordering.
type SortMethod int

const (
	Merge SortMethod = iota
	Radix
	ThreePassRadix
	EndSortMethod
)

// SortMethodFromString parses a sort method name. Case is ignored.
func SortMethodFromString(s string) (m SortMethod, ok bool) {
	switch strings.ToLower(s) {
	case "merge", "mergesort":
		return Merge, true
	case "radix", "radixsort":
		return Radix, true
	case "threepassradix", "threepass", "3pass":
		return ThreePassRadix, true
	}
	return ThreePassRadix, false
}

func (m SortMethod) String() string {
	switch m {
	case Merge:
		return "Merge"
	case Radix:
		return "Radix"
	case ThreePassRadix:
		return "ThreePassRadix"
	}
	panic(fmt.Sprintf("Unknown SortMethod %d.", int(m)))
}

// Sort sorts keys into ascending order with the given method. If idx is
// non-nil, it must be the same length as keys and is permuted alongside it.
func Sort(m SortMethod, keys []Key, idx []int) error {
	switch m {
	case Merge:
		return MergeSort(keys, idx)
	case Radix:
		return RadixSort(keys, idx)
	case ThreePassRadix:
		return ThreePassRadixSort(keys, idx)
	}
	return fmt.Errorf("Unknown SortMethod %d.", int(m))
}

// Identity returns the permutation [0, 1, ..., n-1].
func Identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func checkSortInput(keys []Key, idx []int) error {
	if len(keys) == 0 {
		return fmt.Errorf("Cannot sort an empty key slice.")
	} else if idx != nil && len(idx) != len(keys) {
		return fmt.Errorf(
			"Index slice has length %d, but key slice has length %d.",
			len(idx), len(keys),
		)
	}
	return nil
}

// MergeSort performs a stable top-down merge sort.
func MergeSort(keys []Key, idx []int) error {
	if err := checkSortInput(keys, idx); err != nil {
		return err
	}

	keyBuf := make([]Key, len(keys))
	var idxBuf []int
	if idx != nil {
		idxBuf = make([]int, len(idx))
	}
	mergeSort(keys, idx, keyBuf, idxBuf)
	return nil
}

func mergeSort(keys []Key, idx []int, keyBuf []Key, idxBuf []int) {
	n := len(keys)
	if n < 2 {
		return
	}

	mid := n / 2
	if idx == nil {
		mergeSort(keys[:mid], nil, keyBuf[:mid], nil)
		mergeSort(keys[mid:], nil, keyBuf[mid:], nil)
	} else {
		mergeSort(keys[:mid], idx[:mid], keyBuf[:mid], idxBuf[:mid])
		mergeSort(keys[mid:], idx[mid:], keyBuf[mid:], idxBuf[mid:])
	}

	if keys[mid-1] <= keys[mid] {
		return
	}

	i, j := 0, mid
	for k := 0; k < n; k++ {
		// Ties take from the left half.
		if j >= n || (i < mid && keys[i] <= keys[j]) {
			keyBuf[k] = keys[i]
			if idx != nil {
				idxBuf[k] = idx[i]
			}
			i++
		} else {
			keyBuf[k] = keys[j]
			if idx != nil {
				idxBuf[k] = idx[j]
			}
			j++
		}
	}

	copy(keys, keyBuf[:n])
	if idx != nil {
		copy(idx, idxBuf[:n])
	}
}

// radixBuffers holds the temporaries shared by the passes of one radix sort.
type radixBuffers struct {
	keys   []Key
	idx    []int
	counts [256]int
}

func newRadixBuffers(keys []Key, idx []int) *radixBuffers {
	buf := &radixBuffers{keys: make([]Key, len(keys))}
	if idx != nil {
		buf.idx = make([]int, len(idx))
	}
	return buf
}

// pass performs one stable counting sort on the byte starting at shift.
func (buf *radixBuffers) pass(keys []Key, idx []int, shift uint) {
	counts := &buf.counts
	for i := range counts {
		counts[i] = 0
	}
	for _, k := range keys {
		counts[(k>>shift)&0xff]++
	}

	sum := 0
	for i := range counts {
		c := counts[i]
		counts[i] = sum
		sum += c
	}

	for i, k := range keys {
		b := (k >> shift) & 0xff
		buf.keys[counts[b]] = k
		if idx != nil {
			buf.idx[counts[b]] = idx[i]
		}
		counts[b]++
	}

	copy(keys, buf.keys)
	if idx != nil {
		copy(idx, buf.idx)
	}
}

// RadixSort performs a least-significant-byte-first radix sort over all eight
// bytes of the keys.
func RadixSort(keys []Key, idx []int) error {
	if err := checkSortInput(keys, idx); err != nil {
		return err
	}

	buf := newRadixBuffers(keys, idx)
	for shift := uint(0); shift < 64; shift += 8 {
		buf.pass(keys, idx, shift)
	}
	return nil
}

// threePassShifts are the byte offsets used by ThreePassRadixSort. Each group
// of three covers one 21-bit field of the key, with the final byte of each
// group overlapping the next field. Re-sorting on bits that a later pass also
// sorts on does not change the result, since every pass is stable.
var threePassShifts = [3][3]uint{
	{0, 8, 16},
	{21, 29, 37},
	{42, 50, 58},
}

// ThreePassRadixSort sorts keys with three groups of byte passes, one group per
// 21-bit field.
func ThreePassRadixSort(keys []Key, idx []int) error {
	if err := checkSortInput(keys, idx); err != nil {
		return err
	}

	buf := newRadixBuffers(keys, idx)
	for _, group := range threePassShifts {
		for _, shift := range group {
			buf.pass(keys, idx, shift)
		}
	}
	return nil
}
