package api

import "fmt"

// Shape holds the length of each sweep axis, outermost (first declared,
// slowest varying) axis first.
type Shape []int

// Size returns the total number of grid points. An empty shape describes a
// zero-dimensional sweep with exactly one point.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Flatten converts a multi-index to a flat row-major offset.
// The first axis varies slowest.
func (s Shape) Flatten(index []int) int {
	if len(index) != len(s) {
		panic(fmt.Sprintf("ndsweep: index rank %d does not match shape rank %d", len(index), len(s)))
	}
	flat := 0
	for i, d := range s {
		if index[i] < 0 || index[i] >= d {
			panic(fmt.Sprintf("ndsweep: index %v out of range for shape %v", index, s))
		}
		flat = flat*d + index[i]
	}
	return flat
}

// Unflatten converts a flat row-major offset back to a multi-index.
func (s Shape) Unflatten(flat int) []int {
	index := make([]int, len(s))
	for i := len(s) - 1; i >= 0; i-- {
		index[i] = flat % s[i]
		flat /= s[i]
	}
	return index
}

// Equal reports whether two shapes have identical rank and axis lengths.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// PrefixOf reports whether s matches the leading axes of o. Static data
// shaped like a prefix of the grid broadcasts over the remaining axes.
func (s Shape) PrefixOf(o Shape) bool {
	if len(s) > len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	return fmt.Sprint([]int(s))
}
