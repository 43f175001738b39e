package api

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned when a grid column lookup fails.
var ErrKeyNotFound = errors.New("key not found in grid")

// ErrPointAbsent is returned when a point view is requested for a grid
// point that was never reached, for example after a failed gather.
var ErrPointAbsent = errors.New("grid point not gathered")

// Point is the view of every recorded value at a single grid point:
// actuation values, measurements, static data and parser outputs.
type Point map[string]any

// Grid is the canonical storage for a sweep: one flat column per key,
// shaped by the ordered actuation domain lengths. It answers both
// "this key across all points" (Column) and "all keys at this point" (At).
//
// A grid is populated monotonically in row-major order and is owned by a
// single gather call; it is not safe for concurrent use.
type Grid struct {
	shape    Shape
	keys     []string
	columns  map[string][]any
	points   int // number of fully completed points, in row-major order
	complete bool
}

// NewGrid creates an empty grid with the given shape.
func NewGrid(shape Shape) *Grid {
	return &Grid{
		shape:   append(Shape(nil), shape...),
		columns: make(map[string][]any),
	}
}

// RestoredGrid rebuilds a grid from previously stored columns, preserving
// key order. Column lengths must equal shape.Size().
func RestoredGrid(shape Shape, keys []string, columns map[string][]any, points int, complete bool) (*Grid, error) {
	g := NewGrid(shape)
	size := shape.Size()
	for _, k := range keys {
		col, ok := columns[k]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, k)
		}
		if len(col) != size {
			return nil, &ShapeError{Key: k, Want: shape, Got: Shape{len(col)}}
		}
		g.keys = append(g.keys, k)
		g.columns[k] = append([]any(nil), col...)
	}
	g.points = points
	g.complete = complete
	return g, nil
}

// Shape returns the grid shape, outermost axis first.
func (g *Grid) Shape() Shape { return append(Shape(nil), g.shape...) }

// Keys returns the column keys in first-written order.
func (g *Grid) Keys() []string { return append([]string(nil), g.keys...) }

// Points returns the count of fully completed points. For a completed
// sweep this equals Shape().Size(); after a failed gather it tells how far
// the sweep got.
func (g *Grid) Points() int { return g.points }

// Complete reports whether the gather that built this grid ran to the end.
func (g *Grid) Complete() bool { return g.complete }

// MarkPoint records that the point at the given flat offset is fully
// populated. Points complete strictly in row-major order.
func (g *Grid) MarkPoint(flat int) {
	if flat+1 > g.points {
		g.points = flat + 1
	}
}

// MarkComplete flags the grid as the product of a finished gather.
func (g *Grid) MarkComplete() { g.complete = true }

// Set stores one value for key at the given flat offset, creating the
// column on first write.
func (g *Grid) Set(flat int, key string, v any) {
	col, ok := g.columns[key]
	if !ok {
		col = make([]any, g.shape.Size())
		g.columns[key] = col
		g.keys = append(g.keys, key)
	}
	col[flat] = v
}

// Column returns the full flat array for a key. For a failed sweep,
// entries past Points() hold nil.
func (g *Grid) Column(key string) ([]any, error) {
	col, ok := g.columns[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrKeyNotFound, key, g.keys)
	}
	return col, nil
}

// FloatColumn returns a key's column converted to float64. It fails if any
// populated entry is non-numeric.
func (g *Grid) FloatColumn(key string) ([]float64, error) {
	col, err := g.Column(key)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(col))
	for i, v := range col {
		if i >= g.points && !g.complete {
			break
		}
		f, ok := AsFloat(v)
		if !ok {
			return nil, fmt.Errorf("column %q: value %v (%T) at offset %d is not numeric", key, v, v, i)
		}
		out[i] = f
	}
	return out, nil
}

// At returns the point view at a multi-index: every key's value at that
// point. It fails with ErrPointAbsent if the sweep never reached the point.
func (g *Grid) At(index ...int) (Point, error) {
	flat := g.shape.Flatten(index)
	return g.AtFlat(flat)
}

// AtFlat is At addressed by flat row-major offset.
func (g *Grid) AtFlat(flat int) (Point, error) {
	if flat >= g.points {
		return nil, fmt.Errorf("%w: offset %d, gathered %d", ErrPointAbsent, flat, g.points)
	}
	p := make(Point, len(g.keys))
	for _, k := range g.keys {
		p[k] = g.columns[k][flat]
	}
	return p, nil
}

// AsFloat converts common numeric types to float64.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}
