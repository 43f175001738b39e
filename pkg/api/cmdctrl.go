package api

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CmdCtrl is the declared configuration of a command-control sweep: a
// controller evaluated over a grid of command vectors. The evaluate
// callable receives the full command vector (defaults with the swept
// channels overwritten) and must return a measured vector of equal
// length. Sweep dimensionality always equals measured dimensionality on
// the swept channels.
type CmdCtrl struct {
	Evaluate ControlFunc
	Default  []float64   // default value per channel
	SwpInds  []int       // which channels sweep, one per domain
	Domains  [][]float64 // command values per swept channel
	Trials   int
}

// GridShape returns the command grid shape, one axis per swept channel in
// declaration order.
func (c *CmdCtrl) GridShape() Shape {
	shape := make(Shape, len(c.Domains))
	for i, d := range c.Domains {
		shape[i] = len(d)
	}
	return shape
}

// ExpandCmdGrid materializes the full command grid before the sweep
// starts: one command vector per grid point, row-major. In two or more
// dimensions the controller is generally non-separable, so per-axis lazy
// inversion is not an option; the whole grid is built up front.
func (c *CmdCtrl) ExpandCmdGrid() [][]float64 {
	shape := c.GridShape()
	size := shape.Size()
	cmd := make([][]float64, size)
	for flat := 0; flat < size; flat++ {
		index := shape.Unflatten(flat)
		vec := make([]float64, len(c.Domains))
		for d := range c.Domains {
			vec[d] = c.Domains[d][index[d]]
		}
		cmd[flat] = vec
	}
	return cmd
}

// CmdCtrlResult holds everything a command-control gather produced: the
// nominal command grid and the measured vectors, per trial. It remains
// inspectable after a failed gather and after whole-object reload.
type CmdCtrlResult struct {
	GridShape Shape
	Trials    int
	AllDims   int // full command vector length
	SwpInds   []int

	// Cmd holds the pre-expanded command grid, one vector of swept-channel
	// values per grid point (row-major over GridShape).
	Cmd [][]float64

	// Meas holds one full measured vector per visited point, indexed
	// trial-major: Meas[t*gridSize+g]. Unvisited points are nil.
	Meas [][]float64

	Points   int
	Complete bool
}

// SweptDims returns the number of swept channels.
func (r *CmdCtrlResult) SweptDims() int { return len(r.SwpInds) }

// MeasuredAt returns the measured swept-channel vector for a trial and
// grid offset.
func (r *CmdCtrlResult) MeasuredAt(trial, gridFlat int) ([]float64, error) {
	i := trial*r.GridShape.Size() + gridFlat
	if i >= len(r.Meas) || r.Meas[i] == nil {
		return nil, ErrPointAbsent
	}
	out := make([]float64, len(r.SwpInds))
	for d, ch := range r.SwpInds {
		out[d] = r.Meas[i][ch]
	}
	return out, nil
}

// ControlError returns the element-wise difference between measured and
// commanded swept-channel values, indexed like Meas. It characterizes the
// controller's systematic tracking error.
func (r *CmdCtrlResult) ControlError() ([][]float64, error) {
	if !r.Complete {
		return nil, errors.New("control error needs a completed sweep")
	}
	size := r.GridShape.Size()
	out := make([][]float64, r.Trials*size)
	for t := 0; t < r.Trials; t++ {
		for g := 0; g < size; g++ {
			meas, err := r.MeasuredAt(t, g)
			if err != nil {
				return nil, err
			}
			e := append([]float64(nil), meas...)
			floats.Sub(e, r.Cmd[g])
			out[t*size+g] = e
		}
	}
	return out, nil
}

// Score reduces the full sweep to two numbers: accuracy (systematic error
// of the trial mean against the command) and precision (spread over
// trials). With worstCase the worst grid point is reported instead of the
// RMS over grid points. With bits both are expressed as bits of dynamic
// range relative to the command span.
func (r *CmdCtrlResult) Score(bits, worstCase bool) (accuracy, precision float64, err error) {
	if !r.Complete {
		return 0, 0, errors.New("score needs a completed sweep")
	}
	size := r.GridShape.Size()
	dims := r.SweptDims()

	// Per grid point: mean error over trials and stddev over trials,
	// RMS-reduced over the swept channels.
	netMeanErr := make([]float64, size)
	netSpread := make([]float64, size)
	trialVals := make([]float64, r.Trials)
	for g := 0; g < size; g++ {
		var meanSq, spreadSq float64
		for d := 0; d < dims; d++ {
			for t := 0; t < r.Trials; t++ {
				m, merr := r.MeasuredAt(t, g)
				if merr != nil {
					return 0, 0, merr
				}
				trialVals[t] = m[d]
			}
			mean := stat.Mean(trialVals, nil)
			meanSq += sq(mean - r.Cmd[g][d])
			var devSq float64
			for _, v := range trialVals {
				devSq += sq(v - mean)
			}
			spreadSq += devSq / float64(r.Trials)
		}
		netMeanErr[g] = math.Sqrt(meanSq / float64(dims))
		netSpread[g] = math.Sqrt(spreadSq / float64(dims))
	}

	if worstCase {
		accuracy = floats.Max(absAll(netMeanErr))
		precision = floats.Max(absAll(netSpread))
	} else {
		accuracy = rms(netMeanErr)
		precision = rms(netSpread)
	}

	if bits {
		span := cmdSpan(r.Cmd)
		accuracy = math.Log2(span / accuracy)
		precision = math.Log2(span / precision)
	}
	return accuracy, precision, nil
}

func sq(x float64) float64 { return x * x }

func rms(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(xs, xs) / float64(len(xs)))
}

func absAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Abs(x)
	}
	return out
}

func cmdSpan(cmd [][]float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, vec := range cmd {
		lo = math.Min(lo, floats.Min(vec))
		hi = math.Max(hi, floats.Max(vec))
	}
	return math.Abs(hi - lo)
}
