package api

import (
	"errors"
	"math"
	"testing"
)

func TestExpandCmdGridRowMajor(t *testing.T) {
	c := &CmdCtrl{
		Default: []float64{0, 0},
		SwpInds: []int{0, 1},
		Domains: [][]float64{{1, 2}, {10, 20, 30}},
	}

	got := c.ExpandCmdGrid()
	want := [][]float64{
		{1, 10}, {1, 20}, {1, 30},
		{2, 10}, {2, 20}, {2, 30},
	}
	if len(got) != len(want) {
		t.Fatalf("grid size %d, want %d", len(got), len(want))
	}
	for i := range want {
		for d := range want[i] {
			if got[i][d] != want[i][d] {
				t.Fatalf("cmd[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	}
	if !c.GridShape().Equal(Shape{2, 3}) {
		t.Fatalf("GridShape = %v", c.GridShape())
	}
}

// twoPointResult builds a 1-channel, 2-point, 2-trial result with the
// given measured values, trial-major.
func twoPointResult(meas ...float64) *CmdCtrlResult {
	r := &CmdCtrlResult{
		GridShape: Shape{2},
		Trials:    2,
		AllDims:   1,
		SwpInds:   []int{0},
		Cmd:       [][]float64{{0}, {1}},
		Points:    4,
		Complete:  true,
	}
	for _, m := range meas {
		r.Meas = append(r.Meas, []float64{m})
	}
	return r
}

func TestMeasuredAt(t *testing.T) {
	r := twoPointResult(0.1, 1.1, -0.1, 0.9)

	m, err := r.MeasuredAt(1, 0)
	if err != nil {
		t.Fatalf("MeasuredAt failed: %v", err)
	}
	if m[0] != -0.1 {
		t.Fatalf("MeasuredAt(1,0) = %v", m)
	}

	r.Meas[3] = nil
	if _, err := r.MeasuredAt(1, 1); !errors.Is(err, ErrPointAbsent) {
		t.Fatalf("expected ErrPointAbsent, got %v", err)
	}
}

func TestControlErrorNeedsCompletion(t *testing.T) {
	r := twoPointResult(0, 1, 0, 1)
	r.Complete = false
	if _, err := r.ControlError(); err == nil {
		t.Fatal("expected error for incomplete sweep")
	}
}

func TestControlError(t *testing.T) {
	r := twoPointResult(0.1, 1.1, -0.1, 0.9)

	errs, err := r.ControlError()
	if err != nil {
		t.Fatalf("ControlError failed: %v", err)
	}
	want := []float64{0.1, 0.1, -0.1, -0.1}
	for i := range want {
		if math.Abs(errs[i][0]-want[i]) > 1e-12 {
			t.Fatalf("error[%d] = %v, want %v", i, errs[i][0], want[i])
		}
	}
}

func TestScoreSeparatesAccuracyAndPrecision(t *testing.T) {
	// Symmetric noise: the trial means hit the commands exactly, all the
	// error is spread.
	noisy := twoPointResult(0.1, 1.1, -0.1, 0.9)
	acc, prec, err := noisy.Score(false, false)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if math.Abs(acc) > 1e-12 {
		t.Errorf("accuracy = %v, want 0", acc)
	}
	if math.Abs(prec-0.1) > 1e-12 {
		t.Errorf("precision = %v, want 0.1", prec)
	}

	// Constant offset: all accuracy, no spread.
	biased := twoPointResult(0.2, 1.2, 0.2, 1.2)
	acc, prec, err = biased.Score(false, false)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if math.Abs(acc-0.2) > 1e-12 {
		t.Errorf("accuracy = %v, want 0.2", acc)
	}
	if math.Abs(prec) > 1e-12 {
		t.Errorf("precision = %v, want 0", prec)
	}
}

func TestScoreWorstCase(t *testing.T) {
	// One good point, one bad point: RMS averages them, worst case picks
	// the bad one.
	r := twoPointResult(0, 1.4, 0, 1.4)
	accRMS, _, err := r.Score(false, false)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	accWorst, _, err := r.Score(false, true)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if math.Abs(accWorst-0.4) > 1e-12 {
		t.Errorf("worst-case accuracy = %v, want 0.4", accWorst)
	}
	if math.Abs(accRMS-0.4/math.Sqrt2) > 1e-12 {
		t.Errorf("rms accuracy = %v, want %v", accRMS, 0.4/math.Sqrt2)
	}
}

func TestScoreBits(t *testing.T) {
	// Command span is 1, accuracy 0.2: log2(1/0.2) bits of accuracy.
	biased := twoPointResult(0.2, 1.2, 0.2, 1.2)
	acc, _, err := biased.Score(true, false)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if math.Abs(acc-math.Log2(5)) > 1e-9 {
		t.Errorf("accuracy bits = %v, want %v", acc, math.Log2(5))
	}
}
