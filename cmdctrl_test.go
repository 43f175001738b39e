package ndsweep

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightwave-lab/ndsweep/pkg/api"
)

func identity1D(cmd float64) (float64, error) { return cmd, nil }

func TestCmdCtrlIdentityHasZeroError(t *testing.T) {
	t.Parallel()

	swp, err := NewCmdCtrl1D("identity", identity1D, Linspace(0, 1, 5))
	require.NoError(t, err)
	require.NoError(t, swp.Gather(context.Background()))

	res := swp.Result()
	require.True(t, res.Complete)
	require.Equal(t, Shape{5}, res.GridShape)
	require.Equal(t, 5, res.Points)

	errs, err := swp.ControlError()
	require.NoError(t, err)
	require.Len(t, errs, 5)
	for _, e := range errs {
		require.Equal(t, []float64{0}, e)
	}

	acc, prec, err := swp.Score(false, false)
	require.NoError(t, err)
	require.Zero(t, acc)
	require.Zero(t, prec)
}

func TestCmdCtrlDeclarationDimensions(t *testing.T) {
	t.Parallel()

	// Two swept channels but only one domain.
	_, err := NewCmdCtrl("bad", IdentityControl(), []float64{0, 0}, []int{0, 1}, Linspace(0, 1, 3))
	var dimErr *DimensionError
	require.ErrorAs(t, err, &dimErr)
	require.Equal(t, 2, dimErr.Want)
	require.Equal(t, 1, dimErr.Got)

	// Swept channel beyond the command vector.
	_, err = NewCmdCtrl("bad", IdentityControl(), []float64{0}, []int{3}, Linspace(0, 1, 3))
	require.Error(t, err)

	// Empty domain.
	_, err = NewCmdCtrl("bad", IdentityControl(), []float64{0}, []int{0}, nil)
	require.Error(t, err)
}

func TestCmdCtrlEvaluateLengthChecked(t *testing.T) {
	t.Parallel()

	short := func(cmd []float64) ([]float64, error) { return []float64{1}, nil }
	swp, err := NewCmdCtrl("short", short, []float64{0, 0}, []int{0, 1},
		Linspace(0, 1, 2), Linspace(0, 1, 2))
	require.NoError(t, err)

	err = swp.Gather(context.Background())
	var dimErr *DimensionError
	require.ErrorAs(t, err, &dimErr)
	require.Equal(t, 2, dimErr.Want)
	require.Equal(t, 1, dimErr.Got)
}

func TestCmdCtrlBiasedControllerScore(t *testing.T) {
	t.Parallel()

	// Deterministic constant offset: pure accuracy error, no spread.
	biased := func(cmd float64) (float64, error) { return cmd + 0.1, nil }
	swp, err := NewCmdCtrl1D("biased", biased, Linspace(0, 1, 5))
	require.NoError(t, err)
	swp.SetTrials(3)
	require.NoError(t, swp.Gather(context.Background()))
	require.Equal(t, 15, swp.Result().Points)

	acc, prec, err := swp.Score(false, false)
	require.NoError(t, err)
	require.InDelta(t, 0.1, acc, 1e-12)
	require.InDelta(t, 0, prec, 1e-12)

	// Worst case reduces over grid points with max instead of RMS; for a
	// constant offset they coincide.
	accW, _, err := swp.Score(false, true)
	require.NoError(t, err)
	require.InDelta(t, 0.1, accW, 1e-12)

	// In bits: the command span is 1, so accuracy is log2(1/0.1). The
	// spread is exactly zero, which maps to infinite precision.
	accBits, precBits, err := swp.Score(true, false)
	require.NoError(t, err)
	require.InDelta(t, math.Log2(10), accBits, 1e-9)
	require.True(t, math.IsInf(precBits, 1))
}

func TestCmdCtrlTwoDimensionalCoupling(t *testing.T) {
	t.Parallel()

	// Channel 0 picks up half of channel 2: a non-separable controller.
	coupled := func(cmd []float64) ([]float64, error) {
		out := append([]float64(nil), cmd...)
		out[0] = cmd[0] + 0.5*cmd[2]
		return out, nil
	}
	swp, err := NewCmdCtrl("coupled", coupled, []float64{0, 7, 0}, []int{0, 2},
		[]float64{1, 2}, []float64{10, 20, 30})
	require.NoError(t, err)
	require.NoError(t, swp.Gather(context.Background()))

	res := swp.Result()
	require.Equal(t, Shape{2, 3}, res.GridShape)

	// The command grid is pre-expanded row-major, first domain slowest.
	require.Equal(t, [][]float64{
		{1, 10}, {1, 20}, {1, 30},
		{2, 10}, {2, 20}, {2, 30},
	}, res.Cmd)

	errs, err := swp.ControlError()
	require.NoError(t, err)
	for g, e := range errs {
		require.InDelta(t, 0.5*res.Cmd[g][1], e[0], 1e-12, "grid point %d", g)
		require.Zero(t, e[1])
	}
}

func TestCmdCtrlRandomizeStillFillsGrid(t *testing.T) {
	t.Parallel()

	swp, err := NewCmdCtrl("shuffled", IdentityControl(), []float64{0, 0}, []int{0, 1},
		Linspace(0, 1, 4), Linspace(-1, 1, 3))
	require.NoError(t, err)
	swp.SetTrials(2)

	err = swp.GatherWith(context.Background(), CmdCtrlGatherOptions{
		Randomize: true,
		Rand:      rand.New(rand.NewSource(42)),
	})
	require.NoError(t, err)

	res := swp.Result()
	require.True(t, res.Complete)
	require.Equal(t, 24, res.Points)

	// The measurement order was shuffled, the storage is not: every grid
	// point holds exactly its own command.
	errs, err := swp.ControlError()
	require.NoError(t, err)
	for _, e := range errs {
		require.Equal(t, []float64{0, 0}, e)
	}
}

func TestCmdCtrlReporterSeesEveryIteration(t *testing.T) {
	t.Parallel()

	counting := &api.CountingReporter{}
	swp, err := NewCmdCtrl1D("counted", identity1D, Linspace(0, 1, 4))
	require.NoError(t, err)
	swp.SetTrials(3)
	swp.SetMonitorOptions(MonitorOptions{
		Reporter: func(string, Shape) Reporter { return counting },
	})

	require.NoError(t, swp.Gather(context.Background()))
	require.Equal(t, 12, counting.Updates())
	require.Equal(t, 12, counting.Completed())
}

func TestCmdCtrlSaveLoadBind(t *testing.T) {
	t.Parallel()

	swp, err := NewCmdCtrl1D("persisted", identity1D, Linspace(0, 1, 5))
	require.NoError(t, err)
	require.NoError(t, swp.Gather(context.Background()))

	path := filepath.Join(t.TempDir(), "cmdctrl.json")
	require.NoError(t, swp.SaveObject(path))

	restored, err := LoadCmdCtrl(path)
	require.NoError(t, err)
	require.Equal(t, "persisted", restored.Name())

	// Stored data is inspectable without any callable.
	errs, err := restored.ControlError()
	require.NoError(t, err)
	require.Len(t, errs, 5)

	// Gathering is not possible until the controller is re-bound.
	err = restored.Gather(context.Background())
	require.True(t, IsUnboundCallable(err), "got %v", err)

	restored.Bind(IdentityControl())
	require.NoError(t, restored.Gather(context.Background()))
	require.True(t, restored.Result().Complete)
}

func TestCmdCtrlCancellationKeepsPartialResult(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	n := 0
	slowish := func(cmd float64) (float64, error) {
		n++
		if n == 3 {
			cancel()
		}
		return cmd, nil
	}
	swp, err := NewCmdCtrl1D("cancelled", slowish, Linspace(0, 1, 10))
	require.NoError(t, err)

	err = swp.Gather(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, swp.Result())
	require.Equal(t, 3, swp.Result().Points)
	require.False(t, swp.Result().Complete)
}
