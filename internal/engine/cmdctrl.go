package engine

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/lightwave-lab/ndsweep/pkg/api"
)

// CmdCtrlOptions tunes a command-control gather.
type CmdCtrlOptions struct {
	// Randomize visits each swept axis in a random permutation instead of
	// domain order. Storage stays indexed by the true grid position, so
	// the result is identical for a well-behaved controller; the shuffled
	// order exposes hysteresis in a badly behaved one.
	Randomize bool

	// Rand is the randomness source for Randomize. Nil uses the shared
	// package source.
	Rand *rand.Rand
}

// GatherCmdCtrl executes a command-control sweep: trials × the command
// grid, trial-major, innermost swept axis fastest. The command grid is
// fully materialized before the first evaluate call.
func GatherCmdCtrl(ctx context.Context, decl *api.CmdCtrl, cfg Config, opts CmdCtrlOptions) (*api.CmdCtrlResult, error) {
	gridShape := decl.GridShape()
	gridSize := gridShape.Size()
	trials := decl.Trials
	if trials < 1 {
		trials = 1
	}

	res := &api.CmdCtrlResult{
		GridShape: gridShape,
		Trials:    trials,
		AllDims:   len(decl.Default),
		SwpInds:   append([]int(nil), decl.SwpInds...),
		Cmd:       decl.ExpandCmdGrid(),
		Meas:      make([][]float64, trials*gridSize),
	}

	reporter := cfg.Reporter
	if reporter == nil {
		reporter = api.NoopReporter{}
	}

	// Full iteration space is (trials,) + gridShape.
	fullShape := append(api.Shape{trials}, gridShape...)

	var perms [][]int
	if opts.Randomize {
		src := opts.Rand
		perms = make([][]int, len(gridShape))
		for d, n := range gridShape {
			if src != nil {
				perms[d] = src.Perm(n)
			} else {
				perms[d] = rand.Perm(n)
			}
		}
	}

	completed := 0
	for flat := 0; flat < fullShape.Size(); flat++ {
		select {
		case <-ctx.Done():
			res.Points = completed
			return res, ctx.Err()
		default:
		}

		index := fullShape.Unflatten(flat)
		trial, gridIndex := index[0], index[1:]
		if perms != nil {
			shuffled := make([]int, len(gridIndex))
			for d := range gridIndex {
				shuffled[d] = perms[d][gridIndex[d]]
			}
			gridIndex = shuffled
		}
		gridFlat := gridShape.Flatten(gridIndex)

		if decl.Evaluate == nil {
			res.Points = completed
			return res, &api.UnboundCallableError{Key: "evaluate", Kind: "control"}
		}

		cmdVec := append([]float64(nil), decl.Default...)
		for d, ch := range decl.SwpInds {
			cmdVec[ch] = res.Cmd[gridFlat][d]
		}

		measVec, err := decl.Evaluate(cmdVec)
		if err != nil {
			res.Points = completed
			return res, fmt.Errorf("control evaluate at trial %d index %v: %w", trial, gridIndex, err)
		}
		if len(measVec) != len(cmdVec) {
			res.Points = completed
			return res, &api.DimensionError{Want: len(cmdVec), Got: len(measVec)}
		}

		res.Meas[trial*gridSize+gridFlat] = append([]float64(nil), measVec...)
		completed++
		safeUpdate(cfg.logger(), cfg.Name, reporter, completed)
	}

	res.Points = completed
	res.Complete = true
	return res, nil
}
