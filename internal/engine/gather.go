// Package engine holds the sweep executors. External callers drive them
// through the root ndsweep package; the declaration and grid types live
// in pkg/api.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lightwave-lab/ndsweep/pkg/api"
)

// Config carries the collaborators for one gather call.
type Config struct {
	Name     string
	Reporter api.Reporter
	Logger   *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Gather executes a declared free sweep: it builds the grid from the
// actuation domain lengths and walks the cartesian product of axis
// indices in row-major order, first-declared axis slowest.
//
// A callable error aborts the sweep immediately and is returned wrapped
// with the failing key and index; the partially filled grid is returned
// alongside for post-mortem inspection, unmarked as complete. Reporter
// failures are logged and suppressed.
func Gather(ctx context.Context, decl *api.Declaration, cfg Config) (*api.Grid, error) {
	shape := decl.Shape()

	// Static data that could not be checked at declaration time is
	// checked now, before any hardware is touched.
	for _, s := range decl.Statics {
		if s.Array != nil && !s.Shape.PrefixOf(shape) {
			return nil, &api.ShapeError{Key: s.Key, Want: shape, Got: s.Shape}
		}
	}

	grid := api.NewGrid(shape)
	size := shape.Size()

	// Carried return values: an outer actuation only fires when its axis
	// advances, but its latest return is recorded at every point so the
	// result column has one entry per point.
	lastRet := make([]any, len(decl.Actuations))
	hasRet := make([]bool, len(decl.Actuations))

	reporter := cfg.Reporter
	if reporter == nil {
		reporter = api.NoopReporter{}
	}

	for flat := 0; flat < size; flat++ {
		select {
		case <-ctx.Done():
			return grid, ctx.Err()
		default:
		}

		index := shape.Unflatten(flat)
		point := make(api.Point)
		record := func(key string, v any) {
			point[key] = v
			grid.Set(flat, key, v)
		}

		for _, s := range decl.Statics {
			record(s.Key, s.ValueAt(index))
		}

		for ax, a := range decl.Actuations {
			x := a.Domain[index[ax]]
			record(a.Key, x)
			if a.EveryPoint || firstVisit(index, ax) {
				if a.Act == nil {
					return grid, &api.UnboundCallableError{Key: a.Key, Kind: "actuation"}
				}
				ret, err := a.Act(x)
				if err != nil {
					return grid, fmt.Errorf("actuation %q at %v: %w", a.Key, index, err)
				}
				if ret != nil {
					lastRet[ax] = ret
					hasRet[ax] = true
				}
			}
			if hasRet[ax] {
				record(a.Key+api.ResultSuffix, lastRet[ax])
			}
		}

		for _, m := range decl.Measurements {
			if m.Probe == nil {
				return grid, &api.UnboundCallableError{Key: m.Key, Kind: "measurement"}
			}
			v, err := m.Probe()
			if err != nil {
				return grid, fmt.Errorf("measurement %q at %v: %w", m.Key, index, err)
			}
			record(m.Key, v)
		}

		for _, p := range decl.Parsers {
			if p.Derive == nil {
				return grid, &api.UnboundCallableError{Key: p.Key, Kind: "parser"}
			}
			v, err := p.Derive(point)
			if err != nil {
				return grid, fmt.Errorf("parser %q at %v: %w", p.Key, index, err)
			}
			record(p.Key, v)
		}

		grid.MarkPoint(flat)
		safeUpdate(cfg.logger(), cfg.Name, reporter, flat+1)
	}

	grid.MarkComplete()
	return grid, nil
}

// firstVisit reports whether the current point is the first visit to axis
// ax's current value, i.e. every inner axis is at index zero.
func firstVisit(index []int, ax int) bool {
	for i := ax + 1; i < len(index); i++ {
		if index[i] != 0 {
			return false
		}
	}
	return true
}

// ActuateFirst drives every actuation to its first domain value, in
// declaration order. Used for soak-in before a sweep and for returning
// hardware to the starting point afterwards.
func ActuateFirst(decl *api.Declaration) error {
	for _, a := range decl.Actuations {
		if len(a.Domain) == 0 {
			continue
		}
		if a.Act == nil {
			return &api.UnboundCallableError{Key: a.Key, Kind: "actuation"}
		}
		if _, err := a.Act(a.Domain[0]); err != nil {
			return fmt.Errorf("actuation %q: %w", a.Key, err)
		}
	}
	return nil
}

// safeUpdate delivers a progress update, suppressing errors and panics so
// a broken reporter cannot abort the sweep.
func safeUpdate(logger *slog.Logger, name string, r api.Reporter, completed int) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("progress reporter panicked",
				slog.String("sweep", name),
				slog.Any("panic", rec),
			)
		}
	}()
	if err := r.Update(completed); err != nil {
		logger.Error("progress reporter failed",
			slog.String("sweep", name),
			slog.Int("completed", completed),
			slog.Any("error", err),
		)
	}
}

// Reparse recomputes parser columns over an already gathered grid, in
// declaration order. With no keys given every parser is recomputed;
// otherwise only the named ones run, still in declaration order. Parsers
// are idempotent given identical stored data, so reparsing a completed
// grid is safe at any time.
func Reparse(decl *api.Declaration, grid *api.Grid, keys ...string) error {
	if grid == nil {
		return nil
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	n := grid.Points()
	for _, p := range decl.Parsers {
		if len(keys) > 0 && !want[p.Key] {
			continue
		}
		if p.Derive == nil {
			return &api.UnboundCallableError{Key: p.Key, Kind: "parser"}
		}
		for flat := 0; flat < n; flat++ {
			pt, err := grid.AtFlat(flat)
			if err != nil {
				return err
			}
			v, err := p.Derive(pt)
			if err != nil {
				return fmt.Errorf("parser %q at offset %d: %w", p.Key, flat, err)
			}
			grid.Set(flat, p.Key, v)
		}
	}
	return nil
}
