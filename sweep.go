package ndsweep

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/lightwave-lab/ndsweep/internal/engine"
	"github.com/lightwave-lab/ndsweep/pkg/api"
)

// MonitorOptions configures how a sweep reports progress while it runs.
type MonitorOptions struct {
	// Reporter builds the progress reporter for each gather. Nil means no
	// progress reporting.
	Reporter api.ReporterFactory

	// Logger receives lifecycle events and suppressed reporter failures.
	// Nil uses slog.Default().
	Logger *slog.Logger
}

// GatherOptions tunes one gather call.
type GatherOptions struct {
	// Soak actuates every axis to its first value and waits this long
	// before sweeping, letting hardware settle.
	Soak time.Duration

	// ReturnToStart re-actuates everything to the first point after the
	// sweep completes.
	ReturnToStart bool

	// AutoSave writes a data-only save to the sweep's save file on
	// completion.
	AutoSave bool
}

// Sweep declares and executes a free N-dimensional sweep: ordered
// actuation axes, order-independent measurements, dependency-ordered
// parsers and broadcastable static data.
//
//	swp := ndsweep.NewSweep("gain-map")
//	swp.AddActuation("pump", ndsweep.Linspace(0, 10, 21), setPump)
//	swp.AddActuation("bias", ndsweep.Linspace(-1, 1, 11), setBias)
//	swp.AddMeasurement("power", readPower)
//	swp.AddParser("gain", func(p ndsweep.Point) (any, error) {
//	    return p["power"].(float64) / p["pump"].(float64), nil
//	})
//	if err := swp.Gather(ctx); err != nil { ... }
//
// Axes nest in declaration order: the first actuation added is the
// outermost, slowest-varying axis. Put expensive actuations first.
type Sweep struct {
	name     string
	decl     *api.Declaration
	grid     *api.Grid
	monitor  MonitorOptions
	savefile string
	archive  *Archive
}

// NewSweep creates an empty sweep. The name shows up in progress
// reporting and archive run logs; it may be empty.
func NewSweep(name string) *Sweep {
	return &Sweep{name: name, decl: &api.Declaration{}}
}

// Repeater returns a sweep with a single "trial" axis of n points and no
// hardware action, used to repeat a subsumed sweep n times.
func Repeater(n int) *Sweep {
	s := NewSweep("repeater")
	_ = s.AddActuation("trial", Linspace(0, float64(n-1), n), NoopActuation())
	return s
}

// Name returns the sweep name.
func (s *Sweep) Name() string { return s.name }

// SetMonitorOptions replaces the sweep's monitoring configuration.
func (s *Sweep) SetMonitorOptions(m MonitorOptions) { s.monitor = m }

// SetSaveFile sets the default path for Save, Load and AutoSave.
func (s *Sweep) SetSaveFile(path string) { s.savefile = path }

// SetArchive attaches a SQLite archive; every gather then appends a run
// record. Archive failures are logged, never fatal.
func (s *Sweep) SetArchive(a *Archive) { s.archive = a }

// Declaration returns a copy of the declared configuration.
func (s *Sweep) Declaration() *api.Declaration { return s.decl.Copy() }

// Grid returns the data grid built by the last gather or load, or nil.
// After a failed gather it holds the points completed before the failure.
func (s *Sweep) Grid() *api.Grid { return s.grid }

// Shape returns the grid shape implied by the declared actuations.
func (s *Sweep) Shape() Shape { return s.decl.Shape() }

// Column returns a key's values across the whole grid.
func (s *Sweep) Column(key string) ([]any, error) {
	if s.grid == nil {
		return nil, fmt.Errorf("sweep %q has no data; gather or load first", s.name)
	}
	return s.grid.Column(key)
}

// FloatColumn returns a key's values across the whole grid as float64.
func (s *Sweep) FloatColumn(key string) ([]float64, error) {
	if s.grid == nil {
		return nil, fmt.Errorf("sweep %q has no data; gather or load first", s.name)
	}
	return s.grid.FloatColumn(key)
}

// AddActuation declares a sweep axis. The action runs when the axis
// advances to a new domain value, outermost-to-innermost. A non-nil
// action return is recorded under key + "-return"; that derived key is
// reserved here and checked for collisions like any other key.
func (s *Sweep) AddActuation(key string, domain []float64, act api.ActuationFunc) error {
	return s.addActuation(key, domain, act, false)
}

// AddActuationEvery is AddActuation with the action forced to run at
// every grid point, not only when this axis advances.
func (s *Sweep) AddActuationEvery(key string, domain []float64, act api.ActuationFunc) error {
	return s.addActuation(key, domain, act, true)
}

func (s *Sweep) addActuation(key string, domain []float64, act api.ActuationFunc, every bool) error {
	if act == nil {
		panic(fmt.Sprintf("ndsweep: actuation %q has nil action", key))
	}
	if len(domain) == 0 {
		return fmt.Errorf("actuation %q needs a non-empty domain", key)
	}
	a := api.Actuation{Key: key, Domain: append([]float64(nil), domain...), Act: act, EveryPoint: every}
	for _, k := range []string{key, a.ResultKey()} {
		if s.decl.HasKey(k) {
			return &api.DuplicateKeyError{Key: k}
		}
	}
	s.decl.Actuations = append(s.decl.Actuations, a)
	return nil
}

// AddMeasurement declares a probe called at every grid point.
func (s *Sweep) AddMeasurement(key string, probe api.MeasurementFunc) error {
	if probe == nil {
		panic(fmt.Sprintf("ndsweep: measurement %q has nil probe", key))
	}
	if s.decl.HasKey(key) {
		return &api.DuplicateKeyError{Key: key}
	}
	s.decl.Measurements = append(s.decl.Measurements, api.Measurement{Key: key, Probe: probe})
	return nil
}

// AddParser declares a derived value. Parsers run in declaration order
// and may read any key declared before them. If the sweep already holds a
// completed grid, the new parser is evaluated over it immediately.
func (s *Sweep) AddParser(key string, derive api.ParserFunc) error {
	if derive == nil {
		panic(fmt.Sprintf("ndsweep: parser %q has nil function", key))
	}
	if s.decl.HasKey(key) {
		return &api.DuplicateKeyError{Key: key}
	}
	s.decl.Parsers = append(s.decl.Parsers, api.Parser{Key: key, Derive: derive})
	if s.grid != nil && s.grid.Complete() {
		return engine.Reparse(s.decl, s.grid, key)
	}
	return nil
}

// AddStaticData declares a scalar broadcast to every grid point, visible
// to parsers under its key.
func (s *Sweep) AddStaticData(key string, value any) error {
	if s.decl.HasKey(key) {
		return &api.DuplicateKeyError{Key: key}
	}
	s.decl.Statics = append(s.decl.Statics, api.StaticData{Key: key, Scalar: value})
	return nil
}

// AddStaticArray declares static data shaped like a prefix of the grid:
// values vary over the leading axes and broadcast over the rest. Axes
// already declared are validated now; axes the array expects beyond them
// are validated at gather time.
func (s *Sweep) AddStaticArray(key string, shape Shape, values []any) error {
	if s.decl.HasKey(key) {
		return &api.DuplicateKeyError{Key: key}
	}
	if len(values) != shape.Size() {
		return &api.ShapeError{Key: key, Want: shape, Got: Shape{len(values)}}
	}
	declared := s.decl.Shape()
	for i := 0; i < len(shape) && i < len(declared); i++ {
		if shape[i] != declared[i] {
			return &api.ShapeError{Key: key, Want: declared, Got: shape}
		}
	}
	s.decl.Statics = append(s.decl.Statics, api.StaticData{
		Key:   key,
		Array: append([]any(nil), values...),
		Shape: append(Shape(nil), shape...),
	})
	return nil
}

// Gather executes the sweep with default options.
func (s *Sweep) Gather(ctx context.Context) error {
	return s.GatherWith(ctx, GatherOptions{})
}

// GatherWith executes the sweep: it discards any previous grid, walks the
// cartesian product of the actuation domains and fills a fresh grid. On
// failure the partial grid stays accessible through Grid, unmarked as
// complete.
func (s *Sweep) GatherWith(ctx context.Context, opts GatherOptions) error {
	name := s.displayName()
	logger := s.logger()
	shape := s.decl.Shape()

	var reporter api.Reporter
	if s.monitor.Reporter != nil {
		reporter = s.monitor.Reporter(name, shape)
	}

	var runID int64
	if s.archive != nil {
		id, err := s.archive.runs.BeginRun(name, shape.Size())
		if err != nil {
			logger.Error("run log begin failed", slog.String("sweep", name), slog.Any("error", err))
		} else {
			runID = id
		}
	}

	if opts.Soak > 0 {
		if err := engine.ActuateFirst(s.decl); err != nil {
			s.finishRun(runID, 0, api.RunFailed, err)
			return err
		}
		select {
		case <-ctx.Done():
			s.finishRun(runID, 0, api.RunFailed, ctx.Err())
			return ctx.Err()
		case <-time.After(opts.Soak):
		}
	}

	grid, err := engine.Gather(ctx, s.decl, engine.Config{
		Name:     name,
		Reporter: reporter,
		Logger:   logger,
	})
	s.grid = grid
	if err != nil {
		points := 0
		if grid != nil {
			points = grid.Points()
		}
		logger.Error("sweep failed",
			slog.String("sweep", name),
			slog.Int("points", points),
			slog.Any("error", err),
		)
		s.finishRun(runID, points, api.RunFailed, err)
		return err
	}

	logger.Info("sweep completed",
		slog.String("sweep", name),
		slog.Int("points", grid.Points()),
	)
	s.finishRun(runID, grid.Points(), api.RunCompleted, nil)

	if opts.ReturnToStart {
		if err := engine.ActuateFirst(s.decl); err != nil {
			return err
		}
	}
	if opts.AutoSave {
		if s.savefile == "" {
			return fmt.Errorf("AutoSave set but no save file specified")
		}
		return s.Save(s.savefile)
	}
	return nil
}

func (s *Sweep) finishRun(runID int64, points int, status string, cause error) {
	if s.archive == nil || runID == 0 {
		return
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := s.archive.runs.FinishRun(runID, points, status, msg); err != nil {
		s.logger().Error("run log finish failed", slog.Any("error", err))
	}
}

// Reparse recomputes parser columns over the stored grid, in declaration
// order. With no keys, every parser reruns. Useful after Load, or after
// re-binding parsers on a restored sweep.
func (s *Sweep) Reparse(keys ...string) error {
	return engine.Reparse(s.decl, s.grid, keys...)
}

// Subsume combines this sweep with another into one higher-dimensional
// sweep: the receiver's axes stay outermost and other's axes nest fully
// inside (swap the receiver to reverse that). Key namespaces must stay
// disjoint. The result is a fresh declaration with no data.
func (s *Sweep) Subsume(other *Sweep) (*Sweep, error) {
	combined := s.Copy(false)
	if s.name != "" && other.name != "" {
		combined.name = s.name + "+" + other.name
	}
	for _, a := range other.decl.Actuations {
		for _, k := range []string{a.Key, a.ResultKey()} {
			if combined.decl.HasKey(k) {
				return nil, &api.DuplicateKeyError{Key: k}
			}
		}
		combined.decl.Actuations = append(combined.decl.Actuations, a)
	}
	for _, m := range other.decl.Measurements {
		if combined.decl.HasKey(m.Key) {
			return nil, &api.DuplicateKeyError{Key: m.Key}
		}
		combined.decl.Measurements = append(combined.decl.Measurements, m)
	}
	for _, p := range other.decl.Parsers {
		if combined.decl.HasKey(p.Key) {
			return nil, &api.DuplicateKeyError{Key: p.Key}
		}
		combined.decl.Parsers = append(combined.decl.Parsers, p)
	}
	for _, st := range other.decl.Statics {
		if combined.decl.HasKey(st.Key) {
			return nil, &api.DuplicateKeyError{Key: st.Key}
		}
		combined.decl.Statics = append(combined.decl.Statics, st)
	}
	return combined, nil
}

// Copy returns a sweep with the same declaration. Callables are shared;
// with includeData the grid columns are deep-copied as well.
func (s *Sweep) Copy(includeData bool) *Sweep {
	out := &Sweep{
		name:     s.name,
		decl:     s.decl.Copy(),
		monitor:  s.monitor,
		savefile: s.savefile,
		archive:  s.archive,
	}
	if includeData && s.grid != nil {
		g := s.grid
		cols := make(map[string][]any, len(g.Keys()))
		for _, k := range g.Keys() {
			col, _ := g.Column(k)
			cols[k] = append([]any(nil), col...)
		}
		copied, err := api.RestoredGrid(g.Shape(), g.Keys(), cols, g.Points(), g.Complete())
		if err == nil {
			out.grid = copied
		}
	}
	return out
}

func (s *Sweep) displayName() string {
	if s.name != "" {
		return s.name
	}
	keys := make([]string, 0, len(s.decl.Actuations))
	for _, a := range s.decl.Actuations {
		keys = append(keys, a.Key)
	}
	return "sweep in " + strings.Join(keys, ", ")
}

func (s *Sweep) logger() *slog.Logger {
	if s.monitor.Logger != nil {
		return s.monitor.Logger
	}
	return slog.Default()
}

// SimpleSweep runs a one-dimensional sweep without declaring a Sweep by
// hand: actuate over domain, measure at every point, return the measured
// column. With a nil measure the actuation's own returns are measured.
func SimpleSweep(ctx context.Context, act api.ActuationFunc, domain []float64, measure api.MeasurementFunc) ([]any, error) {
	swp := NewSweep("")
	if err := swp.AddActuation("act0", domain, act); err != nil {
		return nil, err
	}
	key := "act0" + api.ResultSuffix
	if measure != nil {
		if err := swp.AddMeasurement("meas0", measure); err != nil {
			return nil, err
		}
		key = "meas0"
	}
	if err := swp.Gather(ctx); err != nil {
		return nil, err
	}
	return swp.Column(key)
}

// Linspace returns n evenly spaced values from start to stop inclusive.
func Linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	switch n {
	case 0:
		return out
	case 1:
		out[0] = start
		return out
	}
	return floats.Span(out, start, stop)
}
