package ndsweep

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/lightwave-lab/ndsweep/internal/engine"
	"github.com/lightwave-lab/ndsweep/internal/persistence"
	"github.com/lightwave-lab/ndsweep/pkg/api"
)

// CmdCtrlSweep declares and executes a command-control sweep: instead of
// independent per-axis actuation, each point's actuation is the image of
// a desired command vector through a controller, and the measured vector
// is compared back against the command to characterize tracking error.
//
// Sweep dimensionality always equals measured dimensionality: the
// evaluate callable receives the full command vector and must return a
// vector of the same length. In two or more dimensions the controller is
// generally non-separable, so the whole command grid is materialized
// before the sweep starts.
type CmdCtrlSweep struct {
	name    string
	decl    *api.CmdCtrl
	result  *api.CmdCtrlResult
	monitor MonitorOptions
}

// CmdCtrlGatherOptions tunes one command-control gather.
type CmdCtrlGatherOptions struct {
	// Randomize visits each swept axis in a shuffled order; storage stays
	// indexed by the true grid position.
	Randomize bool

	// Rand is the randomness source for Randomize; nil uses the shared
	// package source.
	Rand *rand.Rand
}

// NewCmdCtrl declares a command-control sweep. defaultArg fixes the value
// of every channel of the command vector; swpInds names the channels to
// sweep, one per domain, in nesting order (first slowest). The domain
// count must equal the swept channel count.
func NewCmdCtrl(name string, evaluate api.ControlFunc, defaultArg []float64, swpInds []int, domains ...[]float64) (*CmdCtrlSweep, error) {
	if len(domains) != len(swpInds) {
		return nil, &api.DimensionError{Want: len(swpInds), Got: len(domains)}
	}
	for _, ch := range swpInds {
		if ch < 0 || ch >= len(defaultArg) {
			return nil, fmt.Errorf("swept channel %d out of range for a %d-channel command", ch, len(defaultArg))
		}
	}
	for d, dom := range domains {
		if len(dom) == 0 {
			return nil, fmt.Errorf("domain %d is empty", d)
		}
	}
	return &CmdCtrlSweep{
		name: name,
		decl: &api.CmdCtrl{
			Evaluate: evaluate,
			Default:  append([]float64(nil), defaultArg...),
			SwpInds:  append([]int(nil), swpInds...),
			Domains:  domains,
			Trials:   1,
		},
	}, nil
}

// NewCmdCtrl1D declares a scalar command-control sweep over one domain,
// wrapping a scalar controller.
func NewCmdCtrl1D(name string, evaluate func(cmd float64) (float64, error), domain []float64) (*CmdCtrlSweep, error) {
	vec := func(cmd []float64) ([]float64, error) {
		y, err := evaluate(cmd[0])
		if err != nil {
			return nil, err
		}
		return []float64{y}, nil
	}
	return NewCmdCtrl(name, vec, []float64{0}, []int{0}, domain)
}

// Name returns the sweep name.
func (c *CmdCtrlSweep) Name() string { return c.name }

// SetTrials sets how many times the full grid is repeated. Repeated
// trials separate systematic tracking error from noise.
func (c *CmdCtrlSweep) SetTrials(n int) {
	if n < 1 {
		n = 1
	}
	c.decl.Trials = n
}

// SetMonitorOptions replaces the sweep's monitoring configuration.
func (c *CmdCtrlSweep) SetMonitorOptions(m MonitorOptions) { c.monitor = m }

// Result returns the output of the last gather or load: the nominal
// command grid and the measured vectors. Nil before the first gather.
func (c *CmdCtrlSweep) Result() *api.CmdCtrlResult { return c.result }

// Gather executes the sweep with default options.
func (c *CmdCtrlSweep) Gather(ctx context.Context) error {
	return c.GatherWith(ctx, CmdCtrlGatherOptions{})
}

// GatherWith executes trials × the command grid. A controller error
// aborts the sweep; the partial result stays accessible through Result.
func (c *CmdCtrlSweep) GatherWith(ctx context.Context, opts CmdCtrlGatherOptions) error {
	name := c.name
	if name == "" {
		name = "command-control sweep"
	}
	shape := append(api.Shape{c.decl.Trials}, c.decl.GridShape()...)

	var reporter api.Reporter
	if c.monitor.Reporter != nil {
		reporter = c.monitor.Reporter(name, shape)
	}

	res, err := engine.GatherCmdCtrl(ctx, c.decl, engine.Config{
		Name:     name,
		Reporter: reporter,
		Logger:   c.monitor.Logger,
	}, engine.CmdCtrlOptions{Randomize: opts.Randomize, Rand: opts.Rand})
	c.result = res
	if err != nil {
		c.logger().Error("command-control sweep failed",
			slog.String("sweep", name),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// ControlError returns measured minus commanded values on the swept
// channels, per trial and grid point.
func (c *CmdCtrlSweep) ControlError() ([][]float64, error) {
	if c.result == nil {
		return nil, fmt.Errorf("no data; gather or load first")
	}
	return c.result.ControlError()
}

// Score reduces the sweep to accuracy and precision; see
// api.CmdCtrlResult.Score.
func (c *CmdCtrlSweep) Score(bits, worstCase bool) (accuracy, precision float64, err error) {
	if c.result == nil {
		return 0, 0, fmt.Errorf("no data; gather or load first")
	}
	return c.result.Score(bits, worstCase)
}

// SaveObject writes the declaration and result, excluding the control
// callable. Bind must be called after LoadCmdCtrl before re-gathering.
func (c *CmdCtrlSweep) SaveObject(path string) error {
	if path == "" {
		return fmt.Errorf("no save file specified")
	}
	return persistence.WriteCmdCtrlFile(path, c.name, c.decl, c.result)
}

// LoadCmdCtrl restores a sweep saved with SaveObject. The control
// callable comes back nil; gathering fails with UnboundCallableError
// until Bind is called, while Result works immediately.
func LoadCmdCtrl(path string) (*CmdCtrlSweep, error) {
	name, decl, res, err := persistence.ReadCmdCtrlFile(path)
	if err != nil {
		return nil, err
	}
	return &CmdCtrlSweep{name: name, decl: decl, result: res}, nil
}

// Bind re-attaches the control callable after LoadCmdCtrl.
func (c *CmdCtrlSweep) Bind(evaluate api.ControlFunc) { c.decl.Evaluate = evaluate }

func (c *CmdCtrlSweep) logger() *slog.Logger {
	if c.monitor.Logger != nil {
		return c.monitor.Logger
	}
	return slog.Default()
}
