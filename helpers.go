package ndsweep

import (
	"time"

	"github.com/lightwave-lab/ndsweep/pkg/api"
)

// NoopActuation returns an action that does nothing and measures nothing.
// Useful for trial axes and for sweeps driven entirely by EveryPoint
// side effects elsewhere.
func NoopActuation() api.ActuationFunc {
	return func(x float64) (any, error) { return nil, nil }
}

// SettleActuation wraps an action with a settling wait: slow hardware
// (thermal tuners, mechanical stages) often needs time after each move
// before a measurement is trustworthy.
func SettleActuation(act api.ActuationFunc, settle time.Duration) api.ActuationFunc {
	return func(x float64) (any, error) {
		ret, err := act(x)
		if err != nil {
			return nil, err
		}
		time.Sleep(settle)
		return ret, nil
	}
}

// ConstMeasurement returns a probe that records the same value at every
// point. Handy for tagging runs and for tests.
func ConstMeasurement(v any) api.MeasurementFunc {
	return func() (any, error) { return v, nil }
}

// IdentityControl returns a controller that echoes the command vector.
// Sweeping it characterizes the measurement path alone: any non-zero
// control error is tracking error downstream of the controller.
func IdentityControl() api.ControlFunc {
	return func(cmd []float64) ([]float64, error) {
		return append([]float64(nil), cmd...), nil
	}
}
