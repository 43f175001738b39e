package ndsweep

import (
	"github.com/lightwave-lab/ndsweep/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Shape           = api.Shape
	Point           = api.Point
	Grid            = api.Grid
	ActuationFunc   = api.ActuationFunc
	MeasurementFunc = api.MeasurementFunc
	ParserFunc      = api.ParserFunc
	ControlFunc     = api.ControlFunc
	Reporter        = api.Reporter
	ReporterFactory = api.ReporterFactory
	RunRecord       = api.RunRecord

	DuplicateKeyError    = api.DuplicateKeyError
	ShapeError           = api.ShapeError
	DimensionError       = api.DimensionError
	UnboundCallableError = api.UnboundCallableError
)

// Re-export common reporter helpers and error predicates.

var (
	NewMultiReporter  = api.NewMultiReporter
	SlogFactory       = api.SlogFactory
	IsDuplicateKey    = api.IsDuplicateKey
	IsUnboundCallable = api.IsUnboundCallable

	ErrKeyNotFound = api.ErrKeyNotFound
	ErrPointAbsent = api.ErrPointAbsent
)

// Run log statuses, for filtering Archive.Runs output.

const (
	RunRunning   = api.RunRunning
	RunCompleted = api.RunCompleted
	RunFailed    = api.RunFailed
)

// ResultSuffix names the reserved column for actuation return values.
const ResultSuffix = api.ResultSuffix
