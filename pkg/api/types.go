package api

// ActuationFunc changes something in the sweep domain, usually by driving
// an instrument. It receives one domain value. A non-nil return is
// recorded in the grid under the actuation's reserved result key.
type ActuationFunc func(x float64) (any, error)

// MeasurementFunc probes one value, usually from an instrument. It takes
// no arguments and is called once per grid point.
type MeasurementFunc func() (any, error)

// ParserFunc derives a value from everything already recorded at a single
// grid point. Parsers run in declaration order, so a parser may read the
// output of any parser declared before it.
type ParserFunc func(p Point) (any, error)

// ControlFunc evaluates a command-control point: it receives the full
// command vector and returns the measured vector of equal length.
type ControlFunc func(cmd []float64) ([]float64, error)

// ResultSuffix is appended to an actuation key to name the column holding
// its action's return values. The derived key is reserved at declaration
// time and takes part in the same uniqueness check as every other key.
const ResultSuffix = "-return"

// Actuation is one sweep axis: a key, the ordered domain of values, and
// the action invoked with each value. Declaration order sets loop nesting,
// first declared is outermost and varies slowest.
type Actuation struct {
	Key    string
	Domain []float64
	Act    ActuationFunc

	// EveryPoint forces the action to run at every grid point rather than
	// only when this axis advances to a new value.
	EveryPoint bool
}

// ResultKey is the reserved column key for the action's return values.
func (a Actuation) ResultKey() string { return a.Key + ResultSuffix }

// Measurement is a keyed probe invoked at every grid point. Measurements
// do not add axes; their declaration order only fixes execution order.
type Measurement struct {
	Key   string
	Probe MeasurementFunc
}

// Parser is a keyed derivation over point data.
type Parser struct {
	Key    string
	Derive ParserFunc
}

// StaticData is context data visible to parsers at every point. A scalar
// broadcasts to the whole grid; an array must be shaped like a prefix of
// the grid shape and broadcasts over the remaining inner axes.
type StaticData struct {
	Key    string
	Scalar any
	Array  []any // flat, row-major, shaped by ArrayShape; nil for scalars
	Shape  Shape // shape of Array
}

// ValueAt resolves the static value at a multi-index.
func (s StaticData) ValueAt(index []int) any {
	if s.Array == nil {
		return s.Scalar
	}
	return s.Array[s.Shape.Flatten(index[:len(s.Shape)])]
}

// Declaration is the full declared configuration of a free sweep: the
// ordered entry lists that gather executes. It carries no execution state.
type Declaration struct {
	Actuations   []Actuation
	Measurements []Measurement
	Parsers      []Parser
	Statics      []StaticData
}

// Shape returns the grid shape implied by the actuation domains, in
// declaration order.
func (d *Declaration) Shape() Shape {
	shape := make(Shape, len(d.Actuations))
	for i, a := range d.Actuations {
		shape[i] = len(a.Domain)
	}
	return shape
}

// HasKey reports whether key collides with any declared or reserved key.
func (d *Declaration) HasKey(key string) bool {
	for _, a := range d.Actuations {
		if a.Key == key || a.ResultKey() == key {
			return true
		}
	}
	for _, m := range d.Measurements {
		if m.Key == key {
			return true
		}
	}
	for _, p := range d.Parsers {
		if p.Key == key {
			return true
		}
	}
	for _, s := range d.Statics {
		if s.Key == key {
			return true
		}
	}
	return false
}

// Copy returns a deep copy of the declaration. Callables are shared, the
// way bound instrument methods are shared between sweep variants.
func (d *Declaration) Copy() *Declaration {
	out := &Declaration{
		Actuations:   append([]Actuation(nil), d.Actuations...),
		Measurements: append([]Measurement(nil), d.Measurements...),
		Parsers:      append([]Parser(nil), d.Parsers...),
		Statics:      append([]StaticData(nil), d.Statics...),
	}
	for i := range out.Actuations {
		out.Actuations[i].Domain = append([]float64(nil), out.Actuations[i].Domain...)
	}
	for i := range out.Statics {
		if out.Statics[i].Array != nil {
			out.Statics[i].Array = append([]any(nil), out.Statics[i].Array...)
			out.Statics[i].Shape = append(Shape(nil), out.Statics[i].Shape...)
		}
	}
	return out
}
