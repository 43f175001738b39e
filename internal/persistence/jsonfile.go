package persistence

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lightwave-lab/ndsweep/pkg/api"
)

// GridFile is the data-only save format: a keyed collection of arrays
// with enough metadata (key order, grid shape) to rebuild both the
// per-key and per-point views. JSON keeps it human-inspectable; numeric
// values come back as float64.
type GridFile struct {
	Name     string           `json:"name,omitempty"`
	Shape    []int            `json:"shape"`
	Keys     []string         `json:"keys"`
	Points   int              `json:"points"`
	Complete bool             `json:"complete"`
	Columns  map[string][]any `json:"columns"`
}

func newGridFile(name string, g *api.Grid) (*GridFile, error) {
	f := &GridFile{
		Name:     name,
		Shape:    g.Shape(),
		Keys:     g.Keys(),
		Points:   g.Points(),
		Complete: g.Complete(),
		Columns:  make(map[string][]any, len(g.Keys())),
	}
	for _, k := range f.Keys {
		col, err := g.Column(k)
		if err != nil {
			return nil, err
		}
		f.Columns[k] = col
	}
	return f, nil
}

func (f *GridFile) grid() (*api.Grid, error) {
	return api.RestoredGrid(api.Shape(f.Shape), f.Keys, f.Columns, f.Points, f.Complete)
}

// WriteGridFile saves a grid's contents to path.
func WriteGridFile(path, name string, g *api.Grid) error {
	f, err := newGridFile(name, g)
	if err != nil {
		return err
	}
	return writeJSON(path, f)
}

// ReadGridFile rebuilds a grid from a file written by WriteGridFile.
func ReadGridFile(path string) (string, *api.Grid, error) {
	var f GridFile
	if err := readJSON(path, &f); err != nil {
		return "", nil, err
	}
	g, err := f.grid()
	if err != nil {
		return "", nil, err
	}
	return f.Name, g, nil
}

// ActuationMeta is the durable part of an actuation entry.
type ActuationMeta struct {
	Key        string    `json:"key"`
	Domain     []float64 `json:"domain"`
	EveryPoint bool      `json:"everyPoint,omitempty"`
}

// StaticMeta is the durable form of a static-data entry.
type StaticMeta struct {
	Key    string `json:"key"`
	Scalar any    `json:"scalar,omitempty"`
	Array  []any  `json:"array,omitempty"`
	Shape  []int  `json:"arrayShape,omitempty"`
}

// RebindMeta marks one key whose callable must be re-attached before the
// sweep can gather again.
type RebindMeta struct {
	Key  string `json:"key"`
	Kind string `json:"kind"`
}

// ObjectFile is the whole-object save format: the grid data plus the
// durable declaration. Callables cannot be represented durably (they
// usually close over live instrument sessions), so they are listed in
// Rebind instead of serialized.
type ObjectFile struct {
	Name         string          `json:"name,omitempty"`
	Actuations   []ActuationMeta `json:"actuations"`
	Measurements []string        `json:"measurements"`
	Parsers      []string        `json:"parsers"`
	Statics      []StaticMeta    `json:"statics,omitempty"`
	Rebind       []RebindMeta    `json:"rebind"`
	Grid         *GridFile       `json:"grid,omitempty"`
}

// WriteObjectFile saves the declaration and grid to path. grid may be nil
// for a sweep that was never gathered.
func WriteObjectFile(path, name string, decl *api.Declaration, g *api.Grid) error {
	f := &ObjectFile{Name: name}
	for _, a := range decl.Actuations {
		f.Actuations = append(f.Actuations, ActuationMeta{
			Key: a.Key, Domain: a.Domain, EveryPoint: a.EveryPoint,
		})
		f.Rebind = append(f.Rebind, RebindMeta{Key: a.Key, Kind: "actuation"})
	}
	for _, m := range decl.Measurements {
		f.Measurements = append(f.Measurements, m.Key)
		f.Rebind = append(f.Rebind, RebindMeta{Key: m.Key, Kind: "measurement"})
	}
	for _, p := range decl.Parsers {
		f.Parsers = append(f.Parsers, p.Key)
		f.Rebind = append(f.Rebind, RebindMeta{Key: p.Key, Kind: "parser"})
	}
	for _, s := range decl.Statics {
		f.Statics = append(f.Statics, StaticMeta{
			Key: s.Key, Scalar: s.Scalar, Array: s.Array, Shape: s.Shape,
		})
	}
	if g != nil {
		gf, err := newGridFile(name, g)
		if err != nil {
			return err
		}
		gf.Name = ""
		f.Grid = gf
	}
	return writeJSON(path, f)
}

// ReadObjectFile rebuilds the declaration (with nil callables) and grid
// from a file written by WriteObjectFile.
func ReadObjectFile(path string) (string, *api.Declaration, *api.Grid, error) {
	var f ObjectFile
	if err := readJSON(path, &f); err != nil {
		return "", nil, nil, err
	}
	decl := &api.Declaration{}
	for _, a := range f.Actuations {
		decl.Actuations = append(decl.Actuations, api.Actuation{
			Key: a.Key, Domain: a.Domain, EveryPoint: a.EveryPoint,
		})
	}
	for _, k := range f.Measurements {
		decl.Measurements = append(decl.Measurements, api.Measurement{Key: k})
	}
	for _, k := range f.Parsers {
		decl.Parsers = append(decl.Parsers, api.Parser{Key: k})
	}
	for _, s := range f.Statics {
		decl.Statics = append(decl.Statics, api.StaticData{
			Key: s.Key, Scalar: s.Scalar, Array: s.Array, Shape: s.Shape,
		})
	}
	var g *api.Grid
	if f.Grid != nil {
		var err error
		g, err = f.Grid.grid()
		if err != nil {
			return "", nil, nil, err
		}
	}
	return f.Name, decl, g, nil
}

// CmdCtrlFile is the whole-object save format for a command-control
// sweep: the durable declaration (minus the control callable) plus the
// gathered result.
type CmdCtrlFile struct {
	Name    string             `json:"name,omitempty"`
	Default []float64          `json:"default"`
	SwpInds []int              `json:"swpInds"`
	Domains [][]float64        `json:"domains"`
	Trials  int                `json:"trials"`
	Rebind  []RebindMeta       `json:"rebind"`
	Result  *api.CmdCtrlResult `json:"result,omitempty"`
}

// WriteCmdCtrlFile saves a command-control declaration and result.
func WriteCmdCtrlFile(path, name string, decl *api.CmdCtrl, res *api.CmdCtrlResult) error {
	f := &CmdCtrlFile{
		Name:    name,
		Default: decl.Default,
		SwpInds: decl.SwpInds,
		Domains: decl.Domains,
		Trials:  decl.Trials,
		Rebind:  []RebindMeta{{Key: "evaluate", Kind: "control"}},
		Result:  res,
	}
	return writeJSON(path, f)
}

// ReadCmdCtrlFile rebuilds a command-control declaration (with a nil
// control callable) and its result.
func ReadCmdCtrlFile(path string) (string, *api.CmdCtrl, *api.CmdCtrlResult, error) {
	var f CmdCtrlFile
	if err := readJSON(path, &f); err != nil {
		return "", nil, nil, err
	}
	decl := &api.CmdCtrl{
		Default: f.Default,
		SwpInds: f.SwpInds,
		Domains: f.Domains,
		Trials:  f.Trials,
	}
	return f.Name, decl, f.Result, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
