package persistence

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lightwave-lab/ndsweep/pkg/api"
)

func sampleGrid(t *testing.T) *api.Grid {
	t.Helper()
	g := api.NewGrid(api.Shape{2, 2})
	for flat := 0; flat < 4; flat++ {
		g.Set(flat, "x", float64(flat))
		g.Set(flat, "m", float64(flat)*10)
		g.MarkPoint(flat)
	}
	g.MarkComplete()
	return g
}

func TestGridFileRoundTrip(t *testing.T) {
	g := sampleGrid(t)
	path := filepath.Join(t.TempDir(), "grid.json")

	if err := WriteGridFile(path, "demo", g); err != nil {
		t.Fatalf("WriteGridFile failed: %v", err)
	}
	name, restored, err := ReadGridFile(path)
	if err != nil {
		t.Fatalf("ReadGridFile failed: %v", err)
	}
	if name != "demo" {
		t.Fatalf("name = %q", name)
	}
	if !restored.Shape().Equal(g.Shape()) || !restored.Complete() {
		t.Fatalf("restored shape %v complete %v", restored.Shape(), restored.Complete())
	}
	for _, k := range g.Keys() {
		want, _ := g.Column(k)
		got, err := restored.Column(k)
		if err != nil {
			t.Fatalf("Column(%q) failed: %v", k, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("column %q mismatch (-want +got):\n%s", k, diff)
		}
	}
}

func TestGridFileIsHumanReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.json")
	if err := WriteGridFile(path, "demo", sampleGrid(t)); err != nil {
		t.Fatalf("WriteGridFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	for _, want := range []string{`"shape"`, `"columns"`, `"keys"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("save file missing %s:\n%s", want, data)
		}
	}
}

func TestReadGridFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, _, err := ReadGridFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadGridFile(bad); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestObjectFileRoundTrip(t *testing.T) {
	decl := &api.Declaration{
		Actuations: []api.Actuation{
			{Key: "bias", Domain: []float64{0, 1}, Act: func(float64) (any, error) { return nil, nil }},
			{Key: "freq", Domain: []float64{10, 20}, EveryPoint: true, Act: func(float64) (any, error) { return nil, nil }},
		},
		Measurements: []api.Measurement{{Key: "power", Probe: func() (any, error) { return 0.0, nil }}},
		Parsers:      []api.Parser{{Key: "norm", Derive: func(api.Point) (any, error) { return 0.0, nil }}},
		Statics:      []api.StaticData{{Key: "gain", Scalar: 2.5}},
	}
	path := filepath.Join(t.TempDir(), "object.json")

	if err := WriteObjectFile(path, "obj", decl, sampleGrid(t)); err != nil {
		t.Fatalf("WriteObjectFile failed: %v", err)
	}
	name, restored, g, err := ReadObjectFile(path)
	if err != nil {
		t.Fatalf("ReadObjectFile failed: %v", err)
	}
	if name != "obj" {
		t.Fatalf("name = %q", name)
	}
	if g == nil || g.Points() != 4 {
		t.Fatal("grid not restored")
	}

	// Structure round-trips, callables do not.
	if len(restored.Actuations) != 2 || restored.Actuations[0].Key != "bias" {
		t.Fatalf("actuations = %+v", restored.Actuations)
	}
	if !restored.Actuations[1].EveryPoint {
		t.Error("EveryPoint flag lost")
	}
	if restored.Actuations[0].Act != nil || restored.Measurements[0].Probe != nil || restored.Parsers[0].Derive != nil {
		t.Error("callables should come back nil")
	}
	if restored.Statics[0].Scalar != 2.5 {
		t.Errorf("static = %+v", restored.Statics[0])
	}
	if !restored.Shape().Equal(api.Shape{2, 2}) {
		t.Errorf("shape = %v", restored.Shape())
	}
}

func TestObjectFileWithoutGrid(t *testing.T) {
	decl := &api.Declaration{
		Actuations: []api.Actuation{{Key: "x", Domain: []float64{0}}},
	}
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := WriteObjectFile(path, "never-ran", decl, nil); err != nil {
		t.Fatalf("WriteObjectFile failed: %v", err)
	}
	_, _, g, err := ReadObjectFile(path)
	if err != nil {
		t.Fatalf("ReadObjectFile failed: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil grid")
	}
}

func TestCmdCtrlFileRoundTrip(t *testing.T) {
	decl := &api.CmdCtrl{
		Evaluate: func(cmd []float64) ([]float64, error) { return cmd, nil },
		Default:  []float64{0, 0},
		SwpInds:  []int{0, 1},
		Domains:  [][]float64{{0, 1}, {0, 1}},
		Trials:   2,
	}
	res := &api.CmdCtrlResult{
		GridShape: api.Shape{2, 2},
		Trials:    2,
		AllDims:   2,
		SwpInds:   []int{0, 1},
		Cmd:       decl.ExpandCmdGrid(),
		Meas:      make([][]float64, 8),
		Points:    8,
		Complete:  true,
	}
	for i := range res.Meas {
		res.Meas[i] = []float64{0, 0}
	}
	path := filepath.Join(t.TempDir(), "cmdctrl.json")

	if err := WriteCmdCtrlFile(path, "cc", decl, res); err != nil {
		t.Fatalf("WriteCmdCtrlFile failed: %v", err)
	}
	name, restoredDecl, restoredRes, err := ReadCmdCtrlFile(path)
	if err != nil {
		t.Fatalf("ReadCmdCtrlFile failed: %v", err)
	}
	if name != "cc" {
		t.Fatalf("name = %q", name)
	}
	if restoredDecl.Evaluate != nil {
		t.Error("control callable should come back nil")
	}
	if restoredDecl.Trials != 2 || len(restoredDecl.Domains) != 2 {
		t.Fatalf("declaration = %+v", restoredDecl)
	}
	if diff := cmp.Diff(res, restoredRes); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}
