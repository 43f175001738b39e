package ndsweep

import (
	"fmt"

	"github.com/lightwave-lab/ndsweep/internal/persistence"
	"github.com/lightwave-lab/ndsweep/pkg/api"
)

// Save writes a data-only save: every grid column plus key order and
// shape, as human-inspectable JSON. The declaration (domains, flags,
// callables) is not preserved; use SaveObject for that. With an empty
// path the sweep's configured save file is used.
func (s *Sweep) Save(path string) error {
	path, err := s.savePath(path)
	if err != nil {
		return err
	}
	if s.grid == nil {
		return fmt.Errorf("sweep %q has no data to save", s.name)
	}
	return persistence.WriteGridFile(path, s.name, s.grid)
}

// Load replaces the sweep's grid with a data-only save, so Load and
// Gather leave the sweep in the same inspectable state. The declaration
// is untouched.
func (s *Sweep) Load(path string) error {
	path, err := s.savePath(path)
	if err != nil {
		return err
	}
	_, g, err := persistence.ReadGridFile(path)
	if err != nil {
		return err
	}
	s.grid = g
	return nil
}

// FromFile builds a sweep holding only the grid of a data-only save.
func FromFile(path string) (*Sweep, error) {
	name, g, err := persistence.ReadGridFile(path)
	if err != nil {
		return nil, err
	}
	s := NewSweep(name)
	s.grid = g
	return s, nil
}

// SaveObject writes the whole declared configuration plus grid, excluding
// callables: actions, probes and parser functions usually close over live
// instrument sessions and cannot be represented durably. The save lists
// every key that needs re-binding before the sweep can gather again.
func (s *Sweep) SaveObject(path string) error {
	path, err := s.savePath(path)
	if err != nil {
		return err
	}
	return persistence.WriteObjectFile(path, s.name, s.decl, s.grid)
}

// LoadObject restores a sweep saved with SaveObject. All callables come
// back nil: inspection of the grid works immediately, but gathering fails
// with an UnboundCallableError until the callables are re-bound with
// BindActuation, BindMeasurement, BindParser or BindFrom.
func LoadObject(path string) (*Sweep, error) {
	name, decl, g, err := persistence.ReadObjectFile(path)
	if err != nil {
		return nil, err
	}
	return &Sweep{name: name, decl: decl, grid: g}, nil
}

// BindActuation re-attaches the action for an actuation key.
func (s *Sweep) BindActuation(key string, act api.ActuationFunc) error {
	for i := range s.decl.Actuations {
		if s.decl.Actuations[i].Key == key {
			s.decl.Actuations[i].Act = act
			return nil
		}
	}
	return fmt.Errorf("no actuation %q to bind", key)
}

// BindMeasurement re-attaches the probe for a measurement key.
func (s *Sweep) BindMeasurement(key string, probe api.MeasurementFunc) error {
	for i := range s.decl.Measurements {
		if s.decl.Measurements[i].Key == key {
			s.decl.Measurements[i].Probe = probe
			return nil
		}
	}
	return fmt.Errorf("no measurement %q to bind", key)
}

// BindParser re-attaches the derivation for a parser key.
func (s *Sweep) BindParser(key string, derive api.ParserFunc) error {
	for i := range s.decl.Parsers {
		if s.decl.Parsers[i].Key == key {
			s.decl.Parsers[i].Derive = derive
			return nil
		}
	}
	return fmt.Errorf("no parser %q to bind", key)
}

// BindFrom copies callables by key from another sweep, typically the live
// one that produced the save. Keys missing from src stay unbound.
func (s *Sweep) BindFrom(src *Sweep) {
	for i, a := range s.decl.Actuations {
		for _, sa := range src.decl.Actuations {
			if sa.Key == a.Key && sa.Act != nil {
				s.decl.Actuations[i].Act = sa.Act
			}
		}
	}
	for i, m := range s.decl.Measurements {
		for _, sm := range src.decl.Measurements {
			if sm.Key == m.Key && sm.Probe != nil {
				s.decl.Measurements[i].Probe = sm.Probe
			}
		}
	}
	for i, p := range s.decl.Parsers {
		for _, sp := range src.decl.Parsers {
			if sp.Key == p.Key && sp.Derive != nil {
				s.decl.Parsers[i].Derive = sp.Derive
			}
		}
	}
}

// NeedsRebind lists the keys whose callables are currently nil. A sweep
// restored with LoadObject starts with every declared key listed.
func (s *Sweep) NeedsRebind() []string {
	var keys []string
	for _, a := range s.decl.Actuations {
		if a.Act == nil {
			keys = append(keys, a.Key)
		}
	}
	for _, m := range s.decl.Measurements {
		if m.Probe == nil {
			keys = append(keys, m.Key)
		}
	}
	for _, p := range s.decl.Parsers {
		if p.Derive == nil {
			keys = append(keys, p.Key)
		}
	}
	return keys
}

func (s *Sweep) savePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if s.savefile != "" {
		return s.savefile, nil
	}
	return "", fmt.Errorf("no save file specified")
}
