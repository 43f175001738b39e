package persistence

import (
	"sync"
	"time"

	"github.com/lightwave-lab/ndsweep/pkg/api"
)

// InMemoryStore is a goroutine-safe GridStore and RunLog backed by maps.
// Non-durable; intended for tests and throwaway sessions.
type InMemoryStore struct {
	mu     sync.RWMutex
	grids  map[string]*api.Grid
	runs   []api.RunRecord
	nextID int64
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{grids: make(map[string]*api.Grid)}
}

var _ GridStore = (*InMemoryStore)(nil)
var _ RunLog = (*InMemoryStore)(nil)

func (s *InMemoryStore) SaveGrid(name string, g *api.Grid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Snapshot through the restore path so later writes to g are not
	// visible in the store.
	cols := make(map[string][]any, len(g.Keys()))
	for _, k := range g.Keys() {
		col, err := g.Column(k)
		if err != nil {
			return err
		}
		cols[k] = append([]any(nil), col...)
	}
	snap, err := api.RestoredGrid(g.Shape(), g.Keys(), cols, g.Points(), g.Complete())
	if err != nil {
		return err
	}
	s.grids[name] = snap
	return nil
}

func (s *InMemoryStore) LoadGrid(name string) (*api.Grid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.grids[name]
	if !ok {
		return nil, ErrSweepNotFound
	}
	return g, nil
}

func (s *InMemoryStore) ListGrids() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.grids))
	for name := range s.grids {
		names = append(names, name)
	}
	return names, nil
}

func (s *InMemoryStore) BeginRun(sweep string, total int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.runs = append(s.runs, api.RunRecord{
		ID:        s.nextID,
		Sweep:     sweep,
		StartedAt: time.Now(),
		Total:     total,
		Status:    api.RunRunning,
	})
	return s.nextID, nil
}

func (s *InMemoryStore) FinishRun(id int64, points int, status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.runs {
		if s.runs[i].ID == id {
			s.runs[i].FinishedAt = time.Now()
			s.runs[i].Points = points
			s.runs[i].Status = status
			s.runs[i].Error = errMsg
			return nil
		}
	}
	return ErrSweepNotFound
}

func (s *InMemoryStore) ListRuns(sweep string) ([]api.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []api.RunRecord
	for _, r := range s.runs {
		if sweep != "" && r.Sweep != sweep {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
