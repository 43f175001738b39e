package api

import (
	"errors"
	"testing"
)

type recordReporter struct {
	seen []int
	err  error
}

func (r *recordReporter) Update(completed int) error {
	r.seen = append(r.seen, completed)
	return r.err
}

func TestNewMultiReporterFiltersNil(t *testing.T) {
	if _, ok := NewMultiReporter(nil, nil).(NoopReporter); !ok {
		t.Fatal("all-nil input should collapse to NoopReporter")
	}

	single := &recordReporter{}
	if got := NewMultiReporter(nil, single); got != Reporter(single) {
		t.Fatal("single reporter should be returned unwrapped")
	}
}

func TestMultiReporterFanOut(t *testing.T) {
	a := &recordReporter{err: errors.New("a failed")}
	b := &recordReporter{}

	m := NewMultiReporter(a, b)
	err := m.Update(3)

	// Every reporter sees the update even when an earlier one fails; the
	// first error is reported.
	if len(a.seen) != 1 || len(b.seen) != 1 {
		t.Fatalf("fan-out incomplete: a=%v b=%v", a.seen, b.seen)
	}
	if err == nil || err.Error() != "a failed" {
		t.Fatalf("expected first error, got %v", err)
	}
}

func TestCountingReporter(t *testing.T) {
	r := &CountingReporter{}
	for i := 1; i <= 4; i++ {
		if err := r.Update(i); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}
	if r.Updates() != 4 {
		t.Errorf("Updates = %d, want 4", r.Updates())
	}
	if r.Completed() != 4 {
		t.Errorf("Completed = %d, want 4", r.Completed())
	}
}

func TestSlogFactoryBuildsReporter(t *testing.T) {
	factory := SlogFactory(nil)
	r := factory("demo", Shape{2, 3})

	sr, ok := r.(*SlogReporter)
	if !ok {
		t.Fatalf("expected *SlogReporter, got %T", r)
	}
	if sr.Name != "demo" || sr.Total != 6 {
		t.Fatalf("unexpected reporter %+v", sr)
	}
	if err := sr.Update(1); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}
