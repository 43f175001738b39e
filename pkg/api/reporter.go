package api

import (
	"log/slog"
	"sync/atomic"
)

// Reporter receives one Update per fully completed innermost iteration,
// with the 1-based count of points done so far.
//
// Reporters are fire-and-forget collaborators: the engine logs and
// suppresses any error or panic from Update, so a broken reporter can
// never abort a sweep. Implementations should be fast and non-blocking;
// heavy work should be done asynchronously so as not to delay actuation.
type Reporter interface {
	Update(completed int) error
}

// ReporterFactory builds a Reporter for one gather. The sweep name and
// grid shape let the reporter compute percentage-complete and ETA.
type ReporterFactory func(name string, shape Shape) Reporter

// NoopReporter is a Reporter that does nothing. It is the default when no
// reporter is configured.
type NoopReporter struct{}

func (NoopReporter) Update(completed int) error { return nil }

// MultiReporter fans updates out to several reporters.
type MultiReporter struct {
	reporters []Reporter
}

// NewMultiReporter creates a Reporter that forwards updates to each
// non-nil reporter in rs.
func NewMultiReporter(rs ...Reporter) Reporter {
	filtered := make([]Reporter, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return NoopReporter{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &MultiReporter{reporters: filtered}
}

func (m *MultiReporter) Update(completed int) error {
	var first error
	for _, r := range m.reporters {
		if err := r.Update(completed); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// SlogReporter logs progress with log/slog.
type SlogReporter struct {
	Logger *slog.Logger
	Name   string
	Total  int
}

// SlogFactory returns a ReporterFactory that logs each completed point.
// If logger is nil, slog.Default() is used.
func SlogFactory(logger *slog.Logger) ReporterFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return func(name string, shape Shape) Reporter {
		return &SlogReporter{Logger: logger, Name: name, Total: shape.Size()}
	}
}

func (r *SlogReporter) Update(completed int) error {
	r.Logger.Info("sweep_progress",
		slog.String("sweep", r.Name),
		slog.Int("completed", completed),
		slog.Int("total", r.Total),
	)
	return nil
}

// CountingReporter counts updates and remembers the latest completed
// count. Safe for concurrent reads while a sweep runs in another
// goroutine, which makes it handy for tests and simple dashboards.
type CountingReporter struct {
	updates   atomic.Int64
	completed atomic.Int64
}

func (r *CountingReporter) Update(completed int) error {
	r.updates.Add(1)
	r.completed.Store(int64(completed))
	return nil
}

// Updates returns how many times Update was called.
func (r *CountingReporter) Updates() int { return int(r.updates.Load()) }

// Completed returns the latest completed count seen.
func (r *CountingReporter) Completed() int { return int(r.completed.Load()) }
