// Package progress provides ready-made progress reporters for long
// sweeps: an HTML status page written to disk (and optionally served over
// HTTP) and a stdout printer. All of them implement api.Reporter and obey
// its fire-and-forget contract.
package progress

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lightwave-lab/ndsweep/pkg/api"
)

// Options configures a Writer.
type Options struct {
	// File is the path of the HTML status page. Empty disables the page.
	File string

	// ListenAddr starts a small HTTP server on this address serving the
	// live status page, so a sweep running on a lab machine can be
	// watched from a browser. Empty disables the server.
	ListenAddr string

	// Stdout prints a one-line progress update per point.
	Stdout bool

	// Logger receives serve/write failures. Nil uses slog.Default().
	Logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// Writer reports sweep progress as a percentage with an ETA. It is
// constructed per gather with the sweep name and grid shape, which fix
// the total point count.
type Writer struct {
	name  string
	total int
	opts  Options
	start time.Time

	mu        sync.Mutex
	completed int

	srv *http.Server
	ln  net.Listener
}

var _ api.Reporter = (*Writer)(nil)

// New creates a Writer for a sweep with the given name and shape. If
// Options.ListenAddr is set the HTTP server starts immediately.
func New(name string, shape api.Shape, opts Options) *Writer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	w := &Writer{
		name:  name,
		total: shape.Size(),
		opts:  opts,
		start: opts.now(),
	}
	if opts.ListenAddr != "" {
		w.serve()
	}
	return w
}

// Factory returns an api.ReporterFactory building a Writer per gather.
func Factory(opts Options) api.ReporterFactory {
	return func(name string, shape api.Shape) api.Reporter {
		return New(name, shape, opts)
	}
}

// Update records the 1-based completed point count and refreshes every
// configured output. It never fails the sweep: write errors are logged
// and swallowed, and the returned error is always nil.
func (w *Writer) Update(completed int) error {
	w.mu.Lock()
	w.completed = completed
	page := w.renderLocked()
	w.mu.Unlock()

	if w.opts.Stdout {
		fmt.Printf("%s: %d/%d (%.1f%%)\n", w.name, completed, w.total, 100*frac(completed, w.total))
	}
	if w.opts.File != "" {
		if err := os.WriteFile(w.opts.File, []byte(page), 0o644); err != nil {
			w.opts.Logger.Error("progress page write failed",
				slog.String("sweep", w.name),
				slog.String("file", w.opts.File),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// Completed returns the latest count delivered to Update.
func (w *Writer) Completed() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.completed
}

// Addr returns the listen address of the HTTP server, or "" if none is
// running. Useful when ListenAddr was ":0".
func (w *Writer) Addr() string {
	if w.ln == nil {
		return ""
	}
	return w.ln.Addr().String()
}

// Close shuts down the HTTP server, if any.
func (w *Writer) Close() error {
	if w.srv == nil {
		return nil
	}
	return w.srv.Close()
}

func (w *Writer) serve() {
	ln, err := net.Listen("tcp", w.opts.ListenAddr)
	if err != nil {
		w.opts.Logger.Error("progress server listen failed",
			slog.String("addr", w.opts.ListenAddr),
			slog.Any("error", err),
		)
		return
	}
	w.ln = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(rw http.ResponseWriter, _ *http.Request) {
		w.mu.Lock()
		page := w.renderLocked()
		w.mu.Unlock()
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(rw, page)
	})
	w.srv = &http.Server{Handler: mux}
	go func() {
		if err := w.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			w.opts.Logger.Error("progress server failed", slog.Any("error", err))
		}
	}()
}

const timeFormat = "Mon, 02 Jan 2006 15:04:05"

func (w *Writer) renderLocked() string {
	done := frac(w.completed, w.total)
	now := w.opts.now()
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<title>Sweep Progress Monitor</title>\n")
	b.WriteString("<meta http-equiv=\"refresh\" content=\"5\" />\n")
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n<hr />\n", w.name)
	fmt.Fprintf(&b, "<p>%d of %d points (%.1f%%)</p>\n", w.completed, w.total, 100*done)
	fmt.Fprintf(&b, "<p>Started: %s</p>\n", w.start.Format(timeFormat))
	if w.completed > 0 && w.completed < w.total {
		elapsed := now.Sub(w.start)
		eta := w.start.Add(time.Duration(float64(elapsed) / done))
		fmt.Fprintf(&b, "<p>ETA: %s</p>\n", eta.Format(timeFormat))
	}
	if w.completed >= w.total {
		fmt.Fprintf(&b, "<p>Completed: %s</p>\n", now.Format(timeFormat))
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func frac(completed, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(completed) / float64(total)
}
