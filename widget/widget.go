// Package widget implements the visits donut widget: one load cycle per
// activation, an all-zero fallback on any failure, and templ rendering.
package widget

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/a-h/templ"

	"github.com/eringen/ringstat/chart"
	"github.com/eringen/ringstat/stats"
	"github.com/eringen/ringstat/views"
)

// State is the widget lifecycle state. There are only two: Loading until the
// single load cycle finishes, then Ready forever.
type State int

const (
	StateLoading State = iota
	StateReady
)

// Widget owns one fetch-and-render cycle against the stats proxy endpoint.
// It is safe for concurrent use; a deactivated widget never commits a late
// result.
type Widget struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger

	mu       sync.Mutex
	gen      uint64
	started  bool
	state    State
	snapshot stats.Snapshot
	done     chan struct{}
}

// Option configures a Widget.
type Option func(*Widget)

// WithHTTPClient overrides the HTTP client used for the stats fetch.
func WithHTTPClient(c *http.Client) Option {
	return func(w *Widget) { w.client = c }
}

// WithLogger overrides the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Widget) { w.logger = l }
}

// New creates a widget in the Loading state. endpoint is the absolute URL of
// the stats proxy endpoint.
func New(endpoint string, opts ...Option) *Widget {
	w := &Widget{
		endpoint: endpoint,
		client:   http.DefaultClient,
		logger:   slog.Default(),
		state:    StateLoading,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Activate starts the asynchronous load cycle. Only the first call does
// anything; the widget makes exactly one attempt, with no retry or polling.
func (w *Widget) Activate(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	gen := w.gen
	w.mu.Unlock()

	go func() {
		snap := w.load(ctx)
		w.commit(gen, snap)
		close(w.done)
	}()
}

// Deactivate marks the widget as no longer owning its in-flight load. The
// underlying request is not aborted; its result is simply dropped.
func (w *Widget) Deactivate() {
	w.mu.Lock()
	w.gen++
	w.mu.Unlock()
}

// Done is closed when the load cycle has finished, whether or not its result
// was committed.
func (w *Widget) Done() <-chan struct{} {
	return w.done
}

// State returns the current lifecycle state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Snapshot returns the committed snapshot. It is the zero snapshot until the
// widget is Ready, and stays zero when the load failed.
func (w *Widget) Snapshot() stats.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot
}

// load performs the fetch and normalization. Every failure mode — transport
// error, non-2xx status, malformed JSON — collapses to the zero snapshot so
// the widget always reaches Ready.
func (w *Widget) load(ctx context.Context) stats.Snapshot {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.endpoint, nil)
	if err != nil {
		w.logger.Error("build stats request", "error", err)
		return stats.Snapshot{}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Error("fetch stats", "endpoint", w.endpoint, "error", err)
		return stats.Snapshot{}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			w.logger.Error("close stats response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		w.logger.Error("stats endpoint returned failure", "endpoint", w.endpoint, "status", resp.StatusCode)
		return stats.Snapshot{}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		w.logger.Error("read stats response", "error", err)
		return stats.Snapshot{}
	}

	var raw stats.RawMetrics
	if err := json.Unmarshal(body, &raw); err != nil {
		w.logger.Error("decode stats response", "error", err)
		return stats.Snapshot{}
	}
	return stats.Normalize(raw)
}

// commit transitions to Ready unless the widget was deactivated after this
// load started.
func (w *Widget) commit(gen uint64, snap stats.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return
	}
	w.snapshot = snap
	w.state = StateReady
}

// displayMetrics fixes the slice order and colors for the ring chart.
var displayMetrics = []struct {
	label string
	color string
	pick  func(stats.Snapshot) float64
}{
	{"Pageviews", "#3b82f6", func(s stats.Snapshot) float64 { return s.Pageviews.Value }},
	{"Visitors", "#22c55e", func(s stats.Snapshot) float64 { return s.Visitors.Value }},
	{"Visits", "#f59e0b", func(s stats.Snapshot) float64 { return s.Visits.Value }},
	{"Bounces", "#ef4444", func(s stats.Snapshot) float64 { return s.Bounces.Value }},
	{"Minutes/visit", "#8b5cf6", func(s stats.Snapshot) float64 { return s.Totaltime.Value }},
}

// Slices derives the five chart slices from a snapshot. They are recomputed
// on every render and never mutated independently.
func Slices(snap stats.Snapshot) []chart.Slice {
	slices := make([]chart.Slice, len(displayMetrics))
	for i, m := range displayMetrics {
		slices[i] = chart.Slice{
			Category:   m.label,
			Magnitude:  m.pick(snap),
			ColorToken: m.color,
		}
	}
	return slices
}

// Component renders the widget's current state: the busy indicator while
// Loading, otherwise the ring chart. The center label shows the visits
// figure, not pageviews.
func (w *Widget) Component() templ.Component {
	w.mu.Lock()
	state, snap := w.state, w.snapshot
	w.mu.Unlock()

	if state == StateLoading {
		return views.Busy()
	}
	return views.RingChart(Slices(snap), views.FormatCount(snap.Visits.Value), "Visits")
}
