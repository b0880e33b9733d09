package widget

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eringen/ringstat/stats"
)

func waitReady(t *testing.T, w *Widget) {
	t.Helper()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("widget load did not finish")
	}
}

func renderComponent(t *testing.T, w *Widget) string {
	t.Helper()
	var buf bytes.Buffer
	if err := w.Component().Render(context.Background(), &buf); err != nil {
		t.Fatalf("render component: %v", err)
	}
	return buf.String()
}

func TestActivateReachesReadyWithSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Write([]byte(`{
			"pageviews": {"value": 120, "prev": 80},
			"visitors":  {"value": 40, "prev": 35},
			"visits":    {"value": 10, "prev": 5},
			"bounces":   {"value": 3, "prev": 2},
			"totaltime": {"value": 1200, "prev": 600}
		}`))
	}))
	defer srv.Close()

	w := New(srv.URL)
	if w.State() != StateLoading {
		t.Fatalf("initial state = %v, want Loading", w.State())
	}

	w.Activate(context.Background())
	waitReady(t, w)

	if w.State() != StateReady {
		t.Errorf("state = %v, want Ready", w.State())
	}
	snap := w.Snapshot()
	if snap.Visits != (stats.Metric{Value: 10, Prev: 5}) {
		t.Errorf("visits = %+v, want {10 5}", snap.Visits)
	}
	if snap.Totaltime.Value != 2 {
		t.Errorf("totaltime.value = %v, want 2", snap.Totaltime.Value)
	}
}

func TestFailedFetchReachesReadyWithZeroSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(rw http.ResponseWriter, r *http.Request) {
			rw.WriteHeader(http.StatusInternalServerError)
			rw.Write([]byte(`{"error":"upstream broke"}`))
		}},
		{"malformed json", func(rw http.ResponseWriter, r *http.Request) {
			rw.Write([]byte(`not json at all`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			w := New(srv.URL)
			w.Activate(context.Background())
			waitReady(t, w)

			if w.State() != StateReady {
				t.Errorf("state = %v, want Ready (never stuck in Loading)", w.State())
			}
			if w.Snapshot() != (stats.Snapshot{}) {
				t.Errorf("snapshot = %+v, want all-zero fallback", w.Snapshot())
			}
		})
	}
}

func TestTransportErrorReachesReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	w := New(srv.URL)
	w.Activate(context.Background())
	waitReady(t, w)

	if w.State() != StateReady {
		t.Errorf("state = %v, want Ready after transport failure", w.State())
	}
}

func TestDeactivateSuppressesStateCommit(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		<-release
		rw.Write([]byte(`{"visits": {"value": 9, "prev": 4}}`))
	}))
	defer srv.Close()

	w := New(srv.URL)
	w.Activate(context.Background())
	w.Deactivate()
	close(release)
	waitReady(t, w)

	if w.State() != StateLoading {
		t.Errorf("state = %v, want Loading: deactivated widget must not commit", w.State())
	}
	if w.Snapshot() != (stats.Snapshot{}) {
		t.Errorf("snapshot mutated after deactivation: %+v", w.Snapshot())
	}
}

func TestActivateIsSingleShot(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		calls++
		rw.Write([]byte(`{}`))
	}))
	defer srv.Close()

	w := New(srv.URL)
	w.Activate(context.Background())
	w.Activate(context.Background())
	w.Activate(context.Background())
	waitReady(t, w)

	if calls != 1 {
		t.Errorf("endpoint called %d times, want exactly 1", calls)
	}
}

func TestComponentCenterLabelShowsVisits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Write([]byte(`{
			"pageviews": {"value": 5000, "prev": 0},
			"visits":    {"value": 321, "prev": 0}
		}`))
	}))
	defer srv.Close()

	w := New(srv.URL)
	w.Activate(context.Background())
	waitReady(t, w)

	out := renderComponent(t, w)
	if !strings.Contains(out, ">321</text>") {
		t.Errorf("center label missing visits value 321:\n%s", out)
	}
	if strings.Contains(out, ">5,000</text>") {
		t.Errorf("center label shows pageviews, want visits")
	}
	if !strings.Contains(out, ">Visits</text>") {
		t.Errorf("caption missing")
	}
}

func TestComponentWhileLoadingShowsBusyIndicator(t *testing.T) {
	w := New("http://127.0.0.1:0/never")
	out := renderComponent(t, w)
	if !strings.Contains(out, "busy") {
		t.Errorf("loading component missing busy indicator:\n%s", out)
	}
}

func TestSlicesDeriveFiveFixedColors(t *testing.T) {
	snap := stats.Snapshot{
		Pageviews: stats.Metric{Value: 1},
		Visitors:  stats.Metric{Value: 2},
		Visits:    stats.Metric{Value: 3},
		Bounces:   stats.Metric{Value: 4},
		Totaltime: stats.Metric{Value: 5},
	}
	slices := Slices(snap)

	if len(slices) != 5 {
		t.Fatalf("len(slices) = %d, want 5", len(slices))
	}
	wantMagnitudes := []float64{1, 2, 3, 4, 5}
	seen := map[string]bool{}
	for i, s := range slices {
		if s.Magnitude != wantMagnitudes[i] {
			t.Errorf("slice %d magnitude = %v, want %v", i, s.Magnitude, wantMagnitudes[i])
		}
		if s.ColorToken == "" || seen[s.ColorToken] {
			t.Errorf("slice %d color %q empty or reused", i, s.ColorToken)
		}
		seen[s.ColorToken] = true
	}
}
