package stats

import (
	"encoding/json"
	"math"
	"testing"
)

func decode(t *testing.T, payload string) RawMetrics {
	t.Helper()
	var raw RawMetrics
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return raw
}

func TestNormalizeEmptyPayload(t *testing.T) {
	snap := Normalize(decode(t, `{}`))

	for name, m := range map[string]Metric{
		"pageviews": snap.Pageviews,
		"visitors":  snap.Visitors,
		"visits":    snap.Visits,
		"bounces":   snap.Bounces,
		"totaltime": snap.Totaltime,
	} {
		if m.Value != 0 || m.Prev != 0 {
			t.Errorf("%s = %+v, want all-zero", name, m)
		}
	}
}

func TestNormalizePairPayload(t *testing.T) {
	snap := Normalize(decode(t, `{
		"pageviews": {"value": 120, "prev": 80},
		"visitors":  {"value": 40, "prev": 35},
		"visits":    {"value": 10, "prev": 5},
		"bounces":   {"value": 3, "prev": 2},
		"totaltime": {"value": 1200, "prev": 600}
	}`))

	if snap.Pageviews != (Metric{Value: 120, Prev: 80}) {
		t.Errorf("pageviews = %+v, want {120 80}", snap.Pageviews)
	}
	if snap.Visits != (Metric{Value: 10, Prev: 5}) {
		t.Errorf("visits = %+v, want {10 5}", snap.Visits)
	}
	// 1200s over 10 visits and 600s over 5 visits both average 2 min/visit.
	if snap.Totaltime != (Metric{Value: 2, Prev: 2}) {
		t.Errorf("totaltime = %+v, want {2 2}", snap.Totaltime)
	}
}

func TestNormalizeBareNumber(t *testing.T) {
	snap := Normalize(decode(t, `{"pageviews": 42}`))

	if snap.Pageviews != (Metric{Value: 42, Prev: 0}) {
		t.Errorf("pageviews = %+v, want {42 0}", snap.Pageviews)
	}
}

func TestNormalizeZeroVisitsGuardsDivision(t *testing.T) {
	snap := Normalize(decode(t, `{
		"visits":    {"value": 0, "prev": 0},
		"totaltime": {"value": 99999, "prev": 1234}
	}`))

	if snap.Totaltime.Value != 0 || snap.Totaltime.Prev != 0 {
		t.Errorf("totaltime = %+v, want {0 0} with zero visits", snap.Totaltime)
	}
}

func TestNormalizeZeroVisitsPrevOnly(t *testing.T) {
	snap := Normalize(decode(t, `{
		"visits":    {"value": 4, "prev": 0},
		"totaltime": {"value": 480, "prev": 600}
	}`))

	if snap.Totaltime.Value != 2 {
		t.Errorf("totaltime.value = %v, want 2", snap.Totaltime.Value)
	}
	if snap.Totaltime.Prev != 0 {
		t.Errorf("totaltime.prev = %v, want 0 with zero prev visits", snap.Totaltime.Prev)
	}
}

func TestNormalizeMalformedShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"null metric", `{"visits": null}`},
		{"string metric", `{"visits": "lots"}`},
		{"array metric", `{"visits": [1, 2]}`},
		{"string pair fields", `{"visits": {"value": "10", "prev": "5"}}`},
		{"not an object value", `{"visits": {"value": null}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Normalize(decode(t, tt.payload))
			if snap.Visits != (Metric{}) {
				t.Errorf("visits = %+v, want zero metric", snap.Visits)
			}
		})
	}
}

func TestNormalizeCoercesNegative(t *testing.T) {
	snap := Normalize(decode(t, `{
		"pageviews": -7,
		"visitors":  {"value": -3, "prev": 12}
	}`))

	if snap.Pageviews.Value != 0 {
		t.Errorf("pageviews.value = %v, want 0 for negative input", snap.Pageviews.Value)
	}
	if snap.Visitors != (Metric{Value: 0, Prev: 12}) {
		t.Errorf("visitors = %+v, want {0 12}", snap.Visitors)
	}
}

func TestNormalizeIgnoresUnknownKeys(t *testing.T) {
	snap := Normalize(decode(t, `{
		"visits":   {"value": 9, "prev": 4},
		"uniques":  {"value": 77, "prev": 70},
		"whatever": 123
	}`))

	if snap.Visits != (Metric{Value: 9, Prev: 4}) {
		t.Errorf("visits = %+v, want {9 4}", snap.Visits)
	}
	if snap.Visitors != (Metric{}) {
		t.Errorf("visitors = %+v, want zero metric", snap.Visitors)
	}
}

func TestNormalizeAlwaysFinite(t *testing.T) {
	payloads := []string{
		`{}`,
		`{"visits": 1e308, "totaltime": 1e308}`,
		`{"visits": {"value": 0}, "totaltime": {"value": 5000}}`,
		`{"pageviews": {"prev": 3}}`,
	}
	for _, payload := range payloads {
		snap := Normalize(decode(t, payload))
		for _, m := range []Metric{snap.Pageviews, snap.Visitors, snap.Visits, snap.Bounces, snap.Totaltime} {
			for _, f := range []float64{m.Value, m.Prev} {
				if math.IsNaN(f) || math.IsInf(f, 0) {
					t.Errorf("payload %s produced non-finite value %v", payload, f)
				}
			}
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{42, 42},
		{0, 0},
		{-1, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
