// Package stats normalizes the loosely-typed metrics payload reported by
// an Umami server into a fixed, fully-populated snapshot.
package stats

import (
	"encoding/json"
	"math"
)

// Metric is a normalized metric value for the current and previous period.
// Both fields are always finite.
type Metric struct {
	Value float64 `json:"value"`
	Prev  float64 `json:"prev"`
}

// RawMetric is the untrusted shape Umami reports for a single metric:
// either a bare number or an object with optional value/prev fields.
// Any other shape (missing, null, non-numeric) is treated as absent.
type RawMetric struct {
	num      float64
	isNumber bool
	value    float64
	prev     float64
	isObject bool
}

// rawPair holds the object form before numeric coercion. Fields decode as
// interface{} so a string or null value never fails the whole object.
type rawPair struct {
	Value interface{} `json:"value"`
	Prev  interface{} `json:"prev"`
}

// UnmarshalJSON never returns an error: unparseable input leaves the metric
// absent so Normalize stays total.
func (m *RawMetric) UnmarshalJSON(data []byte) error {
	*m = RawMetric{}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		m.num = n
		m.isNumber = true
		return nil
	}

	var pair rawPair
	if err := json.Unmarshal(data, &pair); err == nil {
		m.value = toNumber(pair.Value)
		m.prev = toNumber(pair.Prev)
		m.isObject = true
	}
	return nil
}

// resolve applies the normalization rules for a single metric.
func (m RawMetric) resolve() Metric {
	if m.isObject {
		v := sanitize(m.value)
		p := sanitize(m.prev)
		if v != 0 || p != 0 {
			return Metric{Value: v, Prev: p}
		}
		return Metric{}
	}
	if m.isNumber {
		return Metric{Value: sanitize(m.num)}
	}
	return Metric{}
}

// toNumber coerces a decoded JSON value to a float64, yielding 0 for
// anything that is not a number.
func toNumber(v interface{}) float64 {
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return f
}

// sanitize coerces negative and non-finite values to 0 before any arithmetic.
func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// RawMetrics is the payload shape of the stats proxy endpoint. Unknown keys
// are carried by the map and ignored during normalization.
type RawMetrics map[string]RawMetric

// Snapshot is the fully-normalized set of five metrics for one load cycle.
// All five keys are always present. Totaltime holds average minutes per
// visit, not the total elapsed seconds Umami reports.
type Snapshot struct {
	Pageviews Metric `json:"pageviews"`
	Visitors  Metric `json:"visitors"`
	Visits    Metric `json:"visits"`
	Bounces   Metric `json:"bounces"`
	Totaltime Metric `json:"totaltime"`
}

// Normalize converts a raw payload into a Snapshot. It is a total function:
// any input, including an empty or garbage payload, yields a snapshot with
// all five metrics present and finite.
func Normalize(raw RawMetrics) Snapshot {
	snap := Snapshot{
		Pageviews: raw["pageviews"].resolve(),
		Visitors:  raw["visitors"].resolve(),
		Visits:    raw["visits"].resolve(),
		Bounces:   raw["bounces"].resolve(),
	}

	// Umami reports totaltime as total elapsed seconds for the period; the
	// snapshot stores average minutes per visit instead. The seconds-based
	// intermediate is discarded.
	seconds := raw["totaltime"].resolve()
	snap.Totaltime = Metric{
		Value: minutesPerVisit(seconds.Value, snap.Visits.Value),
		Prev:  minutesPerVisit(seconds.Prev, snap.Visits.Prev),
	}
	return snap
}

// minutesPerVisit converts a period total in seconds to average minutes per
// visit, defined as 0 when there were no visits.
func minutesPerVisit(totalSeconds, visits float64) float64 {
	if visits <= 0 {
		return 0
	}
	return totalSeconds / visits / 60
}
