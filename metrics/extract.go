// Package metrics extracts numeric performance metrics from raw
// benchmark result records. Records are loosely structured JSON whose
// fields may be absent, null or non-numeric; extraction never fails,
// it reports anomalies as warnings and degrades the affected value to
// absent or zero.
package metrics

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ratelimit-bench/benchreport/model"
)

// Values holds everything Extract could recover from one record.
type Values struct {
	// Throughput is taken from throughput.average, falling back to
	// requests.average, defaulting to 0 when both are absent.
	Throughput      float64
	LatencyAvg      model.Metric
	LatencyP50      model.Metric
	LatencyP99      model.Metric
	RateLimitHits   int64
	CPUAvg          model.Metric
	MemAvg          model.Metric
	Errors          int64
	Timeouts        int64
	DurationSeconds model.Metric
}

// Extract pulls the metrics out of a raw JSON record. The returned
// warnings describe fields that were present but could not be coerced
// to a number; they are diagnostics, not errors. An undecodable record
// yields zero Values and a single warning.
func Extract(raw []byte) (Values, []string) {
	var warnings []string

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Values{}, []string{fmt.Sprintf("undecodable record: %v", err)}
	}

	warn := func(path string, v any) {
		warnings = append(warnings, fmt.Sprintf("field %s: value %v (%T) is not numeric", path, v, v))
	}

	number := func(path ...string) model.Metric {
		v, ok := lookup(doc, path...)
		if !ok || v == nil {
			return model.Metric{}
		}
		f, ok := coerce(v)
		if !ok {
			warn(joinPath(path), v)
			return model.Metric{}
		}
		return model.MetricOf(f)
	}

	count := func(path ...string) int64 {
		m := number(path...)
		if !m.Valid || m.Value < 0 {
			return 0
		}
		return int64(m.Value)
	}

	var vals Values

	if m := number("throughput", "average"); m.Valid {
		vals.Throughput = m.Value
	} else if m := number("requests", "average"); m.Valid {
		vals.Throughput = m.Value
	}

	vals.LatencyAvg = number("latency", "average")
	vals.LatencyP50 = number("latency", "p50")
	vals.LatencyP99 = number("latency", "p99")
	vals.RateLimitHits = count("rateLimitHits")
	vals.CPUAvg = number("resources", "cpu", "average")
	vals.MemAvg = number("resources", "memory", "average")
	vals.Errors = count("errors")
	vals.Timeouts = count("timeouts")
	vals.DurationSeconds = number("duration")

	return vals, warnings
}

// lookup walks nested objects along path. It returns false when any
// segment is missing or not an object.
func lookup(doc map[string]any, path ...string) (any, bool) {
	var cur any = doc
	for _, seg := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// coerce converts a decoded JSON value to a float64. Numeric strings
// are accepted because some tool versions quote their numbers.
func coerce(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func joinPath(path []string) string {
	out := path[0]
	for _, seg := range path[1:] {
		out += "." + seg
	}
	return out
}
