package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/ratelimit-bench/benchreport/model"
)

var csvHeader = []string{
	"Client", "Mode", "RequestType", "Concurrency", "Duration",
	"ReqPerSec", "Latency_Avg", "Latency_P50", "Latency_P99",
	"RateLimitHits", "CPUUsage", "MemoryUsage",
}

// sortResults returns a copy ordered for presentation: display
// priority first, then workload, mode, concurrency and client name.
func sortResults(results []model.AggregatedResult, d *Display) []model.AggregatedResult {
	out := make([]model.AggregatedResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if pa, pb := d.Priority(a.Client), d.Priority(b.Client); pa != pb {
			return pa < pb
		}
		if a.Workload != b.Workload {
			return a.Workload < b.Workload
		}
		if a.Mode != b.Mode {
			return a.Mode < b.Mode
		}
		if a.Concurrency != b.Concurrency {
			return a.Concurrency < b.Concurrency
		}
		return a.Client < b.Client
	})
	return out
}

// WriteSummaryCSV writes one row per aggregated configuration. Absent
// metrics render as "N/A" rather than zero so downstream spreadsheets
// do not average placeholders into real data.
func WriteSummaryCSV(w io.Writer, results []model.AggregatedResult, d *Display) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range sortResults(results, d) {
		row := []string{
			r.Key.Client,
			string(r.Key.Mode),
			string(r.Key.Workload),
			strconv.Itoa(r.Key.Concurrency),
			strconv.Itoa(r.Key.DurationSeconds),
			fmt.Sprintf("%.2f", r.Run.Throughput),
			formatMetric(r.Run.LatencyAvg, "%.2f"),
			formatMetric(r.Run.LatencyP50, "%.2f"),
			formatMetric(r.Run.LatencyP99, "%.2f"),
			strconv.FormatInt(r.Run.RateLimitHits, 10),
			formatMetric(r.Run.CPUAvg, "%.2f"),
			formatMetric(r.Run.MemAvg, "%.0f"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", r.Key, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatMetric(m model.Metric, verb string) string {
	if !m.Valid {
		return "N/A"
	}
	return fmt.Sprintf(verb, m.Value)
}
