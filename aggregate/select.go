package aggregate

import (
	"sort"

	"github.com/ratelimit-bench/benchreport/model"
)

// SelectRepresentative picks the run that stands for a configuration's
// performance: the median-by-throughput run. Runs are stably sorted by
// throughput ascending and the element at floor(n/2) is chosen - for an
// even group size that is the upper median, so the result is always a
// real observed run rather than an interpolated value.
//
// A group where every run has zero rate limit hits is flagged Failed:
// the rate limiter under test never engaged, which is a configuration
// failure rather than a throughput outlier.
func SelectRepresentative(g Group) model.AggregatedResult {
	runs := make([]model.RunRecord, len(g.Runs))
	copy(runs, g.Runs)
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Throughput < runs[j].Throughput
	})

	failed := true
	for _, r := range runs {
		if r.RateLimitHits > 0 {
			failed = false
			break
		}
	}

	return model.AggregatedResult{
		Key:        g.Key,
		Run:        runs[len(runs)/2],
		SampleSize: len(runs),
		Failed:     failed,
	}
}
