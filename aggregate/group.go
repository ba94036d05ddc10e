// Package aggregate turns a population of benchmark run records into
// one representative result per test configuration. Runs are grouped by
// configuration identity, each group's median-by-throughput run is
// selected, and configurations whose rate limiter never engaged are
// flagged as failed.
package aggregate

import (
	"github.com/ratelimit-bench/benchreport/model"
)

// Group is an ordered collection of runs sharing one configuration key.
// Run order equals input order, which keeps median selection
// deterministic when throughputs tie.
type Group struct {
	Key  model.ConfigKey
	Runs []model.RunRecord
}

// GroupRecords partitions records by configuration identity. Records
// with incomplete identifiers are dropped and counted in skipped.
// Groups appear in first-seen order; grouping is a pure function of the
// input and never creates an empty group.
func GroupRecords(records []model.RunRecord) (groups []Group, skipped int) {
	index := make(map[model.ConfigKey]int)
	for _, rec := range records {
		if rec.ID.Incomplete() {
			skipped++
			continue
		}
		key := rec.ID.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Runs = append(groups[i].Runs, rec)
	}
	return groups, skipped
}
