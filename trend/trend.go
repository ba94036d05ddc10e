// Package trend computes direction and stability metrics for a
// configuration's performance across an ordered sequence of collection
// passes.
package trend

import (
	"sort"

	moremath "github.com/aclements/go-moremath/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/ratelimit-bench/benchreport/model"
)

// Thresholds used for classification. The two-point percent band is
// deliberately coarse: a slope over two points is not statistically
// meaningful.
const (
	twoPointChangeBand = 5.0  // +-% before a 2-point trend counts as movement
	cvStableBelow      = 10.0 // coefficient of variation bucket bounds
	cvVariableBelow    = 25.0
)

// Analyze computes the TrendSummary for one configuration. points are
// ordered by timestamp ascending; Analyze sorts defensively so the
// result is a pure function of the set. It returns false when fewer
// than two points exist - insufficient data, not an error.
func Analyze(key model.ConfigKey, points []model.TrendPoint) (model.TrendSummary, bool) {
	if len(points) < 2 {
		return model.TrendSummary{}, false
	}

	ordered := make([]model.TrendPoint, len(points))
	copy(ordered, points)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	throughputs := make([]float64, len(ordered))
	for i, p := range ordered {
		throughputs[i] = p.Throughput
	}

	summary := model.TrendSummary{
		Key:        key,
		DataPoints: len(ordered),
	}

	first, last := throughputs[0], throughputs[len(throughputs)-1]
	if first != 0 {
		summary.ThroughputChangePercent = (last - first) / first * 100
	}

	if len(ordered) >= 3 {
		summary.Direction = direction(slope(throughputs))
		summary.Stability = stability(throughputs)
	} else {
		summary.Direction = direction(summaryBand(summary.ThroughputChangePercent))
		summary.Stability = model.StabilityInsufficientData
	}

	sample := moremath.Sample{Xs: throughputs}
	summary.AvgThroughput = sample.Mean()
	summary.BestThroughput = throughputs[0]
	summary.WorstThroughput = throughputs[0]
	for _, v := range throughputs[1:] {
		if v > summary.BestThroughput {
			summary.BestThroughput = v
		}
		if v < summary.WorstThroughput {
			summary.WorstThroughput = v
		}
	}

	return summary, true
}

// slope fits an ordinary least-squares line of throughput against the
// point index and returns its gradient.
func slope(throughputs []float64) float64 {
	xs := make([]float64, len(throughputs))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, throughputs, nil, false)
	return beta
}

// summaryBand maps a two-point percent change onto the same sign
// convention slope uses, with the +-5% dead band applied.
func summaryBand(changePercent float64) float64 {
	switch {
	case changePercent > twoPointChangeBand:
		return 1
	case changePercent < -twoPointChangeBand:
		return -1
	default:
		return 0
	}
}

func direction(v float64) model.Direction {
	switch {
	case v > 0:
		return model.DirectionImproving
	case v < 0:
		return model.DirectionDeclining
	default:
		return model.DirectionStable
	}
}

// stability buckets the coefficient of variation of the throughputs.
func stability(throughputs []float64) model.Stability {
	sample := moremath.Sample{Xs: throughputs}
	mean := sample.Mean()
	if mean == 0 {
		// Throughput is non-negative, so a zero mean means every point
		// is zero: no variation to classify.
		return model.StabilityStable
	}
	cv := sample.StdDev() / mean * 100
	switch {
	case cv < cvStableBelow:
		return model.StabilityStable
	case cv < cvVariableBelow:
		return model.StabilityVariable
	default:
		return model.StabilityUnstable
	}
}
