package cli

// This file contains the trend command: per-configuration trend
// analysis over every recorded pass in the history database.

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/ratelimit-bench/benchreport/history"
	"github.com/ratelimit-bench/benchreport/model"
	"github.com/ratelimit-bench/benchreport/report"
	"github.com/ratelimit-bench/benchreport/trend"
)

func (a *App) trend(ctx *cli.Context) error {
	store, err := history.Open(ctx.String("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	series, err := store.Series(ctx.Context)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		fmt.Println("No recorded passes found")
		return nil
	}

	minPoints := ctx.Int("min-points")
	var summaries []model.TrendSummary
	for key, points := range series {
		if len(points) < minPoints {
			continue
		}
		summary, ok := trend.Analyze(key, points)
		if !ok {
			continue
		}
		summaries = append(summaries, summary)
	}
	if len(summaries) == 0 {
		fmt.Printf("No configurations with at least %d recorded passes\n", minPoints)
		return nil
	}

	display := report.DefaultDisplay()
	sort.Slice(summaries, func(i, j int) bool {
		ka, kb := summaries[i].Key, summaries[j].Key
		if pa, pb := display.Priority(ka.Client), display.Priority(kb.Client); pa != pb {
			return pa < pb
		}
		return ka.String() < kb.String()
	})

	fmt.Printf("\n=== Trends (%d configurations) ===\n\n", len(summaries))
	fmt.Printf("%-45s %7s %10s %-10s %-18s %12s\n",
		"CONFIGURATION", "PASSES", "CHANGE", "DIRECTION", "STABILITY", "AVG REQ/S")
	for _, s := range summaries {
		fmt.Printf("%-45s %7d %9.1f%% %-10s %-18s %12.1f\n",
			s.Key.String(), s.DataPoints, s.ThroughputChangePercent,
			s.Direction, s.Stability, s.AvgThroughput)
	}
	fmt.Println()
	return nil
}
