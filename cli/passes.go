package cli

// This file contains the passes command for listing recorded
// collection passes.

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ratelimit-bench/benchreport/history"
)

func (a *App) passes(ctx *cli.Context) error {
	store, err := history.Open(ctx.String("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	passes, err := store.ListPasses(ctx.Context)
	if err != nil {
		return err
	}
	if len(passes) == 0 {
		fmt.Println("No recorded passes found")
		return nil
	}

	// Newest first
	for i, j := 0, len(passes)-1; i < j; i, j = i+1, j-1 {
		passes[i], passes[j] = passes[j], passes[i]
	}
	display := passes
	if limit := ctx.Int("limit"); limit > 0 && limit < len(display) {
		display = display[:limit]
	}

	fmt.Printf("\n=== Passes (%d total) ===\n\n", len(passes))
	fmt.Printf("%6s  %-19s  %14s  %s\n", "ID", "TIMESTAMP", "CONFIGURATIONS", "SOURCE")
	for _, p := range display {
		fmt.Printf("%6d  %-19s  %14d  %s\n",
			p.ID, p.Timestamp.Format("2006-01-02 15:04:05"), p.Results, p.Source)
	}
	fmt.Println()
	return nil
}
