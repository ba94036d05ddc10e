package cli

// This file contains the report command: aggregate one results
// directory and render the CSV and HTML artifacts.

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ratelimit-bench/benchreport/aggregate"
	"github.com/ratelimit-bench/benchreport/report"
	"github.com/ratelimit-bench/benchreport/results"
)

func (a *App) report(ctx *cli.Context) error {
	dir, err := resultsDirArg(ctx)
	if err != nil {
		return err
	}

	display := report.DefaultDisplay()
	if path := ctx.String("display-config"); path != "" {
		display, err = report.LoadDisplay(path)
		if err != nil {
			return err
		}
	}

	ds, src, err := a.aggregateDirectory(ctx, dir)
	if err != nil {
		return err
	}

	outDir := ctx.String("out")
	if err := report.Generate(a.logger, ds, report.Options{
		OutDir:  outDir,
		Source:  src.Path(),
		Display: display,
	}); err != nil {
		return err
	}

	fmt.Printf("Report written to %s (%d configurations", outDir, len(ds.Results))
	if len(ds.Failed) > 0 {
		fmt.Printf(", %d failed", len(ds.Failed))
	}
	if ds.SkippedRecords > 0 {
		fmt.Printf(", %d records skipped", ds.SkippedRecords)
	}
	fmt.Println(")")
	return nil
}

// resultsDirArg extracts the single positional results directory.
func resultsDirArg(ctx *cli.Context) (string, error) {
	if ctx.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one results directory argument, got %d", ctx.NArg())
	}
	return ctx.Args().First(), nil
}

// aggregateDirectory runs the full pipeline over one results directory.
func (a *App) aggregateDirectory(ctx *cli.Context, dir string) (*aggregate.Dataset, *results.Directory, error) {
	src, err := results.NewDirectory(a.logger, dir)
	if err != nil {
		return nil, nil, err
	}
	pipeline := aggregate.NewPipeline(a.logger, ctx.Int("workers"))
	ds, err := pipeline.Run(ctx.Context, src)
	if err != nil {
		return nil, nil, err
	}
	return ds, src, nil
}
