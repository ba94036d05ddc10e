package cli

// This file contains the record command: aggregate one results
// directory and store it as a collection pass in the history database.

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ratelimit-bench/benchreport/history"
)

func (a *App) record(ctx *cli.Context) error {
	dir, err := resultsDirArg(ctx)
	if err != nil {
		return err
	}

	ds, src, err := a.aggregateDirectory(ctx, dir)
	if err != nil {
		return err
	}

	timestamp, err := passTimestamp(ctx, src)
	if err != nil {
		return err
	}

	store, err := history.Open(ctx.String("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	passID, err := store.RecordPass(ctx.Context, timestamp, src.Path(), ds.Results)
	if err != nil {
		return err
	}

	a.logger.Info().
		Int64("pass_id", passID).
		Time("timestamp", timestamp).
		Int("configurations", len(ds.Results)).
		Msg("Recorded collection pass")
	fmt.Printf("Recorded pass %d (%d configurations, %s)\n",
		passID, len(ds.Results), timestamp.Format("2006-01-02 15:04:05"))
	return nil
}

// passTimestamp resolves the pass timestamp: an explicit --time wins,
// otherwise the results directory's modification time stands in for the
// collection time.
func passTimestamp(ctx *cli.Context, src interface{ Timestamp() (time.Time, error) }) (time.Time, error) {
	if v := ctx.String("time"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --time %q: %w", v, err)
		}
		return ts, nil
	}
	return src.Timestamp()
}
