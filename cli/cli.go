// Package cli wires the aggregation pipeline, the history store and
// the report renderer into the benchreport command.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "benchreport"

const defaultDBPath = "benchmark-history.db"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Aggregate rate limiter benchmark results and analyze trends across passes",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "report",
		Usage:     "Aggregate a results directory and write the CSV and HTML report",
		ArgsUsage: "RESULTS_DIR",
		Action:    app.report,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory for report artifacts",
				Value:   "report",
			},
			&cli.StringFlag{
				Name:  "display-config",
				Usage: "YAML file overriding client colors and sort priorities",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel record extraction workers (default: number of CPUs)",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "record",
		Usage:     "Aggregate a results directory and record it as a pass in the history database",
		ArgsUsage: "RESULTS_DIR",
		Action:    app.record,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "Path to the history database",
				Value: defaultDBPath,
			},
			&cli.StringFlag{
				Name:  "time",
				Usage: "Pass timestamp as RFC3339 (default: results directory mtime)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel record extraction workers (default: number of CPUs)",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "trend",
		Usage:  "Analyze per-configuration trends across all recorded passes",
		Action: app.trend,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "Path to the history database",
				Value: defaultDBPath,
			},
			&cli.IntFlag{
				Name:  "min-points",
				Usage: "Hide configurations with fewer recorded passes",
				Value: 2,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "passes",
		Usage:  "List recorded collection passes",
		Action: app.passes,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "Path to the history database",
				Value: defaultDBPath,
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of passes shown (default: 20)",
				Value:   20,
			},
		},
	})
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}
