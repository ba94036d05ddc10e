package aggregate

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ratelimit-bench/benchreport/metrics"
	"github.com/ratelimit-bench/benchreport/model"
	"github.com/ratelimit-bench/benchreport/runid"
)

// Fatal conditions: anything less than global emptiness is accumulated
// as diagnostics instead of aborting the batch.
var (
	ErrNoRecords = errors.New("no benchmark records found")
	ErrNoGroups  = errors.New("no complete configurations after filtering")
)

// A RawRecord is one unprocessed benchmark result as supplied by a
// record source: the opaque identifier naming the run plus the raw
// metric blob.
type RawRecord struct {
	// Identifier is the opaque run identifier (typically a file name)
	Identifier string
	// Data is the raw metric record
	Data []byte
	// Source locates the record's origin for diagnostics
	Source string
}

// Source supplies the raw records of one collection pass.
type Source interface {
	ListRecords(ctx context.Context) ([]RawRecord, error)
}

// DiagnosticKind distinguishes the non-fatal anomaly classes.
type DiagnosticKind string

const (
	// DiagSkippedRecord marks a record whose identifier was too
	// incomplete to group.
	DiagSkippedRecord DiagnosticKind = "skipped_record"
	// DiagMetricWarning marks a present-but-malformed metric field.
	DiagMetricWarning DiagnosticKind = "metric_warning"
	// DiagUnknownImplementation marks an identifier whose naming
	// convention was not recognized at all.
	DiagUnknownImplementation DiagnosticKind = "unknown_implementation"
	// DiagFailedConfiguration marks a configuration whose rate limiter
	// never engaged in any run. Distinct from "no data collected".
	DiagFailedConfiguration DiagnosticKind = "failed_configuration"
)

// A Diagnostic is one non-fatal anomaly observed during aggregation.
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind"`
	Source string         `json:"source"`
	Reason string         `json:"reason"`
}

// Dataset is the output of one aggregation pass.
type Dataset struct {
	// Results holds one representative run per healthy configuration,
	// in first-seen configuration order.
	Results []model.AggregatedResult
	// Failed holds the flagged failed configurations, excluded from
	// Results so downstream consumers never chart them as data.
	Failed []model.AggregatedResult
	// SkippedRecords counts records dropped for incomplete identifiers.
	SkippedRecords int
	// Diagnostics accumulates every non-fatal anomaly of the pass.
	Diagnostics []Diagnostic
}

// Pipeline aggregates the records of a collection pass.
type Pipeline struct {
	logger  zerolog.Logger
	workers int
}

// NewPipeline returns a pipeline logging through logger. workers bounds
// the parallel extraction phase; values < 1 select GOMAXPROCS.
func NewPipeline(logger zerolog.Logger, workers int) *Pipeline {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{logger: logger, workers: workers}
}

// Run reads all records from src, parses and extracts them in parallel,
// groups them by configuration and selects one representative per
// group. Per-record and per-group problems become diagnostics; the only
// errors are an empty input (ErrNoRecords), an output with no complete
// configurations (ErrNoGroups), a source failure, or cancellation.
func (p *Pipeline) Run(ctx context.Context, src Source) (*Dataset, error) {
	raws, err := src.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	if len(raws) == 0 {
		return nil, ErrNoRecords
	}

	// Extraction is embarrassingly parallel: each slot is owned by one
	// goroutine and the indexed slice keeps the input order intact for
	// the grouping pass that follows the join.
	records := make([]model.RunRecord, len(raws))
	perRecord := make([][]Diagnostic, len(raws))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, raw := range raws {
		i, raw := i, raw
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i], perRecord[i] = p.buildRecord(raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := &Dataset{}
	for i, diags := range perRecord {
		ds.Diagnostics = append(ds.Diagnostics, diags...)
		if records[i].ID.Incomplete() {
			ds.Diagnostics = append(ds.Diagnostics, Diagnostic{
				Kind:   DiagSkippedRecord,
				Source: records[i].Source,
				Reason: fmt.Sprintf("incomplete identifier: concurrency=%d workload=%s", records[i].ID.Concurrency, records[i].ID.Workload),
			})
			p.logger.Warn().
				Str("source", records[i].Source).
				Int("concurrency", records[i].ID.Concurrency).
				Str("workload", string(records[i].ID.Workload)).
				Msg("Skipping record with incomplete identifier")
		}
	}

	groups, skipped := GroupRecords(records)
	ds.SkippedRecords = skipped
	if len(groups) == 0 {
		return nil, ErrNoGroups
	}

	for _, grp := range groups {
		res := SelectRepresentative(grp)
		if res.Failed {
			reason := fmt.Sprintf("rate limiter inactive across all %d runs", res.SampleSize)
			ds.Failed = append(ds.Failed, res)
			ds.Diagnostics = append(ds.Diagnostics, Diagnostic{
				Kind:   DiagFailedConfiguration,
				Source: res.Key.String(),
				Reason: reason,
			})
			p.logger.Warn().
				Str("config", res.Key.String()).
				Int("sample_size", res.SampleSize).
				Msg("Configuration failed: rate limiter never engaged")
			continue
		}
		if res.SampleSize < 2 {
			p.logger.Debug().
				Str("config", res.Key.String()).
				Msg("Single-run configuration, statistical confidence reduced")
		}
		ds.Results = append(ds.Results, res)
	}

	p.logger.Info().
		Int("records", len(raws)).
		Int("skipped", ds.SkippedRecords).
		Int("configurations", len(ds.Results)).
		Int("failed_configurations", len(ds.Failed)).
		Msg("Aggregation complete")

	return ds, nil
}

// defaultDurationSeconds is assumed when neither the record nor its
// identifier carries a duration.
const defaultDurationSeconds = 30

// buildRecord parses one raw record into a RunRecord. It never fails:
// anomalies are returned as diagnostics alongside a degraded record.
func (p *Pipeline) buildRecord(raw RawRecord) (model.RunRecord, []Diagnostic) {
	var diags []Diagnostic

	id := runid.Parse(raw.Identifier)
	if id.Implementation == runid.UnknownImplementation {
		diags = append(diags, Diagnostic{
			Kind:   DiagUnknownImplementation,
			Source: raw.Source,
			Reason: fmt.Sprintf("unrecognized identifier %q", raw.Identifier),
		})
		p.logger.Warn().Str("identifier", raw.Identifier).Msg("Could not determine implementation name")
	}

	vals, warnings := metrics.Extract(raw.Data)
	for _, w := range warnings {
		diags = append(diags, Diagnostic{Kind: DiagMetricWarning, Source: raw.Source, Reason: w})
		p.logger.Warn().Str("source", raw.Source).Msg(w)
	}

	duration := defaultDurationSeconds
	if vals.DurationSeconds.Valid && vals.DurationSeconds.Value > 0 {
		duration = int(vals.DurationSeconds.Value)
	} else if id.DurationSeconds > 0 {
		duration = id.DurationSeconds
	}

	return model.RunRecord{
		ID:              id,
		Throughput:      vals.Throughput,
		LatencyAvg:      vals.LatencyAvg,
		LatencyP50:      vals.LatencyP50,
		LatencyP99:      vals.LatencyP99,
		RateLimitHits:   vals.RateLimitHits,
		CPUAvg:          vals.CPUAvg,
		MemAvg:          vals.MemAvg,
		Errors:          vals.Errors,
		Timeouts:        vals.Timeouts,
		DurationSeconds: duration,
		Source:          raw.Source,
	}, diags
}
