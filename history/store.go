// Package history persists aggregated collection passes so that
// performance trends can be computed across report runs. The store is a
// single SQLite file: passes are an ordered, timestamped sequence and
// results are keyed by the serialized configuration identity, which
// keeps rows joinable across passes.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ratelimit-bench/benchreport/model"
)

const createStmt = `
CREATE TABLE IF NOT EXISTS passes (
	pass_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TIMESTAMP NOT NULL,
	source    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	pass_id         INTEGER NOT NULL,
	config_key      TEXT NOT NULL,
	client          TEXT NOT NULL,
	mode            TEXT NOT NULL,
	workload        TEXT NOT NULL,
	concurrency     INTEGER NOT NULL,
	duration_s      INTEGER NOT NULL,
	throughput      REAL NOT NULL,
	latency_avg     REAL,
	latency_p50     REAL,
	latency_p99     REAL,
	rate_limit_hits INTEGER NOT NULL,
	cpu_avg         REAL,
	mem_avg         REAL,
	sample_size     INTEGER NOT NULL,
	PRIMARY KEY (pass_id, config_key),
	FOREIGN KEY (pass_id) REFERENCES passes(pass_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS results_config_key ON results(config_key);
`

// Store is a history database. It is safe for concurrent use by
// multiple goroutines.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database %q: %w", path, err)
	}
	if _, err := db.Exec(createStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Pass describes one stored collection pass.
type Pass struct {
	ID        int64
	Timestamp time.Time
	Source    string
	Results   int
}

// RecordPass stores the aggregated results of one collection pass and
// returns its pass ID. Failed configurations are not recorded: they
// carry no usable measurement.
func (s *Store) RecordPass(ctx context.Context, timestamp time.Time, source string, results []model.AggregatedResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO passes (timestamp, source) VALUES (?, ?)`, timestamp.UTC(), source)
	if err != nil {
		return 0, fmt.Errorf("inserting pass: %w", err)
	}
	passID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading pass id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO results (
		pass_id, config_key, client, mode, workload, concurrency, duration_s,
		throughput, latency_avg, latency_p50, latency_p99, rate_limit_hits,
		cpu_avg, mem_avg, sample_size
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if r.Failed {
			continue
		}
		k := r.Key
		_, err := stmt.ExecContext(ctx,
			passID, k.String(), k.Client, string(k.Mode), string(k.Workload), k.Concurrency, k.DurationSeconds,
			r.Run.Throughput,
			nullable(r.Run.LatencyAvg), nullable(r.Run.LatencyP50), nullable(r.Run.LatencyP99),
			r.Run.RateLimitHits,
			nullable(r.Run.CPUAvg), nullable(r.Run.MemAvg),
			r.SampleSize,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting result %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing pass: %w", err)
	}
	return passID, nil
}

// ListPasses returns all stored passes ordered by timestamp ascending.
func (s *Store) ListPasses(ctx context.Context) ([]Pass, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.pass_id, p.timestamp, p.source, COUNT(r.config_key)
		FROM passes p LEFT JOIN results r ON r.pass_id = p.pass_id
		GROUP BY p.pass_id ORDER BY p.timestamp ASC, p.pass_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing passes: %w", err)
	}
	defer rows.Close()

	var passes []Pass
	for rows.Next() {
		var p Pass
		if err := rows.Scan(&p.ID, &p.Timestamp, &p.Source, &p.Results); err != nil {
			return nil, fmt.Errorf("scanning pass: %w", err)
		}
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

// Series assembles the per-configuration trend point sequences across
// all stored passes, ordered by pass timestamp ascending.
func (s *Store) Series(ctx context.Context) (map[model.ConfigKey][]model.TrendPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.config_key, p.timestamp, r.throughput, r.latency_avg, r.latency_p99, r.cpu_avg, r.mem_avg
		FROM results r JOIN passes p ON p.pass_id = r.pass_id
		ORDER BY p.timestamp ASC, p.pass_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying series: %w", err)
	}
	defer rows.Close()

	series := make(map[model.ConfigKey][]model.TrendPoint)
	for rows.Next() {
		var (
			keyStr                         string
			pt                             model.TrendPoint
			latencyAvg, latencyP99, cpu, mem sql.NullFloat64
		)
		if err := rows.Scan(&keyStr, &pt.Timestamp, &pt.Throughput, &latencyAvg, &latencyP99, &cpu, &mem); err != nil {
			return nil, fmt.Errorf("scanning series row: %w", err)
		}
		key, err := model.ParseConfigKey(keyStr)
		if err != nil {
			return nil, fmt.Errorf("stored config key: %w", err)
		}
		pt.LatencyAvg = fromNullable(latencyAvg)
		pt.LatencyP99 = fromNullable(latencyP99)
		pt.CPUAvg = fromNullable(cpu)
		pt.MemAvg = fromNullable(mem)
		series[key] = append(series[key], pt)
	}
	return series, rows.Err()
}

func nullable(m model.Metric) sql.NullFloat64 {
	return sql.NullFloat64{Float64: m.Value, Valid: m.Valid}
}

func fromNullable(v sql.NullFloat64) model.Metric {
	return model.Metric{Value: v.Float64, Valid: v.Valid}
}
