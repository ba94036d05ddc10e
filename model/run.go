package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Mode is the deployment mode a benchmark ran against.
type Mode string

const (
	ModeStandalone Mode = "standalone"
	ModeCluster    Mode = "cluster"
)

// Workload is the request mix used by a benchmark run.
type Workload string

const (
	WorkloadLight   Workload = "light"
	WorkloadHeavy   Workload = "heavy"
	WorkloadUnknown Workload = "unknown"
)

// RunIdentifier is the configuration metadata recovered from a result
// file name. Parsing is best-effort: fields that could not be recovered
// hold their documented defaults instead of causing an error.
type RunIdentifier struct {
	// Implementation is the raw implementation label, including any
	// cluster suffix (e.g. "valkey-glide-cluster").
	Implementation string `json:"implementation"`
	// Mode of the deployment (standalone unless a cluster token was found)
	Mode Mode `json:"mode"`
	// Workload type, or unknown when no workload token was found
	Workload Workload `json:"workload"`
	// Concurrency is the number of connections, 0 when not recovered
	Concurrency int `json:"concurrency"`
	// DurationSeconds is the configured run duration, 0 when not recovered
	DurationSeconds int `json:"duration_seconds"`
	// Client is Implementation with any trailing cluster-mode suffix
	// stripped. It is the name runs are grouped under.
	Client string `json:"client"`
}

// Incomplete reports whether parsing recovered too little structure for
// the run to be grouped. Incomplete runs are skipped, not failed.
func (id RunIdentifier) Incomplete() bool {
	return id.Concurrency == 0 || id.Workload == WorkloadUnknown
}

// Key derives the grouping identity for this identifier. Client names
// are lowercased so casing differences between tool versions do not
// split a configuration into several groups.
func (id RunIdentifier) Key() ConfigKey {
	return ConfigKey{
		Client:          strings.ToLower(id.Client),
		Mode:            id.Mode,
		Workload:        id.Workload,
		Concurrency:     id.Concurrency,
		DurationSeconds: id.DurationSeconds,
	}
}

// ConfigKey is the unique identity under which repeated runs of the
// same test configuration are grouped. Consumers persisting results
// across report runs must serialize it with String so stored rows stay
// joinable with future collection passes.
type ConfigKey struct {
	Client          string   `json:"client"`
	Mode            Mode     `json:"mode"`
	Workload        Workload `json:"workload"`
	Concurrency     int      `json:"concurrency"`
	DurationSeconds int      `json:"duration_seconds"`
}

// String serializes the key as "client|mode|workload|Nc|Ns".
func (k ConfigKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%dc|%ds", k.Client, k.Mode, k.Workload, k.Concurrency, k.DurationSeconds)
}

// ParseConfigKey parses a key previously serialized with String.
func ParseConfigKey(s string) (ConfigKey, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 5 {
		return ConfigKey{}, fmt.Errorf("invalid config key %q: expected 5 segments, got %d", s, len(parts))
	}
	concurrency, err := strconv.Atoi(strings.TrimSuffix(parts[3], "c"))
	if err != nil {
		return ConfigKey{}, fmt.Errorf("invalid concurrency in config key %q: %w", s, err)
	}
	duration, err := strconv.Atoi(strings.TrimSuffix(parts[4], "s"))
	if err != nil {
		return ConfigKey{}, fmt.Errorf("invalid duration in config key %q: %w", s, err)
	}
	return ConfigKey{
		Client:          parts[0],
		Mode:            Mode(parts[1]),
		Workload:        Workload(parts[2]),
		Concurrency:     concurrency,
		DurationSeconds: duration,
	}, nil
}

// Metric is a numeric measurement that may be missing from the source
// record. The zero value is absent. Mirrors sql.NullFloat64 so absent
// values map to NULL in storage and "N/A" in presentation instead of
// being propagated as errors.
type Metric struct {
	Value float64
	Valid bool
}

// MetricOf returns a present metric with the given value.
func MetricOf(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// MarshalJSON renders absent metrics as null, present ones as a number.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = MetricOf(v)
	return nil
}

// RunRecord is one executed benchmark run. It is created by reading a
// single external result record and is immutable afterwards.
type RunRecord struct {
	ID         RunIdentifier `json:"id"`
	Throughput float64       `json:"throughput"`
	LatencyAvg Metric        `json:"latency_avg"`
	LatencyP50 Metric        `json:"latency_p50"`
	LatencyP99 Metric        `json:"latency_p99"`
	// RateLimitHits counts how often the rate limiter under test engaged.
	// Zero across every run of a configuration marks the configuration
	// as failed.
	RateLimitHits   int64  `json:"rate_limit_hits"`
	CPUAvg          Metric `json:"cpu_avg"`
	MemAvg          Metric `json:"mem_avg"`
	Errors          int64  `json:"errors"`
	Timeouts        int64  `json:"timeouts"`
	DurationSeconds int    `json:"duration_seconds"`
	// Source is an opaque reference to the record's origin (a file path)
	Source string `json:"source"`
}

// AggregatedResult is the representative run selected for one
// configuration group, annotated with the group it came from.
type AggregatedResult struct {
	Key ConfigKey `json:"key"`
	Run RunRecord `json:"run"`
	// SampleSize is the number of runs in the originating group. A size
	// of 1 is accepted but signals reduced statistical confidence.
	SampleSize int `json:"sample_size"`
	// Failed marks a configuration whose every run showed zero rate
	// limit hits: the mechanism under test never engaged.
	Failed bool `json:"failed"`
}
