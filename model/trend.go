package model

import "time"

// Direction classifies how a configuration's throughput moved across
// collection passes.
type Direction string

const (
	DirectionImproving Direction = "improving"
	DirectionDeclining Direction = "declining"
	DirectionStable    Direction = "stable"
)

// Stability classifies how noisy a configuration's throughput is across
// collection passes, bucketed by coefficient of variation.
type Stability string

const (
	StabilityStable           Stability = "stable"
	StabilityVariable         Stability = "variable"
	StabilityUnstable         Stability = "unstable"
	StabilityInsufficientData Stability = "insufficient_data"
)

// TrendPoint is one configuration's representative measurements from a
// single collection pass.
type TrendPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Throughput float64   `json:"throughput"`
	LatencyAvg Metric    `json:"latency_avg"`
	LatencyP99 Metric    `json:"latency_p99"`
	CPUAvg     Metric    `json:"cpu_avg"`
	MemAvg     Metric    `json:"mem_avg"`
}

// TrendSummary characterizes one configuration's performance across a
// time-ordered sequence of collection passes.
type TrendSummary struct {
	Key ConfigKey `json:"key"`
	// ThroughputChangePercent is the relative change between the
	// chronologically first and last points. Defined as 0 when the
	// first point's throughput is 0.
	ThroughputChangePercent float64   `json:"throughput_change_percent"`
	Direction               Direction `json:"direction"`
	Stability               Stability `json:"stability"`
	DataPoints              int       `json:"data_points"`
	AvgThroughput           float64   `json:"avg_throughput"`
	BestThroughput          float64   `json:"best_throughput"`
	WorstThroughput         float64   `json:"worst_throughput"`
}
