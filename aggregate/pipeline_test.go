package aggregate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	records []RawRecord
	err     error
}

func (f *fakeSource) ListRecords(ctx context.Context) ([]RawRecord, error) {
	return f.records, f.err
}

func rawRecord(name string, throughput float64, hits int64) RawRecord {
	data := fmt.Sprintf(`{"throughput":{"average":%g},"rateLimitHits":%d,"latency":{"average":1.5,"p50":1.2,"p99":4.0}}`, throughput, hits)
	return RawRecord{Identifier: name, Data: []byte(data), Source: name}
}

func TestPipelineRun(t *testing.T) {
	src := &fakeSource{records: []RawRecord{
		rawRecord("glide_light_50c_30s_run1.json", 120, 10),
		rawRecord("glide_light_50c_30s_run2.json", 100, 12),
		rawRecord("glide_light_50c_30s_run3.json", 110, 11),
		rawRecord("ioredis_light_50c_30s_run1.json", 90, 5),
	}}

	p := NewPipeline(zerolog.Nop(), 2)
	ds, err := p.Run(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, ds.Results, 2)
	require.Zero(t, ds.SkippedRecords)
	require.Empty(t, ds.Failed)

	// glide's group: sorted throughputs [100 110 120], median 110.
	require.Equal(t, "glide", ds.Results[0].Key.Client)
	require.Equal(t, 110.0, ds.Results[0].Run.Throughput)
	require.Equal(t, 3, ds.Results[0].SampleSize)

	require.Equal(t, "ioredis", ds.Results[1].Key.Client)
	require.Equal(t, 1, ds.Results[1].SampleSize)
}

func TestPipelineSkipsIncompleteRecords(t *testing.T) {
	src := &fakeSource{records: []RawRecord{
		rawRecord("glide_light_50c_30s.json", 100, 1),
		rawRecord("glide_light_30s.json", 90, 1),  // no concurrency token
		rawRecord("glide_50c_30s.json", 80, 1),    // no workload token
	}}

	p := NewPipeline(zerolog.Nop(), 0)
	ds, err := p.Run(context.Background(), src)
	require.NoError(t, err)

	require.Equal(t, 2, ds.SkippedRecords)
	require.Len(t, ds.Results, 1)

	var skippedDiags int
	for _, d := range ds.Diagnostics {
		if d.Kind == DiagSkippedRecord {
			skippedDiags++
		}
	}
	require.Equal(t, 2, skippedDiags)
}

func TestPipelineFailedConfiguration(t *testing.T) {
	src := &fakeSource{records: []RawRecord{
		rawRecord("glide_light_50c_30s_run1.json", 100, 0),
		rawRecord("glide_light_50c_30s_run2.json", 110, 0),
		rawRecord("ioredis_light_50c_30s_run1.json", 90, 3),
	}}

	p := NewPipeline(zerolog.Nop(), 0)
	ds, err := p.Run(context.Background(), src)
	require.NoError(t, err)

	// The failed configuration is excluded from Results but reported
	// with a structured reason, distinguishable from missing data.
	require.Len(t, ds.Results, 1)
	require.Equal(t, "ioredis", ds.Results[0].Key.Client)

	require.Len(t, ds.Failed, 1)
	require.True(t, ds.Failed[0].Failed)
	require.Equal(t, "glide", ds.Failed[0].Key.Client)

	var reason string
	for _, d := range ds.Diagnostics {
		if d.Kind == DiagFailedConfiguration {
			reason = d.Reason
		}
	}
	require.Contains(t, reason, "rate limiter inactive across all 2 runs")
}

func TestPipelineFatalConditions(t *testing.T) {
	p := NewPipeline(zerolog.Nop(), 0)

	_, err := p.Run(context.Background(), &fakeSource{})
	require.ErrorIs(t, err, ErrNoRecords)

	// Records exist but none survive identifier filtering.
	_, err = p.Run(context.Background(), &fakeSource{records: []RawRecord{
		rawRecord("mystery.json", 100, 1),
	}})
	require.ErrorIs(t, err, ErrNoGroups)

	srcErr := errors.New("disk gone")
	_, err = p.Run(context.Background(), &fakeSource{err: srcErr})
	require.ErrorIs(t, err, srcErr)
}

func TestPipelineMetricWarningsAccumulate(t *testing.T) {
	src := &fakeSource{records: []RawRecord{
		{
			Identifier: "glide_light_50c_30s_run1.json",
			Data:       []byte(`{"throughput":{"average":100},"rateLimitHits":2,"latency":{"average":"slow"}}`),
			Source:     "glide_light_50c_30s_run1.json",
		},
	}}

	p := NewPipeline(zerolog.Nop(), 0)
	ds, err := p.Run(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, ds.Results, 1)
	require.False(t, ds.Results[0].Run.LatencyAvg.Valid)

	var warned bool
	for _, d := range ds.Diagnostics {
		if d.Kind == DiagMetricWarning {
			warned = true
		}
	}
	require.True(t, warned)
}

func TestPipelineDefaultDuration(t *testing.T) {
	src := &fakeSource{records: []RawRecord{
		// No duration in the record: the identifier's 60s wins.
		{Identifier: "glide_light_50c_60s.json", Data: []byte(`{"throughput":{"average":10},"rateLimitHits":1}`), Source: "a"},
		// Neither record nor identifier: falls back to 30.
		{Identifier: "glide_light_50c.json", Data: []byte(`{"throughput":{"average":10},"rateLimitHits":1}`), Source: "b"},
		// Record duration beats the identifier.
		{Identifier: "glide_light_50c_60s.json", Data: []byte(`{"throughput":{"average":10},"rateLimitHits":1,"duration":45}`), Source: "c"},
	}}

	p := NewPipeline(zerolog.Nop(), 0)
	ds, err := p.Run(context.Background(), src)
	require.NoError(t, err)

	// Two distinct keys: one with 60s in the identifier, one without.
	require.Len(t, ds.Results, 2)
	for _, res := range ds.Results {
		switch res.Key.DurationSeconds {
		case 60:
			require.Equal(t, 2, res.SampleSize)
		case 0:
			require.Equal(t, 30, res.Run.DurationSeconds)
		default:
			t.Fatalf("unexpected key duration %d", res.Key.DurationSeconds)
		}
	}
}
