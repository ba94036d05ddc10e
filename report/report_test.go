package report

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ratelimit-bench/benchreport/aggregate"
	"github.com/ratelimit-bench/benchreport/model"
)

func result(client string, mode model.Mode, workload model.Workload, conc int, throughput float64) model.AggregatedResult {
	return model.AggregatedResult{
		Key: model.ConfigKey{
			Client:          client,
			Mode:            mode,
			Workload:        workload,
			Concurrency:     conc,
			DurationSeconds: 30,
		},
		Run: model.RunRecord{
			Throughput:    throughput,
			LatencyAvg:    model.MetricOf(1.25),
			LatencyP50:    model.MetricOf(1.1),
			LatencyP99:    model.MetricOf(4.8),
			RateLimitHits: 1200,
			CPUAvg:        model.MetricOf(42.5),
			MemAvg:        model.MetricOf(256),
		},
		SampleSize: 3,
	}
}

func TestSortResultsPriority(t *testing.T) {
	d := DefaultDisplay()
	in := []model.AggregatedResult{
		result("ioredis", model.ModeStandalone, model.WorkloadLight, 50, 1000),
		result("valkey-glide", model.ModeStandalone, model.WorkloadLight, 100, 2000),
		result("valkey-glide", model.ModeStandalone, model.WorkloadLight, 50, 1800),
		result("iovalkey", model.ModeStandalone, model.WorkloadLight, 50, 1500),
	}
	out := sortResults(in, d)
	var order []string
	for _, r := range out {
		order = append(order, r.Key.Client)
	}
	require.Equal(t, []string{"valkey-glide", "valkey-glide", "iovalkey", "ioredis"}, order)
	require.Equal(t, 50, out[0].Key.Concurrency)
	require.Equal(t, 100, out[1].Key.Concurrency)
	// input untouched
	require.Equal(t, "ioredis", in[0].Key.Client)
}

func TestWriteSummaryCSV(t *testing.T) {
	r := result("valkey-glide", model.ModeCluster, model.WorkloadHeavy, 100, 1234.567)
	r.Run.CPUAvg = model.Metric{}
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, []model.AggregatedResult{r}, DefaultDisplay()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, strings.Join(csvHeader, ","), lines[0])
	require.Equal(t, "valkey-glide,cluster,heavy,100,30,1234.57,1.25,1.10,4.80,1200,N/A,256", lines[1])
}

func TestWriteSummaryCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, nil, DefaultDisplay()))
	require.Equal(t, strings.Join(csvHeader, ",")+"\n", buf.String())
}

func TestDisplayPriority(t *testing.T) {
	d := DefaultDisplay()
	for _, tc := range []struct {
		client string
		want   int
	}{
		{"valkey-glide", 0},
		{"Valkey-Glide", 0},
		{"valkey-glide-v2", 0},
		{"iovalkey", 1},
		{"ioredis", 2},
		{"some-valkey-fork", 1},
		{"memcached", 100},
	} {
		require.Equal(t, tc.want, d.Priority(tc.client), tc.client)
	}
}

func TestDisplayColorFallback(t *testing.T) {
	d := DefaultDisplay()
	known, ok := d.Color("valkey-glide", 0).(color.NRGBA)
	require.True(t, ok)
	require.Equal(t, color.NRGBA{R: 0x42, G: 0x85, B: 0xF4, A: 0xD9}, known)

	unknown0 := d.Color("memcached", 0)
	unknown1 := d.Color("keydb", 1)
	require.NotEqual(t, unknown0, unknown1)
	// cycles past the palette end
	require.Equal(t, unknown0, d.Color("memcached", len(fallbackPalette)))
}

func TestLoadDisplayPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "display.yaml")
	require.NoError(t, os.WriteFile(path, []byte("colors:\n  dragonfly: \"#112233\"\n"), 0o644))

	d, err := LoadDisplay(path)
	require.NoError(t, err)
	// colors replaced, priorities fall back to defaults
	require.Contains(t, d.Colors, "dragonfly")
	require.Equal(t, 0, d.Priorities["valkey-glide"])
}

func TestLoadDisplayMissing(t *testing.T) {
	_, err := LoadDisplay(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestBuildPageSections(t *testing.T) {
	ds := &aggregate.Dataset{
		Results: []model.AggregatedResult{
			result("valkey-glide", model.ModeStandalone, model.WorkloadLight, 50, 1800),
			result("ioredis", model.ModeStandalone, model.WorkloadLight, 50, 1000),
			result("valkey-glide", model.ModeCluster, model.WorkloadLight, 50, 2500),
		},
		Failed: []model.AggregatedResult{
			func() model.AggregatedResult {
				r := result("ioredis", model.ModeCluster, model.WorkloadHeavy, 100, 900)
				r.Failed = true
				return r
			}(),
		},
		SkippedRecords: 2,
	}

	p, err := buildPage(ds, Options{GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	require.Len(t, p.Modes, 2)
	require.Equal(t, "cluster", p.Modes[0].Mode)
	require.Len(t, p.Modes[0].Rows, 1)
	require.Len(t, p.Modes[1].Rows, 2)
	require.Equal(t, "valkey-glide", p.Modes[1].Rows[0].Client)

	require.Len(t, p.Sections, 3)
	require.Equal(t, "Performance", p.Sections[0].Title)
	// two combos x two metrics per section
	require.Len(t, p.Sections[0].Charts, 4)

	require.Len(t, p.Failed, 1)
	require.Equal(t, "ioredis|cluster|heavy|100c|30s", p.Failed[0].Key)
	require.Equal(t, 2, p.Skipped)
}

func TestBuildChartNotes(t *testing.T) {
	d := DefaultDisplay()
	c := combo{model.WorkloadLight, model.ModeStandalone}

	absent := result("valkey-glide", model.ModeStandalone, model.WorkloadLight, 50, 1800)
	absent.Run.CPUAvg = model.Metric{}
	spec := chartGroups[2].metrics[0] // CPU Usage
	block, err := buildChart(spec, c, []model.AggregatedResult{absent}, d)
	require.NoError(t, err)
	require.Empty(t, block.DataURI)
	require.Contains(t, block.Note, "No data available")

	zero := result("valkey-glide", model.ModeStandalone, model.WorkloadLight, 50, 0)
	tput := chartGroups[0].metrics[0] // Throughput
	block, err = buildChart(tput, c, []model.AggregatedResult{zero}, d)
	require.NoError(t, err)
	require.Empty(t, block.DataURI)
	require.Contains(t, block.Note, "zero")
}

func TestGenerateWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	ds := &aggregate.Dataset{
		Results: []model.AggregatedResult{
			result("valkey-glide", model.ModeStandalone, model.WorkloadLight, 50, 1800),
			result("ioredis", model.ModeStandalone, model.WorkloadLight, 100, 1100),
		},
	}
	err := Generate(zerolog.Nop(), ds, Options{
		OutDir:      filepath.Join(dir, "report"),
		Source:      "/results/latest",
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	csvData, err := os.ReadFile(filepath.Join(dir, "report", "summary.csv"))
	require.NoError(t, err)
	require.Contains(t, string(csvData), "valkey-glide,standalone,light,50")

	htmlData, err := os.ReadFile(filepath.Join(dir, "report", "index.html"))
	require.NoError(t, err)
	html := string(htmlData)
	require.Contains(t, html, "Rate Limiter Benchmark Report")
	require.Contains(t, html, "/results/latest")
	require.Contains(t, html, "data:image/png;base64,")
	require.NotContains(t, html, "Failed Configurations")
}
