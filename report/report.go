package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ratelimit-bench/benchreport/aggregate"
	"github.com/ratelimit-bench/benchreport/model"
)

// Options configures one report generation.
type Options struct {
	// OutDir receives summary.csv and index.html.
	OutDir string
	// Source names the input location, shown in the report header.
	Source string
	// GeneratedAt stamps the report; the zero value means time.Now.
	GeneratedAt time.Time
	// Display overrides the presentation mappings; nil means defaults.
	Display *Display
}

// A metricSpec describes one charted metric: how it is titled and how
// its value is read off an aggregated result. Absent optional metrics
// read as not-present and chart as zero bars.
type metricSpec struct {
	title  string
	yLabel string
	value  func(model.AggregatedResult) (float64, bool)
}

var chartGroups = []struct {
	section string
	metrics []metricSpec
}{
	{"Performance", []metricSpec{
		{"Throughput", "Requests per Second", func(r model.AggregatedResult) (float64, bool) {
			return r.Run.Throughput, true
		}},
		{"Rate Limit Hits", "Hits", func(r model.AggregatedResult) (float64, bool) {
			return float64(r.Run.RateLimitHits), true
		}},
	}},
	{"Latency", []metricSpec{
		{"Average Latency", "Latency (ms)", func(r model.AggregatedResult) (float64, bool) {
			return r.Run.LatencyAvg.Value, r.Run.LatencyAvg.Valid
		}},
		{"P99 Latency", "Latency (ms)", func(r model.AggregatedResult) (float64, bool) {
			return r.Run.LatencyP99.Value, r.Run.LatencyP99.Valid
		}},
	}},
	{"Resource Usage", []metricSpec{
		{"CPU Usage", "CPU (%)", func(r model.AggregatedResult) (float64, bool) {
			return r.Run.CPUAvg.Value, r.Run.CPUAvg.Valid
		}},
		{"Memory Usage", "Memory (MB)", func(r model.AggregatedResult) (float64, bool) {
			return r.Run.MemAvg.Value, r.Run.MemAvg.Valid
		}},
	}},
}

// Generate writes summary.csv and index.html for a dataset into
// opts.OutDir, creating the directory if needed.
func Generate(logger zerolog.Logger, ds *aggregate.Dataset, opts Options) error {
	if opts.Display == nil {
		opts.Display = DefaultDisplay()
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	csvPath := filepath.Join(opts.OutDir, "summary.csv")
	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", csvPath, err)
	}
	if err := WriteSummaryCSV(f, ds.Results, opts.Display); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", csvPath, err)
	}
	logger.Info().Str("path", csvPath).Int("rows", len(ds.Results)).Msg("Wrote summary CSV")

	p, err := buildPage(ds, opts)
	if err != nil {
		return err
	}
	htmlPath := filepath.Join(opts.OutDir, "index.html")
	hf, err := os.Create(htmlPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", htmlPath, err)
	}
	if err := renderHTML(hf, p); err != nil {
		hf.Close()
		return err
	}
	if err := hf.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", htmlPath, err)
	}
	logger.Info().Str("path", htmlPath).Msg("Wrote HTML report")
	return nil
}

func buildPage(ds *aggregate.Dataset, opts Options) (page, error) {
	p := page{
		GeneratedAt: opts.GeneratedAt.Format("2006-01-02 15:04:05 MST"),
		Source:      opts.Source,
		Skipped:     ds.SkippedRecords,
	}

	sorted := sortResults(ds.Results, opts.Display)
	p.Modes = buildModeSections(sorted)

	sections, err := buildChartSections(sorted, opts.Display)
	if err != nil {
		return page{}, err
	}
	p.Sections = sections

	for _, r := range ds.Failed {
		p.Failed = append(p.Failed, failedRow{Key: r.Key.String(), Samples: r.SampleSize})
	}
	return p, nil
}

func buildModeSections(sorted []model.AggregatedResult) []modeSection {
	var sections []modeSection
	idx := map[model.Mode]int{}
	for _, r := range sorted {
		i, ok := idx[r.Key.Mode]
		if !ok {
			i = len(sections)
			idx[r.Key.Mode] = i
			sections = append(sections, modeSection{Mode: string(r.Key.Mode)})
		}
		sections[i].Rows = append(sections[i].Rows, summaryRow{
			Client:      r.Key.Client,
			Workload:    string(r.Key.Workload),
			Concurrency: r.Key.Concurrency,
			Duration:    r.Key.DurationSeconds,
			Throughput:  fmt.Sprintf("%.2f", r.Run.Throughput),
			LatAvg:      formatMetric(r.Run.LatencyAvg, "%.2f"),
			LatP50:      formatMetric(r.Run.LatencyP50, "%.2f"),
			LatP99:      formatMetric(r.Run.LatencyP99, "%.2f"),
			Hits:        fmt.Sprintf("%d", r.Run.RateLimitHits),
			CPU:         formatMetric(r.Run.CPUAvg, "%.2f"),
			Mem:         formatMetric(r.Run.MemAvg, "%.0f"),
			Samples:     r.SampleSize,
		})
	}
	return sections
}

// combo is one (workload, mode) slice of the dataset, charted on its
// own axes.
type combo struct {
	workload model.Workload
	mode     model.Mode
}

func buildChartSections(sorted []model.AggregatedResult, d *Display) ([]chartSection, error) {
	combos, byCombo := splitCombos(sorted)
	var sections []chartSection
	for _, grp := range chartGroups {
		sec := chartSection{Title: grp.section}
		for _, m := range grp.metrics {
			for _, c := range combos {
				block, err := buildChart(m, c, byCombo[c], d)
				if err != nil {
					return nil, err
				}
				sec.Charts = append(sec.Charts, block)
			}
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

func splitCombos(sorted []model.AggregatedResult) ([]combo, map[combo][]model.AggregatedResult) {
	var combos []combo
	byCombo := map[combo][]model.AggregatedResult{}
	for _, r := range sorted {
		c := combo{r.Key.Workload, r.Key.Mode}
		if _, ok := byCombo[c]; !ok {
			combos = append(combos, c)
		}
		byCombo[c] = append(byCombo[c], r)
	}
	sort.Slice(combos, func(i, j int) bool {
		if combos[i].workload != combos[j].workload {
			return combos[i].workload < combos[j].workload
		}
		return combos[i].mode < combos[j].mode
	})
	return combos, byCombo
}

func buildChart(m metricSpec, c combo, results []model.AggregatedResult, d *Display) (chartBlock, error) {
	title := fmt.Sprintf("%s — %s / %s", m.title, c.workload, c.mode)
	block := chartBlock{Title: title}

	clients, concurrencies := axes(results, d)
	values := map[string]map[int]float64{}
	anyPresent := false
	for _, r := range results {
		v, ok := m.value(r)
		if !ok {
			continue
		}
		anyPresent = true
		if values[r.Key.Client] == nil {
			values[r.Key.Client] = map[int]float64{}
		}
		values[r.Key.Client][r.Key.Concurrency] = v
	}
	if !anyPresent {
		block.Note = "No data available for this combination"
		return block, nil
	}

	series := make([]clientSeries, 0, len(clients))
	fallbackIdx := 0
	for _, name := range clients {
		vals := make([]float64, len(concurrencies))
		for i, conc := range concurrencies {
			vals[i] = values[name][conc]
		}
		series = append(series, clientSeries{name: name, color: d.Color(name, fallbackIdx), values: vals})
		fallbackIdx++
	}
	if allZero(series) {
		block.Note = "All data points are zero for this combination"
		return block, nil
	}

	uri, err := renderBarChart(title, m.yLabel, concurrencies, series)
	if err != nil {
		return chartBlock{}, err
	}
	block.DataURI = template.URL(uri)
	return block, nil
}

// axes returns the chart's client order (display priority, then name)
// and its ascending concurrency levels.
func axes(results []model.AggregatedResult, d *Display) ([]string, []int) {
	clientSet := map[string]bool{}
	concSet := map[int]bool{}
	for _, r := range results {
		clientSet[r.Key.Client] = true
		concSet[r.Key.Concurrency] = true
	}
	clients := make([]string, 0, len(clientSet))
	for name := range clientSet {
		clients = append(clients, name)
	}
	sort.Slice(clients, func(i, j int) bool {
		if pi, pj := d.Priority(clients[i]), d.Priority(clients[j]); pi != pj {
			return pi < pj
		}
		return clients[i] < clients[j]
	})
	concurrencies := make([]int, 0, len(concSet))
	for c := range concSet {
		concurrencies = append(concurrencies, c)
	}
	sort.Ints(concurrencies)
	return clients, concurrencies
}
