package report

import (
	"fmt"
	"html/template"
	"io"
)

type page struct {
	GeneratedAt string
	Source      string
	Modes       []modeSection
	Sections    []chartSection
	Failed      []failedRow
	Skipped     int
}

type modeSection struct {
	Mode string
	Rows []summaryRow
}

type summaryRow struct {
	Client      string
	Workload    string
	Concurrency int
	Duration    int
	Throughput  string
	LatAvg      string
	LatP50      string
	LatP99      string
	Hits        string
	CPU         string
	Mem         string
	Samples     int
}

type chartSection struct {
	Title  string
	Charts []chartBlock
}

type chartBlock struct {
	Title   string
	DataURI template.URL
	Note    string
}

type failedRow struct {
	Key     string
	Samples int
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Rate Limiter Benchmark Report</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #202124; }
h1 { border-bottom: 2px solid #4285F4; padding-bottom: 0.3em; }
h2 { margin-top: 2em; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #dadce0; padding: 0.4em 0.8em; text-align: right; }
th { background: #f1f3f4; }
td:first-child, th:first-child { text-align: left; }
.meta { color: #5f6368; font-size: 0.9em; }
.chart { margin: 1.5em 0; }
.chart img { max-width: 100%; border: 1px solid #dadce0; }
.note { color: #5f6368; font-style: italic; }
.failed { color: #DB4437; }
</style>
</head>
<body>
<h1>Rate Limiter Benchmark Report</h1>
<p class="meta">Generated {{.GeneratedAt}}{{if .Source}} from {{.Source}}{{end}}{{if .Skipped}} &middot; {{.Skipped}} record(s) skipped{{end}}</p>

{{range .Modes}}
<h2>Summary &mdash; {{.Mode}}</h2>
<table>
<tr><th>Client</th><th>Workload</th><th>Concurrency</th><th>Duration (s)</th><th>Req/sec</th><th>Avg (ms)</th><th>P50 (ms)</th><th>P99 (ms)</th><th>Rate Limit Hits</th><th>CPU (%)</th><th>Memory (MB)</th><th>Samples</th></tr>
{{range .Rows}}<tr><td>{{.Client}}</td><td>{{.Workload}}</td><td>{{.Concurrency}}</td><td>{{.Duration}}</td><td>{{.Throughput}}</td><td>{{.LatAvg}}</td><td>{{.LatP50}}</td><td>{{.LatP99}}</td><td>{{.Hits}}</td><td>{{.CPU}}</td><td>{{.Mem}}</td><td>{{.Samples}}</td></tr>
{{end}}</table>
{{end}}

{{range .Sections}}
<h2>{{.Title}}</h2>
{{range .Charts}}
<div class="chart">
<h3>{{.Title}}</h3>
{{if .DataURI}}<img src="{{.DataURI}}" alt="{{.Title}}">{{else}}<p class="note">{{.Note}}</p>{{end}}
</div>
{{end}}
{{end}}

{{if .Failed}}
<h2 class="failed">Failed Configurations</h2>
<p>The rate limiter recorded no hits in any run of these configurations. They are excluded from the tables and charts above.</p>
<table>
<tr><th>Configuration</th><th>Samples</th></tr>
{{range .Failed}}<tr><td>{{.Key}}</td><td>{{.Samples}}</td></tr>
{{end}}</table>
{{end}}

</body>
</html>
`))

func renderHTML(w io.Writer, p page) error {
	if err := reportTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("rendering html report: %w", err)
	}
	return nil
}
