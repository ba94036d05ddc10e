// Package runid recovers configuration metadata from benchmark result
// file names. Naming conventions differ between tool versions, so
// parsing is best-effort: Parse never fails, it degrades unresolvable
// fields to documented defaults.
package runid

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ratelimit-bench/benchreport/model"
)

// UnknownImplementation is the label used when no implementation name
// could be recovered. Callers should surface this as a warning: it
// means the identifier convention was not recognized at all.
const UnknownImplementation = "unknown_impl"

var (
	concurrencyRe = regexp.MustCompile(`(\d+)c`)
	durationRe    = regexp.MustCompile(`(\d+)s`)
	runIndexRe    = regexp.MustCompile(`^run\d+$`)
	digitsRe      = regexp.MustCompile(`^\d+$`)
)

// span is a half-open byte range matched by one extraction pass.
type span struct {
	start, end int
}

// Parse extracts a RunIdentifier from a result file name such as
// "valkey-glide_cluster_heavy_128c_30s_run2.json". Each field is found
// by an independent pass returning its matched span; the implementation
// name is the residual left after all spans are removed. Unresolved
// fields default to mode=standalone, workload=unknown, concurrency=0,
// durationSeconds=0 and implementation "unknown_impl".
func Parse(name string) model.RunIdentifier {
	base := strings.TrimSuffix(filepath.Base(name), ".json")

	id := model.RunIdentifier{
		Mode:     model.ModeStandalone,
		Workload: model.WorkloadUnknown,
	}

	var matched []span

	// Pass 1: concurrency, first "<digits>c" occurrence.
	if m := concurrencyRe.FindStringSubmatchIndex(base); m != nil {
		if v, err := strconv.Atoi(base[m[2]:m[3]]); err == nil {
			id.Concurrency = v
			matched = append(matched, span{m[0], m[1]})
		}
	}

	// Pass 2: duration, first "<digits>s" occurrence.
	if m := durationRe.FindStringSubmatchIndex(base); m != nil {
		if v, err := strconv.Atoi(base[m[2]:m[3]]); err == nil {
			id.DurationSeconds = v
			matched = append(matched, span{m[0], m[1]})
		}
	}

	// Passes 3 and 4 work on delimiter-bounded tokens: "light"/"heavy"
	// for the workload and "cluster" for the mode. A "cluster" embedded
	// inside a longer token is part of the name, not a mode signal.
	for _, tok := range tokenize(base) {
		switch base[tok.start:tok.end] {
		case "light":
			if id.Workload == model.WorkloadUnknown {
				id.Workload = model.WorkloadLight
				matched = append(matched, tok)
			}
		case "heavy":
			if id.Workload == model.WorkloadUnknown {
				id.Workload = model.WorkloadHeavy
				matched = append(matched, tok)
			}
		case "cluster":
			id.Mode = model.ModeCluster
		}
	}

	// Pass 5: the residual after removing matched spans yields the
	// implementation label. Run markers and trailing run-index tokens
	// are dropped; the surviving segments are joined with hyphens.
	residual := removeSpans(base, matched)
	segments := nameSegments(residual)
	id.Implementation = strings.Join(segments, "-")

	// Pass 6: token-suffix fallback for fields the primary regexes
	// missed. Fallback matches do not affect the derived name.
	if id.Concurrency == 0 || id.DurationSeconds == 0 {
		for _, tok := range tokenize(base) {
			t := base[tok.start:tok.end]
			if id.Concurrency == 0 && strings.HasSuffix(t, "c") {
				if v, err := strconv.Atoi(strings.TrimSuffix(t, "c")); err == nil {
					id.Concurrency = v
				}
			}
			if id.DurationSeconds == 0 && strings.HasSuffix(t, "s") {
				if v, err := strconv.Atoi(strings.TrimSuffix(t, "s")); err == nil {
					id.DurationSeconds = v
				}
			}
		}
	}

	// The grouping name drops a trailing cluster suffix, but only when
	// the run actually executed in cluster mode.
	id.Client = id.Implementation
	if id.Mode == model.ModeCluster {
		id.Client = strings.TrimSuffix(id.Client, "-cluster")
		id.Client = strings.TrimSuffix(id.Client, ":cluster")
		if id.Client == "" {
			id.Client = id.Implementation
		}
	}

	if id.Implementation == "" {
		id.Implementation = UnknownImplementation
		id.Client = UnknownImplementation
	}

	return id
}

// tokenize splits base on the delimiter characters '_', '-' and ':'
// and returns the spans of the non-empty tokens.
func tokenize(base string) []span {
	var tokens []span
	start := -1
	for i, r := range base {
		if r == '_' || r == '-' || r == ':' {
			if start >= 0 {
				tokens = append(tokens, span{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, span{start, len(base)})
	}
	return tokens
}

// removeSpans returns base with the matched spans cut out. Overlapping
// spans (a duration match inside a concurrency match, say) are merged
// before cutting.
func removeSpans(base string, spans []span) string {
	if len(spans) == 0 {
		return base
	}
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	var b strings.Builder
	pos := 0
	for _, s := range sorted {
		if s.start < pos {
			if s.end > pos {
				pos = s.end
			}
			continue
		}
		b.WriteString(base[pos:s.start])
		pos = s.end
	}
	b.WriteString(base[pos:])
	return b.String()
}

// nameSegments splits the residual into non-empty segments and drops
// run markers: a literal "run" token, "runN" indices, and trailing
// all-digit run counters.
func nameSegments(residual string) []string {
	var segments []string
	for _, tok := range tokenize(residual) {
		t := residual[tok.start:tok.end]
		if t == "run" || runIndexRe.MatchString(t) {
			continue
		}
		segments = append(segments, t)
	}
	for len(segments) > 0 && digitsRe.MatchString(segments[len(segments)-1]) {
		segments = segments[:len(segments)-1]
	}
	return segments
}
