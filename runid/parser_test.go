package runid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ratelimit-bench/benchreport/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want model.RunIdentifier
	}{
		{
			name: "standalone run with all fields",
			in:   "valkey-glide_heavy_128c_30s_run2.json",
			want: model.RunIdentifier{
				Implementation:  "valkey-glide",
				Mode:            model.ModeStandalone,
				Workload:        model.WorkloadHeavy,
				Concurrency:     128,
				DurationSeconds: 30,
				Client:          "valkey-glide",
			},
		},
		{
			name: "cluster token strips suffix from client only",
			in:   "valkey-glide-cluster_light_64c_30s.json",
			want: model.RunIdentifier{
				Implementation:  "valkey-glide-cluster",
				Mode:            model.ModeCluster,
				Workload:        model.WorkloadLight,
				Concurrency:     64,
				DurationSeconds: 30,
				Client:          "valkey-glide",
			},
		},
		{
			name: "underscore delimited cluster token",
			in:   "iovalkey_cluster_heavy_256c_60s_run1.json",
			want: model.RunIdentifier{
				Implementation:  "iovalkey-cluster",
				Mode:            model.ModeCluster,
				Workload:        model.WorkloadHeavy,
				Concurrency:     256,
				DurationSeconds: 60,
				Client:          "iovalkey",
			},
		},
		{
			name: "cluster embedded in a longer token is not a mode signal",
			in:   "clusterfoo_light_10c_30s.json",
			want: model.RunIdentifier{
				Implementation:  "clusterfoo",
				Mode:            model.ModeStandalone,
				Workload:        model.WorkloadLight,
				Concurrency:     10,
				DurationSeconds: 30,
				Client:          "clusterfoo",
			},
		},
		{
			name: "missing concurrency defaults to zero",
			in:   "ioredis_light_30s.json",
			want: model.RunIdentifier{
				Implementation:  "ioredis",
				Mode:            model.ModeStandalone,
				Workload:        model.WorkloadLight,
				Concurrency:     0,
				DurationSeconds: 30,
				Client:          "ioredis",
			},
		},
		{
			name: "missing workload stays unknown",
			in:   "ioredis_50c_30s_run3.json",
			want: model.RunIdentifier{
				Implementation:  "ioredis",
				Mode:            model.ModeStandalone,
				Workload:        model.WorkloadUnknown,
				Concurrency:     50,
				DurationSeconds: 30,
				Client:          "ioredis",
			},
		},
		{
			name: "trailing numeric run index removed from name",
			in:   "iovalkey_heavy_50c_30s_2.json",
			want: model.RunIdentifier{
				Implementation:  "iovalkey",
				Mode:            model.ModeStandalone,
				Workload:        model.WorkloadHeavy,
				Concurrency:     50,
				DurationSeconds: 30,
				Client:          "iovalkey",
			},
		},
		{
			name: "run keyword without index removed from name",
			in:   "ioredis_run_light_50c_30s.json",
			want: model.RunIdentifier{
				Implementation:  "ioredis",
				Mode:            model.ModeStandalone,
				Workload:        model.WorkloadLight,
				Concurrency:     50,
				DurationSeconds: 30,
				Client:          "ioredis",
			},
		},
		{
			name: "colon delimited cluster",
			in:   "valkey-glide:cluster_heavy_32c_30s.json",
			want: model.RunIdentifier{
				Implementation:  "valkey-glide-cluster",
				Mode:            model.ModeCluster,
				Workload:        model.WorkloadHeavy,
				Concurrency:     32,
				DurationSeconds: 30,
				Client:          "valkey-glide",
			},
		},
		{
			name: "nothing recognizable",
			in:   "50c_30s_light.json",
			want: model.RunIdentifier{
				Implementation:  UnknownImplementation,
				Mode:            model.ModeStandalone,
				Workload:        model.WorkloadLight,
				Concurrency:     50,
				DurationSeconds: 30,
				Client:          UnknownImplementation,
			},
		},
		{
			name: "path prefix and extension stripped",
			in:   "results/latest/valkey-glide_light_8c_30s_run1.json",
			want: model.RunIdentifier{
				Implementation:  "valkey-glide",
				Mode:            model.ModeStandalone,
				Workload:        model.WorkloadLight,
				Concurrency:     8,
				DurationSeconds: 30,
				Client:          "valkey-glide",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseConcurrencyPriority(t *testing.T) {
	// The first digits-then-c occurrence wins regardless of what
	// surrounds it.
	tests := []struct {
		in   string
		want int
	}{
		{"glide_100c_30s_light", 100},
		{"glide_light_4c", 4},
		{"100c", 100},
		{"glide_light_30s", 0},
	}
	for _, tt := range tests {
		got := Parse(tt.in)
		require.Equal(t, tt.want, got.Concurrency, "input %q", tt.in)
	}
}

func TestParseIncomplete(t *testing.T) {
	require.True(t, Parse("glide_light_30s").Incomplete(), "no concurrency")
	require.True(t, Parse("glide_50c_30s").Incomplete(), "no workload")
	require.False(t, Parse("glide_light_50c_30s").Incomplete())
}

func TestParseKeyIsLowercased(t *testing.T) {
	id := Parse("Valkey-Glide_light_50c_30s")
	require.Equal(t, "valkey-glide", id.Key().Client)
	require.Equal(t, "Valkey-Glide", id.Client)
}
