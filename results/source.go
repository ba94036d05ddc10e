// Package results reads raw benchmark result records from a results
// directory, one JSON file per executed run.
package results

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ratelimit-bench/benchreport/aggregate"
)

// Directory is a record source backed by a directory of *.json result
// files. A "latest" style symlink is resolved before reading.
type Directory struct {
	logger zerolog.Logger
	path   string
}

// NewDirectory returns a source for the given results directory. The
// path is resolved through symlinks; the error reports a missing or
// non-directory path.
func NewDirectory(logger zerolog.Logger, path string) (*Directory, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("resolving results directory %q: %w", path, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("results directory %q: %w", resolved, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("results path %q is not a directory", resolved)
	}
	return &Directory{logger: logger, path: resolved}, nil
}

// Path returns the resolved directory path.
func (d *Directory) Path() string {
	return d.path
}

// Timestamp returns the directory's modification time, used as the
// collection pass timestamp when none is given explicitly.
func (d *Directory) Timestamp() (time.Time, error) {
	info, err := os.Stat(d.path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// ListRecords reads every *.json file directly under the directory.
// File names are the opaque run identifiers. An unreadable file is
// logged and skipped rather than failing the pass; the retry policy for
// flaky reads belongs to whoever produced the files.
func (d *Directory) ListRecords(ctx context.Context) ([]aggregate.RawRecord, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("reading results directory %q: %w", d.path, err)
	}

	var records []aggregate.RawRecord
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		full := filepath.Join(d.path, entry.Name())
		data, err := os.ReadFile(full)
		if err != nil {
			d.logger.Warn().Err(err).Str("file", full).Msg("Failed to read result file")
			continue
		}
		records = append(records, aggregate.RawRecord{
			Identifier: entry.Name(),
			Data:       data,
			Source:     full,
		})
	}

	d.logger.Debug().Int("records", len(records)).Str("dir", d.path).Msg("Listed result records")
	return records, nil
}
