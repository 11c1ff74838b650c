package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/repstack/repstack/internal/ingest"
	"github.com/repstack/repstack/internal/ingest/hevy"
)

// Stats tracks import progress across a batch of files.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	Result ingest.Result
}

// Importer reads CSV export files from a directory and runs each one
// through the ingest pipeline. A SQLite state database remembers files
// already imported so re-runs only touch new or changed exports.
type Importer struct {
	provider *hevy.Provider
	state    *StateDB
	log      *slog.Logger
	dryRun   bool
	stats    Stats
}

// New creates a new Importer. state may be nil, in which case every
// file is processed.
func New(provider *hevy.Provider, state *StateDB, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{provider: provider, state: state, log: log, dryRun: dryRun}
}

// Import processes all .csv files under dir for one user, in filename
// order so repeated runs see sessions in the same sequence.
func (imp *Importer) Import(ctx context.Context, dir string, userID int) (*Stats, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return &imp.stats, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(files)

	for _, path := range files {
		if err := imp.importFile(ctx, path, userID); err != nil {
			return &imp.stats, err
		}
	}

	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string, userID int) error {
	info, err := os.Stat(path)
	if err != nil {
		imp.log.Warn("stat failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}

	rel := filepath.Base(path)
	var hash string
	if imp.state != nil {
		hash, err = HashFile(path)
		if err != nil {
			imp.log.Warn("hash failed", "file", path, "error", err)
			imp.stats.FilesErrored++
			return nil
		}
		done, err := imp.state.IsImported(rel, info.Size(), hash)
		if err != nil {
			return fmt.Errorf("checking state for %s: %w", rel, err)
		}
		if done {
			imp.stats.FilesSkipped++
			return nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		imp.log.Warn("open failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}
	defer f.Close()

	if imp.dryRun {
		drafts, err := hevy.Parse(f)
		if err != nil {
			imp.log.Warn("parse failed", "file", path, "error", err)
			imp.stats.FilesErrored++
			return nil
		}
		imp.stats.FilesProcessed++
		imp.stats.Result.SessionsImported += len(drafts)
		for _, d := range drafts {
			imp.stats.Result.ItemsImported += len(d.Exercises)
			for _, ex := range d.Exercises {
				imp.stats.Result.SetsInserted += len(ex.Sets)
			}
		}
		return nil
	}

	result, err := imp.provider.Ingest(ctx, f, userID)
	if err != nil {
		// A malformed file is a per-file problem, not a batch failure.
		imp.log.Warn("import failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}

	imp.stats.FilesProcessed++
	imp.stats.Result.Merge(result)

	if imp.state != nil {
		if err := imp.state.MarkImported(rel, info.Size(), hash); err != nil {
			return fmt.Errorf("marking %s imported: %w", rel, err)
		}
	}

	imp.log.Info("file imported",
		"file", rel,
		"sessions", result.SessionsImported,
		"sets", result.SetsInserted,
		"records", result.RecordsDetected,
	)
	return nil
}
