package media

import (
	"context"
	"fmt"
	"sort"

	"github.com/krsnavtr-code/gallery/internal/blob"
	"go.uber.org/zap"
)

// Store is the full metadata contract met by both the PostgreSQL and the
// SQLite repositories.
type Store interface {
	metadataStore
	CountByTag(ctx context.Context, name string) (int64, error)
	CountByTags(ctx context.Context, names []string) (map[string]int64, error)
	ReplaceTag(ctx context.Context, from, to string) (int64, error)
	RemoveTag(ctx context.Context, name string) (int64, error)
	StoredNames(ctx context.Context) ([]string, error)
}

var (
	_ Store = (*Repository)(nil)
	_ Store = (*SQLiteRepository)(nil)
)

type storedNameLister interface {
	StoredNames(ctx context.Context) ([]string, error)
}

// SweepResult lists blobs that no media record references.
type SweepResult struct {
	Scanned int
	Orphans []string
	Removed []string
}

// SweepOrphans finds blobs without a record and removes them unless dryRun is
// set. Blobs written by uploads still in flight look orphaned too, so this is
// meant for quiet periods.
func SweepOrphans(ctx context.Context, records storedNameLister, blobs blob.Store, dryRun bool, log *zap.Logger) (SweepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}

	names, err := records.StoredNames(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list stored names: %w", err)
	}
	referenced := make(map[string]struct{}, len(names))
	for _, n := range names {
		referenced[n] = struct{}{}
	}

	stored, err := blobs.List(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list blobs: %w", err)
	}
	sort.Strings(stored)

	result := SweepResult{Scanned: len(stored)}
	for _, name := range stored {
		if _, ok := referenced[name]; ok {
			continue
		}
		result.Orphans = append(result.Orphans, name)
		if dryRun {
			continue
		}
		if err := blobs.Delete(ctx, name); err != nil {
			log.Warn("remove orphan blob", zap.String("stored_name", name), zap.Error(err))
			continue
		}
		result.Removed = append(result.Removed, name)
	}
	return result, nil
}
