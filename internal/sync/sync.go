// Package sync implements the Sync component of spec §4.I: compute the
// delta between what's on disk and what the Store tracks, apply deletions
// before re-ingesting added/modified files through the Extractor, and
// re-run the Resolver's idempotent whole-set resolution afterward.
// Grounded on internal/scanner's content-hash file model and
// internal/resolver's idempotent ResolveAll, generalized from "index
// everything" to "index only what changed".
package sync

import (
	"context"
	"time"

	"github.com/standardbeagle/codegraph/internal/config"
	"github.com/standardbeagle/codegraph/internal/diag"
	"github.com/standardbeagle/codegraph/internal/extractor"
	"github.com/standardbeagle/codegraph/internal/idgen"
	"github.com/standardbeagle/codegraph/internal/resolver"
	"github.com/standardbeagle/codegraph/internal/scanner"
	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/types"
	"github.com/standardbeagle/codegraph/internal/version"
)

// Status classifies one path's relationship between the prior Store state
// and the current on-disk scan (spec §4.I).
type Status string

const (
	StatusAdded     Status = "added"
	StatusModified  Status = "modified"
	StatusRemoved   Status = "removed"
	StatusUnchanged Status = "unchanged"
)

// Change is one path's sync classification.
type Change struct {
	Path   string
	Status Status
}

// Result summarizes one Sync.Run call.
type Result struct {
	Added      int
	Modified   int
	Removed    int
	Unchanged  int
	Changes    []Change
	Resolution resolver.Stats
}

// Syncer re-indexes only the files that changed since the last run (spec §4.I).
type Syncer struct {
	store       *store.Store
	scanner     *scanner.Scanner
	extractor   *extractor.Extractor
	resolver    *resolver.Resolver
	log         *diag.Logger
	readFile    resolver.ReadFileFunc
	projectRoot string
}

// New builds a Syncer over an already-open Store, scanning root under cfg.
func New(s *store.Store, cfg *config.Config, log *diag.Logger, readFile resolver.ReadFileFunc) *Syncer {
	if log == nil {
		log = diag.Quiet()
	}
	sc := scanner.New(cfg.ProjectRoot, scanner.Options{
		Include:     cfg.Include,
		Exclude:     cfg.Exclude,
		MaxFileSize: cfg.MaxFileSize,
	}, log)
	return &Syncer{
		store:       s,
		scanner:     sc,
		extractor:   extractor.New(),
		resolver:    resolver.New(s, log),
		log:         log,
		readFile:    readFile,
		projectRoot: cfg.ProjectRoot,
	}
}

// Diff computes the change set between the Store's tracked files and a
// fresh scan (spec §4.I steps 1-3): removed paths no longer on disk,
// modified paths whose contentHash changed, unchanged paths, and added
// paths the Store has never seen.
func (sy *Syncer) Diff(ctx context.Context) ([]Change, []scanner.File, error) {
	tracked, err := sy.store.AllFiles(ctx)
	if err != nil {
		return nil, nil, err
	}
	onDisk, err := sy.scanner.Scan(ctx)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool, len(onDisk))
	changes := make([]Change, 0, len(onDisk))
	var toIngest []scanner.File

	for _, f := range onDisk {
		seen[f.Path] = true
		prior, ok := tracked[f.Path]
		switch {
		case !ok:
			changes = append(changes, Change{Path: f.Path, Status: StatusAdded})
			toIngest = append(toIngest, f)
		case prior.ContentHash != f.ContentHash:
			changes = append(changes, Change{Path: f.Path, Status: StatusModified})
			toIngest = append(toIngest, f)
		default:
			changes = append(changes, Change{Path: f.Path, Status: StatusUnchanged})
		}
	}
	for path := range tracked {
		if !seen[path] {
			changes = append(changes, Change{Path: path, Status: StatusRemoved})
		}
	}
	return changes, toIngest, nil
}

// Run executes the full spec §4.I pipeline: diff, apply removals first,
// re-ingest added/modified files, re-resolve the whole unresolved set, then
// write sync provenance.
func (sy *Syncer) Run(ctx context.Context) (Result, error) {
	changes, toIngest, err := sy.Diff(ctx)
	if err != nil {
		return Result{}, err
	}

	result := Result{Changes: changes}
	for _, c := range changes {
		switch c.Status {
		case StatusAdded:
			result.Added++
		case StatusModified:
			result.Modified++
		case StatusRemoved:
			result.Removed++
		case StatusUnchanged:
			result.Unchanged++
		}
	}

	for _, c := range changes {
		if c.Status != StatusRemoved {
			continue
		}
		if err := sy.store.DeleteNodesByFile(ctx, c.Path); err != nil {
			return result, err
		}
		if err := sy.store.DeleteFile(ctx, c.Path); err != nil {
			return result, err
		}
		sy.log.Phase("sync", "removed %s", c.Path)
	}

	for _, f := range toIngest {
		if err := sy.ingestFile(ctx, f); err != nil {
			return result, err
		}
		sy.log.Phase("sync", "ingested %s", f.Path)
	}

	stats, err := sy.resolver.ResolveAll(ctx, sy.projectRoot, sy.readFile)
	if err != nil {
		return result, err
	}
	result.Resolution = stats

	if err := sy.writeProvenance(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// ingestFile re-extracts one changed file: clear its prior nodes/edges via
// DeleteNodesByFile (spec §3 invariant "deleting a node deletes all edges
// touching it"), insert the synthetic file node plus whatever the
// Extractor emits, and record bookkeeping.
func (sy *Syncer) ingestFile(ctx context.Context, f scanner.File) error {
	if err := sy.store.DeleteNodesByFile(ctx, f.Path); err != nil {
		return err
	}

	content, err := sy.readFile(f.AbsPath)
	if err != nil {
		return err
	}

	result := sy.extractor.ExtractFile(f.Path, content)

	fileNode := types.Node{
		ID:       idgen.FileNodeID(f.Path),
		Kind:     types.KindFile,
		Name:     f.Path,
		FilePath: f.Path,
	}
	nodes := append([]types.Node{fileNode}, result.Nodes...)

	if err := sy.store.InsertNodes(ctx, nodes); err != nil {
		return err
	}
	if err := sy.store.InsertEdges(ctx, result.Edges); err != nil {
		return err
	}
	if err := sy.store.InsertUnresolvedRefs(ctx, f.Path, result.Unresolved); err != nil {
		return err
	}

	record := types.FileRecord{
		Path:        f.Path,
		ContentHash: f.ContentHash,
		Language:    languageOf(result.Nodes),
		Size:        f.Size,
		ModifiedAt:  f.ModifiedAt,
		IndexedAt:   nowMillis(),
		NodeCount:   len(nodes),
		Errors:      result.Errors,
	}
	return sy.store.UpsertFile(ctx, record)
}

func languageOf(nodes []types.Node) string {
	for _, n := range nodes {
		if n.Language != "" {
			return n.Language
		}
	}
	return ""
}

func (sy *Syncer) writeProvenance(ctx context.Context) error {
	if err := sy.store.SetMetadata(ctx, "lastSyncedAt", formatMillis(nowMillis())); err != nil {
		return err
	}
	return sy.store.SetMetadata(ctx, "lastSyncedByVersion", version.Version)
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
