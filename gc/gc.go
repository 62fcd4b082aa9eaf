// Package gc implements vekt's garbage collector: it unions the set of
// blob hashes referenced by every manifest reachable from the working tree
// and from the host version-control system's history, then deletes any
// blob in the store not in that set. Grounded on
// original_source/vekt_core/src/gc.rs, restructured after
// registry/storage/garbagecollect.go's mark-then-sweep phase structure and
// logging.
package gc

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Khushiyant/vekt/digest"
	"github.com/Khushiyant/vekt/internal/dcontext"
	"github.com/Khushiyant/vekt/manifest"
	"github.com/Khushiyant/vekt/store"
)

// skippedDirs are well-known directories the working-tree scan never
// descends into: vekt's own metadata, the host VCS's object database, and
// common build/dependency output that can be enormous and never contains a
// real manifest.
var skippedDirs = map[string]bool{
	".git":         true,
	".vekt":        true,
	"target":       true,
	"node_modules": true,
}

// manifestSuffix is the filename suffix a file must have to be treated as a
// manifest during a GC scan.
const manifestSuffix = ".vekt.json"

// Stats reports how many blobs a Run call deleted versus kept.
type Stats struct {
	Deleted int
	Kept    int
}

// Run performs mark-and-sweep garbage collection rooted at root: it marks
// every hash referenced by a working-tree manifest or a manifest reachable
// in the root's VCS history, then deletes any blob in s not in that set.
// A blob is deleted only if no parsed reachable manifest references it; a
// manifest under construction or one this process cannot parse is silently
// skipped during marking, so blobs referenced only by such a manifest are
// deleted. This matches the documented (if debated, see the repository's
// recorded open questions) failure-open behavior of the reference
// implementation.
func Run(ctx context.Context, root string, s *store.Store) (Stats, error) {
	logger := dcontext.GetLogger(ctx)
	referenced := make(map[string]bool)

	if err := scanWorkingTree(ctx, root, referenced); err != nil {
		return Stats{}, err
	}
	logger.Infof("gc: %d hash(es) referenced after working-tree scan", len(referenced))

	if err := scanVCSHistory(ctx, root, referenced); err != nil {
		return Stats{}, err
	}
	logger.Infof("gc: %d hash(es) referenced after VCS history scan", len(referenced))

	var stats Stats
	err := s.Enumerate(ctx, func(d digest.Digest) error {
		if referenced[d.String()] {
			stats.Kept++
			return nil
		}
		if err := s.Delete(ctx, d); err != nil {
			return err
		}
		stats.Deleted++
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	logger.Infof("gc: deleted %d blob(s), kept %d", stats.Deleted, stats.Kept)
	return stats, nil
}

// scanWorkingTree walks dir via filepath.WalkDir, skipping skippedDirs, and
// unions every *.vekt.json file's referenced hashes into referenced. Parse
// failures are non-fatal and silently skipped.
func scanWorkingTree(ctx context.Context, dir string, referenced map[string]bool) error {
	logger := dcontext.GetLogger(ctx)

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return nil
			}
			return err
		}
		if entry.IsDir() {
			if path != dir && skippedDirs[entry.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !hasManifestSuffix(entry.Name()) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Debugf("gc: skipping unreadable manifest %s: %v", path, err)
			return nil
		}
		m, err := manifest.Parse(data)
		if err != nil {
			logger.Debugf("gc: skipping unparsable manifest %s: %v", path, err)
			return nil
		}
		markManifest(m, referenced)
		return nil
	})
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func markManifest(m *manifest.Manifest, referenced map[string]bool) {
	for _, t := range m.Tensors {
		referenced[t.Hash.String()] = true
	}
}

func hasManifestSuffix(name string) bool {
	return len(name) > len(manifestSuffix) && name[len(name)-len(manifestSuffix):] == manifestSuffix
}
