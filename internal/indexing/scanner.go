package indexing

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/lmi/internal/debug"
	lmierrors "github.com/standardbeagle/lmi/internal/errors"
	"github.com/standardbeagle/lmi/internal/types"
)

// maxParallelConfigReads bounds the errgroup used for per-file configuration
// reads within one folder build.
const maxParallelConfigReads = 8

// FileScanner is the filesystem-backed ConfigSource and FileEnumerator. It
// walks a workspace folder once per concern, pruning excluded directories
// early and guarding against symlink cycles.
type FileScanner struct {
	excludeGlobs []string
}

// NewFileScanner creates a scanner with the given dependency-directory
// exclusion globs (doublestar patterns over workspace-relative paths).
func NewFileScanner(excludeGlobs []string) *FileScanner {
	return &FileScanner{excludeGlobs: excludeGlobs}
}

// ConfigFiles discovers every project configuration file under the folder and
// reads each one. Discovery failure fails the whole folder; a single
// unreadable file is logged and skipped.
func (s *FileScanner) ConfigFiles(ctx context.Context, folder string) ([]RawConfig, error) {
	var paths []string
	err := s.walk(folder, func(relPath string, d fs.DirEntry) {
		if types.IsConfigFile(relPath) {
			paths = append(paths, relPath)
		}
	})
	if err != nil {
		return nil, lmierrors.NewIndexingError("discover configs", err).WithFolder(folder)
	}

	// Per-file reads are I/O-bound and order-independent; parallelize within
	// the folder and assemble afterwards.
	results := make([]*RawConfig, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelConfigReads)
	for i, relPath := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(folder, filepath.FromSlash(relPath)))
			if err != nil {
				log.Printf("Skipping unreadable config: %v", lmierrors.NewFileError("read", relPath, err))
				return nil
			}
			results[i] = &RawConfig{Path: relPath, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, lmierrors.NewIndexingError("read configs", err).WithFolder(folder)
	}

	configs := make([]RawConfig, 0, len(results))
	for _, rc := range results {
		if rc != nil {
			configs = append(configs, *rc)
		}
	}
	return configs, nil
}

// Enumerate lists files under the folder matching the include globs and not
// matching the exclude globs.
func (s *FileScanner) Enumerate(folder string, include, exclude []string) ([]string, error) {
	var files []string
	err := s.walk(folder, func(relPath string, d fs.DirEntry) {
		if !matchesAny(include, relPath) {
			return
		}
		if matchesAny(exclude, relPath) {
			return
		}
		files = append(files, relPath)
	})
	if err != nil {
		return nil, lmierrors.NewIndexingError("enumerate files", err).WithFolder(folder)
	}
	sort.Strings(files)
	return files, nil
}

// walk traverses the folder, invoking fn for every regular file that survives
// directory pruning. Walk errors on individual entries are skipped; only a
// failure to walk the root is returned.
func (s *FileScanner) walk(folder string, fn func(relPath string, d fs.DirEntry)) error {
	// Track visited real paths to prevent infinite loops from symlink cycles.
	visited := make(map[string]bool)
	var visitedMu sync.Mutex

	rootSeen := false
	return filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if !rootSeen {
				return err
			}
			return nil // Skip errors, continue walking
		}
		rootSeen = true

		rel, relErr := filepath.Rel(folder, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if s.shouldIgnoreDirectory(rel) {
				debug.LogIndexing("pruning directory %s\n", rel)
				return filepath.SkipDir
			}
			realPath, evalErr := filepath.EvalSymlinks(path)
			if evalErr != nil {
				return filepath.SkipDir
			}
			visitedMu.Lock()
			seen := visited[realPath]
			visited[realPath] = true
			visitedMu.Unlock()
			if seen {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		fn(rel, d)
		return nil
	})
}

// shouldIgnoreDirectory checks the exclusion globs against a directory path,
// treating "dir/**" suffixed patterns as matching the directory itself so
// whole trees are pruned without descending.
func (s *FileScanner) shouldIgnoreDirectory(relDir string) bool {
	for _, pattern := range s.excludeGlobs {
		dirPattern := strings.TrimSuffix(pattern, "/**")
		if matched, err := doublestar.Match(dirPattern, relDir); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, relDir+"/"); err == nil && matched {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
	}
	return false
}
