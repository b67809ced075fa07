package project

import (
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Registry is the set of known projects for one workspace folder, ordered by
// root-path depth descending so that longest-prefix ownership lookup is
// deterministic under nesting.
type Registry struct {
	configs      []*Config
	excludeGlobs []string
}

// NewRegistry builds a registry from parsed configs and dependency-directory
// exclusion globs (workspace-relative doublestar patterns). The configs slice
// is sorted deepest-first; ties keep input order.
func NewRegistry(configs []*Config, excludeGlobs []string) *Registry {
	sorted := make([]*Config, len(configs))
	copy(sorted, configs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Depth() > sorted[j].Depth()
	})
	return &Registry{
		configs:      sorted,
		excludeGlobs: excludeGlobs,
	}
}

// Projects returns the registered projects, deepest root first.
func (r *Registry) Projects() []*Config {
	return r.configs
}

// Len returns the number of registered projects.
func (r *Registry) Len() int {
	return len(r.configs)
}

// OwnerOf returns the deepest project whose root is a prefix of the given
// workspace-relative path, or nil when no project contains it. Depth ordering
// makes the first match the longest-prefix match.
func (r *Registry) OwnerOf(filePath string) *Config {
	for _, cfg := range r.configs {
		if cfg.Contains(filePath) {
			return cfg
		}
	}
	return nil
}

// ByRoot returns the project with the given root, or nil.
func (r *Registry) ByRoot(root string) *Config {
	for _, cfg := range r.configs {
		if cfg.Root == root {
			return cfg
		}
	}
	return nil
}

// IsExcluded reports whether the path must be kept out of every index: it is
// under some project's resolved build-output directory, or matches a
// dependency-directory exclusion glob. Checked before a file is considered
// for indexing at all, at full-scan and incremental-update time alike. The
// build-output check spans all projects, so cross-project alias targets are
// subject to target-side exclusion as well.
func (r *Registry) IsExcluded(filePath string) bool {
	for _, cfg := range r.configs {
		if outDir, ok := cfg.ResolvedOutDir(); ok && PathUnder(filePath, outDir) {
			return true
		}
	}
	for _, pattern := range r.excludeGlobs {
		if matched, err := doublestar.Match(pattern, filePath); err == nil && matched {
			return true
		}
	}
	return false
}
