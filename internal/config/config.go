package config

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/lmi/internal/types"
)

// Config is the tool configuration for one lmi process. Project configuration
// (aliases, base directories, build outputs) lives in each project's
// tsconfig/jsconfig and is parsed separately; this covers the ambient knobs.
type Config struct {
	Version int
	Project Project
	Index   Index
	Query   Query
	Include []string
	Exclude []string
}

type Project struct {
	Root string
	Name string
}

type Index struct {
	WatchMode       bool // Enable file system watching for automatic updates
	WatchDebounceMs int  // Debounce time for file change events
}

type Query struct {
	MaxResults       int  // Maximum completion candidates returned
	RankBySimilarity bool // Order bucket matches by similarity to the typed prefix
}

// Load reads configuration for the given workspace root: .lmi.kdl first,
// .lmi.toml as a fallback, defaults when neither exists.
func Load(rootDir string) (*Config, error) {
	searchDir := rootDir
	if searchDir == "" {
		searchDir = "."
	}

	if cfg, err := LoadKDL(searchDir); err != nil {
		return nil, err
	} else if cfg != nil {
		return cfg, nil
	}

	if cfg, err := LoadTOML(searchDir); err != nil {
		return nil, err
	} else if cfg != nil {
		return cfg, nil
	}

	cfg := Default()
	absRoot, err := filepath.Abs(searchDir)
	if err != nil {
		absRoot = searchDir
	}
	cfg.Project.Root = absRoot
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	return &Config{
		Version: 1,
		Project: Project{Root: cwd},
		Index: Index{
			WatchMode:       true,
			WatchDebounceMs: types.DefaultWatchDebounceMs,
		},
		Query: Query{
			MaxResults:       types.DefaultMaxResults,
			RankBySimilarity: true,
		},
		Include: DefaultIncludes(),
		Exclude: DefaultExcludes(),
	}
}

// DefaultIncludes builds the include globs from the indexable source extensions.
func DefaultIncludes() []string {
	patterns := make([]string, 0, len(types.SourceExtensions))
	for _, ext := range types.SourceExtensions {
		patterns = append(patterns, "**/*"+ext)
	}
	return patterns
}

// DefaultExcludes lists dependency and metadata directories that are never
// indexable, independent of any project's build-output configuration.
func DefaultExcludes() []string {
	return []string{
		// Git metadata (never indexable)
		"**/.git/**",

		// Hidden directories (catch-all for dot directories)
		"**/.*/**",

		// Package managers & dependencies
		"**/node_modules/**",
		"**/bower_components/**",
		"**/jspm_packages/**",

		// Type declaration output
		"**/*.d.ts",

		// Minified bundles
		"**/*.min.js",
		"**/*.bundle.js",
		"**/*.chunk.js",
	}
}

// ValidateAndSetDefaults fills zero values with defaults and normalizes the
// project root to an absolute path.
func (c *Config) ValidateAndSetDefaults() error {
	if c.Index.WatchDebounceMs <= 0 {
		c.Index.WatchDebounceMs = types.DefaultWatchDebounceMs
	}
	if c.Query.MaxResults <= 0 {
		c.Query.MaxResults = types.DefaultMaxResults
	}
	if len(c.Include) == 0 {
		c.Include = DefaultIncludes()
	}
	if len(c.Exclude) == 0 {
		c.Exclude = DefaultExcludes()
	}
	if c.Project.Root != "" && !filepath.IsAbs(c.Project.Root) {
		abs, err := filepath.Abs(c.Project.Root)
		if err != nil {
			return err
		}
		c.Project.Root = abs
	}
	return nil
}

// MergeExcludes appends extra exclusion patterns, deduplicated.
func (c *Config) MergeExcludes(patterns []string) {
	seen := make(map[string]bool, len(c.Exclude)+len(patterns))
	merged := make([]string, 0, len(c.Exclude)+len(patterns))
	for _, p := range append(append([]string{}, c.Exclude...), patterns...) {
		if !seen[p] {
			seen[p] = true
			merged = append(merged, p)
		}
	}
	c.Exclude = merged
}
