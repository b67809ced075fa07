// Project configuration model for the module index.
// A Config is the statically-shaped view of one tsconfig.json/jsconfig.json:
// optional fields stay nil when the key is absent so resolution logic never
// sees implicit defaults.
package project

import (
	"path"
	"strings"
)

// AliasMapping is one entry of the "paths" table: a consumer-facing pattern
// and the on-disk target patterns it maps to, in declared order.
type AliasMapping struct {
	// Pattern is the alias pattern, containing at most one '*' wildcard.
	Pattern string
	// Targets are the path patterns the alias resolves to, relative to the
	// project's base directory. Order is the declared configuration order.
	Targets []string
}

// UnresolvableTarget is the sentinel target value a consuming project uses to
// block an alias from resolving. It short-circuits its mapping entry without
// ever matching a file.
const UnresolvableTarget = "unresolvable"

// Config is the parsed configuration of one project. Identity is Root, the
// workspace-relative directory containing the configuration file ("" for a
// project rooted at the workspace folder itself). Immutable once parsed;
// configuration edits replace the Config wholesale.
type Config struct {
	Root       string
	ConfigPath string

	// BaseDir is the optional base directory (relative to Root) used for
	// non-aliased absolute-style imports. Nil when baseUrl is not set.
	BaseDir *string

	// OutDir is the optional build-output directory (relative to Root).
	// Files under it are never indexable. Nil when outDir is not set.
	OutDir *string

	// Aliases holds the paths table in declared order. Declaration order is a
	// visible tie-break: the first matching (pattern, target) pair wins.
	Aliases []AliasMapping
}

// Depth returns the nesting depth of the project root, used to order the
// registry deepest-first. The workspace-root project has depth 0.
func (c *Config) Depth() int {
	if c.Root == "" {
		return 0
	}
	return strings.Count(c.Root, "/") + 1
}

// TargetBase returns the workspace-relative directory alias targets resolve
// against: the base directory when set, otherwise the project root.
func (c *Config) TargetBase() string {
	if c.BaseDir == nil {
		return c.Root
	}
	return joinRel(c.Root, *c.BaseDir)
}

// ResolvedBaseDir returns the workspace-relative base directory and whether
// one is declared. The base-directory import fallback applies only when the
// declaration is explicit.
func (c *Config) ResolvedBaseDir() (string, bool) {
	if c.BaseDir == nil {
		return "", false
	}
	return joinRel(c.Root, *c.BaseDir), true
}

// ResolvedOutDir returns the workspace-relative build-output directory and
// whether one is declared.
func (c *Config) ResolvedOutDir() (string, bool) {
	if c.OutDir == nil {
		return "", false
	}
	return joinRel(c.Root, *c.OutDir), true
}

// Contains reports whether the workspace-relative path lies under the project
// root (or equals it).
func (c *Config) Contains(filePath string) bool {
	return PathUnder(filePath, c.Root)
}

// PathUnder reports whether p equals dir or lies beneath it. The empty dir
// denotes the workspace root and contains every path. The check is by whole
// path segment, so sibling roots of equal length never both match.
func PathUnder(p, dir string) bool {
	if dir == "" {
		return true
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// joinRel joins a workspace-relative root with a root-relative part and
// normalizes "." and "" segments away.
func joinRel(root, part string) string {
	joined := path.Join(root, part)
	if joined == "." {
		return ""
	}
	return joined
}
