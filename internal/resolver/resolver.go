// Package resolver maps (project configuration, candidate file path) pairs to
// import path strings. Resolution is pure: no state, no I/O, deterministic and
// idempotent for repeated calls. The ordering alias -> base directory ->
// relative is fixed, and at most one of the three produces the chosen path.
package resolver

import (
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/standardbeagle/lmi/internal/project"
	"github.com/standardbeagle/lmi/internal/types"
)

// Resolution is the outcome of resolving one candidate file against one
// consuming project.
type Resolution struct {
	Kind types.ResolutionKind

	// ImportPath is the bare import path for alias and base-dir resolutions,
	// extension stripped. Empty for ResolvedRelative: a relative path depends
	// on which file within the project is asking and is computed at query time.
	ImportPath string
}

// Resolve determines whether and how the candidate file (workspace-relative,
// slash-separated) can be imported from the given project. Returns false when
// the file is not importable from this project.
func Resolve(cfg *project.Config, filePath string) (Resolution, bool) {
	if importPath, ok := resolveAlias(cfg, filePath); ok {
		return Resolution{Kind: types.ResolvedAlias, ImportPath: importPath}, true
	}

	if base, declared := cfg.ResolvedBaseDir(); declared && project.PathUnder(filePath, base) && filePath != base {
		importPath := types.StripExtension(relUnder(filePath, base))
		// Reject the fallback when the project's own alias table would
		// reinterpret the produced path differently.
		if matchesAliasPatternSide(cfg.Aliases, importPath) {
			return Resolution{}, false
		}
		return Resolution{Kind: types.ResolvedBaseDir, ImportPath: importPath}, true
	}

	if cfg.Contains(filePath) {
		return Resolution{Kind: types.ResolvedRelative}, true
	}

	return Resolution{}, false
}

// ResolveRecord resolves the file and synthesizes its ModuleRecord for the
// project's index. The module name derives from the base name alone,
// independent of the import path.
func ResolveRecord(cfg *project.Config, filePath string) (types.ModuleRecord, bool) {
	res, ok := Resolve(cfg, filePath)
	if !ok {
		return types.ModuleRecord{}, false
	}
	name := types.ModuleNameForFile(filePath)
	if name == "" {
		return types.ModuleRecord{}, false
	}
	return types.ModuleRecord{
		ModuleName: name,
		ImportPath: res.ImportPath,
		FilePath:   filePath,
		Kind:       res.Kind,
	}, true
}

// resolveAlias walks the alias table in declared order; the first matching
// (pattern, target) pair wins.
func resolveAlias(cfg *project.Config, filePath string) (string, bool) {
	base := cfg.TargetBase()

	for _, mapping := range cfg.Aliases {
		for _, target := range mapping.Targets {
			if target == project.UnresolvableTarget {
				// Sentinel blocks this mapping entry without matching.
				break
			}

			resolvedTarget := joinPattern(base, target)
			patternWC := strings.Contains(mapping.Pattern, "*")
			targetWC := strings.Contains(resolvedTarget, "*")

			switch {
			case patternWC && targetWC:
				if captured, ok := matchWildcard(resolvedTarget, filePath); ok {
					importPath := strings.Replace(mapping.Pattern, "*", captured, 1)
					return types.StripExtension(importPath), true
				}
			case !patternWC && !targetWC:
				if filePath == resolvedTarget {
					return types.StripExtension(mapping.Pattern), true
				}
				// Non-wildcard patterns match by path prefix, with the
				// remainder joined onto the pattern.
				if project.PathUnder(filePath, resolvedTarget) {
					remainder := relUnder(filePath, resolvedTarget)
					return types.StripExtension(path.Join(mapping.Pattern, remainder)), true
				}
			default:
				// Mixed wildcard-ness has no defined correspondence; skip.
			}
		}
	}

	return "", false
}

// matchWildcard tests the candidate path against a target pattern holding one
// wildcard. The capture is greedy across path separators so arbitrary-depth
// subpaths match. An empty capture counts as no match, never as an exact-match
// fallback.
func matchWildcard(targetPattern, filePath string) (string, bool) {
	re := wildcardRegex(targetPattern)
	m := re.FindStringSubmatch(filePath)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// Patterns come from a bounded set of configuration entries; builds for
// independent workspace folders may run concurrently, so the cache is a
// sync.Map rather than a plain map.
var wildcardRegexCache sync.Map // pattern string -> *regexp.Regexp

// wildcardRegex compiles "pre*post" into ^pre(.*)post$.
func wildcardRegex(pattern string) *regexp.Regexp {
	if cached, ok := wildcardRegexCache.Load(pattern); ok {
		return cached.(*regexp.Regexp)
	}
	pre, post, _ := strings.Cut(pattern, "*")
	re := regexp.MustCompile("^" + regexp.QuoteMeta(pre) + "(.*)" + regexp.QuoteMeta(post) + "$")
	wildcardRegexCache.Store(pattern, re)
	return re
}

// matchesAliasPatternSide reports whether the import path would be captured by
// the pattern side of any declared alias.
func matchesAliasPatternSide(aliases []project.AliasMapping, importPath string) bool {
	for _, mapping := range aliases {
		if prefix, _, ok := strings.Cut(mapping.Pattern, "*"); ok {
			if prefix != "" && strings.HasPrefix(importPath, prefix) {
				return true
			}
		} else if importPath == mapping.Pattern || strings.HasPrefix(importPath, mapping.Pattern+"/") {
			return true
		}
	}
	return false
}

// RelativeImportPath computes the deferred import path for a ResolvedRelative
// record: the target relative to the consuming file's directory, extension
// stripped, with an explicit "./" prefix when the target is not above it.
func RelativeImportPath(fromFile, targetFile string) string {
	fromDir := path.Dir(fromFile)
	if fromDir == "." {
		fromDir = ""
	}
	rel := relSlash(fromDir, types.StripExtension(targetFile))
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}

// relSlash is filepath.Rel for workspace-relative slash paths.
func relSlash(fromDir, target string) string {
	if fromDir == "" {
		return target
	}
	fromParts := strings.Split(fromDir, "/")
	targetParts := strings.Split(target, "/")

	common := 0
	for common < len(fromParts) && common < len(targetParts) && fromParts[common] == targetParts[common] {
		common++
	}

	var b []string
	for i := common; i < len(fromParts); i++ {
		b = append(b, "..")
	}
	b = append(b, targetParts[common:]...)
	return strings.Join(b, "/")
}

// joinPattern resolves a target pattern against the project's base directory,
// keeping any wildcard intact.
func joinPattern(base, target string) string {
	joined := path.Join(base, target)
	if joined == "." {
		return ""
	}
	return joined
}

// relUnder returns filePath relative to dir, assuming PathUnder(filePath, dir).
func relUnder(filePath, dir string) string {
	if dir == "" {
		return filePath
	}
	return strings.TrimPrefix(filePath, dir+"/")
}
