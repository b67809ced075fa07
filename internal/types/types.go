package types

import (
	"path"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// Default limits and tunables for the module index
const (
	DefaultMaxResults      = 50
	DefaultWatchDebounceMs = 300
)

// SourceExtensions lists the file extensions the index considers importable.
var SourceExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs"}

var sourceExtSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(SourceExtensions))
	for _, ext := range SourceExtensions {
		m[ext] = struct{}{}
	}
	return m
}()

// IsSourceFile reports whether the path has an indexable source extension.
func IsSourceFile(filePath string) bool {
	_, ok := sourceExtSet[strings.ToLower(path.Ext(filePath))]
	return ok
}

// ConfigFileNames are the project configuration files the registry is built from.
var ConfigFileNames = []string{"tsconfig.json", "jsconfig.json"}

// IsConfigFile reports whether the path denotes a project configuration file.
func IsConfigFile(filePath string) bool {
	base := path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	for _, name := range ConfigFileNames {
		if base == name {
			return true
		}
	}
	return false
}

// ResolutionKind describes how a file's import path was derived.
type ResolutionKind uint8

const (
	// ResolvedAlias means an alias mapping produced the import path.
	ResolvedAlias ResolutionKind = iota
	// ResolvedBaseDir means the import path is relative to the project's base directory.
	ResolvedBaseDir
	// ResolvedRelative means the file is importable only via a path relative to the
	// consuming file. The concrete path is computed at query time.
	ResolvedRelative
)

// ModuleRecord is one (file, consuming-project) import candidate.
// Records are immutable; path or name changes are delete + recreate.
type ModuleRecord struct {
	// ModuleName is the camelCase identifier completion candidates are matched on.
	ModuleName string
	// ImportPath is the bare import path for alias and base-dir resolutions.
	// Empty for ResolvedRelative records.
	ImportPath string
	// FilePath is the workspace-relative path of the indexed file, slash-separated.
	FilePath string
	// Kind records which resolution produced this candidate.
	Kind ResolutionKind
}

// Key returns the stable removal key for the record. Within one project's index
// a file contributes at most one record, so hashing the owning file path is
// unique per (file, project) pair. Removal must never compare by identity:
// incremental updates reconstruct records rather than retaining instances.
func (r ModuleRecord) Key() uint64 {
	return RecordKey(r.FilePath)
}

// RecordKey hashes a workspace-relative file path into a removal key.
func RecordKey(filePath string) uint64 {
	return xxhash.Sum64String(filePath)
}

// StripExtension drops the final extension from a path, if any.
func StripExtension(p string) string {
	ext := path.Ext(p)
	if ext == "" {
		return p
	}
	return p[:len(p)-len(ext)]
}

// ModuleNameForFile derives the completion identifier from a file's base name:
// extension stripped, then folded to camelCase across '-', '_', '.' and space
// separators. "foo_bar.ts" -> "fooBar", "FooBar.tsx" -> "fooBar".
func ModuleNameForFile(filePath string) string {
	base := StripExtension(path.Base(filePath))
	parts := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	})
	if len(parts) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(base))
	for i, part := range parts {
		runes := []rune(part)
		if i == 0 {
			runes[0] = unicode.ToLower(runes[0])
		} else {
			runes[0] = unicode.ToUpper(runes[0])
		}
		b.WriteString(string(runes))
	}
	return b.String()
}
