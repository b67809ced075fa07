package indexing

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/lmi/internal/debug"
	"github.com/standardbeagle/lmi/internal/resolver"
	"github.com/standardbeagle/lmi/internal/types"
)

// Completion is one import suggestion: the module name the user is typing and
// the import path that brings it into the current file.
type Completion struct {
	ModuleName string `json:"module_name"`
	ImportPath string `json:"import_path"`
}

// QueryOptions tunes a completion query.
type QueryOptions struct {
	// MaxResults caps the returned list. Zero means the default cap.
	MaxResults int

	// RankBySimilarity orders candidates by string similarity to the typed
	// prefix instead of index insertion order.
	RankBySimilarity bool
}

// QueryCompletions answers a completion request for the file at absPath with
// the typed prefix. A file outside every tracked folder, an unbuilt folder, or
// a file without an owning project all yield an empty list, never an error.
func (c *Coordinator) QueryCompletions(absPath, prefix string) []Completion {
	folder, entry, rel, ok := c.locate(absPath)
	if !ok {
		return nil
	}
	state := c.currentState(entry)
	if state == nil {
		debug.LogResolve("query against unbuilt folder %s\n", folder)
		return nil
	}
	return state.Query(rel, prefix, QueryOptions{
		MaxResults:       c.cfg.Query.MaxResults,
		RankBySimilarity: c.cfg.Query.RankBySimilarity,
	})
}

// Query answers a completion request for a workspace-relative file path. Only
// the owning project's index is consulted; relative-kind records get their
// import path computed now, against the asking file.
func (ws *WorkspaceState) Query(relPath, prefix string, opts QueryOptions) []Completion {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil
	}
	limit := opts.MaxResults
	if limit <= 0 {
		limit = types.DefaultMaxResults
	}

	ws.mu.RLock()
	defer ws.mu.RUnlock()

	owner := ws.registry.OwnerOf(relPath)
	if owner == nil {
		debug.LogResolve("no owning project for %s\n", relPath)
		return nil
	}
	idx := ws.indexes[owner.Root]
	if idx == nil {
		return nil
	}

	lowered := strings.ToLower(prefix)
	var out []Completion
	for _, rec := range idx.Get(prefix) {
		if rec.FilePath == relPath {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(rec.ModuleName), lowered) {
			continue
		}
		importPath := rec.ImportPath
		if rec.Kind == types.ResolvedRelative {
			importPath = resolver.RelativeImportPath(relPath, rec.FilePath)
		}
		out = append(out, Completion{ModuleName: rec.ModuleName, ImportPath: importPath})
	}

	if opts.RankBySimilarity {
		rankCompletions(out, prefix)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// rankCompletions orders candidates by Jaro-Winkler similarity to the typed
// prefix, most similar first. Ties keep index order.
func rankCompletions(completions []Completion, prefix string) {
	type scored struct {
		comp  Completion
		score float32
	}
	ranked := make([]scored, len(completions))
	for i, comp := range completions {
		ranked[i] = scored{comp: comp, score: similarity(prefix, comp.ModuleName)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	for i, s := range ranked {
		completions[i] = s.comp
	}
}

func similarity(a, b string) float32 {
	score, err := edlib.StringsSimilarity(strings.ToLower(a), strings.ToLower(b), edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return score
}
