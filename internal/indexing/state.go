package indexing

import (
	"sync"
	"time"

	"github.com/standardbeagle/lmi/internal/debug"
	"github.com/standardbeagle/lmi/internal/index"
	"github.com/standardbeagle/lmi/internal/project"
	"github.com/standardbeagle/lmi/internal/resolver"
	"github.com/standardbeagle/lmi/internal/types"
)

// WorkspaceState is the derived index of one workspace folder: its project
// registry, per-project module indexes, and the file-to-owner map that spares
// a registry scan on every delete. The state exclusively owns its registry
// and indexes; readers only see copies through query results.
//
// Builds replace a folder's WorkspaceState wholesale; incremental updates
// mutate it in place under its lock.
type WorkspaceState struct {
	mu sync.RWMutex

	// Folder is the absolute path of the workspace folder.
	Folder string

	registry   *project.Registry
	indexes    map[string]*index.ModuleIndex // project root -> index
	fileOwners map[string]string             // file path -> owner project root
	builtAt    time.Time
}

// newWorkspaceState assembles a state from build results.
func newWorkspaceState(folder string, registry *project.Registry) *WorkspaceState {
	ws := &WorkspaceState{
		Folder:     folder,
		registry:   registry,
		indexes:    make(map[string]*index.ModuleIndex, registry.Len()),
		fileOwners: make(map[string]string),
		builtAt:    time.Now(),
	}
	for _, cfg := range registry.Projects() {
		ws.indexes[cfg.Root] = index.New()
	}
	return ws
}

// indexFile resolves the file against every project and records the results.
// Exclusion must have been checked by the caller. Called during builds (before
// the state is published) and from applyFileCreated (under the lock).
func (ws *WorkspaceState) indexFile(relPath string) {
	for _, cfg := range ws.registry.Projects() {
		if rec, ok := resolver.ResolveRecord(cfg, relPath); ok {
			ws.indexes[cfg.Root].Put(rec)
		}
	}
	if owner := ws.registry.OwnerOf(relPath); owner != nil {
		ws.fileOwners[relPath] = owner.Root
	} else {
		// Importable-from-elsewhere files without an owner stay indexed;
		// they just have no ownership entry.
		debug.LogIndexing("no owner project for %s\n", relPath)
	}
}

// applyFileCreated indexes a newly created file.
func (ws *WorkspaceState) applyFileCreated(relPath string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.registry.IsExcluded(relPath) {
		debug.LogIndexing("created file %s is excluded\n", relPath)
		return
	}
	ws.indexFile(relPath)
}

// applyFileDeleted removes a single file's records from every project index.
// The would-be resolution is recomputed per project to know which indexes
// held a record; removal itself is keyed by the file path.
func (ws *WorkspaceState) applyFileDeleted(relPath string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	moduleName := types.ModuleNameForFile(relPath)
	for _, cfg := range ws.registry.Projects() {
		if _, ok := resolver.Resolve(cfg, relPath); ok {
			ws.indexes[cfg.Root].RemoveByFilePath(relPath, moduleName)
		}
	}
	delete(ws.fileOwners, relPath)
}

// applyDirDeleted drops every record and ownership entry under the deleted
// prefix. Returns true when the prefix covers some project's root: project
// topology changed and the folder must be rebuilt from scratch.
func (ws *WorkspaceState) applyDirDeleted(relPath string) (topologyChanged bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	for _, cfg := range ws.registry.Projects() {
		if project.PathUnder(cfg.Root, relPath) {
			return true
		}
	}

	removed := 0
	for _, idx := range ws.indexes {
		removed += idx.RemoveUnderDir(relPath)
	}
	for file := range ws.fileOwners {
		if project.PathUnder(file, relPath) {
			delete(ws.fileOwners, file)
		}
	}
	debug.LogIndexing("directory delete %s removed %d records\n", relPath, removed)
	return false
}

// Stats summarizes one folder's state for status reporting.
type Stats struct {
	Folder   string
	Projects int
	Records  int
	Files    int
	BuiltAt  time.Time
}

// Stats returns a snapshot of the state's size.
func (ws *WorkspaceState) Stats() Stats {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	records := 0
	for _, idx := range ws.indexes {
		records += idx.Len()
	}
	return Stats{
		Folder:   ws.Folder,
		Projects: ws.registry.Len(),
		Records:  records,
		Files:    len(ws.fileOwners),
		BuiltAt:  ws.builtAt,
	}
}
