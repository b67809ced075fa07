package indexing

import (
	"context"
	"log"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/standardbeagle/lmi/internal/config"
	"github.com/standardbeagle/lmi/internal/debug"
	lmierrors "github.com/standardbeagle/lmi/internal/errors"
	"github.com/standardbeagle/lmi/internal/types"
)

// Coordinator owns the workspace state for every tracked folder and is the
// single entry point for builds, incremental updates, and queries. There is
// no ambient global: the coordinator is constructed with its collaborators
// and torn down explicitly.
//
// Mutations for one folder are serialized through that folder's event mutex.
// Builds for independent folders run independently. Queries never block on a
// build in flight: they read whatever state currently exists.
type Coordinator struct {
	cfg     *config.Config
	indexer *WorkspaceIndexer

	mu      sync.RWMutex // guards the folders map and state pointers
	folders map[string]*folderEntry
}

// folderEntry pairs a folder's current state with the mutex serializing its
// mutations. The state pointer is swapped wholesale on rebuild so readers
// observe either the old complete state or the new one, never a mix.
type folderEntry struct {
	eventMu sync.Mutex
	state   *WorkspaceState // nil until the first build completes
}

// NewCoordinator creates a coordinator with injected collaborators.
func NewCoordinator(cfg *config.Config, configs ConfigSource, files FileEnumerator) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		indexer: NewWorkspaceIndexer(cfg, configs, files),
		folders: make(map[string]*folderEntry),
	}
}

// AddFolder registers a workspace folder and builds its index. A failed build
// is reported but leaves the folder tracked with no state; other folders are
// unaffected.
func (c *Coordinator) AddFolder(ctx context.Context, folder string) error {
	folder = filepath.Clean(folder)

	c.mu.Lock()
	entry, ok := c.folders[folder]
	if !ok {
		entry = &folderEntry{}
		c.folders[folder] = entry
	}
	c.mu.Unlock()

	return c.rebuildFolder(ctx, folder, entry)
}

// RemoveFolder drops a folder and its state.
func (c *Coordinator) RemoveFolder(folder string) {
	folder = filepath.Clean(folder)
	c.mu.Lock()
	delete(c.folders, folder)
	c.mu.Unlock()
}

// Folders returns the tracked folder paths.
func (c *Coordinator) Folders() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.folders))
	for folder := range c.folders {
		out = append(out, folder)
	}
	return out
}

// NotifyWorkspaceFoldersChanged applies folder add/remove notifications.
func (c *Coordinator) NotifyWorkspaceFoldersChanged(ctx context.Context, added, removed []string) {
	for _, folder := range removed {
		c.RemoveFolder(folder)
	}
	for _, folder := range added {
		if err := c.AddFolder(ctx, folder); err != nil {
			log.Printf("Failed to index workspace folder %s: %v", folder, err)
		}
	}
}

// rebuildFolder builds a fresh state and swaps it in atomically.
func (c *Coordinator) rebuildFolder(ctx context.Context, folder string, entry *folderEntry) error {
	entry.eventMu.Lock()
	defer entry.eventMu.Unlock()

	state, err := c.indexer.Build(ctx, folder)
	if err != nil {
		log.Printf("Build failed for workspace folder %s: %v", folder, err)
		return err
	}

	c.mu.Lock()
	entry.state = state
	c.mu.Unlock()
	return nil
}

// RebuildAll rebuilds every tracked folder. Configuration changes route here:
// alias tables, base directories, and build-output exclusions shift in ways
// that are not safely patchable incrementally.
func (c *Coordinator) RebuildAll(ctx context.Context) {
	c.mu.RLock()
	entries := make(map[string]*folderEntry, len(c.folders))
	for folder, entry := range c.folders {
		entries[folder] = entry
	}
	c.mu.RUnlock()

	for folder, entry := range entries {
		if err := c.rebuildFolder(ctx, folder, entry); err != nil {
			log.Printf("Rebuild failed for workspace folder %s: %v", folder, err)
		}
	}
}

// NotifyFileCreated applies a single-file create event.
func (c *Coordinator) NotifyFileCreated(absPath string) {
	folder, entry, rel, ok := c.locate(absPath)
	if !ok {
		return
	}

	if types.IsConfigFile(rel) {
		debug.LogIndexing("config created: %s, rebuilding all folders\n", rel)
		c.RebuildAll(context.Background())
		return
	}
	if !types.IsSourceFile(rel) {
		return
	}
	// A full rescan only admits files the include globs enumerate; an
	// incremental create must pass the same gate or the two end states diverge.
	if !matchesAny(c.cfg.Include, rel) {
		debug.LogIndexing("created file %s does not match include globs\n", rel)
		return
	}

	entry.eventMu.Lock()
	defer entry.eventMu.Unlock()
	state := c.currentState(entry)
	if state == nil {
		debug.LogIndexing("create for unbuilt folder %s dropped\n", folder)
		return
	}
	state.applyFileCreated(rel)
}

// NotifyFileDeleted applies a single-file delete event. Delete notifications
// do not distinguish files from directories, so an extensionless path is
// treated as a possible directory: all records under the prefix are dropped,
// and if the prefix covers a project root the folder is rebuilt because the
// project topology itself changed.
func (c *Coordinator) NotifyFileDeleted(absPath string) {
	folder, entry, rel, ok := c.locate(absPath)
	if !ok {
		return
	}

	if types.IsConfigFile(rel) {
		debug.LogIndexing("config deleted: %s, rebuilding all folders\n", rel)
		c.RebuildAll(context.Background())
		return
	}

	if path.Ext(rel) == "" {
		entry.eventMu.Lock()
		state := c.currentState(entry)
		if state == nil {
			entry.eventMu.Unlock()
			return
		}
		topologyChanged := state.applyDirDeleted(rel)
		entry.eventMu.Unlock()

		if topologyChanged {
			debug.LogIndexing("directory delete %s touches a project root, rebuilding %s\n", rel, folder)
			if err := c.rebuildFolder(context.Background(), folder, entry); err != nil {
				log.Printf("Rebuild after directory delete failed for %s: %v", folder, err)
			}
		}
		return
	}

	if !types.IsSourceFile(rel) {
		return
	}

	entry.eventMu.Lock()
	defer entry.eventMu.Unlock()
	state := c.currentState(entry)
	if state == nil {
		return
	}
	state.applyFileDeleted(rel)
}

// NotifyFileChanged applies a content-change event. Module name and import
// path derive only from the path, so ordinary edits have no index effect;
// configuration edits rebuild everything.
func (c *Coordinator) NotifyFileChanged(absPath string) {
	_, _, rel, ok := c.locate(absPath)
	if !ok {
		return
	}
	if types.IsConfigFile(rel) {
		debug.LogIndexing("config changed: %s, rebuilding all folders\n", rel)
		c.RebuildAll(context.Background())
	}
}

// StatsAll returns stats for every folder with built state.
func (c *Coordinator) StatsAll() []Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Stats, 0, len(c.folders))
	for _, entry := range c.folders {
		if entry.state != nil {
			out = append(out, entry.state.Stats())
		}
	}
	return out
}

// locate maps an absolute event path to its tracked folder, entry, and
// workspace-relative slash path. Paths outside every tracked folder are
// logged and dropped, never surfaced as errors.
func (c *Coordinator) locate(absPath string) (string, *folderEntry, string, bool) {
	absPath = filepath.Clean(absPath)

	c.mu.RLock()
	defer c.mu.RUnlock()

	bestFolder := ""
	var bestEntry *folderEntry
	for folder, entry := range c.folders {
		if !pathWithin(absPath, folder) {
			continue
		}
		if len(folder) > len(bestFolder) {
			bestFolder = folder
			bestEntry = entry
		}
	}
	if bestEntry == nil {
		debug.LogIndexing("%v, event dropped\n", lmierrors.NewLookupError("tracked folder", absPath))
		return "", nil, "", false
	}

	rel, err := filepath.Rel(bestFolder, absPath)
	if err != nil {
		return "", nil, "", false
	}
	return bestFolder, bestEntry, filepath.ToSlash(rel), true
}

// currentState reads the entry's state pointer under the coordinator lock.
func (c *Coordinator) currentState(entry *folderEntry) *WorkspaceState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return entry.state
}

// pathWithin reports whether abs lies under (or equals) the folder, by whole
// path segment.
func pathWithin(abs, folder string) bool {
	if abs == folder {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(abs, strings.TrimSuffix(folder, sep)+sep)
}
