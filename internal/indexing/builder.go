package indexing

import (
	"context"
	"log"
	"time"

	"github.com/standardbeagle/lmi/internal/config"
	"github.com/standardbeagle/lmi/internal/debug"
	"github.com/standardbeagle/lmi/internal/project"
)

// WorkspaceIndexer performs the full (re)scan of one workspace folder:
// configuration discovery, registry construction, candidate enumeration, and
// index population. Collaborators are injected so tests can supply fixtures.
type WorkspaceIndexer struct {
	cfg     *config.Config
	configs ConfigSource
	files   FileEnumerator
}

// NewWorkspaceIndexer creates an indexer with the given collaborators.
func NewWorkspaceIndexer(cfg *config.Config, configs ConfigSource, files FileEnumerator) *WorkspaceIndexer {
	return &WorkspaceIndexer{
		cfg:     cfg,
		configs: configs,
		files:   files,
	}
}

// Build scans the folder and assembles a fresh WorkspaceState. Discovery or
// enumeration failure aborts this folder's build (the error is reported to
// the caller; other folders are unaffected). A single unparsable
// configuration file only skips its project.
//
// The returned state is not yet published; the coordinator swaps it in
// atomically so readers observe either the old complete state or the new one.
func (wi *WorkspaceIndexer) Build(ctx context.Context, folder string) (*WorkspaceState, error) {
	start := time.Now()

	rawConfigs, err := wi.configs.ConfigFiles(ctx, folder)
	if err != nil {
		return nil, err
	}

	parsed := make([]*project.Config, 0, len(rawConfigs))
	for _, raw := range rawConfigs {
		cfg, parseErr := project.ParseRaw(raw.Path, raw.Data)
		if parseErr != nil {
			log.Printf("Skipping project config %s: %v", raw.Path, parseErr)
			continue
		}
		parsed = append(parsed, cfg)
	}

	registry := project.NewRegistry(parsed, wi.cfg.Exclude)
	state := newWorkspaceState(folder, registry)

	candidates, err := wi.files.Enumerate(folder, wi.cfg.Include, wi.cfg.Exclude)
	if err != nil {
		return nil, err
	}

	indexed := 0
	for _, relPath := range candidates {
		if registry.IsExcluded(relPath) {
			continue
		}
		state.indexFile(relPath)
		indexed++
	}

	debug.LogIndexing("built folder %s: %d projects, %d files in %v\n",
		folder, registry.Len(), indexed, time.Since(start))
	return state, nil
}
