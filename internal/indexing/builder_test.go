package indexing

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lmi/internal/config"
)

// fakeWorkspace serves canned configuration files and candidate lists so
// builds run without touching the file system.
type fakeWorkspace struct {
	configs []RawConfig
	files   []string
	builds  atomic.Int32
}

func (f *fakeWorkspace) ConfigFiles(ctx context.Context, folder string) ([]RawConfig, error) {
	f.builds.Add(1)
	return f.configs, nil
}

func (f *fakeWorkspace) Enumerate(folder string, include, exclude []string) ([]string, error) {
	return f.files, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Query.RankBySimilarity = false
	return cfg
}

func buildWorkspace(t *testing.T, fake *fakeWorkspace) (*config.Config, *WorkspaceState) {
	t.Helper()
	cfg := testConfig()
	indexer := NewWorkspaceIndexer(cfg, fake, fake)
	state, err := indexer.Build(context.Background(), "/ws")
	require.NoError(t, err)
	return cfg, state
}

func TestBuild_AliasAndRelative(t *testing.T) {
	fake := &fakeWorkspace{
		configs: []RawConfig{
			{Path: "tsconfig.json", Data: []byte(`{
				"compilerOptions": {"paths": {"@/*": ["src/*"]}}
			}`)},
		},
		files: []string{"src/foo_bar.ts", "lib/baz.ts", "src/app.ts"},
	}
	_, state := buildWorkspace(t, fake)

	stats := state.Stats()
	assert.Equal(t, 1, stats.Projects)
	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 3, stats.Files)

	completions := state.Query("src/app.ts", "f", QueryOptions{})
	require.Len(t, completions, 1)
	assert.Equal(t, "fooBar", completions[0].ModuleName)
	assert.Equal(t, "@/foo_bar", completions[0].ImportPath)

	// lib/baz.ts has no alias or base-dir path; its import path is computed
	// relative to the asking file at query time.
	completions = state.Query("src/app.ts", "b", QueryOptions{})
	require.Len(t, completions, 1)
	assert.Equal(t, "baz", completions[0].ModuleName)
	assert.Equal(t, "../lib/baz", completions[0].ImportPath)
}

func TestBuild_QueryExcludesCurrentFile(t *testing.T) {
	fake := &fakeWorkspace{
		configs: []RawConfig{{Path: "tsconfig.json", Data: []byte(`{}`)}},
		files:   []string{"src/widget.ts", "src/window.ts"},
	}
	_, state := buildWorkspace(t, fake)

	completions := state.Query("src/widget.ts", "w", QueryOptions{})
	require.Len(t, completions, 1)
	assert.Equal(t, "window", completions[0].ModuleName)
}

func TestBuild_BuildOutputNeverIndexed(t *testing.T) {
	fake := &fakeWorkspace{
		configs: []RawConfig{
			{Path: "tsconfig.json", Data: []byte(`{
				"compilerOptions": {"outDir": "dist"}
			}`)},
		},
		files: []string{"src/real.ts", "dist/real.js"},
	}
	_, state := buildWorkspace(t, fake)

	assert.Equal(t, 1, state.Stats().Records)
	completions := state.Query("src/other.ts", "r", QueryOptions{})
	require.Len(t, completions, 1)
	assert.Equal(t, "src/real.ts", stateFileFor(t, state, completions[0]))
}

// stateFileFor looks up the indexed file behind a completion by name.
func stateFileFor(t *testing.T, state *WorkspaceState, comp Completion) string {
	t.Helper()
	state.mu.RLock()
	defer state.mu.RUnlock()
	for _, idx := range state.indexes {
		for _, rec := range idx.Get(comp.ModuleName) {
			if rec.ModuleName == comp.ModuleName {
				return rec.FilePath
			}
		}
	}
	return ""
}

func TestBuild_NestedProjectsLongestPrefixOwner(t *testing.T) {
	fake := &fakeWorkspace{
		configs: []RawConfig{
			{Path: "tsconfig.json", Data: []byte(`{
				"compilerOptions": {"paths": {"outer/*": ["*"]}}
			}`)},
			{Path: "packages/app/tsconfig.json", Data: []byte(`{
				"compilerOptions": {"paths": {"inner/*": ["src/*"]}}
			}`)},
		},
		files: []string{"packages/app/src/deep_thing.ts", "top.ts"},
	}
	_, state := buildWorkspace(t, fake)

	// A file inside the nested project completes against that project's
	// aliases, not the outer project's.
	completions := state.Query("packages/app/src/main.ts", "d", QueryOptions{})
	require.Len(t, completions, 1)
	assert.Equal(t, "inner/deep_thing", completions[0].ImportPath)

	// A file owned by the outer project sees the outer alias form.
	completions = state.Query("entry.ts", "d", QueryOptions{})
	require.Len(t, completions, 1)
	assert.Equal(t, "outer/packages/app/src/deep_thing", completions[0].ImportPath)
}

func TestBuild_UnparsableConfigSkipsProjectOnly(t *testing.T) {
	fake := &fakeWorkspace{
		configs: []RawConfig{
			{Path: "broken/tsconfig.json", Data: []byte(`{oops`)},
			{Path: "tsconfig.json", Data: []byte(`{}`)},
		},
		files: []string{"src/ok.ts"},
	}
	_, state := buildWorkspace(t, fake)

	assert.Equal(t, 1, state.Stats().Projects)
	assert.Equal(t, 1, state.Stats().Records)
}

func TestQuery_MaxResultsCap(t *testing.T) {
	fake := &fakeWorkspace{
		configs: []RawConfig{{Path: "tsconfig.json", Data: []byte(`{}`)}},
		files:   []string{"src/aa.ts", "src/ab.ts", "src/ac.ts", "src/ad.ts"},
	}
	_, state := buildWorkspace(t, fake)

	completions := state.Query("src/main.ts", "a", QueryOptions{MaxResults: 2})
	assert.Len(t, completions, 2)
}

func TestQuery_PrefixFiltersWithinBucket(t *testing.T) {
	fake := &fakeWorkspace{
		configs: []RawConfig{{Path: "tsconfig.json", Data: []byte(`{}`)}},
		files:   []string{"src/foo_bar.ts", "src/fizz.ts"},
	}
	_, state := buildWorkspace(t, fake)

	completions := state.Query("src/main.ts", "fo", QueryOptions{})
	require.Len(t, completions, 1)
	assert.Equal(t, "fooBar", completions[0].ModuleName)
}

func TestQuery_CaseInsensitivePrefix(t *testing.T) {
	fake := &fakeWorkspace{
		configs: []RawConfig{{Path: "tsconfig.json", Data: []byte(`{}`)}},
		files:   []string{"src/foo_bar.ts"},
	}
	_, state := buildWorkspace(t, fake)

	completions := state.Query("src/main.ts", "Foo", QueryOptions{})
	require.Len(t, completions, 1)
	assert.Equal(t, "fooBar", completions[0].ModuleName)
}

func TestQuery_RankBySimilarity(t *testing.T) {
	fake := &fakeWorkspace{
		configs: []RawConfig{{Path: "tsconfig.json", Data: []byte(`{}`)}},
		files:   []string{"src/form_area_helper.ts", "src/form.ts"},
	}
	_, state := buildWorkspace(t, fake)

	completions := state.Query("src/main.ts", "form", QueryOptions{RankBySimilarity: true})
	require.Len(t, completions, 2)
	assert.Equal(t, "form", completions[0].ModuleName)
}
