package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lmi/internal/project"
	"github.com/standardbeagle/lmi/internal/types"
)

func strPtr(s string) *string { return &s }

func TestResolve_AliasWildcard(t *testing.T) {
	cfg := &project.Config{
		Root: "",
		Aliases: []project.AliasMapping{
			{Pattern: "@/*", Targets: []string{"src/*"}},
		},
	}

	res, ok := Resolve(cfg, "src/foo_bar.ts")
	require.True(t, ok)
	assert.Equal(t, types.ResolvedAlias, res.Kind)
	assert.Equal(t, "@/foo_bar", res.ImportPath)
}

func TestResolve_AliasWildcardNestedPath(t *testing.T) {
	cfg := &project.Config{
		Root: "",
		Aliases: []project.AliasMapping{
			{Pattern: "@/*", Targets: []string{"src/*"}},
		},
	}

	// The wildcard capture is greedy across separators.
	res, ok := Resolve(cfg, "src/deep/nested/widget.tsx")
	require.True(t, ok)
	assert.Equal(t, types.ResolvedAlias, res.Kind)
	assert.Equal(t, "@/deep/nested/widget", res.ImportPath)
}

func TestResolve_AliasEmptyCaptureNoMatch(t *testing.T) {
	cfg := &project.Config{
		Root: "",
		Aliases: []project.AliasMapping{
			{Pattern: "@/*", Targets: []string{"src/*"}},
		},
	}

	// "src/" with nothing after it must not match; a file named exactly like
	// the target prefix falls through to relative resolution.
	res, ok := Resolve(cfg, "src.ts")
	require.True(t, ok)
	assert.Equal(t, types.ResolvedRelative, res.Kind)
}

func TestResolve_AliasDeclarationOrderWins(t *testing.T) {
	cfg := &project.Config{
		Root: "",
		Aliases: []project.AliasMapping{
			{Pattern: "first/*", Targets: []string{"shared/*"}},
			{Pattern: "second/*", Targets: []string{"shared/*"}},
		},
	}

	res, ok := Resolve(cfg, "shared/util.ts")
	require.True(t, ok)
	assert.Equal(t, "first/util", res.ImportPath)
}

func TestResolve_AliasMultipleTargetsFirstWins(t *testing.T) {
	cfg := &project.Config{
		Root: "",
		Aliases: []project.AliasMapping{
			{Pattern: "lib/*", Targets: []string{"vendor/*", "src/*"}},
		},
	}

	res, ok := Resolve(cfg, "src/thing.ts")
	require.True(t, ok)
	assert.Equal(t, "lib/thing", res.ImportPath)

	res, ok = Resolve(cfg, "vendor/thing.ts")
	require.True(t, ok)
	assert.Equal(t, "lib/thing", res.ImportPath)
}

func TestResolve_UnresolvableSentinelBlocksMapping(t *testing.T) {
	cfg := &project.Config{
		Root: "",
		Aliases: []project.AliasMapping{
			{Pattern: "blocked/*", Targets: []string{project.UnresolvableTarget, "src/*"}},
			{Pattern: "open/*", Targets: []string{"src/*"}},
		},
	}

	// The sentinel short-circuits its own mapping; later mappings still apply.
	res, ok := Resolve(cfg, "src/item.ts")
	require.True(t, ok)
	assert.Equal(t, "open/item", res.ImportPath)
}

func TestResolve_AliasNonWildcardExactAndPrefix(t *testing.T) {
	cfg := &project.Config{
		Root: "",
		Aliases: []project.AliasMapping{
			{Pattern: "config", Targets: []string{"src/config"}},
		},
	}

	res, ok := Resolve(cfg, "src/config/env.ts")
	require.True(t, ok)
	assert.Equal(t, types.ResolvedAlias, res.Kind)
	assert.Equal(t, "config/env", res.ImportPath)
}

func TestResolve_AliasTargetsRelativeToBaseDir(t *testing.T) {
	cfg := &project.Config{
		Root:    "app",
		BaseDir: strPtr("src"),
		Aliases: []project.AliasMapping{
			{Pattern: "@/*", Targets: []string{"features/*"}},
		},
	}

	res, ok := Resolve(cfg, "app/src/features/login.ts")
	require.True(t, ok)
	assert.Equal(t, types.ResolvedAlias, res.Kind)
	assert.Equal(t, "@/login", res.ImportPath)
}

func TestResolve_BaseDirFallback(t *testing.T) {
	cfg := &project.Config{
		Root:    "",
		BaseDir: strPtr("src"),
	}

	res, ok := Resolve(cfg, "src/lib/baz.ts")
	require.True(t, ok)
	assert.Equal(t, types.ResolvedBaseDir, res.Kind)
	assert.Equal(t, "lib/baz", res.ImportPath)
}

func TestResolve_BaseDirNotDeclaredNoFallback(t *testing.T) {
	cfg := &project.Config{Root: ""}

	res, ok := Resolve(cfg, "src/lib/baz.ts")
	require.True(t, ok)
	assert.Equal(t, types.ResolvedRelative, res.Kind)
}

func TestResolve_BaseDirCollisionWithAliasFails(t *testing.T) {
	cfg := &project.Config{
		Root:    "",
		BaseDir: strPtr("src"),
		Aliases: []project.AliasMapping{
			{Pattern: "components/*", Targets: []string{"elsewhere/*"}},
		},
	}

	// src/components/button.ts would produce "components/button", which the
	// alias table would reinterpret. The resolution fails outright rather than
	// dropping to a relative import.
	_, ok := Resolve(cfg, "src/components/button.ts")
	assert.False(t, ok)
}

func TestResolve_RelativeFallbackInsideProject(t *testing.T) {
	cfg := &project.Config{Root: "pkg/web"}

	res, ok := Resolve(cfg, "pkg/web/util/fmt.ts")
	require.True(t, ok)
	assert.Equal(t, types.ResolvedRelative, res.Kind)
	assert.Empty(t, res.ImportPath)
}

func TestResolve_OutsideProjectNotImportable(t *testing.T) {
	cfg := &project.Config{Root: "pkg/web"}

	_, ok := Resolve(cfg, "pkg/api/server.ts")
	assert.False(t, ok)
}

func TestResolve_MixedWildcardSkipped(t *testing.T) {
	cfg := &project.Config{
		Root: "",
		Aliases: []project.AliasMapping{
			{Pattern: "exact", Targets: []string{"src/*"}},
		},
	}

	res, ok := Resolve(cfg, "src/file.ts")
	require.True(t, ok)
	assert.Equal(t, types.ResolvedRelative, res.Kind)
}

func TestResolveRecord(t *testing.T) {
	cfg := &project.Config{
		Root: "",
		Aliases: []project.AliasMapping{
			{Pattern: "@/*", Targets: []string{"src/*"}},
		},
	}

	rec, ok := ResolveRecord(cfg, "src/foo_bar.ts")
	require.True(t, ok)
	assert.Equal(t, "fooBar", rec.ModuleName)
	assert.Equal(t, "@/foo_bar", rec.ImportPath)
	assert.Equal(t, "src/foo_bar.ts", rec.FilePath)
	assert.Equal(t, types.ResolvedAlias, rec.Kind)
}

func TestRelativeImportPath(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		target   string
		expected string
	}{
		{"sibling", "src/a.ts", "src/b.ts", "./b"},
		{"child dir", "src/a.ts", "src/util/b.ts", "./util/b"},
		{"parent dir", "src/util/a.ts", "src/b.ts", "../b"},
		{"cousin", "src/feat/x/a.ts", "src/feat/y/b.ts", "../y/b"},
		{"workspace root file", "a.ts", "lib/b.ts", "./lib/b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, RelativeImportPath(tc.from, tc.target))
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	cfg := &project.Config{
		Root: "",
		Aliases: []project.AliasMapping{
			{Pattern: "@/*", Targets: []string{"src/*"}},
		},
	}

	first, ok1 := Resolve(cfg, "src/x.ts")
	second, ok2 := Resolve(cfg, "src/x.ts")
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
}
