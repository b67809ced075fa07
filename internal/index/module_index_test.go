package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lmi/internal/types"
)

func rec(name, filePath string) types.ModuleRecord {
	return types.ModuleRecord{
		ModuleName: name,
		ImportPath: "@/" + name,
		FilePath:   filePath,
		Kind:       types.ResolvedAlias,
	}
}

func TestModuleIndex_PutAndGet(t *testing.T) {
	m := New()
	m.Put(rec("fooBar", "src/foo_bar.ts"))
	m.Put(rec("fooBaz", "src/foo_baz.ts"))
	m.Put(rec("other", "src/other.ts"))

	got := m.Get("f")
	require.Len(t, got, 2)
	assert.Equal(t, "fooBar", got[0].ModuleName)
	assert.Equal(t, "fooBaz", got[1].ModuleName)
	assert.Equal(t, 3, m.Len())
}

func TestModuleIndex_GetCaseFolded(t *testing.T) {
	m := New()
	m.Put(rec("fooBar", "src/foo_bar.ts"))

	assert.Len(t, m.Get("F"), 1)
	assert.Len(t, m.Get("f"), 1)
}

func TestModuleIndex_GetEmptyPrefix(t *testing.T) {
	m := New()
	m.Put(rec("fooBar", "src/foo_bar.ts"))

	assert.Nil(t, m.Get(""))
	assert.Nil(t, m.Get("   "))
}

func TestModuleIndex_RemoveByFilePath(t *testing.T) {
	m := New()
	m.Put(rec("widget", "src/a/widget.ts"))
	m.Put(rec("widget", "src/b/widget.ts"))

	m.RemoveByFilePath("src/a/widget.ts", "widget")

	got := m.Get("w")
	require.Len(t, got, 1)
	assert.Equal(t, "src/b/widget.ts", got[0].FilePath)
	assert.Equal(t, 1, m.Len())
}

func TestModuleIndex_RemoveByReconstructedRecord(t *testing.T) {
	m := New()
	m.Put(rec("thing", "src/thing.ts"))

	// Removal is keyed on the file path, never on the stored instance.
	fresh := rec("thing", "src/thing.ts")
	m.Remove(fresh)

	assert.Empty(t, m.Get("t"))
	assert.Equal(t, 0, m.Len())
}

func TestModuleIndex_RemoveMissingIsNoop(t *testing.T) {
	m := New()
	m.Put(rec("thing", "src/thing.ts"))

	m.RemoveByFilePath("src/absent.ts", "absent")
	assert.Equal(t, 1, m.Len())
}

func TestModuleIndex_RemoveUnderDir(t *testing.T) {
	m := New()
	m.Put(rec("alpha", "src/feat/alpha.ts"))
	m.Put(rec("beta", "src/feat/deep/beta.ts"))
	m.Put(rec("gamma", "src/other/gamma.ts"))

	removed := m.RemoveUnderDir("src/feat")
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, m.Len())
	assert.Len(t, m.Get("g"), 1)
	assert.Empty(t, m.Get("a"))
}

func TestModuleIndex_DeleteThenRecreate(t *testing.T) {
	m := New()
	m.Put(rec("fooBar", "src/foo_bar.ts"))
	m.RemoveByFilePath("src/foo_bar.ts", "fooBar")
	m.Put(rec("fooBar", "src/foo_bar.ts"))

	got := m.Get("f")
	require.Len(t, got, 1)
	assert.Equal(t, "fooBar", got[0].ModuleName)
}
