package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lmi/internal/config"
	"github.com/standardbeagle/lmi/internal/indexing"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	write := func(rel, content string) {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	write("tsconfig.json", `{"compilerOptions": {"paths": {"@/*": ["src/*"]}}}`)
	write("src/foo_bar.ts", "export {}")
	write("src/app.ts", "")

	cfg := config.Default()
	cfg.Query.RankBySimilarity = false
	scanner := indexing.NewFileScanner(cfg.Exclude)
	coordinator := indexing.NewCoordinator(cfg, scanner, scanner)
	require.NoError(t, coordinator.AddFolder(context.Background(), dir))

	return NewServer(cfg, coordinator), dir
}

func callTool(t *testing.T, handler func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error), args interface{}) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)

	result, err := handler(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{
		Arguments: raw,
	}})
	require.NoError(t, err)
	require.False(t, result.IsError, "tool returned error result")

	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &decoded))
	return decoded
}

func TestHandleCompleteImport(t *testing.T) {
	server, dir := newTestServer(t)

	decoded := callTool(t, server.handleCompleteImport, CompleteImportParams{
		File:   filepath.Join(dir, "src", "app.ts"),
		Prefix: "foo",
	})

	assert.Equal(t, float64(1), decoded["count"])
	completions := decoded["completions"].([]interface{})
	first := completions[0].(map[string]interface{})
	assert.Equal(t, "fooBar", first["module_name"])
	assert.Equal(t, "@/foo_bar", first["import_path"])
}

func TestHandleCompleteImport_NoMatchesIsEmptyList(t *testing.T) {
	server, dir := newTestServer(t)

	decoded := callTool(t, server.handleCompleteImport, CompleteImportParams{
		File:   filepath.Join(dir, "src", "app.ts"),
		Prefix: "zzz",
	})

	assert.Equal(t, float64(0), decoded["count"])
	assert.NotNil(t, decoded["completions"])
}

func TestHandleCompleteImport_MissingPrefixIsToolError(t *testing.T) {
	server, _ := newTestServer(t)

	raw, _ := json.Marshal(CompleteImportParams{File: "/some/file.ts"})
	result, err := server.handleCompleteImport(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{
		Arguments: raw,
	}})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleIndexStatus(t *testing.T) {
	server, dir := newTestServer(t)

	decoded := callTool(t, server.handleIndexStatus, struct{}{})

	folders := decoded["folders"].([]interface{})
	require.Len(t, folders, 1)
	first := folders[0].(map[string]interface{})
	assert.Equal(t, dir, first["folder"])
	assert.Equal(t, float64(1), first["projects"])
	assert.Equal(t, float64(2), first["records"])
}

func TestHandleReindex(t *testing.T) {
	server, _ := newTestServer(t)

	decoded := callTool(t, server.handleReindex, ReindexParams{})
	assert.Equal(t, true, decoded["success"])
}
