// Package mcp exposes the module index over the Model Context Protocol so
// editor agents can ask for import completions against the live index.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/lmi/internal/config"
	"github.com/standardbeagle/lmi/internal/debug"
	"github.com/standardbeagle/lmi/internal/indexing"
	"github.com/standardbeagle/lmi/internal/version"
)

// Server wraps the coordinator behind a stdio MCP server.
type Server struct {
	server      *mcp.Server
	coordinator *indexing.Coordinator
	cfg         *config.Config
}

// CompleteImportParams are the arguments of the complete_import tool.
type CompleteImportParams struct {
	File   string `json:"file"`
	Prefix string `json:"prefix"`
}

// ReindexParams are the arguments of the reindex tool.
type ReindexParams struct {
	Folder string `json:"folder,omitempty"`
}

// NewServer creates the MCP server and registers its tools. Stdout belongs to
// the protocol, so debug output is redirected away from it.
func NewServer(cfg *config.Config, coordinator *indexing.Coordinator) *Server {
	debug.SetMCPMode(true)

	s := &Server{
		coordinator: coordinator,
		cfg:         cfg,
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "lmi-mcp-server",
		Version: version.Version,
	}, nil)
	s.registerTools()
	return s
}

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "complete_import",
		Description: "Suggest importable modules matching a typed prefix, with the import path to use from the current file.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file": {
					Type:        "string",
					Description: "Absolute path of the file being edited",
				},
				"prefix": {
					Type:        "string",
					Description: "The partial module name typed so far",
				},
			},
			Required: []string{"file", "prefix"},
		},
	}, s.handleCompleteImport)

	s.server.AddTool(&mcp.Tool{
		Name:        "index_status",
		Description: "Report per-folder index statistics: projects discovered, records held, and build time.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
		},
	}, s.handleIndexStatus)

	s.server.AddTool(&mcp.Tool{
		Name:        "reindex",
		Description: "Rebuild the index for one workspace folder, or all tracked folders when none is given.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"folder": {
					Type:        "string",
					Description: "Workspace folder to rebuild (optional)",
				},
			},
		},
	}, s.handleReindex)
}

func (s *Server) handleCompleteImport(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params CompleteImportParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("complete_import", fmt.Errorf("invalid parameters: %w", err))
	}
	if params.File == "" {
		return createErrorResponse("complete_import", errors.New("file is required"))
	}
	if params.Prefix == "" {
		return createErrorResponse("complete_import", errors.New("prefix is required"))
	}

	start := time.Now()
	completions := s.coordinator.QueryCompletions(params.File, params.Prefix)
	debug.LogMCP("complete_import %q in %s: %d results in %v", params.Prefix, params.File, len(completions), time.Since(start))

	if completions == nil {
		completions = []indexing.Completion{}
	}
	return createJSONResponse(map[string]interface{}{
		"completions": completions,
		"count":       len(completions),
	})
}

func (s *Server) handleIndexStatus(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.coordinator.StatsAll()

	folders := make([]map[string]interface{}, 0, len(stats))
	for _, st := range stats {
		folders = append(folders, map[string]interface{}{
			"folder":   st.Folder,
			"projects": st.Projects,
			"records":  st.Records,
			"files":    st.Files,
			"built_at": st.BuiltAt.Format(time.RFC3339),
		})
	}
	return createJSONResponse(map[string]interface{}{
		"server_version": version.FullInfo(),
		"folders":        folders,
	})
}

func (s *Server) handleReindex(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ReindexParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("reindex", fmt.Errorf("invalid parameters: %w", err))
	}

	start := time.Now()
	if params.Folder != "" {
		if err := s.coordinator.AddFolder(ctx, params.Folder); err != nil {
			return createErrorResponse("reindex", err)
		}
	} else {
		s.coordinator.RebuildAll(ctx)
	}
	return createJSONResponse(map[string]interface{}{
		"success":  true,
		"duration": time.Since(start).String(),
	})
}

// Run serves the MCP protocol over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	debug.LogMCP("Starting MCP server with stdio transport")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
