package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lmi/internal/config"
	"github.com/standardbeagle/lmi/internal/debug"
	"github.com/standardbeagle/lmi/internal/indexing"
	"github.com/standardbeagle/lmi/internal/mcp"
	"github.com/standardbeagle/lmi/internal/version"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.MergeExcludes(excludeFlags)
	}
	if root != "" {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
		}
		cfg.Project.Root = absRoot
	}
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newCoordinator(cfg *config.Config) *indexing.Coordinator {
	scanner := indexing.NewFileScanner(cfg.Exclude)
	return indexing.NewCoordinator(cfg, scanner, scanner)
}

func main() {
	app := &cli.App{
		Name:                   "lmi",
		Usage:                  "Lightning module index: import completion for multi-project workspaces",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Workspace folder to index (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include 'src/**/*.ts')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/generated/**')",
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Build the index for the workspace folder and print statistics",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: indexCommand,
			},
			{
				Name:    "complete",
				Aliases: []string{"c"},
				Usage:   "Query import completions: lmi complete <file> <prefix>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: completeCommand,
			},
			{
				Name:    "status",
				Aliases: []string{"st"},
				Usage:   "Show per-folder index statistics",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: statusCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Start MCP (Model Context Protocol) server with stdio transport",
				Action: mcpCommand,
			},
			{
				Name:   "version",
				Usage:  "Show version information",
				Action: versionCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func indexCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	coordinator := newCoordinator(cfg)
	if err := coordinator.AddFolder(context.Background(), cfg.Project.Root); err != nil {
		return err
	}
	return printStats(c, coordinator.StatsAll())
}

func completeCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: lmi complete <file> <prefix>")
	}
	file, prefix := c.Args().Get(0), c.Args().Get(1)

	absFile, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve file path %q: %w", file, err)
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	coordinator := newCoordinator(cfg)
	if err := coordinator.AddFolder(context.Background(), cfg.Project.Root); err != nil {
		return err
	}

	completions := coordinator.QueryCompletions(absFile, prefix)
	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(completions)
	}
	for _, comp := range completions {
		fmt.Printf("%s\t%s\n", comp.ModuleName, comp.ImportPath)
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	coordinator := newCoordinator(cfg)
	if err := coordinator.AddFolder(context.Background(), cfg.Project.Root); err != nil {
		return err
	}
	return printStats(c, coordinator.StatsAll())
}

func printStats(c *cli.Context, stats []indexing.Stats) error {
	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(stats)
	}
	for _, st := range stats {
		fmt.Printf("%s: %d projects, %d records, %d files (built %s)\n",
			st.Folder, st.Projects, st.Records, st.Files, st.BuiltAt.Format("15:04:05"))
	}
	return nil
}

func mcpCommand(c *cli.Context) error {
	// Stdout carries the protocol; debug output goes to a log file instead.
	debug.SetMCPMode(true)
	if _, err := debug.InitDebugLogFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug log unavailable: %v\n", err)
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	coordinator := newCoordinator(cfg)
	if err := coordinator.AddFolder(context.Background(), cfg.Project.Root); err != nil {
		debug.LogMCP("initial index build failed: %v", err)
	}

	var watcher *indexing.FileWatcher
	if cfg.Index.WatchMode {
		watcher, err = indexing.NewFileWatcher(cfg, coordinator)
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		if err := watcher.Start(cfg.Project.Root); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		defer watcher.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	server := mcp.NewServer(cfg, coordinator)
	return server.Run(ctx)
}

func versionCommand(c *cli.Context) error {
	fmt.Println(version.FullInfo())
	return nil
}
