package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// tomlConfig mirrors Config for .lmi.toml decoding. Only set keys override
// defaults.
type tomlConfig struct {
	Project struct {
		Root string `toml:"root"`
		Name string `toml:"name"`
	} `toml:"project"`
	Index struct {
		WatchMode       *bool `toml:"watch_mode"`
		WatchDebounceMs *int  `toml:"watch_debounce_ms"`
	} `toml:"index"`
	Query struct {
		MaxResults       *int  `toml:"max_results"`
		RankBySimilarity *bool `toml:"rank_by_similarity"`
	} `toml:"query"`
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// LoadTOML attempts to load configuration from a .lmi.toml file in the given
// directory. Returns (nil, nil) when no file exists.
func LoadTOML(rootDir string) (*Config, error) {
	tomlPath := filepath.Join(rootDir, ".lmi.toml")

	if _, err := os.Stat(tomlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(tomlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .lmi.toml: %w", err)
	}

	var raw tomlConfig
	if err := toml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse .lmi.toml: %w", err)
	}

	cfg := Default()
	cfg.Project.Root = raw.Project.Root
	cfg.Project.Name = raw.Project.Name
	if raw.Index.WatchMode != nil {
		cfg.Index.WatchMode = *raw.Index.WatchMode
	}
	if raw.Index.WatchDebounceMs != nil {
		cfg.Index.WatchDebounceMs = *raw.Index.WatchDebounceMs
	}
	if raw.Query.MaxResults != nil {
		cfg.Query.MaxResults = *raw.Query.MaxResults
	}
	if raw.Query.RankBySimilarity != nil {
		cfg.Query.RankBySimilarity = *raw.Query.RankBySimilarity
	}
	if len(raw.Include) > 0 {
		cfg.Include = raw.Include
	}
	cfg.MergeExcludes(raw.Exclude)

	resolveRoot(cfg, rootDir)
	return cfg, nil
}
