package project

import (
	"fmt"
	"path"
	"strings"

	"github.com/tidwall/gjson"

	lmierrors "github.com/standardbeagle/lmi/internal/errors"
)

// ParseRaw converts one raw configuration document into a Config. configPath
// is the workspace-relative location of the file; the project root is its
// directory. Absent keys map to unset fields, not errors, so an empty "{}"
// document yields a valid project with no aliases, base directory, or
// build-output directory.
func ParseRaw(configPath string, data []byte) (*Config, error) {
	clean := stripJSONComments(data)
	if !gjson.ValidBytes(clean) {
		return nil, lmierrors.NewConfigError(configPath, "", fmt.Errorf("invalid JSON"))
	}

	root := path.Dir(configPath)
	if root == "." {
		root = ""
	}

	cfg := &Config{
		Root:       root,
		ConfigPath: configPath,
	}

	opts := gjson.GetBytes(clean, "compilerOptions")
	if !opts.Exists() {
		return cfg, nil
	}

	if baseURL := opts.Get("baseUrl"); baseURL.Exists() {
		dir := normalizeRelDir(baseURL.String())
		cfg.BaseDir = &dir
	}

	if outDir := opts.Get("outDir"); outDir.Exists() {
		dir := normalizeRelDir(outDir.String())
		cfg.OutDir = &dir
	}

	if paths := opts.Get("paths"); paths.Exists() && paths.IsObject() {
		// gjson iterates object members in document order, which preserves the
		// declaration-order tie-break the resolver depends on.
		paths.ForEach(func(key, value gjson.Result) bool {
			mapping := AliasMapping{Pattern: key.String()}
			if value.IsArray() {
				for _, target := range value.Array() {
					mapping.Targets = append(mapping.Targets, target.String())
				}
			}
			cfg.Aliases = append(cfg.Aliases, mapping)
			return true
		})
	}

	return cfg, nil
}

// normalizeRelDir cleans a configured directory value into a root-relative
// slash path: "./src" -> "src", "." -> "", trailing slashes dropped.
func normalizeRelDir(dir string) string {
	dir = strings.ReplaceAll(dir, "\\", "/")
	dir = path.Clean(dir)
	dir = strings.TrimPrefix(dir, "./")
	if dir == "." || dir == "/" {
		return ""
	}
	return strings.Trim(dir, "/")
}

// stripJSONComments removes // and /* */ comments so that JSONC documents
// (the de facto tsconfig dialect) parse as plain JSON. String literals are
// respected; comment bytes are replaced with spaces to keep offsets stable.
func stripJSONComments(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)

	const (
		stateCode = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateCode
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch state {
		case stateCode:
			switch {
			case c == '"':
				state = stateString
			case c == '/' && i+1 < len(out) && out[i+1] == '/':
				state = stateLineComment
				out[i] = ' '
			case c == '/' && i+1 < len(out) && out[i+1] == '*':
				state = stateBlockComment
				out[i] = ' '
			}
		case stateString:
			if c == '\\' {
				i++ // skip escaped character
			} else if c == '"' {
				state = stateCode
			}
		case stateLineComment:
			if c == '\n' {
				state = stateCode
			} else {
				out[i] = ' '
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i] = ' '
				out[i+1] = ' '
				i++
				state = stateCode
			} else if c != '\n' {
				out[i] = ' '
			}
		}
	}

	return out
}
