package indexing

import "context"

// RawConfig is one discovered project configuration file: its
// workspace-relative location and raw contents.
type RawConfig struct {
	Path string
	Data []byte
}

// ConfigSource supplies the project configuration files of a workspace
// folder, dependency directories excluded. Implementations may read files in
// parallel; only the assembled result matters.
type ConfigSource interface {
	ConfigFiles(ctx context.Context, folder string) ([]RawConfig, error)
}

// FileEnumerator lists candidate files of a workspace folder matching the
// include globs and not matching the exclude globs. Paths are
// workspace-relative and slash-separated.
type FileEnumerator interface {
	Enumerate(folder string, include, exclude []string) ([]string, error)
}
