// Package searchpath computes the ordered, deduplicated list of
// directories scanned for custom fact files.
package searchpath

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FactsDirName is the subdirectory of a load-path entry that holds fact
// files.
const FactsDirName = "facts"

// EnvVar names the environment variable supplying extra search
// directories, separated by the OS path-list separator.
const EnvVar = "SYSFACTSLIB"

// Options configures one resolution pass.
type Options struct {
	// LoadPath is the embedded interpreter's module search path.
	LoadPath []string

	// EntryPoint is the file whose presence marks the distribution's own
	// root; such load-path entries are skipped.
	EntryPoint string

	// Explicit paths are appended last, after load-path and environment
	// derived entries.
	Explicit []string

	Log *zap.Logger
}

// Resolve produces the search path. Sources are appended in priority
// order (load path, environment, explicit), then every entry is
// canonicalized and the list deduplicated keeping the first occurrence.
func Resolve(opts Options) []string {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	var paths []string

	// Load-path entries contribute their "facts" subdirectory, skipping
	// the distribution's own root.
	for _, entry := range opts.LoadPath {
		dir, err := canonicalize(entry)
		if err != nil {
			continue
		}
		if opts.EntryPoint != "" {
			if info, err := os.Stat(filepath.Join(dir, opts.EntryPoint)); err == nil && info.Mode().IsRegular() {
				continue
			}
		}
		factsDir := filepath.Join(dir, FactsDirName)
		if info, err := os.Stat(factsDir); err != nil || !info.IsDir() {
			continue
		}
		paths = append(paths, factsDir)
	}

	if value := os.Getenv(EnvVar); value != "" {
		paths = append(paths, filepath.SplitList(value)...)
	}

	paths = append(paths, opts.Explicit...)

	// Canonical transform, dropping anything unresolvable.
	resolved := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		dir, err := canonicalize(p)
		if err != nil {
			log.Debug("path will not be searched for custom facts",
				zap.String("path", p), zap.Error(err))
			continue
		}
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		resolved = append(resolved, dir)
	}
	return resolved
}

// Canonicalize resolves a path to its absolute, symlink-free form. It
// fails when the path does not exist.
func Canonicalize(path string) (string, error) {
	return canonicalize(path)
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
