package config

import (
	"os"
	"path/filepath"
	"strings"

	"tsresolve/internal/core/errors"
)

type ResolvedPaths struct {
	Root      string
	IndexPath string
	// Universe is empty when the embedded ambient declarations are used.
	Universe string
}

// ResolvePaths makes every configured path absolute. Relative paths are
// taken from base, normally the directory of the config file.
func ResolvePaths(cfg *Config, base string) (ResolvedPaths, error) {
	if strings.TrimSpace(base) == "" {
		return ResolvedPaths{}, errors.New(errors.CodeValidationError, "base directory must not be empty")
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return ResolvedPaths{}, errors.Wrap(err, errors.CodeValidationError, "resolve base directory")
	}

	root := ResolveRelative(abs, cfg.Root)
	out := ResolvedPaths{
		Root:      root,
		IndexPath: ResolveRelative(root, cfg.Index.Path),
	}
	if strings.TrimSpace(cfg.Universe) != "" {
		out.Universe = ResolveRelative(root, cfg.Universe)
	}
	return out, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate until it finds a directory
// that looks like a TypeScript project. It falls back to the working
// directory.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		DefaultFile,
		"tsconfig.json",
		"package.json",
		".git",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
