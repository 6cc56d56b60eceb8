package app

import (
	"io/fs"
	"path/filepath"
	"sort"

	"tsresolve/internal/shared/util"
)

// Discover lists the source files under the project root, skipping
// excluded directories and files. The result is sorted.
func (a *Analyzer) Discover() ([]string, error) {
	var files []string
	err := filepath.WalkDir(a.paths.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		base := filepath.Base(path)
		if d.IsDir() {
			if path == a.paths.Root {
				return nil
			}
			if a.ExcludesDir(base) {
				return filepath.SkipDir
			}
			return nil
		}

		if !a.parser.IsSupportedPath(path) {
			return nil
		}
		if a.excludedFile(base) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ExcludesDir reports whether a directory base name matches an exclude pattern.
func (a *Analyzer) ExcludesDir(base string) bool {
	for _, g := range a.dirGlobs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (a *Analyzer) excludedFile(base string) bool {
	for _, g := range a.fileGlobs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// Relevant reports whether a changed path can affect analysis results.
func (a *Analyzer) Relevant(path string) bool {
	if !a.parser.IsSupportedPath(path) {
		return filepath.Base(path) == "package.json"
	}
	if a.excludedFile(filepath.Base(path)) {
		return false
	}
	if !util.HasPathPrefix(filepath.ToSlash(path), filepath.ToSlash(a.paths.Root)) {
		return false
	}
	rel, err := filepath.Rel(a.paths.Root, filepath.Dir(path))
	if err != nil {
		return false
	}
	for dir := rel; dir != "." && dir != "" && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		if a.ExcludesDir(filepath.Base(dir)) {
			return false
		}
	}
	return true
}
