package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"docsearch/internal/domain"
)

// DirSource loads documents from files under a root directory, filtered by
// doublestar include/exclude globs. Document IDs are assigned by sorted
// relative path, so an unchanged tree always loads identically.
type DirSource struct {
	root     string
	includes []string
	excludes []string
}

// NewDirSource creates a directory source.
func NewDirSource(root string, includes, excludes []string) *DirSource {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &DirSource{
		root:     root,
		includes: includes,
		excludes: excludes,
	}
}

// Load walks the tree and reads every matching file.
func (s *DirSource) Load() ([]domain.Document, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if s.matchesAny(s.excludes, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if s.matchesAny(s.includes, rel) && !s.matchesAny(s.excludes, rel) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(paths)

	docs := make([]domain.Document, 0, len(paths))
	for i, rel := range paths {
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", rel, err)
		}
		docs = append(docs, domain.Document{
			ID:       i,
			Filename: filepath.ToSlash(rel),
			Content:  string(data),
		})
	}

	return docs, nil
}

func (s *DirSource) matchesAny(patterns []string, rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, rel)
		if err == nil && matched {
			return true
		}
	}
	return false
}
