package docrag

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileEntry pairs a file's filesystem location with the logical path it
// is identified by in the index.
type FileEntry struct {
	AbsPath     string
	DisplayPath string
}

// FileFilter decides which relative paths are ingested: the extension
// allow-list, the fixed directory prune list and the config glob excludes.
type FileFilter struct {
	extensions  map[string]bool
	excludeDirs map[string]bool
	exclude     []string
}

func NewFileFilter(cfg Config) *FileFilter {
	exts := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		exts[strings.ToLower(ext)] = true
	}
	dirs := make(map[string]bool, len(cfg.ExcludeDirs))
	for _, dir := range cfg.ExcludeDirs {
		dirs[dir] = true
	}
	return &FileFilter{
		extensions:  exts,
		excludeDirs: dirs,
		exclude:     cfg.Exclude,
	}
}

func (f *FileFilter) AllowedExtension(path string) bool {
	return f.extensions[strings.ToLower(filepath.Ext(path))]
}

func (f *FileFilter) PruneDir(name string) bool {
	return f.excludeDirs[name]
}

func (f *FileFilter) Excluded(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range f.exclude {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, filepath.Base(relPath)); matched {
			return true
		}
	}
	return false
}

// CollectFiles enumerates the configured (repo, subpath) pairs under the
// repos directory. Missing checkouts are logged and skipped. The result
// order is deterministic: repos are visited in sorted order and directory
// walks are lexical.
func CollectFiles(cfg Config) []FileEntry {
	filter := NewFileFilter(cfg)
	var files []FileEntry

	repos := make([]string, 0, len(cfg.RepoPaths))
	for repo := range cfg.RepoPaths {
		repos = append(repos, repo)
	}
	sort.Strings(repos)

	for _, repo := range repos {
		repoDir := filepath.Join(cfg.ReposDir, repo)
		if _, err := os.Stat(repoDir); err != nil {
			log.Printf("repo not found, skipping: %s", repoDir)
			continue
		}
		for _, rel := range cfg.RepoPaths[repo] {
			target := filepath.Join(repoDir, rel)
			info, err := os.Stat(target)
			if err != nil {
				continue
			}
			if !info.IsDir() {
				if filter.AllowedExtension(target) && !filter.Excluded(rel) {
					files = append(files, FileEntry{
						AbsPath:     target,
						DisplayPath: repo + "/" + filepath.ToSlash(rel),
					})
				}
				continue
			}
			files = append(files, walkSubdir(repo, repoDir, target, filter)...)
		}
	}
	return files
}

func walkSubdir(repo, repoDir, target string, filter *FileFilter) []FileEntry {
	var files []FileEntry
	_ = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != target && filter.PruneDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !filter.AllowedExtension(path) {
			return nil
		}
		rel, err := filepath.Rel(repoDir, path)
		if err != nil {
			return nil
		}
		if filter.Excluded(rel) {
			return nil
		}
		files = append(files, FileEntry{
			AbsPath:     path,
			DisplayPath: repo + "/" + filepath.ToSlash(rel),
		})
		return nil
	})
	return files
}
