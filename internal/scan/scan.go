// Package scan discovers schema definition files under a project root and
// extracts their override usages.
package scan

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"dbtidy/internal/errs"
	"dbtidy/internal/extract"
	"dbtidy/internal/schema"
	"dbtidy/internal/usage"
)

// Kind classifies a schema definition file.
type Kind string

const (
	KindCollection Kind = "collection"
	KindGlobal     Kind = "global"
	KindField      Kind = "field"
)

// File is one discovered schema definition file. Immutable once produced.
type File struct {
	Path   string
	Kind   Kind
	Tree   *schema.Tree
	Usages []usage.Usage
}

// Options configures a Scanner.
type Options struct {
	MaxIdentifierLength int
	IncludePatterns     []string
	ExcludePatterns     []string
	Workers             int
}

// Scanner walks a project tree and produces Files. Stateless across runs
// except for the content-keyed parse cache, which only ever maps a content
// hash to its tree and is therefore safe to reuse.
type Scanner struct {
	extractor extract.Extractor
	log       *errs.Log
	opts      Options
	cache     *lru.Cache[string, *schema.Tree]
}

const cacheSize = 256

// NewScanner builds a Scanner around the given extractor and log.
func NewScanner(ex extract.Extractor, log *errs.Log, opts Options) *Scanner {
	if opts.MaxIdentifierLength <= 0 {
		opts.MaxIdentifierLength = usage.DefaultMaxIdentifierLength
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	cache, err := lru.New[string, *schema.Tree](cacheSize)
	if err != nil {
		panic(fmt.Sprintf("scan.NewScanner: %v", err))
	}
	return &Scanner{extractor: ex, log: log, opts: opts, cache: cache}
}

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"vendor":       true,
	"coverage":     true,
	".next":        true,
	"tests":        true,
	"test":         true,
	"__tests__":    true,
}

// schemaDirs are directory names that mark their contents as schema files.
var schemaDirs = map[string]bool{
	"collections": true,
	"globals":     true,
	"fields":      true,
	"blocks":      true,
}

// Scan walks root and returns one File per parseable schema definition,
// ordered by path. Individual unreadable or unparseable files are recorded
// as diagnostics and skipped; only an inaccessible root is an error.
func (s *Scanner) Scan(ctx context.Context, root string) ([]File, error) {
	if _, err := os.Stat(root); err != nil {
		s.log.Add(errs.Entry{
			Category: errs.CategoryFilesystem,
			Severity: errs.SeverityCritical,
			Path:     root,
			Message:  fmt.Sprintf("project root inaccessible: %v", err),
		})
		return nil, fmt.Errorf("scan.Scan: %w", err)
	}

	paths, err := s.candidates(root)
	if err != nil {
		return nil, fmt.Errorf("scan.Scan: %w", err)
	}
	if len(paths) == 0 {
		s.log.Addf(errs.CategoryFilesystem, errs.SeverityLow, root,
			"no schema definition files found")
		return []File{}, nil
	}

	files := s.extractAll(ctx, paths)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// candidates walks the tree and returns the paths worth extracting.
func (s *Scanner) candidates(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Addf(errs.CategoryFilesystem, errs.SeverityMedium, path, "walk: %v", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if s.candidate(filepath.ToSlash(rel)) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func (s *Scanner) candidate(rel string) bool {
	for _, p := range s.opts.ExcludePatterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	for _, p := range s.opts.IncludePatterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}

	ext := filepath.Ext(rel)
	if ext != ".ts" && ext != ".js" {
		return false
	}
	base := filepath.Base(rel)
	if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") ||
		strings.HasSuffix(base, ".d.ts") {
		return false
	}
	for _, dir := range strings.Split(filepath.Dir(rel), "/") {
		if schemaDirs[dir] {
			return true
		}
	}
	return false
}

// extractAll parses candidates with a small worker pool. File I/O is the
// only blocking operation; order is restored by the caller's sort.
func (s *Scanner) extractAll(ctx context.Context, paths []string) []File {
	jobs := make(chan string)
	results := make(chan File)

	var wg sync.WaitGroup
	for range s.opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if f, ok := s.extractOne(path); ok {
					results <- f
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range paths {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var files []File
	for f := range results {
		files = append(files, f)
	}
	return files
}

func (s *Scanner) extractOne(path string) (File, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		s.log.Addf(errs.CategoryFilesystem, errs.SeverityMedium, path, "read: %v", err)
		return File{}, false
	}

	key := fmt.Sprintf("%x", sha256.Sum256(content))
	tree, ok := s.cache.Get(key)
	if !ok {
		tree, err = s.extractor.Extract(content, path)
		if err != nil {
			s.log.Add(errs.Entry{
				Category:   errs.CategoryParse,
				Severity:   errs.SeverityMedium,
				Path:       path,
				Message:    err.Error(),
				Suggestion: "file skipped; fix the syntax or exclude the path",
			})
			return File{}, false
		}
		s.cache.Add(key, tree)
	}

	return File{
		Path:   path,
		Kind:   classify(path, tree),
		Tree:   tree,
		Usages: usage.Extract(tree, path, s.opts.MaxIdentifierLength),
	}, true
}

// classify determines the file kind by directory convention, falling back
// to the shape of the extracted tree.
func classify(path string, tree *schema.Tree) Kind {
	for _, dir := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		switch dir {
		case "collections":
			return KindCollection
		case "globals":
			return KindGlobal
		case "fields", "blocks":
			return KindField
		}
	}
	if tree.Name != "" && len(tree.Fields) > 0 {
		return KindCollection
	}
	return KindField
}
