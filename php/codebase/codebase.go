// Package codebase indexes a directory tree of PHP sources and serves
// completions from the result.
package codebase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/glob"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/phpsense/config"
	"github.com/dhamidi/phpsense/php"
	"github.com/dhamidi/phpsense/php/completion"
)

var log = commonlog.GetLogger("phpsense.codebase")

// ErrRootUnreadable is returned by Index when the root itself cannot be
// listed. The underlying fs error is wrapped alongside it.
var ErrRootUnreadable = errors.New("root directory unreadable")

// DefaultSkipDirs are never descended into. Names starting with a dot are
// skipped as well.
var DefaultSkipDirs = []string{
	"node_modules", ".git", ".svn", ".hg", "vendor", "cache", "tmp", "temp",
	"logs", "log", "build", "dist", ".idea", ".vscode", "__pycache__",
}

type Options struct {
	Extensions []string
	BatchSize  int
	// SkipDirs extends DefaultSkipDirs.
	SkipDirs []string
	// Exclude is matched against slash-separated paths relative to the root.
	Exclude []glob.Glob
	// FS replaces os.DirFS(root), mainly for tests.
	FS fs.FS
}

// OptionsFromConfig builds Options from the [index] section.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	globs, err := config.CompileGlobs(cfg.Index.Exclude)
	if err != nil {
		return Options{}, fmt.Errorf("compile excludes: %w", err)
	}
	return Options{
		Extensions: cfg.Index.Extensions,
		BatchSize:  cfg.Index.BatchSize,
		SkipDirs:   cfg.Index.SkipDirs,
		Exclude:    globs,
	}, nil
}

type Codebase struct {
	mu      sync.RWMutex
	indexMu sync.Mutex
	root    string
	fsys    fs.FS
	opts    Options
	skip    map[string]bool
	table   *php.SymbolTable
	engine  *completion.Engine
}

func New(root string, opts Options) *Codebase {
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".php"}
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 10
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = os.DirFS(root)
	}

	skip := make(map[string]bool)
	for _, name := range DefaultSkipDirs {
		skip[name] = true
	}
	for _, name := range opts.SkipDirs {
		skip[name] = true
	}

	table := php.NewSymbolTable()
	return &Codebase{
		root:   root,
		fsys:   fsys,
		opts:   opts,
		skip:   skip,
		table:  table,
		engine: completion.NewEngine(table),
	}
}

func (c *Codebase) Root() string {
	return c.root
}

// Table returns the symbol table of the last completed run.
func (c *Codebase) Table() *php.SymbolTable {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.table
}

// Complete answers q against the last completed run. It never blocks on
// a run in progress.
func (c *Codebase) Complete(q completion.Query) []completion.Item {
	c.mu.RLock()
	engine := c.engine
	c.mu.RUnlock()
	return engine.Complete(q)
}

// SourcePath maps a path relative to the root to the path records are
// stored under.
func (c *Codebase) SourcePath(rel string) string {
	return php.NormalizePath(filepath.Join(c.root, filepath.FromSlash(rel)))
}

type IndexStats struct {
	Files      int
	Skipped    int
	Classes    int
	Functions  int
	Namespaces int
	Duration   time.Duration
}

// ProgressFunc receives the number of files processed so far after each
// batch.
type ProgressFunc func(done, total int)

// Index rebuilds the index from scratch. Files are read and parsed in
// concurrent batches; inheritance is resolved once every batch is done.
// Unreadable directories and files are logged and skipped. The new index
// replaces the old one only when the run completes.
func (c *Codebase) Index(ctx context.Context, progress ProgressFunc) (IndexStats, error) {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	start := time.Now()
	files, skipped, err := c.collect()
	if err != nil {
		return IndexStats{}, err
	}

	table := php.NewSymbolTable()
	var failed atomic.Int64
	total := len(files)
	for done := 0; done < total; {
		if err := ctx.Err(); err != nil {
			return IndexStats{}, fmt.Errorf("index %s: %w", c.root, err)
		}

		end := min(done+c.opts.BatchSize, total)
		g, gctx := errgroup.WithContext(ctx)
		for _, rel := range files[done:end] {
			rel := rel
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				data, err := fs.ReadFile(c.fsys, rel)
				if err != nil {
					// Unreadable files are skipped, not fatal.
					log.Warning("cannot read file", "path", rel, "error", err)
					failed.Add(1)
					return nil
				}
				table.IndexSource(c.SourcePath(rel), data)
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return IndexStats{}, fmt.Errorf("index %s: %w", c.root, err)
		}

		done = end
		log.Debugf("indexed %d/%d files", done, total)
		if progress != nil {
			progress(done, total)
		}
	}

	table.ResolveAll()

	c.mu.Lock()
	c.table = table
	c.engine = completion.NewEngine(table)
	c.mu.Unlock()

	st := table.Stats()
	stats := IndexStats{
		Files:      st.Files,
		Skipped:    skipped + int(failed.Load()),
		Classes:    st.Classes,
		Functions:  st.Functions,
		Namespaces: st.Namespaces,
		Duration:   time.Since(start),
	}
	log.Infof("indexed %s: %d files, %d classes, %d functions, %d skipped in %s",
		c.root, stats.Files, stats.Classes, stats.Functions, stats.Skipped, stats.Duration)
	return stats, nil
}

// collect walks the tree and returns the slash-separated relative paths of
// every source file, plus the number of directories that could not be
// listed.
func (c *Codebase) collect() ([]string, int, error) {
	var files []string
	skipped := 0
	err := fs.WalkDir(c.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return fmt.Errorf("%w: %s: %w", ErrRootUnreadable, c.root, err)
			}
			log.Warning("cannot list directory", "path", p, "error", err)
			skipped++
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != "." && c.SkipDir(p) {
				return fs.SkipDir
			}
			return nil
		}
		if c.SelectFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return files, skipped, nil
}

// SkipDir reports whether the directory at rel is never descended into.
func (c *Codebase) SkipDir(rel string) bool {
	name := path.Base(rel)
	if strings.HasPrefix(name, ".") || c.skip[name] {
		return true
	}
	return c.excluded(rel)
}

// SelectFile reports whether the file at rel is a source file to index.
func (c *Codebase) SelectFile(rel string) bool {
	name := strings.ToLower(path.Base(rel))
	for _, ext := range c.opts.Extensions {
		if strings.HasSuffix(name, ext) {
			return !c.excluded(rel)
		}
	}
	return false
}

func (c *Codebase) excluded(rel string) bool {
	for _, g := range c.opts.Exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
