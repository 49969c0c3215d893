// Package workspace resolves relative asset references, as they appear inside
// documents, to absolute file paths inside a workspace root.
//
// Resolution is index-based: the root is walked once and files are indexed by
// base name. A reference like "images/logo.jpg" first matches on base name,
// then narrows to entries whose path ends with the full reference. When more
// than one file still matches, the lexicographically smallest absolute path
// wins, so resolution is deterministic for any fixed workspace state.
//
// Usage:
//
//	res, err := workspace.NewDirResolver(workspace.Config{Root: "/project"})
//	abs, err := res.Resolve("images/logo.jpg")
//	if errors.Is(err, workspace.ErrNotFound) { ... skip the node ... }
package workspace

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrNotFound is returned when no file in the workspace matches a reference.
// Callers treat it as a recoverable, node-local condition.
var ErrNotFound = errors.New("workspace: no matching file")

// Resolver maps a relative asset reference to an absolute file path.
type Resolver interface {
	Resolve(ref string) (string, error)
}

// Config configures a DirResolver.
type Config struct {
	// Root is the workspace directory to index.
	Root string `json:"root" yaml:"root"`

	// Debounce is the quiet period after a file-system event before the
	// index is rebuilt when watching (default: 500ms).
	Debounce time.Duration `json:"debounce" yaml:"debounce"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.Debounce <= 0 {
		c.Debounce = 500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// DirResolver resolves references against an indexed directory tree.
// It is safe for concurrent use once created.
type DirResolver struct {
	cfg  Config
	root string

	mu      sync.RWMutex
	byBase  map[string][]string // base name -> absolute paths, sorted
	subdirs []string            // indexed directories, for the watcher
}

// NewDirResolver indexes the configured root and returns a resolver.
func NewDirResolver(cfg Config) (*DirResolver, error) {
	cfg.defaults()
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	r := &DirResolver{cfg: cfg, root: root}
	if err := r.Rescan(); err != nil {
		return nil, err
	}
	return r, nil
}

// Rescan rebuilds the index from the file system.
func (r *DirResolver) Rescan() error {
	byBase := make(map[string][]string)
	var subdirs []string

	err := filepath.WalkDir(r.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			r.cfg.Logger.Debug("workspace scan skip", "path", p, "error", err)
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != r.root {
				return fs.SkipDir
			}
			subdirs = append(subdirs, p)
			return nil
		}
		base := d.Name()
		byBase[base] = append(byBase[base], p)
		return nil
	})
	if err != nil {
		return err
	}

	for base := range byBase {
		sort.Strings(byBase[base])
	}

	r.mu.Lock()
	r.byBase = byBase
	r.subdirs = subdirs
	r.mu.Unlock()
	return nil
}

// Resolve returns the absolute path for a relative reference, or ErrNotFound.
func (r *DirResolver) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrNotFound
	}
	clean := path.Clean(filepath.ToSlash(ref))
	base := path.Base(clean)

	r.mu.RLock()
	candidates := r.byBase[base]
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return "", ErrNotFound
	}

	// Prefer candidates whose path carries the full relative reference;
	// fall back to base-name matches. Candidate lists are sorted, so the
	// first hit is the lexicographic tie-break.
	if base != clean {
		suffix := "/" + clean
		for _, p := range candidates {
			if strings.HasSuffix(filepath.ToSlash(p), suffix) {
				return p, nil
			}
		}
	}
	return candidates[0], nil
}

// Watch keeps the index fresh until ctx is done, rebuilding it after a
// debounce window whenever the file system changes. It blocks.
func (r *DirResolver) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	r.mu.RLock()
	dirs := append([]string(nil), r.subdirs...)
	r.mu.RUnlock()
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			r.cfg.Logger.Warn("workspace watch add failed", "dir", d, "error", err)
		}
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// Newly created directories need their own watch.
			if ev.Op&fsnotify.Create != 0 {
				if err := w.Add(ev.Name); err == nil {
					r.cfg.Logger.Debug("workspace watch extended", "dir", ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(r.cfg.Debounce)
				timerC = timer.C
			} else {
				timer.Reset(r.cfg.Debounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.cfg.Logger.Warn("workspace watch error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			if err := r.Rescan(); err != nil {
				r.cfg.Logger.Warn("workspace rescan failed", "error", err)
			} else {
				r.cfg.Logger.Debug("workspace index rebuilt")
			}
		}
	}
}
