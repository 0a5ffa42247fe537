package templates

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
)

const reloadSettle = 200 * time.Millisecond

// DirCatalog serves the built-in templates overlaid with YAML templates from
// a directory. A template in the directory replaces a built-in with the same id.
type DirCatalog struct {
	*MemoryCatalog

	dir    string
	reg    *registry.Registry
	base   []domain.Template
	logger *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// OpenDir loads dir on top of base. A missing directory is treated as empty.
func OpenDir(dir string, reg *registry.Registry, base []domain.Template, logger *slog.Logger) (*DirCatalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &DirCatalog{
		MemoryCatalog: NewMemoryCatalog(),
		dir:           dir,
		reg:           reg,
		base:          base,
		logger:        logger,
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload rereads the directory. On error the previous templates stay in place.
func (c *DirCatalog) Reload() error {
	var fromDir []domain.Template
	if _, err := os.Stat(c.dir); err == nil {
		fromDir, err = loadFS(os.DirFS(c.dir), ".", c.reg)
		if err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat template dir: %w", err)
	}
	all := append(append([]domain.Template(nil), c.base...), fromDir...)
	c.replace(all)
	c.logger.Info("[Templates] loaded", "dir", c.dir, "builtin", len(c.base), "custom", len(fromDir))
	return nil
}

// Watch reloads the catalog whenever a template file in the directory
// changes. It returns once the watcher is running.
func (c *DirCatalog) Watch(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher != nil {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create template dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(c.dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", c.dir, err)
	}
	ctx, cancel := context.WithCancel(ctx)
	c.watcher, c.cancel, c.done = w, cancel, make(chan struct{})
	go c.loop(ctx, w, c.done)
	return nil
}

func (c *DirCatalog) loop(ctx context.Context, w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !isTemplateFile(filepath.Base(ev.Name)) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				// editors write in bursts; reload once things are quiet
				settle = time.After(reloadSettle)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			c.logger.Warn("[Templates] watcher error", "error", err)
		case <-settle:
			settle = nil
			if err := c.Reload(); err != nil {
				c.logger.Error("[Templates] reload failed", "dir", c.dir, "error", err)
			}
		}
	}
}

// Close stops the watcher, if any.
func (c *DirCatalog) Close() error {
	c.mu.Lock()
	w, cancel, done := c.watcher, c.cancel, c.done
	c.watcher, c.cancel, c.done = nil, nil, nil
	c.mu.Unlock()
	if w == nil {
		return nil
	}
	cancel()
	err := w.Close()
	<-done
	return err
}
