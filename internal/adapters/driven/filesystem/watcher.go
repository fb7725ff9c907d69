package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
	"github.com/custodia-labs/taxadvisor/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.FileWatcher = (*Watcher)(nil)

// Watcher reports changes to supported files under a root directory.
type Watcher struct {
	root string
}

// NewWatcher creates a filesystem watcher.
func NewWatcher() *Watcher {
	return &Watcher{}
}

// Watch blocks, sending changes until ctx is cancelled.
// New subdirectories are added to the watch list as they appear.
func (w *Watcher) Watch(ctx context.Context, root string, changes chan<- domain.FileChange) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve documents path: %w", err)
	}
	w.root = absRoot

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := addTree(fsw, absRoot); err != nil {
		return err
	}
	logger.Debug("watching %s", absRoot)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(info.Name()) {
					if err := addTree(fsw, event.Name); err != nil {
						logger.Warn("watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			change := w.handleFsEvent(event)
			if change == nil {
				continue
			}
			select {
			case changes <- *change:
			case <-ctx.Done():
				return nil
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

// handleFsEvent converts an fsnotify event into a FileChange.
// It returns nil for events that do not affect the index.
func (w *Watcher) handleFsEvent(event fsnotify.Event) *domain.FileChange {
	name := filepath.Base(event.Name)
	if isHidden(name) || DetectFormat(event.Name) == "" {
		return nil
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return nil
	}
	rel = filepath.ToSlash(rel)

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.FileChange{Type: domain.ChangeDeleted, Path: rel}
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
			return nil
		}
		return &domain.FileChange{Type: domain.ChangeCreated, Path: rel}
	case event.Has(fsnotify.Write):
		return &domain.FileChange{Type: domain.ChangeUpdated, Path: rel}
	default:
		return nil
	}
}

// addTree watches dir and every visible subdirectory.
func addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
