package registry

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports modifications to the projects document. The downstream
// execution service's provisioner writes the same file, so out-of-band
// edits are worth surfacing in the daemon log.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
}

// NewWatcher watches the directory holding the projects document. Watching
// the directory rather than the file survives the atomic rename writes.
func NewWatcher(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch settings directory: %w", err)
	}
	return &Watcher{watcher: w, path: path}, nil
}

// Run logs changes to the projects document until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				log.Printf("[INFO] projects file changed on disk (op=%s)", ev.Op)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[WARN] projects file watcher error: %v", err)
		}
	}
}
