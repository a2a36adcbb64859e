package state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/mkendall/drover/internal/logging"
)

// Watcher delivers a notification whenever the state file changes.
//
// It watches the parent directory rather than the file itself: saves go
// through a rename, which replaces the inode and would silently detach a
// watch registered on the file. Notifications are coalesced into a
// buffered channel of capacity 1, so a slow consumer sees "something
// changed" rather than a backlog of individual events.
type Watcher struct {
	fw     *fsnotify.Watcher
	events chan struct{}
	done   chan struct{}
}

// NewWatcher starts watching the given state file for changes.
// Close must be called on every resolution path to release the watch.
func NewWatcher(path string, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		fw:     fw,
		events: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	name := filepath.Base(path)
	go func() {
		for {
			select {
			case <-w.done:
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != name {
					continue
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
					continue
				}
				select {
				case w.events <- struct{}{}:
				default: // already pending
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				logger.Warn("state watcher error", "error", err.Error())
			}
		}
	}()

	return w, nil
}

// Events returns the change notification channel.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher and releases its resources. Safe to call once.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}
