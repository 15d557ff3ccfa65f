package sentiment

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 250 * time.Millisecond

// Watcher reloads a Classifier whenever its lexicon file changes on disk.
// A file that fails to parse is logged and ignored; the previous keywords
// stay active.
type Watcher struct {
	path       string
	classifier *Classifier
	watcher    *fsnotify.Watcher
	onReload   func(error)
}

// NewWatcher watches path for classifier. The directory is watched rather
// than the file so that editors which replace the file on save are handled.
func NewWatcher(path string, classifier *Classifier) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create lexicon watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("resolve lexicon path: %w", err)
	}

	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{path: abs, classifier: classifier, watcher: fsWatcher}, nil
}

// OnReload registers a callback invoked after every reload attempt with its
// result. Must be called before Run.
func (w *Watcher) OnReload(fn func(error)) {
	w.onReload = fn
}

// Run processes file events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(reloadDebounce)
			fire = debounce.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[sentiment] lexicon watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	lex, err := LoadLexicon(w.path)
	if err == nil {
		err = w.classifier.Reload(lex)
	}

	if err != nil {
		log.Printf("[sentiment] lexicon reload failed, keeping previous keywords: %v", err)
	} else {
		log.Printf("[sentiment] lexicon reloaded from %s", w.path)
	}

	if w.onReload != nil {
		w.onReload(err)
	}
}
