package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce batches the burst of events an editor produces on save.
const watchDebounce = 200 * time.Millisecond

// datasetWatcher reports writes to one dataset file. It watches the parent
// directory so saves that replace the file by rename are still seen.
type datasetWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *log.Logger
	debounce time.Duration
}

func newDatasetWatcher(path string, logger *log.Logger) (*datasetWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}
	return &datasetWatcher{path: abs, watcher: w, logger: logger, debounce: watchDebounce}, nil
}

// run calls onChange after each settled burst of changes to the file until
// ctx is cancelled. Errors from onChange are logged and watching continues.
func (d *datasetWatcher) run(ctx context.Context, onChange func() error) error {
	defer d.watcher.Close()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-d.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != d.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				d.logger.Debug("dataset changed", "path", d.path, "op", event.Op.String())
				fire = time.After(d.debounce)
			}
		case <-fire:
			fire = nil
			if err := onChange(); err != nil {
				d.logger.Debug("re-solve failed", "err", err)
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("watch error", "err", err)
		}
	}
}
