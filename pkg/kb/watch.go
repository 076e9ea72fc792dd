package kb

import (
	"context"
	"path/filepath"

	"github.com/flyboard/agentd/pkg/utils/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/m-mizutani/goerr/v2"
)

// Watch pre-warms the index when the knowledge base document is rewritten,
// so the first search after an update does not pay the parse cost. The
// mtime check in the cache stays authoritative; missing an event here only
// defers the rebuild to the next search. Blocks until ctx is done.
func (e *Engine) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return goerr.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	// Watch the parent directory: editors and atomic writers replace the
	// file, which drops a watch placed on the file itself.
	target := filepath.Clean(e.cache.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return goerr.Wrap(err, "failed to watch knowledge base directory", goerr.V("path", target))
	}

	logger := logging.From(ctx)
	logger.Info("watching knowledge base document", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := e.cache.Refresh(); err != nil {
				logger.Warn("failed to refresh knowledge base index", "error", err)
			} else {
				logger.Debug("knowledge base index refreshed", "path", target)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("knowledge base watcher error", "error", err)
		}
	}
}
