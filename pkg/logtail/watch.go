package logtail

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// initWatcher watches the directory holding path, so the tailer also sees
// the file being recreated. It returns nil when the watcher cannot be set
// up; the tailer then only polls.
func initWatcher(path string, logger *slog.Logger) *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("fsnotify: failed to create watcher, falling back to polling", "error", err)
		return nil
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		logger.Warn("fsnotify: failed to watch, falling back to polling", "dir", dir, "error", err)
		return nil
	}
	return watcher
}

func sameFile(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
