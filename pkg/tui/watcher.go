package tui

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

const debounce = 200 * time.Millisecond

// skipDir reports whether a directory under the data root should not be watched.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "logs"
}

// watchable reports whether a change to the named file should reload the TUI:
// markdown records of the file store, or the SQLite database and its WAL.
func watchable(name string) bool {
	base := filepath.Base(name)
	switch {
	case strings.HasPrefix(base, "."):
		return false
	case strings.HasSuffix(base, ".md"):
		return true
	case strings.HasSuffix(base, ".db"), strings.HasSuffix(base, ".db-wal"):
		return true
	}
	return false
}

// StartWatcher watches the data directory for changes and sends FileChangedMsg.
func StartWatcher(root string, program *tea.Program) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != root && skipDir(info.Name()) {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})

	go func() {
		var timer *time.Timer

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// New goal directories appear while the TUI runs.
				if event.Op&fsnotify.Create != 0 {
					info, err := os.Stat(event.Name)
					if err == nil && info.IsDir() && !skipDir(info.Name()) {
						watcher.Add(event.Name)
						continue
					}
				}
				if !watchable(event.Name) {
					continue
				}

				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, func() {
					program.Send(FileChangedMsg{})
				})

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}

			case <-done:
				return
			}
		}
	}()

	cleanup := func() {
		close(done)
		watcher.Close()
	}

	return cleanup, nil
}
