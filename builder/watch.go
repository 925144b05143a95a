package builder

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period Watch waits for before rebuilding.
const DefaultDebounce = 200 * time.Millisecond

// Watch rebuilds outdated documents whenever a tree file or numbering table
// under the source directory changes. Bursts of events within debounce are
// batched into one rebuild. It returns when ctx is done; onBuild, if not nil,
// receives the report of every rebuild.
func (b *Builder) Watch(ctx context.Context, debounce time.Duration, onBuild func(BuildReport)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, b.cfg.SourceDir); err != nil {
		return err
	}
	b.log.Info("watching", "dir", b.cfg.SourceDir)

	var timer *time.Timer
	var timerC <-chan time.Time
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}
	defer stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(watcher, event.Name); err != nil {
						b.log.Warn("failed to watch directory", "dir", event.Name, "error", err)
					}
				}
			}
			if !b.isSourceFile(event.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil

			report, err := b.BuildOutdated(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				b.log.Error("rebuild failed", "error", err)
				continue
			}
			if onBuild != nil {
				onBuild(report)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.log.Warn("watch error", "error", err)
		}
	}
}

// isSourceFile reports whether a change to path can make a document outdated.
func (b *Builder) isSourceFile(path string) bool {
	if strings.HasSuffix(path, secnumSuffix) {
		return true
	}
	_, ok := b.docnameForPath(path)
	return ok
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
