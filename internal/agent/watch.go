package agent

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultWatchDebounce coalesces a burst of filesystem events (e.g. a save
// that touches several files, or an editor's atomic-rename write) into one
// snapshot refresh.
const defaultWatchDebounce = 250 * time.Millisecond

// watcher flips contextDirty when a file under DefaultRoot changes outside
// a tool call (an editor, a background build, `git checkout`), so the next
// turn's snapshot reflects the workspace as it actually is rather than as
// it was when the conversation started.
type watcher struct {
	fs     *fsnotify.Watcher
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// StartWatching begins watching l.Runtime.DefaultRoot for external edits.
// It is a no-op if called twice or if the watcher cannot be constructed
// (e.g. inotify limits exhausted); watching is an enrichment, not a
// correctness requirement, so a failure here is shown as an info message
// and swallowed.
func (l *Loop) StartWatching(ctx context.Context) {
	if l.watch != nil {
		return
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		l.Renderer.DisplayInfo("file watching disabled: " + err.Error())
		return
	}
	if err := addWatchTree(fsw, l.Runtime.DefaultRoot); err != nil {
		l.Renderer.DisplayInfo("file watching disabled: " + err.Error())
		_ = fsw.Close()
		return
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w := &watcher{fs: fsw, cancel: cancel}
	l.watch = w

	w.wg.Add(1)
	go l.watchLoop(watchCtx, fsw)
}

// StopWatching releases the watcher, if one is running.
func (l *Loop) StopWatching() {
	if l.watch == nil {
		return
	}
	l.watch.cancel()
	_ = l.watch.fs.Close()
	l.watch.wg.Wait()
	l.watch = nil
}

func (l *Loop) watchLoop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer l.watch.wg.Done()

	var mu sync.Mutex
	var timer *time.Timer
	scheduleRefresh := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(defaultWatchDebounce, func() {
			l.markContextDirty()
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fsw.Add(event.Name)
				}
			}
			scheduleRefresh()
		case _, ok := <-fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (l *Loop) markContextDirty() {
	l.contextDirty.Store(true)
}

// addWatchTree registers fsw on root and every directory beneath it,
// skipping .git and node_modules trees.
// fsnotify watches are non-recursive, so each directory needs its own Add.
func addWatchTree(fsw *fsnotify.Watcher, root string) error {
	return walkDirs(root, func(dir string) error {
		return fsw.Add(dir)
	})
}

func walkDirs(root string, fn func(dir string) error) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	if err := fn(root); err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == ".git" || name == "node_modules" {
			continue
		}
		_ = walkDirs(filepath.Join(root, name), fn)
	}
	return nil
}
