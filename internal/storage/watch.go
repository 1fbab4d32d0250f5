// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce groups the burst of events an atomic rename produces.
const DefaultWatchDebounce = 250 * time.Millisecond

// ErrAlreadyWatching is returned by a second Watch call on the same FileKV.
var ErrAlreadyWatching = errors.New("store is already being watched")

type watcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup
}

// Watch calls onChange after another process rewrites the store file. The
// new contents are already loaded when onChange runs. Writes made through
// this FileKV are not reported. Watching stops on Close.
//
// The parent directory is watched rather than the file, because atomic
// writes replace the file's inode.
func (f *FileKV) Watch(debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if f.watcher != nil {
		return ErrAlreadyWatching
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(f.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(f.path), err)
	}

	w := &watcher{fs: fsw, done: make(chan struct{})}
	f.watcher = w
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		f.watchLoop(w, debounce, onChange)
	}()
	return nil
}

func (f *FileKV) watchLoop(w *watcher, debounce time.Duration, onChange func()) {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed, err := f.reload()
			if err == nil && changed && onChange != nil {
				onChange()
			}

		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *watcher) close() error {
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}
