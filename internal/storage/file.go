// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/geminichat/internal/util"
)

// FileKV stores every key in one JSON object file. Each Set rewrites the
// whole file with util.AtomicWriteFile, so the file on disk always matches
// the last completed write.
type FileKV struct {
	path string

	mu          sync.RWMutex
	data        map[string]string
	lastWritten []byte
	closed      bool
	watcher     *watcher
}

// OpenFile opens or creates a FileKV at path.
func OpenFile(path string) (*FileKV, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store path: %w", err)
	}
	f := &FileKV{path: abs, data: make(map[string]string)}
	if _, err := f.reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the absolute path of the store file.
func (f *FileKV) Path() string {
	return f.path
}

// Get implements KV.
func (f *FileKV) Get(key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return "", false, ErrClosed
	}
	v, ok := f.data[key]
	return v, ok, nil
}

// Set implements KV.
func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	prev, had := f.data[key]
	f.data[key] = value
	if err := f.flushLocked(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

// Delete implements KV.
func (f *FileKV) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	prev, had := f.data[key]
	if !had {
		return nil
	}
	delete(f.data, key)
	if err := f.flushLocked(); err != nil {
		f.data[key] = prev
		return err
	}
	return nil
}

// Close implements KV. It also stops a running watch.
func (f *FileKV) Close() error {
	f.mu.Lock()
	w := f.watcher
	f.watcher = nil
	f.closed = true
	f.mu.Unlock()

	if w != nil {
		return w.close()
	}
	return nil
}

// Reload re-reads the file from disk. It reports whether the contents
// differ from what this FileKV last wrote or read.
func (f *FileKV) Reload() (bool, error) {
	return f.reload()
}

func (f *FileKV) reload() (bool, error) {
	// Read under the lock so a concurrent Set cannot be mistaken for an
	// external change.
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read store: %w", err)
	}
	if bytes.Equal(raw, f.lastWritten) {
		return false, nil
	}

	data := make(map[string]string)
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
		}
	}
	f.data = data
	f.lastWritten = raw
	return true, nil
}

func (f *FileKV) flushLocked() error {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	if err := util.AtomicWriteFile(f.path, raw, 0600); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	f.lastWritten = raw
	return nil
}
