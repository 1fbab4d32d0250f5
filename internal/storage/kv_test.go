// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// BACKEND CONTRACT
// =============================================================================

type backendFactory struct {
	name string
	open func(t *testing.T, path string) KV
	ext  string
}

var backends = []backendFactory{
	{"memory", func(t *testing.T, _ string) KV { return NewMemory() }, ""},
	{"file", func(t *testing.T, path string) KV {
		kv, err := OpenFile(path)
		require.NoError(t, err)
		return kv
	}, ".json"},
	{"sqlite", func(t *testing.T, path string) KV {
		kv, err := OpenSQLite(path)
		require.NoError(t, err)
		return kv
	}, ".db"},
}

func TestKV_Contract(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			kv := b.open(t, filepath.Join(t.TempDir(), "store"+b.ext))
			defer kv.Close()

			_, ok, err := kv.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set("gemini_theme", "dark"))
			require.NoError(t, kv.Set("gemini_theme", "light"))
			v, ok, err := kv.Get("gemini_theme")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "light", v)

			require.NoError(t, kv.Set("empty", ""))
			v, ok, err = kv.Get("empty")
			require.NoError(t, err)
			assert.True(t, ok, "empty values must still exist")
			assert.Equal(t, "", v)

			require.NoError(t, kv.Delete("gemini_theme"))
			require.NoError(t, kv.Delete("gemini_theme"))
			_, ok, err = kv.Get("gemini_theme")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestKV_PersistsAcrossReopen(t *testing.T) {
	for _, b := range backends[1:] {
		t.Run(b.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "store"+b.ext)
			payload := `[{"id":"conv_1","title":"日本語 \"quoted\""}]`

			kv := b.open(t, path)
			require.NoError(t, kv.Set("gemini_conversations", payload))
			require.NoError(t, kv.Close())

			kv = b.open(t, path)
			defer kv.Close()
			v, ok, err := kv.Get("gemini_conversations")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, payload, v)
		})
	}
}

func TestKV_ConcurrentSets(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			kv := b.open(t, filepath.Join(t.TempDir(), "store"+b.ext))
			defer kv.Close()

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, kv.Set(fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i)))
				}(i)
			}
			wg.Wait()

			for i := 0; i < 20; i++ {
				v, ok, err := kv.Get(fmt.Sprintf("k%d", i))
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, fmt.Sprintf("v%d", i), v)
			}
		})
	}
}

func TestKV_ClosedFileAndMemory(t *testing.T) {
	for _, b := range backends[:2] {
		t.Run(b.name, func(t *testing.T) {
			kv := b.open(t, filepath.Join(t.TempDir(), "store"+b.ext))
			require.NoError(t, kv.Close())
			assert.True(t, errors.Is(kv.Set("a", "b"), ErrClosed))
			_, _, err := kv.Get("a")
			assert.True(t, errors.Is(err, ErrClosed))
		})
	}
}

// =============================================================================
// OPEN / ERRORS
// =============================================================================

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	kv, err := Open(BackendSQLite, DefaultPath(BackendSQLite, dir))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteKV{}, kv)
	require.NoError(t, kv.Close())

	kv, err = Open("", DefaultPath(BackendFile, dir))
	require.NoError(t, err)
	assert.IsType(t, &FileKV{}, kv)
	require.NoError(t, kv.Close())

	_, err = Open("redis", dir)
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}

func TestOpenFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := OpenFile(path)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestFileKV_WritesPrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	kv, err := OpenFile(path)
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set("gemini_api_key", "secret"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	if perm := info.Mode().Perm(); perm != 0600 && os.PathSeparator == '/' {
		t.Errorf("store file mode = %o, want 600", perm)
	}
}

func TestSQLiteKV_Keys(t *testing.T) {
	kv, err := OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set("b", "2"))
	require.NoError(t, kv.Set("a", "1"))
	keys, err := kv.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

// =============================================================================
// WATCH
// =============================================================================

func TestFileKV_WatchSeesOtherWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	mine, err := OpenFile(path)
	require.NoError(t, err)
	defer mine.Close()
	require.NoError(t, mine.Set("gemini_theme", "dark"))

	changed := make(chan struct{}, 4)
	require.NoError(t, mine.Watch(20*time.Millisecond, func() { changed <- struct{}{} }))
	assert.ErrorIs(t, mine.Watch(0, nil), ErrAlreadyWatching)

	// Own writes are not reported.
	require.NoError(t, mine.Set("gemini_model", "gemini-2.5-pro"))
	select {
	case <-changed:
		t.Fatal("own write reported as external change")
	case <-time.After(200 * time.Millisecond):
	}

	other, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, other.Set("gemini_theme", "light"))
	require.NoError(t, other.Close())

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("external change not reported")
	}

	v, _, err := mine.Get("gemini_theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}
