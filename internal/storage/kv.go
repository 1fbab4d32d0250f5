// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// KV is a string-keyed persistent store. Set must be durable before it
// returns. Implementations are safe for concurrent use.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Close releases the backend.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open creates the named backend at path.
func Open(backend, path string) (KV, error) {
	switch strings.ToLower(backend) {
	case "", BackendFile:
		return OpenFile(path)
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// DefaultPath returns the store location for backend inside dir.
func DefaultPath(backend, dir string) string {
	if strings.ToLower(backend) == BackendSQLite {
		return filepath.Join(dir, "store.db")
	}
	return filepath.Join(dir, "store.json")
}

// =============================================================================
// ERRORS
// =============================================================================

// StorageError represents a storage failure category.
// Compare with errors.Is against the package sentinels.
type StorageError struct {
	Message string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing storage errors.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var (
	// ErrUnknownBackend is returned by Open for unsupported backend names.
	ErrUnknownBackend = &StorageError{Message: "unknown storage backend"}
	// ErrClosed is returned after Close.
	ErrClosed = &StorageError{Message: "store is closed"}
	// ErrCorrupt is returned when the on-disk data cannot be decoded.
	ErrCorrupt = &StorageError{Message: "store data is corrupt"}
)
