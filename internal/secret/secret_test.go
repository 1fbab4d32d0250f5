// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package secret

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testSealer(t *testing.T) *Sealer {
	t.Helper()
	s, err := NewSealer(bytes.Repeat([]byte{7}, KeySize))
	if err != nil {
		t.Fatalf("NewSealer failed: %v", err)
	}
	return s
}

func TestSealer_RoundTrip(t *testing.T) {
	s := testSealer(t)

	sealed, err := s.Seal("AIzaSy-test-key")
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if !IsSealed(sealed) {
		t.Fatalf("sealed value %q lacks prefix", sealed)
	}
	if strings.Contains(sealed, "AIzaSy") {
		t.Fatal("sealed value leaks plaintext")
	}

	plain, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if plain != "AIzaSy-test-key" {
		t.Errorf("Open = %q", plain)
	}
}

func TestSealer_NoncesDiffer(t *testing.T) {
	s := testSealer(t)
	a, _ := s.Seal("same")
	b, _ := s.Seal("same")
	if a == b {
		t.Error("two seals of the same value should differ")
	}
}

func TestSealer_EmptyAndPlaintext(t *testing.T) {
	s := testSealer(t)

	sealed, err := s.Seal("")
	if err != nil || sealed != "" {
		t.Errorf("Seal(\"\") = %q, %v", sealed, err)
	}

	plain, err := s.Open("legacy-plain-key")
	if err != nil || plain != "legacy-plain-key" {
		t.Errorf("Open(plain) = %q, %v", plain, err)
	}
}

func TestSealer_Tampered(t *testing.T) {
	s := testSealer(t)
	sealed, _ := s.Seal("secret")

	other, _ := NewSealer(bytes.Repeat([]byte{9}, KeySize))
	if _, err := other.Open(sealed); !errors.Is(err, ErrOpenFailed) {
		t.Errorf("wrong key error = %v, want ErrOpenFailed", err)
	}

	if _, err := s.Open(SealedPrefix + "!!!"); !errors.Is(err, ErrInvalidSealed) {
		t.Errorf("bad base64 error = %v, want ErrInvalidSealed", err)
	}
	if _, err := s.Open(SealedPrefix + "AAAA"); !errors.Is(err, ErrInvalidSealed) {
		t.Errorf("short body error = %v, want ErrInvalidSealed", err)
	}
}

func TestNewSealer_KeySize(t *testing.T) {
	if _, err := NewSealer([]byte("short")); err == nil {
		t.Error("expected error for short key")
	}
}

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.key")

	k1, err := LoadOrCreateKey(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	k2, err := LoadOrCreateKey(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("key changed between loads")
	}

	if err := os.WriteFile(path, []byte("short"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrCreateKey(path); !errors.Is(err, ErrBadKeyFile) {
		t.Errorf("error = %v, want ErrBadKeyFile", err)
	}
}

func TestNewSealerForDir_KeyFileIsStable(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewSealerForDir(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	sealed, _ := s1.Seal("k")

	s2, err := NewSealerForDir(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if plain, err := s2.Open(sealed); err != nil || plain != "k" {
		t.Errorf("reopened sealer: %q, %v", plain, err)
	}
}

func TestDeriveKey(t *testing.T) {
	salt := bytes.Repeat([]byte{1}, SaltSize)
	a := DeriveKey("passphrase", salt)
	b := DeriveKey("passphrase", salt)
	c := DeriveKey("other", salt)

	if len(a) != KeySize {
		t.Fatalf("derived key length = %d", len(a))
	}
	if !bytes.Equal(a, b) || bytes.Equal(a, c) {
		t.Error("derivation must be deterministic and passphrase-dependent")
	}
}
