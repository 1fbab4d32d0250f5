// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// clearEnv blanks every variable ApplyEnvOverrides reads so the host
// environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "GEMINICHAT_MODEL", "GEMINICHAT_BACKEND",
		"GEMINICHAT_STORAGE", "GEMINICHAT_LOG_LEVEL", "GEMINICHAT_ADDR",
	} {
		t.Setenv(k, "")
	}
}

// TestConfig_Default tests that Default() returns a valid config with defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("Expected default model 'gemini-2.5-flash', got '%s'", cfg.Gemini.Model)
	}
	if cfg.Gemini.RequestTimeout.Duration != 60*time.Second {
		t.Errorf("Expected 60s request timeout, got %s", cfg.Gemini.RequestTimeout)
	}
	if cfg.Storage.Backend != StorageFile {
		t.Errorf("Expected file storage, got '%s'", cfg.Storage.Backend)
	}
	if !cfg.Storage.SealAPIKey {
		t.Error("API key sealing should default to on")
	}
	if cfg.UI.Theme != ThemeDark {
		t.Errorf("Expected dark theme, got '%s'", cfg.UI.Theme)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, "", false},
		{"empty model", func(c *Config) { c.Gemini.Model = "  " }, "gemini.model", true},
		{"unknown backend", func(c *Config) { c.Gemini.Backend = "grpc" }, "gemini.backend", true},
		{"sdk backend", func(c *Config) { c.Gemini.Backend = BackendSDK }, "", false},
		{"relative base url", func(c *Config) { c.Gemini.BaseURL = "/v1beta" }, "gemini.base_url", true},
		{"zero timeout", func(c *Config) { c.Gemini.RequestTimeout.Duration = 0 }, "gemini.request_timeout", true},
		{"huge timeout", func(c *Config) { c.Gemini.RequestTimeout.Duration = time.Hour }, "gemini.request_timeout", true},
		{"negative retries", func(c *Config) { c.Gemini.MaxRetries = -1 }, "gemini.max_retries", true},
		{"negative rate", func(c *Config) { c.Gemini.RateLimit = -0.5 }, "gemini.rate_limit", true},
		{"unknown storage", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend", true},
		{"sqlite storage", func(c *Config) { c.Storage.Backend = StorageSQLite }, "", false},
		{"invalid theme", func(c *Config) { c.UI.Theme = "solarized" }, "ui.theme", true},
		{"light theme", func(c *Config) { c.UI.Theme = ThemeLight }, "", false},
		{"narrow wrap", func(c *Config) { c.UI.WordWrap = 5 }, "ui.word_wrap", true},
		{"addr without port", func(c *Config) { c.Server.Addr = "localhost" }, "server.addr", true},
		{"addr bad port", func(c *Config) { c.Server.Addr = "localhost:99999" }, "server.addr", true},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidateErrors, got %T", err)
			}
			if verrs[0].Field != tt.field {
				t.Errorf("field = %q, want %q", verrs[0].Field, tt.field)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.UI.Theme = "bogus"
	cfg.Storage.Backend = "bogus"

	err := cfg.Validate()
	var verrs ValidateErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidateErrors, got %v", err)
	}
	if len(verrs) != 2 {
		t.Errorf("expected 2 errors, got %d: %v", len(verrs), err)
	}
	if !strings.Contains(err.Error(), "2 config errors") {
		t.Errorf("unexpected message: %s", err)
	}
}

// TestConfig_GetSet tests Get and Set methods with dot notation.
func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	val, err := cfg.Get("gemini.model")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if val != "gemini-2.5-flash" {
		t.Errorf("Get('gemini.model') = %v, want 'gemini-2.5-flash'", val)
	}

	if err := cfg.Set("ui.theme", "light"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("ui.theme after Set = %q", cfg.UI.Theme)
	}

	if err := cfg.Set("gemini.request_timeout", "90s"); err != nil {
		t.Fatalf("Set(duration) error = %v", err)
	}
	if cfg.Gemini.RequestTimeout.Duration != 90*time.Second {
		t.Errorf("request_timeout = %s", cfg.Gemini.RequestTimeout)
	}
	if val, _ := cfg.Get("gemini.request_timeout"); val != "1m30s" {
		t.Errorf("Get(request_timeout) = %v", val)
	}

	if err := cfg.Set("gemini.max_retries", "4"); err != nil || cfg.Gemini.MaxRetries != 4 {
		t.Errorf("Set(int) err=%v value=%d", err, cfg.Gemini.MaxRetries)
	}
	if err := cfg.Set("gemini.rate_limit", "2.5"); err != nil || cfg.Gemini.RateLimit != 2.5 {
		t.Errorf("Set(float) err=%v value=%v", err, cfg.Gemini.RateLimit)
	}
	if err := cfg.Set("storage.seal-api-key", "off"); err != nil || cfg.Storage.SealAPIKey {
		t.Errorf("Set(bool) err=%v value=%v", err, cfg.Storage.SealAPIKey)
	}

	if _, err := cfg.Get("invalid.key"); err == nil {
		t.Error("Get() with invalid key should return error")
	}
	if _, err := cfg.Get("gemini"); err == nil {
		t.Error("Get() on a section should return error")
	}
	if err := cfg.Set("gemini.max_retries", "many"); err == nil {
		t.Error("Set() with non-integer should return error")
	}
	if err := cfg.Set("gemini.request_timeout", "soon"); err == nil {
		t.Error("Set() with bad duration should return error")
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	cfg := Default()
	for _, k := range keys {
		if _, err := cfg.Get(k); err != nil {
			t.Errorf("Keys() lists %q but Get fails: %v", k, err)
		}
	}
	if keys[0] != "gemini.api_key" {
		t.Errorf("first key = %q", keys[0])
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Gemini.Model = "gemini-2.5-pro"
	cfg.Gemini.RequestTimeout.Duration = 45 * time.Second
	cfg.Storage.Backend = StorageSQLite
	cfg.UI.Theme = ThemeLight

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file perms = %o, want 600", perm)
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# geminichat configuration file") {
		t.Error("missing header comment")
	}
	if !strings.Contains(string(data), `request_timeout = "45s"`) {
		t.Errorf("duration not written as text:\n%s", data)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.Gemini.Model != "gemini-2.5-pro" ||
		loaded.Gemini.RequestTimeout.Duration != 45*time.Second ||
		loaded.Storage.Backend != StorageSQLite ||
		loaded.UI.Theme != ThemeLight {
		t.Errorf("round trip mismatch: %s", loaded)
	}
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[ui]\ntheme = \"light\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.UI.Theme != ThemeLight {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
	if cfg.Gemini.Model != DefaultModel || !cfg.Storage.SealAPIKey {
		t.Error("unset keys should keep their defaults")
	}

	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions not tightened: %o", info.Mode().Perm())
	}
}

func TestLoadFromPath_MissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.Gemini.Model != DefaultModel {
		t.Errorf("model = %q", cfg.Gemini.Model)
	}
}

func TestLoadFromPath_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[gemini\nmodel = "},
		{"unknown key", "[gemini]\ntemperature = 0.2\n"},
		{"invalid value", "[ui]\ntheme = \"neon\"\n"},
		{"bad duration", "[gemini]\nrequest_timeout = \"forever\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".toml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFromPath(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "AIza-env")
	t.Setenv("GEMINICHAT_MODEL", "gemini-2.0-flash")
	t.Setenv("GEMINICHAT_BACKEND", "SDK")
	t.Setenv("GEMINICHAT_STORAGE", "sqlite")
	t.Setenv("GEMINICHAT_LOG_LEVEL", "DEBUG")
	t.Setenv("GEMINICHAT_ADDR", "0.0.0.0:9000")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Gemini.APIKey != "AIza-env" {
		t.Errorf("api key = %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("model = %q", cfg.Gemini.Model)
	}
	if cfg.Gemini.Backend != BackendSDK {
		t.Errorf("backend = %q", cfg.Gemini.Backend)
	}
	if cfg.Storage.Backend != StorageSQLite {
		t.Errorf("storage = %q", cfg.Storage.Backend)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestDir_HonorsHomeEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	dir, err := Dir()
	if err != nil || dir != home {
		t.Errorf("Dir() = %q, %v", dir, err)
	}
	path, _ := Path()
	if path != filepath.Join(home, FileName) {
		t.Errorf("Path() = %q", path)
	}

	t.Setenv(HomeEnv, filepath.Join(home, "nested"))
	dir, err = EnsureDir()
	if err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("EnsureDir did not create %s", dir)
	}
}

func TestStoragePath(t *testing.T) {
	cfg := Default()
	if got := cfg.StoragePath("/x"); got != filepath.Join("/x", "store.json") {
		t.Errorf("file default = %q", got)
	}
	cfg.Storage.Backend = StorageSQLite
	if got := cfg.StoragePath("/x"); got != filepath.Join("/x", "store.db") {
		t.Errorf("sqlite default = %q", got)
	}
	cfg.Storage.Path = "/elsewhere/db"
	if got := cfg.StoragePath("/x"); got != "/elsewhere/db" {
		t.Errorf("explicit path = %q", got)
	}
}

// TestConfig_Clone tests that Clone creates an independent copy.
func TestConfig_Clone(t *testing.T) {
	original := Default()
	clone := original.Clone()
	clone.Gemini.Model = "cloned"

	if original.Gemini.Model != DefaultModel {
		t.Error("Clone should create an independent copy")
	}
}

func TestConfig_StringRedactsKey(t *testing.T) {
	cfg := Default()
	cfg.Gemini.APIKey = "AIzaSecret123"

	s := cfg.String()
	if strings.Contains(s, "AIzaSecret123") {
		t.Error("String() leaked the API key")
	}
	if !strings.Contains(s, "[REDACTED]") {
		t.Error("String() should mark the key as redacted")
	}
	if cfg.Gemini.APIKey != "AIzaSecret123" {
		t.Error("String() must not modify the receiver")
	}
}

// TestConfig_ConcurrentGlobal checks Global and SetGlobal under -race.
func TestConfig_ConcurrentGlobal(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())
	clearEnv(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
