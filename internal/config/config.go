// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/geminichat/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DirName is the directory under $HOME that holds config and data.
	DirName = ".geminichat"

	// FileName is the TOML config file inside the config directory.
	FileName = "config.toml"

	// HomeEnv overrides the config directory entirely.
	HomeEnv = "GEMINICHAT_HOME"

	// PassphraseEnv supplies the passphrase used to seal the stored API key.
	PassphraseEnv = "GEMINICHAT_PASSPHRASE"

	DefaultModel          = "gemini-2.5-flash"
	DefaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	DefaultRequestTimeout = 60 * time.Second
	DefaultMaxRetries     = 2
	DefaultServerAddr     = "127.0.0.1:8642"
	DefaultWordWrap       = 100

	MaxRequestTimeout = 10 * time.Minute
	MaxRetriesLimit   = 10
)

// Backends and enumerated values accepted by Validate.
const (
	BackendREST = "rest"
	BackendSDK  = "sdk"

	StorageFile   = "file"
	StorageSQLite = "sqlite"

	ThemeDark  = "dark"
	ThemeLight = "light"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true,
}

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete geminichat configuration.
type Config struct {
	Gemini  GeminiConfig  `toml:"gemini" json:"gemini"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Server  ServerConfig  `toml:"server" json:"server"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// GeminiConfig controls how requests reach the generateContent endpoint.
type GeminiConfig struct {
	// APIKey seeds the store when it has no key of its own.
	APIKey         string   `toml:"api_key" json:"api_key"`
	Model          string   `toml:"model" json:"model"`
	BaseURL        string   `toml:"base_url" json:"base_url"`
	Backend        string   `toml:"backend" json:"backend"`
	RequestTimeout Duration `toml:"request_timeout" json:"request_timeout"`
	MaxRetries     int      `toml:"max_retries" json:"max_retries"`
	// RateLimit is requests per second. Zero disables limiting.
	RateLimit float64 `toml:"rate_limit" json:"rate_limit"`
}

// StorageConfig selects the key-value backend for conversations and settings.
type StorageConfig struct {
	Backend string `toml:"backend" json:"backend"`
	// Path is the store file. Empty means a default inside the config directory.
	Path       string `toml:"path" json:"path"`
	SealAPIKey bool   `toml:"seal_api_key" json:"seal_api_key"`
}

// UIConfig holds presentation preferences.
type UIConfig struct {
	Theme     string `toml:"theme" json:"theme"`
	CodeStyle string `toml:"code_style" json:"code_style"`
	WordWrap  int    `toml:"word_wrap" json:"word_wrap"`
}

// ServerConfig configures the local HTTP front end.
type ServerConfig struct {
	Addr      string  `toml:"addr" json:"addr"`
	RateLimit float64 `toml:"rate_limit" json:"rate_limit"`
	Burst     int     `toml:"burst" json:"burst"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `toml:"level" json:"level"`
	Pretty bool   `toml:"pretty" json:"pretty"`
	// File receives log output instead of stderr when set.
	File string `toml:"file" json:"file"`
}

// Duration is a time.Duration that reads and writes as "60s" style text.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Gemini: GeminiConfig{
			Model:          DefaultModel,
			BaseURL:        DefaultBaseURL,
			Backend:        BackendREST,
			RequestTimeout: Duration{DefaultRequestTimeout},
			MaxRetries:     DefaultMaxRetries,
		},
		Storage: StorageConfig{
			Backend:    StorageFile,
			SealAPIKey: true,
		},
		UI: UIConfig{
			Theme:     ThemeDark,
			CodeStyle: "monokai",
			WordWrap:  DefaultWordWrap,
		},
		Server: ServerConfig{
			Addr:      DefaultServerAddr,
			RateLimit: 5,
			Burst:     10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// SetDefaults fills zero values left behind by a partial config file.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Gemini.Model == "" {
		c.Gemini.Model = d.Gemini.Model
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = d.Gemini.BaseURL
	}
	if c.Gemini.Backend == "" {
		c.Gemini.Backend = d.Gemini.Backend
	}
	if c.Gemini.RequestTimeout.Duration == 0 {
		c.Gemini.RequestTimeout = d.Gemini.RequestTimeout
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.CodeStyle == "" {
		c.UI.CodeStyle = d.UI.CodeStyle
	}
	if c.UI.WordWrap == 0 {
		c.UI.WordWrap = d.UI.WordWrap
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.Burst == 0 {
		c.Server.Burst = d.Server.Burst
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the configuration directory, honoring GEMINICHAT_HOME.
func Dir() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Path returns the path of the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// EnsureDir creates the configuration directory with owner-only access.
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// StoragePath resolves the store location, defaulting to a file inside dir.
func (c *Config) StoragePath(dir string) string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	if c.Storage.Backend == StorageSQLite {
		return filepath.Join(dir, "store.db")
	}
	return filepath.Join(dir, "store.json")
}

// ensureSecurePermissions tightens the config file to 0600 since it may hold a key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the default config file if present, then applies environment
// overrides and validates the result. A missing file is not an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load for an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
		_ = ensureSecurePermissions(path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes path on top of cfg. Keys missing from the file keep
// whatever cfg already holds.
func LoadTOML(cfg *Config, path string) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return &ValidationError{Field: keys[0], Message: "unknown key (all unknown: " + strings.Join(keys, ", ") + ")"}
	}
	return nil
}

// Save writes cfg to the default config path.
func Save(cfg *Config) error {
	if _, err := EnsureDir(); err != nil {
		return err
	}
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# geminichat configuration file\n")
	buf.WriteString("# Generated by geminichat - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidateErrors collects every problem found by Validate.
type ValidateErrors []*ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d config errors:\n  %s", len(e), strings.Join(msgs, "\n  "))
}

// Validate checks every section and returns ValidateErrors when any fail.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Gemini.Model) == "" {
		add("gemini.model", "must not be empty")
	}
	if c.Gemini.Backend != BackendREST && c.Gemini.Backend != BackendSDK {
		add("gemini.backend", "must be %q or %q, got %q", BackendREST, BackendSDK, c.Gemini.Backend)
	}
	if u, err := url.Parse(c.Gemini.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("gemini.base_url", "must be an http(s) URL, got %q", c.Gemini.BaseURL)
	}
	if d := c.Gemini.RequestTimeout.Duration; d <= 0 || d > MaxRequestTimeout {
		add("gemini.request_timeout", "must be positive and at most %s, got %s", MaxRequestTimeout, d)
	}
	if c.Gemini.MaxRetries < 0 || c.Gemini.MaxRetries > MaxRetriesLimit {
		add("gemini.max_retries", "must be between 0 and %d, got %d", MaxRetriesLimit, c.Gemini.MaxRetries)
	}
	if c.Gemini.RateLimit < 0 {
		add("gemini.rate_limit", "must not be negative")
	}

	if c.Storage.Backend != StorageFile && c.Storage.Backend != StorageSQLite {
		add("storage.backend", "must be %q or %q, got %q", StorageFile, StorageSQLite, c.Storage.Backend)
	}

	if c.UI.Theme != ThemeDark && c.UI.Theme != ThemeLight {
		add("ui.theme", "must be %q or %q, got %q", ThemeDark, ThemeLight, c.UI.Theme)
	}
	if c.UI.WordWrap < 20 || c.UI.WordWrap > 400 {
		add("ui.word_wrap", "must be between 20 and 400, got %d", c.UI.WordWrap)
	}

	if _, port, err := net.SplitHostPort(c.Server.Addr); err != nil {
		add("server.addr", "must be host:port, got %q", c.Server.Addr)
	} else if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		add("server.addr", "invalid port %q", port)
	}
	if c.Server.RateLimit < 0 {
		add("server.rate_limit", "must not be negative")
	}
	if c.Server.Burst < 0 {
		add("server.burst", "must not be negative")
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		add("logging.level", "unknown level %q", c.Logging.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variables on top of file values:
//   - GEMINI_API_KEY: gemini.api_key
//   - GEMINICHAT_MODEL: gemini.model
//   - GEMINICHAT_BACKEND: gemini.backend
//   - GEMINICHAT_STORAGE: storage.backend
//   - GEMINICHAT_LOG_LEVEL: logging.level
//   - GEMINICHAT_ADDR: server.addr
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if model := os.Getenv("GEMINICHAT_MODEL"); model != "" {
		c.Gemini.Model = model
	}
	if backend := os.Getenv("GEMINICHAT_BACKEND"); backend != "" {
		c.Gemini.Backend = strings.ToLower(backend)
	}
	if storage := os.Getenv("GEMINICHAT_STORAGE"); storage != "" {
		c.Storage.Backend = strings.ToLower(storage)
	}
	if level := os.Getenv("GEMINICHAT_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if addr := os.Getenv("GEMINICHAT_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

// Passphrase returns the sealing passphrase from the environment, if any.
func Passphrase() string {
	return os.Getenv(PassphraseEnv)
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value by its TOML key path, e.g. "gemini.model".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if m, ok := field.Interface().(encoding.TextMarshaler); ok {
		text, err := m.MarshalText()
		if err != nil {
			return nil, err
		}
		return string(text), nil
	}
	return field.Interface(), nil
}

// Set assigns a value by its TOML key path. String input is converted to
// the field's type.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	if err := setFieldValue(field, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(Duration{}) {
				return reflect.Value{}, fmt.Errorf("%s is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct || field.Type() == reflect.TypeOf(Duration{}) {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	name = strings.ToLower(strings.ReplaceAll(name, "-", "_"))
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tomlName(f reflect.StructField) string {
	tag, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	if tag == "" {
		return strings.ToLower(f.Name)
	}
	return tag
}

// setFieldValue sets a reflect.Value from an arbitrary value with type conversion.
func setFieldValue(field reflect.Value, value any) error {
	if strVal, ok := value.(string); ok {
		if u, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return u.UnmarshalText([]byte(strVal))
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				switch strings.ToLower(strVal) {
				case "yes", "on":
					boolVal = true
				case "no", "off":
					boolVal = false
				default:
					return fmt.Errorf("invalid boolean value: %q", strVal)
				}
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return errors.New("nil value")
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys returns every settable key in dot notation, in declaration order.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, tomlName(section)+"."+tomlName(section.Type.Field(j)))
		}
	}
	return keys
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone returns an independent copy. Config holds no reference types.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the config as JSON with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Gemini.APIKey != "" {
		safe.Gemini.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// PROCESS-WIDE INSTANCE
// =============================================================================

var (
	globalMu     sync.RWMutex
	globalConfig *Config
)

// Global returns the config installed by SetGlobal, loading it on first use.
// A load failure falls back to defaults so callers always get a value.
func Global() *Config {
	globalMu.RLock()
	cfg := globalConfig
	globalMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalConfig == nil {
		loaded, err := Load()
		if err != nil {
			loaded = Default()
		}
		globalConfig = loaded
	}
	return globalConfig
}

// SetGlobal replaces the process-wide config.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the process-wide config.
func ResetGlobalForTesting() {
	SetGlobal(nil)
}
