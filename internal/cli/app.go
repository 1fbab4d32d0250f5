// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jeranaias/geminichat/internal/config"
	"github.com/jeranaias/geminichat/internal/gemini"
	"github.com/jeranaias/geminichat/internal/logging"
	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/secret"
	"github.com/jeranaias/geminichat/internal/session"
	"github.com/jeranaias/geminichat/internal/storage"
	"github.com/jeranaias/geminichat/internal/telemetry"
)

// LogFileName is where the TUI logs, inside the config directory.
const LogFileName = "geminichat.log"

// App holds everything a command needs, built once from config.
type App struct {
	Config  *config.Config
	Dir     string
	Log     zerolog.Logger
	KV      storage.KV
	Store   *session.Store
	Chat    *session.Chat
	Metrics *telemetry.Metrics

	closers []io.Closer
}

// openApp loads config and opens the store. The TUI logs to a file
// because it owns the terminal; everything else logs to stderr.
func openApp(args Args) (*App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dir, err := config.EnsureDir()
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Dir: dir, Metrics: telemetry.New()}

	var logOut io.Writer = os.Stderr
	logPath := cfg.Logging.File
	if logPath == "" && args.Command == CmdTUI {
		logPath = filepath.Join(dir, LogFileName)
	}
	pretty := cfg.Logging.Pretty
	if logPath != "" {
		f, err := logging.OpenFile(logPath)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		app.closers = append(app.closers, f)
		logOut, pretty = f, false
	}
	level := cfg.Logging.Level
	if args.Verbose {
		level = "debug"
	}
	app.Log = logging.New(logging.Config{Level: level, Pretty: pretty, Output: logOut})

	if err := app.openStore(); err != nil {
		app.Close()
		return nil, err
	}

	if args.Model != "" {
		if err := app.Store.SetModel(args.Model); err != nil {
			app.Close()
			return nil, err
		}
	}
	return app, nil
}

// loadConfig reads the config file, applies environment overrides and
// validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (a *App) openStore() error {
	cfg := a.Config
	kv, err := storage.Open(cfg.Storage.Backend, cfg.StoragePath(a.Dir))
	if err != nil {
		return err
	}
	a.KV = kv
	a.closers = append(a.closers, kv)

	opts := []session.Option{
		session.WithLogger(a.Log),
		session.WithMetrics(a.Metrics),
		session.WithDefaultModel(cfg.Gemini.Model),
		session.WithDefaultTheme(cfg.UI.Theme),
		session.WithAPIKey(cfg.Gemini.APIKey),
	}
	if cfg.Storage.SealAPIKey {
		sealer, err := secret.NewSealerForDir(a.Dir, config.Passphrase())
		if err != nil {
			return fmt.Errorf("load sealing key: %w", err)
		}
		opts = append(opts, session.WithSealer(sealer))
	}

	a.Store, err = session.New(kv, opts...)
	if err != nil {
		return err
	}
	a.Chat = session.NewChat(a.Store, newGenerator(cfg, a.Store.APIKey, a.Log),
		session.WithTimeout(cfg.Gemini.RequestTimeout.Duration),
		session.WithLogger(a.Log),
	)
	return nil
}

// newGenerator picks the REST client or the SDK client. Both read the key
// through key on every call, so a key set mid-session takes effect.
func newGenerator(cfg *config.Config, key gemini.KeyFunc, log zerolog.Logger) session.Generator {
	if cfg.Gemini.Backend == config.BackendSDK {
		c := gemini.NewSDKClient(key).WithLogger(log)
		if cfg.Gemini.BaseURL != "" && cfg.Gemini.BaseURL != config.DefaultBaseURL {
			c = c.WithEndpoint(cfg.Gemini.BaseURL)
		}
		return c
	}

	c := gemini.NewClient(key).
		WithBaseURL(cfg.Gemini.BaseURL).
		WithTimeout(cfg.Gemini.RequestTimeout.Duration).
		WithMaxRetries(cfg.Gemini.MaxRetries).
		WithLogger(log)
	if cfg.Gemini.RateLimit > 0 {
		c = c.WithRateLimit(cfg.Gemini.RateLimit, 1)
	}
	return c
}

// Close releases the store and log file. Errors are logged, not returned.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			a.Log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

// ExportDir is where exports land when --out is not given.
func (a *App) ExportDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return a.Dir
}

// requireAPIKey fails early with a hint instead of letting Send refuse.
func (a *App) requireAPIKey() error {
	if a.Store.APIKey() != "" {
		return nil
	}
	return fmt.Errorf("%w; run 'geminichat config set-key' or set GEMINI_API_KEY", session.ErrMissingAPIKey)
}

// resolveConversation finds a conversation by its 1-based position in the
// listing, its full ID or a unique ID suffix.
func (a *App) resolveConversation(ref string) (*model.Conversation, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, usageErr("a conversation ID or number is required")
	}
	convs := a.Store.Conversations()

	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(convs) {
		return convs[n-1], nil
	}

	var match *model.Conversation
	for _, c := range convs {
		if c.ID == ref {
			return c, nil
		}
		if strings.HasSuffix(c.ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one conversation", ref)
			}
			match = c
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %q", session.ErrConversationNotFound, ref)
	}
	return match, nil
}
