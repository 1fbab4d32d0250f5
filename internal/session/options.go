// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/secret"
	"github.com/jeranaias/geminichat/internal/telemetry"
)

// DefaultRequestTimeout bounds a single generate call.
const DefaultRequestTimeout = 60 * time.Second

// Option configures a Store or a Chat. Options that do not apply to the
// value being built are ignored.
type Option func(*options)

type options struct {
	logger       zerolog.Logger
	metrics      *telemetry.Metrics
	sealer       *secret.Sealer
	defaultModel string
	defaultTheme string
	seedAPIKey   string
	timeout      time.Duration
}

func defaultOptions() options {
	return options{
		logger:       zerolog.Nop(),
		defaultModel: model.DefaultModel,
		defaultTheme: ThemeDark,
		timeout:      DefaultRequestTimeout,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records counters and histograms into m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithSealer encrypts the API key before it is persisted.
func WithSealer(s *secret.Sealer) Option {
	return func(o *options) { o.sealer = s }
}

// WithDefaultModel sets the model used when none has been persisted.
func WithDefaultModel(name string) Option {
	return func(o *options) {
		if name != "" {
			o.defaultModel = name
		}
	}
}

// WithDefaultTheme sets the theme used when none has been persisted.
func WithDefaultTheme(theme string) Option {
	return func(o *options) {
		if theme == ThemeDark || theme == ThemeLight {
			o.defaultTheme = theme
		}
	}
}

// WithAPIKey supplies a key from config or the environment. It is used
// only while the store has no key of its own.
func WithAPIKey(key string) Option {
	return func(o *options) { o.seedAPIKey = key }
}

// WithTimeout bounds each generate call made by a Chat.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}
