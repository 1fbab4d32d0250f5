// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeEmpty    = "empty"
	OutcomeRejected = "rejected"
)

// Metrics holds all Prometheus metrics for geminichat.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  prometheus.Histogram
	TokensTotal      *prometheus.CounterVec
	MessagesTotal    *prometheus.CounterVec
	AttachmentsTotal *prometheus.CounterVec
	Conversations    prometheus.Gauge
	RenderDuration   prometheus.Histogram
	HTTPRequests     *prometheus.CounterVec
}

// New creates and registers all metrics in a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geminichat_requests_total",
			Help: "Generation requests by outcome",
		}, []string{"outcome"}),
		RequestDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "geminichat_request_duration_seconds",
			Help:    "Duration of generation requests",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		TokensTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geminichat_tokens_estimated_total",
			Help: "Estimated tokens sent and received",
		}, []string{"direction"}),
		MessagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geminichat_messages_total",
			Help: "Messages appended by role",
		}, []string{"role"}),
		AttachmentsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geminichat_attachments_total",
			Help: "Attachments accepted by kind",
		}, []string{"kind"}),
		Conversations: f.NewGauge(prometheus.GaugeOpts{
			Name: "geminichat_conversations",
			Help: "Conversations currently stored",
		}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "geminichat_render_duration_seconds",
			Help:    "Time to render a conversation to HTML",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geminichat_http_requests_total",
			Help: "HTTP API requests by route pattern and status code",
		}, []string{"route", "code"}),
	}
}

// Registry returns the registry holding every metric.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one generation request.
func (m *Metrics) ObserveRequest(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeRejected {
		m.RequestDuration.Observe(d.Seconds())
	}
}

// AddTokens records estimated prompt ("in") and reply ("out") tokens.
func (m *Metrics) AddTokens(in, out int) {
	if m == nil {
		return
	}
	m.TokensTotal.WithLabelValues("in").Add(float64(in))
	m.TokensTotal.WithLabelValues("out").Add(float64(out))
}

// MessageAdded counts an appended message.
func (m *Metrics) MessageAdded(role string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(role).Inc()
}

// AttachmentAdded counts an accepted attachment.
func (m *Metrics) AttachmentAdded(kind string) {
	if m == nil {
		return
	}
	m.AttachmentsTotal.WithLabelValues(kind).Inc()
}

// SetConversations reports the stored conversation count.
func (m *Metrics) SetConversations(n int) {
	if m == nil {
		return
	}
	m.Conversations.Set(float64(n))
}

// ObserveRender records one HTML render.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.RenderDuration.Observe(d.Seconds())
}

// HTTPRequest counts one served API request.
func (m *Metrics) HTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
