package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the shell. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Core metrics
	AssetResolutions    *prometheus.CounterVec
	NavigationDecisions *prometheus.CounterVec
	PermissionPrompts   *prometheus.CounterVec
	PermissionOutcomes  *prometheus.CounterVec
	UploadResults       *prometheus.CounterVec
	Exports             *prometheus.CounterVec

	// Host link metrics
	HostLinkConnections prometheus.Gauge
	HostLinkMessages    *prometheus.CounterVec

	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current values for the JSON health endpoint.
type Snapshot struct {
	TotalRequests int64 `json:"total_requests"`
	TotalErrors   int64 `json:"total_errors"`
	Exports       int64 `json:"exports"`
	ExportErrors  int64 `json:"export_errors"`
	Uploads       int64 `json:"uploads"`
	HostConnected bool  `json:"host_connected"`
}

// NewMetrics creates a metrics collector backed by its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shell_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shell_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		AssetResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_asset_resolutions_total",
				Help: "Bundled asset lookups by outcome and MIME type",
			},
			[]string{"outcome", "mime"},
		),
		NavigationDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_navigation_decisions_total",
				Help: "Navigation decisions by target",
			},
			[]string{"target"},
		),
		PermissionPrompts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_permission_prompts_total",
				Help: "OS permission prompts issued",
			},
			[]string{"capability"},
		),
		PermissionOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_permission_outcomes_total",
				Help: "Permission gate resolutions",
			},
			[]string{"capability", "outcome"},
		),
		UploadResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_upload_results_total",
				Help: "File selection results delivered to the page",
			},
			[]string{"kind"},
		),
		Exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_exports_total",
				Help: "Export requests by outcome",
			},
			[]string{"outcome"},
		),

		HostLinkConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_hostlink_connections",
				Help: "Number of attached native hosts",
			},
		),
		HostLinkMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_hostlink_messages_total",
				Help: "Host link messages by direction and type",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "shell_uptime_seconds",
			Help: "Shell uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler exposes the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordAsset records an asset lookup. mime is empty for misses.
func (m *Metrics) RecordAsset(found bool, mime string) {
	if m == nil {
		return
	}
	outcome := "hit"
	if !found {
		outcome = "miss"
	}
	m.AssetResolutions.WithLabelValues(outcome, mime).Inc()
}

// RecordNavigation records a navigation decision.
func (m *Metrics) RecordNavigation(external bool) {
	if m == nil {
		return
	}
	target := "internal"
	if external {
		target = "external"
	}
	m.NavigationDecisions.WithLabelValues(target).Inc()
}

// RecordPermissionPrompt records an OS prompt for a capability.
func (m *Metrics) RecordPermissionPrompt(capability string) {
	if m == nil {
		return
	}
	m.PermissionPrompts.WithLabelValues(capability).Inc()
}

// RecordPermissionOutcome records a gate resolution.
func (m *Metrics) RecordPermissionOutcome(capability string, granted bool) {
	if m == nil {
		return
	}
	outcome := "denied"
	if granted {
		outcome = "granted"
	}
	m.PermissionOutcomes.WithLabelValues(capability, outcome).Inc()
}

// RecordUpload records a delivered selection result.
func (m *Metrics) RecordUpload(kind string) {
	if m == nil {
		return
	}
	m.UploadResults.WithLabelValues(kind).Inc()
	m.mu.Lock()
	m.snapshot.Uploads++
	m.mu.Unlock()
}

// RecordExport records an export outcome ("written", "invalid", "denied", "failed").
func (m *Metrics) RecordExport(outcome string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(outcome).Inc()
	m.mu.Lock()
	m.snapshot.Exports++
	if outcome != "written" {
		m.snapshot.ExportErrors++
	}
	m.mu.Unlock()
}

// RecordHostMessage records a host link message.
func (m *Metrics) RecordHostMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.HostLinkMessages.WithLabelValues(direction, msgType).Inc()
}

// SetHostConnected tracks whether a native host is attached.
func (m *Metrics) SetHostConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.HostLinkConnections.Set(1)
	} else {
		m.HostLinkConnections.Set(0)
	}
	m.mu.Lock()
	m.snapshot.HostConnected = connected
	m.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
