package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth gate rejection reasons.
const (
	ReasonMissingToken = "missing_token"
	ReasonInvalidToken = "invalid_token"
	ReasonUserNotFound = "user_not_found"
	ReasonForbidden    = "forbidden"
	ReasonNotOwner     = "not_owner"
)

// Metrics groups the counters exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	AuthRejections *prometheus.CounterVec
	TokensIssued   prometheus.Counter
	ImageUploads   *prometheus.CounterVec
	ImageCleanups  *prometheus.CounterVec
}

// New registers the application collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AuthRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookcatalog",
			Name:      "auth_rejections_total",
			Help:      "Requests rejected by the authentication and authorization chain.",
		}, []string{"reason"}),
		TokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookcatalog",
			Name:      "tokens_issued_total",
			Help:      "Identity tokens issued on login.",
		}),
		ImageUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookcatalog",
			Name:      "image_uploads_total",
			Help:      "Cover image uploads by result.",
		}, []string{"result"}),
		ImageCleanups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookcatalog",
			Name:      "image_cleanups_total",
			Help:      "Post-commit removals of stored cover images by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AuthRejections,
		m.TokensIssued,
		m.ImageUploads,
		m.ImageCleanups,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Reject counts one rejection. Safe on a nil receiver.
func (m *Metrics) Reject(reason string) {
	if m == nil {
		return
	}
	m.AuthRejections.WithLabelValues(reason).Inc()
}
