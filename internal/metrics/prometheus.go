package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	registry prometheus.Registerer

	// Article metrics
	ArticleTransitionsTotal *prometheus.CounterVec
	ArticlesCreatedTotal    *prometheus.CounterVec
	ArticleViewsTotal       prometheus.Counter

	// View action metrics
	ViewActionsTotal *prometheus.CounterVec

	// Media metrics
	UploadsTotal *prometheus.CounterVec
	UploadBytes  prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector registered in reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		ArticleTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "article_transitions_total",
				Help: "Total number of article lifecycle transitions",
			},
			[]string{"action", "result"},
		),
		ArticlesCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "articles_created_total",
				Help: "Total number of created articles by initial status",
			},
			[]string{"status"},
		),
		ArticleViewsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "article_views_total",
				Help: "Total number of counted article reads",
			},
		),
		ViewActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "view_actions_total",
				Help: "Dashboard actions by outcome (success, error, cancelled, forbidden)",
			},
			[]string{"action", "outcome"},
		),
		UploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "media_uploads_total",
				Help: "Total number of uploaded images",
			},
			[]string{"kind"},
		),
		UploadBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "media_upload_bytes_total",
				Help: "Total size of uploaded images in bytes",
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// RegisterSubscriptionGauge exposes the number of open live subscriptions of a hub.
func (c *Collector) RegisterSubscriptionGauge(collection string, count func() int) {
	if c == nil {
		return
	}
	promauto.With(c.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "feed_subscriptions_active",
			Help:        "Number of open live subscriptions",
			ConstLabels: prometheus.Labels{"collection": collection},
		},
		func() float64 { return float64(count()) },
	)
}

func (c *Collector) RecordTransition(action, result string) {
	if c == nil {
		return
	}
	c.ArticleTransitionsTotal.WithLabelValues(action, result).Inc()
}

func (c *Collector) RecordCreated(status string) {
	if c == nil {
		return
	}
	c.ArticlesCreatedTotal.WithLabelValues(status).Inc()
}

func (c *Collector) RecordView() {
	if c == nil {
		return
	}
	c.ArticleViewsTotal.Inc()
}

func (c *Collector) RecordViewAction(action, outcome string) {
	if c == nil {
		return
	}
	c.ViewActionsTotal.WithLabelValues(action, outcome).Inc()
}

func (c *Collector) RecordUpload(kind string, size int64) {
	if c == nil {
		return
	}
	c.UploadsTotal.WithLabelValues(kind).Inc()
	c.UploadBytes.Add(float64(size))
}

func (c *Collector) RecordHTTPRequest(method, path, status string, duration float64) {
	if c == nil {
		return
	}
	c.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}
