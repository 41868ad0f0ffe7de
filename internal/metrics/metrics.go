package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch metrics are labelled per provider so a misbehaving upstream is
// visible without log spelunking.
var (
	FetchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finnews_fetch_requests_total",
			Help: "Total number of headline fetch attempts per provider",
		},
		[]string{"provider"},
	)
	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finnews_fetch_errors_total",
			Help: "Total number of failed headline fetches per provider",
		},
		[]string{"provider"},
	)
	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finnews_fetch_duration_seconds",
			Help:    "Duration of headline fetches per provider",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
		},
		[]string{"provider"},
	)

	ArticlesProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "finnews_articles_processed_total",
			Help: "Total number of articles run through the pipeline",
		},
	)
	AlertsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finnews_alerts_emitted_total",
			Help: "Total number of sentiment alerts emitted per label",
		},
		[]string{"label"},
	)
)

func init() {
	prometheus.MustRegister(FetchRequests, FetchErrors, FetchDuration,
		ArticlesProcessed, AlertsEmitted)
}

// Handler serves every series registered in this process. Counters never
// cross the process boundary, so the pipeline mounts this on its own
// listener rather than relying on the dashboard.
func Handler() http.Handler {
	return promhttp.Handler()
}
