package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "craftcal_feed_fetches_total",
		Help: "Event feed fetches, labelled by result (ok, http_error, network_error, bad_envelope).",
	}, []string{"result"})

	FeedEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "craftcal_feed_events",
		Help: "Number of events in the most recently fetched feed.",
	})

	FeedFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "craftcal_feed_fetch_duration_ms",
		Help:    "Event feed fetch latency in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})

	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "craftcal_submissions_total",
		Help: "Event submissions, labelled by result (ok, invalid, failed, in_flight).",
	}, []string{"result"})

	PageViews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "craftcal_page_views_total",
		Help: "Rendered pages, labelled by tab.",
	}, []string{"page"})

	Snapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "craftcal_snapshots_total",
		Help: "Calendar preview captures, labelled by status.",
	}, []string{"status"})
)
