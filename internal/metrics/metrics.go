// Package metrics exposes the Prometheus instruments for the resolution
// engine. All collectors are registered on the default registry and served
// by the /metrics route.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Joaobneto1/Redirect-Offer/internal/probe"
)

var (
	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartlink",
		Name:      "resolutions_total",
		Help:      "Slug resolutions by outcome (redirect, fallback, no_offer).",
	}, []string{"outcome"})

	ProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartlink",
		Name:      "probes_total",
		Help:      "Endpoint health probes by result (ok or error code).",
	}, []string{"result"})

	ProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "smartlink",
		Name:      "probe_duration_seconds",
		Help:      "End to end duration of endpoint health probes.",
		Buckets:   prometheus.DefBuckets,
	})

	AutoCheckPassesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "smartlink",
		Name:      "autocheck_passes_total",
		Help:      "Completed auto-checker passes.",
	})

	EndpointsDeactivatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "smartlink",
		Name:      "endpoints_deactivated_total",
		Help:      "Endpoints removed from rotation after hitting the failure threshold.",
	})
)

// ObserveProbe records one probe attempt against the counters and the
// duration histogram.
func ObserveProbe(res probe.Result, elapsed time.Duration) {
	ProbeDuration.Observe(elapsed.Seconds())
	if res.OK {
		ProbesTotal.WithLabelValues("ok").Inc()
		return
	}
	ProbesTotal.WithLabelValues(string(res.Code)).Inc()
}

// ObserveResolution records the outcome of one slug resolution.
func ObserveResolution(outcome string) {
	ResolutionsTotal.WithLabelValues(outcome).Inc()
}
