package handler

import (
	"fmt"
	"net/http"

	"github.com/coursehub/content/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "content_profile_cache_hits_total %d\n", snap.ProfileCacheHits)
	writeMetric(w, "content_profile_cache_misses_total %d\n", snap.ProfileCacheMisses)
	writeMetric(w, "content_profile_updates_total %d\n", snap.ProfilesUpdated)

	writeMetric(w, "content_meta_requests_total %d\n", snap.MetaRequests)
	writeMetric(w, "content_review_lookups_total{result=\"found\"} %d\n", snap.ReviewLookupsFound)
	writeMetric(w, "content_review_lookups_total{result=\"absent\"} %d\n", snap.ReviewLookupsAbsent)

	writeMetric(w, "content_http_request_duration_seconds_count %d\n", snap.RequestDurationCount)
	writeMetric(w, "content_http_request_duration_seconds_sum %.6f\n", float64(snap.RequestDurationTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
