package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gallery"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_uploads_total",
		Help:      "Media uploads by outcome.",
	}, []string{"outcome"})

	uploadedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_uploaded_bytes_total",
		Help:      "Bytes written to the blob store by successful uploads.",
	})

	compensations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_blob_compensations_total",
		Help:      "Blobs removed because their metadata record could not be created.",
	})

	blobDeleteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_blob_delete_failures_total",
		Help:      "Best-effort blob deletions that failed and were swallowed.",
	})

	deletes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_deletes_total",
		Help:      "Media record deletions by outcome.",
	}, []string{"outcome"})

	tagCascades = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tag_cascade_media_updates_total",
		Help:      "Media records rewritten by tag rename/delete cascades.",
	}, []string{"op"})
)

// InitMetrics registers the collectors with the default registry. Safe to call repeatedly.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			uploads,
			uploadedBytes,
			compensations,
			blobDeleteFailures,
			deletes,
			tagCascades,
		)
	})
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// Middleware records request counts and latency keyed by the matched route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// UploadSucceeded counts a committed upload of n bytes.
func UploadSucceeded(n int64) {
	uploads.WithLabelValues("success").Inc()
	uploadedBytes.Add(float64(n))
}

// UploadFailed counts an upload that did not produce a record.
func UploadFailed() {
	uploads.WithLabelValues("failure").Inc()
}

// BlobCompensated counts a blob removed after a failed record create.
func BlobCompensated() {
	compensations.Inc()
}

// BlobDeleteFailed counts a swallowed blob deletion error.
func BlobDeleteFailed() {
	blobDeleteFailures.Inc()
}

// MediaDeleted counts a record deletion attempt by outcome ("deleted", "not_found" or "error").
func MediaDeleted(outcome string) {
	deletes.WithLabelValues(outcome).Inc()
}

// TagCascade counts media rows rewritten by a cascade ("rename" or "delete").
func TagCascade(op string, rows int64) {
	tagCascades.WithLabelValues(op).Add(float64(rows))
}
