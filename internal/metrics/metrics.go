package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propmgmt_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "propmgmt_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	maintenanceRecordsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propmgmt_maintenance_records_created_total",
		Help: "Maintenance records created, by maintenance type",
	}, []string{"type"})

	issuesAutoResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "propmgmt_issues_auto_resolved_total",
		Help: "Issues resolved automatically by completed repair or replacement work",
	})

	statusDerivations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propmgmt_appliance_status_derivations_total",
		Help: "Appliance status recomputations, by resulting status",
	}, []string{"status"})

	analyticsCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propmgmt_analytics_cache_requests_total",
		Help: "Analytics cache lookups by result",
	}, []string{"result"})

	notificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propmgmt_notifications_total",
		Help: "Outbound notifications by kind and delivery result",
	}, []string{"kind", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func ObserveMaintenanceCreated(maintenanceType string) {
	maintenanceRecordsCreated.WithLabelValues(maintenanceType).Inc()
}

func ObserveAutoResolved(count int) {
	if count > 0 {
		issuesAutoResolved.Add(float64(count))
	}
}

func ObserveStatusDerivation(status string) {
	statusDerivations.WithLabelValues(status).Inc()
}

// ObserveCacheLookup records a hit or miss on the analytics cache.
func ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	analyticsCache.WithLabelValues(result).Inc()
}

// ObserveNotification records the final outcome of a notification delivery.
func ObserveNotification(kind string, delivered bool) {
	result := "failed"
	if delivered {
		result = "delivered"
	}
	notificationsSent.WithLabelValues(kind, result).Inc()
}

// GinMiddleware records request count and latency labelled by route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		ObserveHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
