// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	AttendanceSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_attendance_submissions_total",
		Help: "Attendance submissions by result (correct, incorrect, rejected).",
	}, []string{"result"})

	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_like_toggles_total",
		Help: "Post like toggles by action (liked, unliked).",
	}, []string{"action"})

	NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_notifications_failed_total",
		Help: "Outbound notifications that failed and were swallowed.",
	}, []string{"kind"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_rate_limited_total",
		Help: "Requests rejected by the per-client limiter, by route.",
	}, []string{"route"})

	UploadsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_uploads_failed_total",
		Help: "Media uploads that failed, by target.",
	}, []string{"target"})
)

// GinMiddleware counts requests by matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
