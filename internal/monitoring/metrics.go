package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_office_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ticket_office_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	TicketsSold = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticket_office_tickets_sold_total",
		Help: "Tickets sold since process start.",
	})

	SalesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_office_sales_rejected_total",
		Help: "Ticket sales rejected, by reason.",
	}, []string{"reason"})
)

// Instrument records request counts and latencies per route. The route
// template is used instead of the raw path to keep label cardinality down.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		requestsTotal.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
