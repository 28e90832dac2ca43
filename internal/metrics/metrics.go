package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Scans = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_requests_total",
		Help: "Total scan page requests.",
	})
	Fingerprints = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fingerprint_requests_total",
		Help: "Total fingerprint submissions.",
	})
	InsertErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "visit_insert_errors_total",
		Help: "Visit rows lost to storage errors.",
	})
	NotificationsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Scan notifications delivered.",
	})
	NotificationsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Scan notifications that failed to deliver.",
	})
	NotificationsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_dropped_total",
		Help: "Scan notifications dropped due to full buffer.",
	})
)

func init() {
	prometheus.MustRegister(Scans, Fingerprints, InsertErrors, NotificationsSent, NotificationsFailed, NotificationsDropped)
}

func Handler(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
