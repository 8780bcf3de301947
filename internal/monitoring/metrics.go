package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stadium_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stadium_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	seatsReserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stadium_seats_reserved_total",
			Help: "Seats reserved across all matches",
		},
	)

	seatsPriced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stadium_seats_priced_total",
			Help: "Seats priced for a match",
		},
	)

	reservationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stadium_reservation_failures_total",
			Help: "Rejected reservation attempts by reason",
		},
		[]string{"reason"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stadium_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stadium_rate_limited_total",
			Help: "Requests rejected by the rate limiter by backend",
		},
		[]string{"backend"},
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stadium_events_published_total",
			Help: "Broker publishes by status",
		},
		[]string{"status"},
	)
)

// TrackRequest records one served HTTP request.
func TrackRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// TrackReserved adds n reserved seats.
func TrackReserved(n int) { seatsReserved.Add(float64(n)) }

// TrackPriced adds n priced seats.
func TrackPriced(n int) { seatsPriced.Add(float64(n)) }

// TrackReservationFailure counts a rejected reservation.
func TrackReservationFailure(reason string) { reservationFailures.WithLabelValues(reason).Inc() }

// TrackCache records a cache HIT or MISS.
func TrackCache(result string) { cacheLookups.WithLabelValues(result).Inc() }

// TrackRateLimited counts a 429 from the given limiter backend.
func TrackRateLimited(backend string) { rateLimited.WithLabelValues(backend).Inc() }

// TrackPublish counts a broker publish attempt.
func TrackPublish(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	eventsPublished.WithLabelValues(status).Inc()
}
