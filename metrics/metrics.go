package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"checkoutlens/api/models"
)

var (
	initOnce sync.Once

	eventsRecordedCounter  *prometheus.CounterVec
	eventsIgnoredCounter   prometheus.Counter
	eventsRejectedCounter  *prometheus.CounterVec
	dashboardBuildsCounter prometheus.Counter
	dashboardCacheCounter  *prometheus.CounterVec
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		eventsRecordedCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "friction_events_recorded_total",
				Help: "Total number of friction events written to the store, by type.",
			},
			[]string{"type"},
		)

		eventsIgnoredCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "friction_events_ignored_total",
				Help: "Total number of events acknowledged but dropped by the ignore list.",
			},
		)

		eventsRejectedCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "friction_events_rejected_total",
				Help: "Total number of rejected track calls, by reason.",
			},
			[]string{"reason"},
		)

		dashboardBuildsCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dashboard_builds_total",
				Help: "Total number of dashboard payload assemblies.",
			},
		)

		dashboardCacheCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_cache_requests_total",
				Help: "Dashboard payload requests by cache outcome.",
			},
			[]string{"outcome"},
		)

		prometheus.MustRegister(
			eventsRecordedCounter,
			eventsIgnoredCounter,
			eventsRejectedCounter,
			dashboardBuildsCounter,
			dashboardCacheCounter,
		)

		// Ensure the common labels are visible at /metrics before first increment.
		for _, t := range []string{
			models.EventSessionStart,
			models.EventAddToCart,
			models.EventRemoveFromCart,
			models.EventCheckoutStart,
			models.EventValidationError,
			models.EventFormAbandonment,
			models.EventOrderCreated,
			models.EventOrderCompleted,
		} {
			eventsRecordedCounter.WithLabelValues(t)
		}
		for _, r := range []string{"missing_session", "missing_type", "payload", "storage", "disabled"} {
			eventsRejectedCounter.WithLabelValues(r)
		}
		for _, o := range []string{"hit", "miss"} {
			dashboardCacheCounter.WithLabelValues(o)
		}
	})
}

func IncRecorded(eventType string) {
	Init()
	eventsRecordedCounter.WithLabelValues(eventType).Inc()
}

func IncIgnored() {
	Init()
	eventsIgnoredCounter.Inc()
}

func IncRejected(reason string) {
	Init()
	eventsRejectedCounter.WithLabelValues(reason).Inc()
}

func IncDashboardBuild() {
	Init()
	dashboardBuildsCounter.Inc()
}

func IncDashboardCache(outcome string) {
	Init()
	dashboardCacheCounter.WithLabelValues(outcome).Inc()
}
