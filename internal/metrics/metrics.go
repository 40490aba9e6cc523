package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campmgr",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by backend.",
		},
		[]string{"backend"},
	)

	bookingFreed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campmgr",
			Name:      "booking_freed_total",
			Help:      "Count of units freed by backend.",
		},
		[]string{"backend"},
	)

	bookingExtended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campmgr",
			Name:      "booking_extended_total",
			Help:      "Count of booking extensions by backend.",
		},
		[]string{"backend"},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "campmgr",
			Name:      "booking_conflict_total",
			Help:      "Count of booking creations rejected because the unit was already booked.",
		},
	)

	unitDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campmgr",
			Name:      "unit_deleted_total",
			Help:      "Count of units soft-deleted by backend.",
		},
		[]string{"backend"},
	)

	localResets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "campmgr",
			Name:      "local_document_reset_total",
			Help:      "Count of malformed local documents silently reset to blank.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingCreated, bookingFreed, bookingExtended,
			bookingConflicts, unitDeleted, localResets,
		)
	})
}

func IncBookingCreated(backend string) {
	bookingCreated.WithLabelValues(backend).Inc()
}

func IncBookingFreed(backend string) {
	bookingFreed.WithLabelValues(backend).Inc()
}

func IncBookingExtended(backend string) {
	bookingExtended.WithLabelValues(backend).Inc()
}

func IncBookingConflict() {
	bookingConflicts.Inc()
}

func IncUnitDeleted(backend string) {
	unitDeleted.WithLabelValues(backend).Inc()
}

func IncLocalReset() {
	localResets.Inc()
}
