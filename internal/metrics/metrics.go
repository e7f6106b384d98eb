package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	meetingsBooked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "grab_a_time",
			Name:      "meetings_booked_total",
			Help:      "Count of meetings booked by guests.",
		},
	)

	meetingsEdited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "grab_a_time",
			Name:      "meetings_edited_total",
			Help:      "Count of meeting edits.",
		},
	)

	meetingsCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grab_a_time",
			Name:      "meetings_cancelled_total",
			Help:      "Count of cancelled meetings by who cancelled.",
		},
		[]string{"by"},
	)

	handleCollisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "grab_a_time",
			Name:      "handle_collisions_total",
			Help:      "Count of generated handles that were already taken.",
		},
	)

	bookingRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grab_a_time",
			Name:      "booking_rejected_total",
			Help:      "Count of rejected bookings and edits by reason.",
		},
		[]string{"reason"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(meetingsBooked, meetingsEdited, meetingsCancelled, handleCollisions, bookingRejected)
	})
}

func IncMeetingBooked() { meetingsBooked.Inc() }

func IncMeetingEdited() { meetingsEdited.Inc() }

func IncMeetingCancelled(by string) {
	meetingsCancelled.WithLabelValues(by).Inc()
}

func IncHandleCollision() { handleCollisions.Inc() }

func IncBookingRejected(reason string) {
	bookingRejected.WithLabelValues(reason).Inc()
}
