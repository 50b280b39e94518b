// Package queue defines the reservation events exchanged over RabbitMQ
// together with their publisher and the audit-log consumer.
package queue

// QueueName is the durable queue carrying reservation events.
const QueueName = "reservation.events"

// Event types.
const (
	EventCreated   = "reservation.created"
	EventCancelled = "reservation.cancelled"
)

// ReservationEvent is published after a reservation is created or
// cancelled.  It carries enough information for downstream consumers to
// log, notify or reconcile without querying the primary database.
type ReservationEvent struct {
	Type          string `json:"type"`
	ReservationID string `json:"reservation_id"`
	EmployeeID    int64  `json:"emp_id"`
	ManagerID     int64  `json:"manager_id,omitempty"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	NumSlots      int    `json:"num_slots"`
	Seats         []int  `json:"seats"`
	Amount        int64  `json:"amount"` // charge on create, refund on cancel
	OccurredAt    string `json:"occurred_at"`
}
