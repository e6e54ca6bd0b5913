// Package queue defines message payloads exchanged over the message broker.
package queue

// Event kinds published to the ticket.events queue.
const (
	KindTicketIssued   = "TICKET_ISSUED"
	KindTicketRefunded = "TICKET_REFUNDED"
)

// TicketEvent is published when a ticket is paid (direct sale or
// reservation confirmation) or refunded.  It carries enough
// information for downstream consumers to log, notify or feed
// analytics without querying the primary database.  AmountCents is
// signed the same way as the payment ledger: positive for charges,
// negative for refunds.
type TicketEvent struct {
	Kind        string `json:"kind"`
	TicketID    uint64 `json:"ticket_id"`
	ShowtimeID  uint64 `json:"showtime_id"`
	SeatID      uint64 `json:"seat_id"`
	UserID      uint64 `json:"user_id"`
	FilmTitle   string `json:"film_title"`
	StartsAt    string `json:"starts_at"`
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
	OccurredAt  string `json:"occurred_at"`
}
