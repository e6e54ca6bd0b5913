package model

import "time"

// Payment is an immutable ledger entry recording a monetary
// movement tied to a ticket.  The amount is signed: positive for a
// sale or confirmation charge, negative for a refund.  Payments are
// only ever inserted, never updated or deleted, so the ledger stays
// auditable even after the ticket itself reaches a terminal state.
//
// Fields:
//  ID          – primary key identifier.
//  TicketID    – ticket this entry belongs to.
//  AmountCents – signed amount in cents.
//  Method      – payment method (CASH, CARD, ...).
//  UserID      – staff user who took the payment (audit).
//  CreatedAt   – when the movement was recorded.
type Payment struct {
	ID          uint64    // payments.id
	TicketID    uint64    // payments.ticket_id
	AmountCents int64     // payments.amount_cents
	Method      string    // payments.method
	UserID      uint64    // payments.user_id
	CreatedAt   time.Time // payments.created_at
}
