package model

import "time"

// Ticket is the central mutable entity of the box office: a claim
// on one seat for one showtime with a lifecycle status.  At most one
// ticket in a non-terminal status (RESERVED or PAID) may exist per
// (showtime, seat) pair at any time; the database enforces this via
// a unique key over (showtime_id, seat_id, active) where active is 1
// for non-terminal tickets and NULL once the ticket reaches a
// terminal status.
//
// Fields:
//  ID         – primary key identifier.
//  ShowtimeID – showtime the seat is claimed for.
//  SeatID     – seat being claimed.
//  CustomerID – registered customer, nil for walk-in guests.
//  UserID     – staff user who created the ticket (audit).
//  StatusID   – current lifecycle status (references ticket_statuses).
//  CreatedAt  – creation timestamp; reservations expire relative to it.
//  UpdatedAt  – last status transition timestamp.
type Ticket struct {
	ID         uint64    // tickets.id
	ShowtimeID uint64    // tickets.showtime_id
	SeatID     uint64    // tickets.seat_id
	CustomerID *uint64   // tickets.customer_id (nullable)
	UserID     uint64    // tickets.user_id
	StatusID   uint8     // tickets.status_id
	CreatedAt  time.Time // tickets.created_at
	UpdatedAt  time.Time // tickets.updated_at
}
