package model

import "time"

// Customer is an optional registered patron attached to a ticket.
// Registered customers are priced with the showtime's rule
// coefficient, while walk-in guests (tickets without a customer)
// use the configured guest coefficient instead.
//
// Fields:
//  ID        – primary key identifier.
//  FullName  – customer's display name.
//  Phone     – contact phone number, unique.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Customer struct {
	ID        uint64    // customers.id
	FullName  string    // customers.full_name
	Phone     string    // customers.phone
	CreatedAt time.Time // customers.created_at
	UpdatedAt time.Time // customers.updated_at
}
