package model

import "time"

// Hall represents an individual screening hall of the cinema.
// Halls own their seats and host showtimes; no two showtimes in the
// same hall may overlap in time.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique hall name.
//  Description – optional description of the hall.
//  SeatRows    – number of seating rows (nil if unspecified).
//  SeatCols    – number of seats per row (nil if unspecified).
//  IsActive    – whether the hall is active.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Hall struct {
	ID          uint64    // halls.id
	Name        string    // halls.name
	Description *string   // halls.description (nullable)
	SeatRows    *uint32   // halls.seat_rows (nullable)
	SeatCols    *uint32   // halls.seat_cols (nullable)
	IsActive    bool      // halls.is_active
	CreatedAt   time.Time // halls.created_at
	UpdatedAt   time.Time // halls.updated_at
}
