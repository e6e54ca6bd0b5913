package model

import "time"

// Showtime represents a scheduled screening of a film in a
// particular hall.  A showtime carries the base price used by the
// pricing calculator and may reference an optional price rule whose
// coefficient scales the base price.  Showtimes are immutable once
// created; rescheduling is not supported, only creation with an
// overlap check against other showtimes in the same hall.
//
// Fields:
//  ID             – primary key identifier.
//  HallID         – hall where the screening takes place.
//  FilmTitle      – title of the film being screened.
//  StartsAt       – when the screening begins (UTC).
//  EndsAt         – when the hall is released again, including the
//                   cleanup window (must be after StartsAt).
//  BasePriceCents – base ticket price in cents before coefficients
//                   and surcharges.
//  RuleID         – optional price rule; nil means no rule and an
//                   effective coefficient of 1.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Showtime struct {
	ID             uint64    // showtimes.id
	HallID         uint64    // showtimes.hall_id
	FilmTitle      string    // showtimes.film_title
	StartsAt       time.Time // showtimes.starts_at
	EndsAt         time.Time // showtimes.ends_at
	BasePriceCents int64     // showtimes.base_price_cents
	RuleID         *uint64   // showtimes.rule_id (nullable)
	CreatedAt      time.Time // showtimes.created_at
	UpdatedAt      time.Time // showtimes.updated_at
}
