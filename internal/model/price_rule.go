package model

import "time"

// PriceRule is a named multiplier applied to a showtime's base
// price, such as a morning discount or an evening premium.  Rules
// are optional reference data: a showtime without a rule implies a
// coefficient of 1.  The absence of a rule is always expressed by a
// nil Showtime.RuleID, never by a zero coefficient; a stored zero
// coefficient is treated as bad data and ignored by the pricing
// calculator.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique human readable rule name.
//  Coefficient – multiplier applied to the base price.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type PriceRule struct {
	ID          uint64    // price_rules.id
	Name        string    // price_rules.name
	Coefficient float64   // price_rules.coefficient
	CreatedAt   time.Time // price_rules.created_at
	UpdatedAt   time.Time // price_rules.updated_at
}
