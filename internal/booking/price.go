package booking

import (
	"math"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// PriceConfig carries the situational pricing knobs.  SurchargeRate
// is the extra fraction charged when a held reservation is
// confirmed instead of sold directly (0.15 means +15%).
// GuestCoefficient replaces the showtime's rule coefficient for
// walk-in guests without a customer record (1.0 keeps guest prices
// equal to the base price).
type PriceConfig struct {
	SurchargeRate    float64
	GuestCoefficient float64
}

// Coefficient resolves the multiplier applied to a showtime's base
// price.  Registered customers use the showtime's rule coefficient;
// a showtime without a rule (nil) implies 1.  Guests always use the
// configured guest coefficient.  A resolved coefficient of exactly
// zero is treated as 1: the absence of a rule is modelled by a nil
// rule reference, so a stored zero is bad data, not a free ticket.
func Coefficient(rule *model.PriceRule, registered bool, cfg PriceConfig) float64 {
	coeff := cfg.GuestCoefficient
	if registered {
		coeff = 1
		if rule != nil {
			coeff = rule.Coefficient
		}
	}
	if coeff == 0 {
		coeff = 1
	}
	return coeff
}

// Amount computes the final ticket price in cents from the base
// price and a resolved coefficient.  When confirmation is true the
// booking surcharge is applied on top of the coefficient-adjusted
// price.  Rounding half-up to whole cents happens once, after the
// last step.  The function is pure and deterministic given its
// inputs.
func Amount(baseCents int64, coeff float64, confirmation bool, cfg PriceConfig) int64 {
	amount := float64(baseCents) * coeff
	if confirmation {
		amount *= 1 + cfg.SurchargeRate
	}
	return roundHalfUp(amount)
}

// roundHalfUp rounds to the nearest integer with ties going up.
// Prices are never negative, so flooring x+0.5 is sufficient.
func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}
