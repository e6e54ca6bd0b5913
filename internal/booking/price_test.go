package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

func TestCoefficient(t *testing.T) {
	cfg := PriceConfig{SurchargeRate: 0.15, GuestCoefficient: 1.0}
	weekend := &model.PriceRule{ID: 7, Name: "weekend", Coefficient: 1.2}

	tests := []struct {
		name       string
		rule       *model.PriceRule
		registered bool
		cfg        PriceConfig
		want       float64
	}{
		{"registered with rule", weekend, true, cfg, 1.2},
		{"registered without rule", nil, true, cfg, 1.0},
		{"guest ignores rule", weekend, false, cfg, 1.0},
		{"guest custom coefficient", weekend, false, PriceConfig{GuestCoefficient: 1.1}, 1.1},
		{"zero rule coefficient falls back to 1", &model.PriceRule{Coefficient: 0}, true, cfg, 1.0},
		{"zero guest coefficient falls back to 1", nil, false, PriceConfig{}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Coefficient(tt.rule, tt.registered, tt.cfg), 1e-9)
		})
	}
}

func TestAmount(t *testing.T) {
	cfg := PriceConfig{SurchargeRate: 0.15, GuestCoefficient: 1.0}

	tests := []struct {
		name         string
		baseCents    int64
		coeff        float64
		confirmation bool
		want         int64
	}{
		{"direct sale base price", 10000, 1.0, false, 10000},
		{"direct sale with coefficient", 10000, 1.2, false, 12000},
		{"confirmation adds surcharge", 10000, 1.2, true, 13800},
		{"confirmation without coefficient", 10000, 1.0, true, 11500},
		{"rounds half up", 999, 1.5, false, 1499},             // 1498.5 -> 1499
		{"rounds once after surcharge", 999, 1.5, true, 1723}, // 1498.5 * 1.15 = 1723.275 -> 1723
		{"fractional coefficient", 101, 1.005, true, 117},     // 101.505 * 1.15 = 116.73 -> 117
		{"one cent ticket", 1, 1.0, true, 1},                  // 1.15 -> 1
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Amount(tt.baseCents, tt.coeff, tt.confirmation, cfg))
		})
	}
}

func TestAmountDeterministic(t *testing.T) {
	cfg := PriceConfig{SurchargeRate: 0.15}
	first := Amount(4250, 1.35, true, cfg)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Amount(4250, 1.35, true, cfg))
	}
}
