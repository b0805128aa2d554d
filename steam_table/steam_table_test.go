package steam_table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaturationAtTablePoints(t *testing.T) {
	assert.InDelta(t, 285.83, SaturationTemperature(7.0), 1e-9)
	assert.InDelta(t, 2772.6, VaporEnthalpy(7.0), 1e-9)
	assert.InDelta(t, 163.38, LiquidEnthalpy(0.007), 1e-9)
	assert.InDelta(t, 39.0, SaturationTemperature(0.007), 1e-9)
}

func TestSaturationPressureInvertsTemperature(t *testing.T) {
	for _, p := range []float64{0.006, 0.05, 1.5, 6.9, 7.4} {
		got := SaturationPressure(SaturationTemperature(p))
		assert.InEpsilon(t, p, got, 0.02, "p=%v", p)
	}
}

func TestOutOfRangePressureIsClamped(t *testing.T) {
	assert.Equal(t, SaturationTemperature(MinPressure), SaturationTemperature(0))
	assert.Equal(t, VaporEnthalpy(MaxPressure), VaporEnthalpy(100))
}

func TestQualityRoundTrip(t *testing.T) {
	h := WetSteamEnthalpy(0.007, 0.8)
	assert.InDelta(t, 0.8, Quality(0.007, h), 1e-9)
	assert.Equal(t, 1.0, Quality(0.007, 9000))
	assert.Equal(t, 0.0, Quality(0.007, 0))
}

func TestPolynomial(t *testing.T) {
	p := Polynomial{1.15, 0, -0.15}
	assert.InDelta(t, 1.0, p.Eval(1), 1e-12)
	assert.InDelta(t, 1.15, p.Eval(0), 1e-12)
	assert.InDelta(t, -0.3, p.Derivative().Eval(1), 1e-12)
	assert.Equal(t, 0.0, Polynomial{}.Eval(3))
	assert.Equal(t, Polynomial{0}, Polynomial{2}.Derivative())
}
