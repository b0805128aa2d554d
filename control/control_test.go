package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPID_ZeroErrorGivesBias(t *testing.T) {
	c := NewPID(Params{Kp: 2, Ki: 1, Kd: 0.5, OutputMin: -10, OutputMax: 10, Bias: 1})
	for i := 0; i < 10; i++ {
		assert.Equal(t, 1.0, c.Update(5, 5, 1))
	}
	assert.Equal(t, 0.0, c.State().Integral)
}

func TestPID_OutputClampedAndAntiWindup(t *testing.T) {
	c := NewPID(Params{Kp: 1, Ki: 1, OutputMin: 0, OutputMax: 1})
	for i := 0; i < 100; i++ {
		assert.Equal(t, 1.0, c.Update(10, 0, 1))
	}
	s := c.State()
	assert.True(t, s.Saturated)
	assert.Less(t, s.Integral, 1.0)

	// recovers as soon as the error reverses
	out := c.Update(0, 10, 1)
	assert.Equal(t, 0.0, out)
}

func TestPID_ResetIsExplicit(t *testing.T) {
	c := NewPID(Params{Ki: 0.1, OutputMin: -100, OutputMax: 100})
	c.Update(1, 0, 1)
	c.Update(1, 0, 1)
	require.InDelta(t, 2.0, c.State().Integral, 1e-12)
	c.Reset()
	assert.Equal(t, LoopState{}, c.State())
}

func TestPID_SwappedBounds(t *testing.T) {
	c := NewPID(Params{Kp: 1, OutputMin: 5, OutputMax: -5})
	assert.Equal(t, 5.0, c.Update(100, 0, 1))
}

func TestRateLimit(t *testing.T) {
	assert.InDelta(t, 0.6, RateLimit(0.5, 1, 0.1), 1e-12)
	assert.InDelta(t, 0.4, RateLimit(0.5, 0, -0.1), 1e-12)
	assert.Equal(t, 0.55, RateLimit(0.5, 0.55, 0.1))
}

func TestWeightsNormalize(t *testing.T) {
	w, skew, err := Weights{0.4, 0.4, 0.4}.Normalize()
	require.NoError(t, err)
	assert.True(t, skew)
	assert.InDelta(t, 1.0, w.Sum(), 1e-12)

	_, skew, err = Weights{0.5, 0.3, 0.2}.Normalize()
	require.NoError(t, err)
	assert.False(t, skew)

	_, _, err = Weights{0, 0, 0}.Normalize()
	assert.Error(t, err)
	_, _, err = Weights{-1, 1, 1}.Normalize()
	assert.Error(t, err)
}

func TestThreeElement_EquilibriumDemandIsSteamFlow(t *testing.T) {
	w, _, _ := Weights{0.5, 0.3, 0.2}.Normalize()
	te := NewThreeElement(w, Params{Kp: 0.5, Ki: 0.05, OutputMin: -200, OutputMax: 200})
	for i := 0; i < 20; i++ {
		assert.InDelta(t, 500, te.Demand(500, 500, 0, 1), 1e-9)
	}
	assert.Equal(t, 0.0, te.FlowState().Integral)
}

func TestThreeElement_Corrections(t *testing.T) {
	w, _, _ := Weights{0.5, 0.3, 0.2}.Normalize()
	te := NewThreeElement(w, Params{Kp: 0.5, OutputMin: -200, OutputMax: 200})

	// level below setpoint: positive correction raises demand
	assert.InDelta(t, 500+w.Level*100, te.Demand(500, 500, 100, 1), 1e-9)
	// feed lagging steam raises demand through the flow element
	assert.Greater(t, te.Demand(500, 450, 0, 1), 500.0)

	assert.Equal(t, 520.0, SingleElement(500, 20))
	assert.Equal(t, 0.0, SingleElement(10, -50))
}
