package fault

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	v, faults := Clamp(nil, "sg-1", "thermal power", 12, 0, 10)
	assert.Equal(t, 10.0, v)
	require.Len(t, faults, 1)
	assert.Equal(t, PhysicalLimitViolation, faults[0].Kind)
	assert.True(t, faults[0].Degrading())

	v, faults = Clamp(faults, "sg-1", "thermal power", 5, 0, 10)
	assert.Equal(t, 5.0, v)
	assert.Len(t, faults, 1)
}

func TestWarningDoesNotDegrade(t *testing.T) {
	assert.False(t, Warn("fw", "npsh", 1, 2).Degrading())
	assert.Equal(t, "warning", Warning.String())
}

func TestCheckFinite(t *testing.T) {
	require.NoError(t, CheckFinite(3, "turbine", Reading{Name: "power", Value: 1000}))

	err := CheckFinite(3, "turbine", Reading{Name: "power", Value: math.NaN()})
	var nd *NumericDivergence
	require.True(t, errors.As(err, &nd))
	assert.Equal(t, "power", nd.Quantity)
	assert.Equal(t, 3, nd.Step)

	assert.Error(t, CheckFinite(0, "x", Reading{Name: "y", Value: 2 * Unbounded}))
}

func TestCheckFiniteReportsFirstInOrder(t *testing.T) {
	readings := []Reading{
		{Name: "pressure", Value: 7},
		{Name: "level", Value: math.Inf(1)},
		{Name: "steam_flow", Value: math.NaN()},
		{Name: "thermal_power", Value: math.NaN()},
	}
	for i := 0; i < 20; i++ {
		err := CheckFinite(9, "sg-1", readings...)
		var nd *NumericDivergence
		require.ErrorAs(t, err, &nd)
		assert.Equal(t, "level", nd.Quantity)
		assert.Equal(t, "numeric divergence at step 9: sg-1.level = +Inf", err.Error())
	}
}
