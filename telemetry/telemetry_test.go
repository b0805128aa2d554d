package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pwrsim/fault"
	"pwrsim/plant"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := NewExporter(reg, "pwrsim")

	e.Observe(plant.Snapshot{
		Step:              7,
		Mode:              plant.Emergency,
		Status:            plant.StatusDegraded,
		ElectricalPower:   0,
		CondenserPressure: 0.026,
		Loops:             []plant.Loop{{ID: 0, Pressure: 7.2, Level: 12.5}},
		Interlocks:        []string{plant.TurbineTrip},
		Faults: []fault.Fault{
			{Kind: fault.Interlock, Component: plant.TurbineTrip},
			{Kind: fault.Warning, Component: "fwp-1"},
		},
	})

	assert.Equal(t, 7.0, testutil.ToFloat64(e.step))
	assert.Equal(t, 0.026, testutil.ToFloat64(e.condenserPressure))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.mode.WithLabelValues("emergency")))
	assert.Equal(t, 0.0, testutil.ToFloat64(e.mode.WithLabelValues("steady_state")))
	assert.Equal(t, 7.2, testutil.ToFloat64(e.sgPressure.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.interlocks.WithLabelValues(plant.TurbineTrip)))
	assert.Equal(t, 0.0, testutil.ToFloat64(e.interlocks.WithLabelValues(plant.SteamDumpBlock)))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.faults.WithLabelValues("warning", "fwp-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.degradedSteps))

	// interlocks clear when the next snapshot no longer carries them
	e.Observe(plant.Snapshot{Step: 8, Mode: plant.SteadyState, Status: plant.StatusOK})
	assert.Equal(t, 0.0, testutil.ToFloat64(e.interlocks.WithLabelValues(plant.TurbineTrip)))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.degradedSteps))

	n, err := testutil.GatherAndCount(reg, "pwrsim_electrical_power_mwe", "pwrsim_mode")
	require.NoError(t, err)
	assert.Equal(t, 1+7, n)
}

func TestConsume(t *testing.T) {
	e := NewExporter(prometheus.NewRegistry(), "test")
	ch := make(chan plant.Snapshot, 3)
	for i := 1; i <= 3; i++ {
		ch <- plant.Snapshot{Step: i}
	}
	close(ch)
	e.Consume(ch)
	assert.Equal(t, 3.0, testutil.ToFloat64(e.step))
}
