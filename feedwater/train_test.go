package feedwater

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pwrsim/config"
	"pwrsim/fault"
)

const hotwell = 37.5

func designTrain(t *testing.T) (*Train, *config.FeedwaterConfig) {
	t.Helper()
	cfg := config.Default().Secondary.Feedwater
	return New(&cfg, []float64{500, 500, 500}, 1, EqualBalancer{}), &cfg
}

// one running pump rated for the whole header plus one spare
func singlePumpTrain() (*Train, *config.FeedwaterConfig) {
	cfg := config.Default().Secondary.Feedwater
	cfg.NumPumps = 2
	cfg.PumpsNormallyRunning = 1
	cfg.DesignFlowPerPump = 1500
	cfg.InitialConditions = config.FeedwaterInitialConditions{RunningPumps: 1, Flows: []float64{1500, 0}}
	return New(&cfg, []float64{1500}, 1, EqualBalancer{}), &cfg
}

func TestAdvance_DesignPoint(t *testing.T) {
	train, _ := designTrain(t)
	in := Input{
		SteamFlows:         []float64{500, 500, 500},
		LevelCorrections:   []float64{0, 0, 0},
		SuctionTemperature: hotwell,
	}
	var res Result
	for i := 0; i < 60; i++ {
		res = train.Advance(in, 1)
		require.Empty(t, res.Faults)
	}
	s := res.State
	assert.InDelta(t, 1500, s.TotalFlow, 1e-9)
	assert.InDeltaSlice(t, []float64{500, 500, 500}, s.SGFlows, 1e-9)
	assert.Equal(t, 3, s.RunningPumps)
	assert.Equal(t, Stopped, s.Pumps[3].Status)
	for _, p := range s.Pumps[:3] {
		assert.InDelta(t, 500, p.Delivered, 1e-9)
		assert.InDelta(t, 700, p.Head, 1e-9)
		assert.InDelta(t, 0.85, p.Efficiency, 1e-9)
		assert.Equal(t, 0.0, p.Recirculation)
	}
}

func TestDispatch_SpareStaysStoppedWithinRunningCapacity(t *testing.T) {
	train, cfg := designTrain(t)
	limit := float64(cfg.PumpsNormallyRunning) * cfg.MaximumFlowFraction * cfg.DesignFlowPerPump
	for i := 0; i < 200; i++ {
		res := train.Dispatch(limit, hotwell, 1)
		assert.Equal(t, Stopped, res.State.Pumps[3].Status)
	}
	for _, p := range train.Pumps()[:3] {
		assert.LessOrEqual(t, p.Delivered, cfg.MaximumFlowFraction*cfg.DesignFlowPerPump+1e-9)
	}
}

func TestDispatch_SpareStartsAfterHysteresisWindow(t *testing.T) {
	train, cfg := singlePumpTrain()
	demand := 1.2 * cfg.DesignFlowPerPump

	startedAt, runningAt := -1, -1
	transitions := 0
	prev := Stopped
	for step := 1; step <= int(cfg.SettlingTime); step++ {
		res := train.Dispatch(demand, hotwell, 1)
		spare := res.State.Pumps[1].Status
		if spare != prev {
			transitions++
			prev = spare
		}
		if spare == Starting && startedAt < 0 {
			startedAt = step
		}
		if spare == Running && runningAt < 0 {
			runningAt = step
		}
	}

	// not immediately: the full start window must elapse first
	assert.Equal(t, int(cfg.StartDelay), startedAt)
	require.Positive(t, runningAt)
	assert.LessOrEqual(t, float64(runningAt), cfg.SettlingTime)
	assert.Equal(t, 2, transitions, "stopped -> starting -> running, no chatter")

	res := train.Dispatch(demand, hotwell, 1)
	assert.InDelta(t, demand, res.State.TotalFlow, 1e-9)
	assert.Empty(t, res.Faults)
}

func TestDispatch_ShortLivedOverloadDoesNotStartSpare(t *testing.T) {
	train, cfg := singlePumpTrain()
	for i := 0; i < int(cfg.StartDelay)-1; i++ {
		train.Dispatch(1.2*cfg.DesignFlowPerPump, hotwell, 1)
	}
	train.Dispatch(cfg.DesignFlowPerPump, hotwell, 1)
	for i := 0; i < int(cfg.StartDelay)-1; i++ {
		res := train.Dispatch(1.2*cfg.DesignFlowPerPump, hotwell, 1)
		assert.Equal(t, Stopped, res.State.Pumps[1].Status)
	}
}

func TestDispatch_OverloadIsCappedAndFlagged(t *testing.T) {
	train, cfg := singlePumpTrain()
	res := train.Dispatch(1.2*cfg.DesignFlowPerPump, hotwell, 1)
	assert.InDelta(t, cfg.MaximumFlowFraction*cfg.DesignFlowPerPump, res.State.TotalFlow, 1e-9)
	require.Len(t, res.Faults, 1)
	assert.Equal(t, fault.PhysicalLimitViolation, res.Faults[0].Kind)
}

func TestDispatch_MinimumFlowClamp(t *testing.T) {
	train, cfg := designTrain(t)
	res := train.Dispatch(100, hotwell, 1)
	require.NotEmpty(t, res.Faults)
	assert.Equal(t, fault.PhysicalLimitViolation, res.Faults[0].Kind)
	assert.InDelta(t, cfg.MinimumFlowFraction*cfg.DesignTotalFlow, res.State.TotalFlow, 1e-9)
	for _, p := range res.State.Pumps {
		if p.Status == Running {
			assert.GreaterOrEqual(t, p.Flow, cfg.MinimumFlowFraction*cfg.DesignFlowPerPump-1e-9)
		}
	}
}

func TestDispatch_LowDemandStopsPumpAfterWindow(t *testing.T) {
	train, cfg := designTrain(t)
	// below stop_fraction of two-pump capacity
	demand := 0.5 * cfg.StopFraction * 2 * cfg.MaximumFlowFraction * cfg.DesignFlowPerPump
	var res Result
	for i := 0; i < int(cfg.StopDelay)-1; i++ {
		res = train.Dispatch(demand, hotwell, 1)
		assert.Equal(t, 3, res.State.RunningPumps)
	}
	res = train.Dispatch(demand, hotwell, 1)
	assert.Equal(t, 2, res.State.RunningPumps)

	// the next stop waits for another full window
	res = train.Dispatch(demand, hotwell, 1)
	assert.Equal(t, 2, res.State.RunningPumps)
}

func TestDispatch_NPSHProtection(t *testing.T) {
	train, cfg := designTrain(t)
	res := train.Dispatch(1500, 80, 1)
	warnings := 0
	for _, f := range res.Faults {
		if f.Kind == fault.Warning {
			warnings++
		}
	}
	assert.Equal(t, 3, warnings)
	for _, p := range res.State.Pumps[:3] {
		assert.Equal(t, Running, p.Status, "protected, not tripped")
		assert.Positive(t, p.Protection)
		assert.InDelta(t, cfg.MinimumFlowFraction*cfg.DesignFlowPerPump, p.Flow, 1e-9)
	}

	// protection holds, then the pump returns to service once npsh recovers
	for i := 0; i < int(cfg.ProtectionHold)+1; i++ {
		res = train.Dispatch(1500, hotwell, 1)
	}
	assert.InDelta(t, 1500, res.State.TotalFlow, 1e-9)
}

func TestAdvance_EmergencyCapsDemand(t *testing.T) {
	train, cfg := designTrain(t)
	res := train.Advance(Input{
		SteamFlows:         []float64{600, 600, 600},
		LevelCorrections:   []float64{0, 0, 0},
		Emergency:          true,
		SuctionTemperature: hotwell,
	}, 1)
	assert.True(t, res.State.Emergency)
	assert.InDelta(t, 3*cfg.EmergencyFlowPerSG, res.State.Demand, 1e-9)
	assert.InDelta(t, 3*cfg.EmergencyFlowPerSG, res.State.TotalFlow, 1e-9)
}

func TestAdvance_SGFlowsSumToHeader(t *testing.T) {
	train, _ := designTrain(t)
	res := train.Advance(Input{
		SteamFlows:         []float64{450, 500, 550},
		LevelCorrections:   []float64{20, 0, -20},
		SuctionTemperature: hotwell,
	}, 1)
	var sum float64
	for _, f := range res.State.SGFlows {
		sum += f
	}
	assert.InDelta(t, res.State.TotalFlow, sum, 1e-9)
	assert.Greater(t, res.State.SGFlows[2], res.State.SGFlows[0])
}

func TestCapacityBalancerFavoursHealthyPumps(t *testing.T) {
	cfg := config.Default().Secondary.Feedwater
	train := New(&cfg, []float64{500, 500, 500}, 1, CapacityBalancer{})
	train.pumps[0].Wear = 20
	res := train.Dispatch(1200, hotwell, 1)
	assert.Less(t, res.State.Pumps[0].Delivered, res.State.Pumps[1].Delivered)
	assert.InDelta(t, 1200, res.State.TotalFlow, 1e-9)
	assert.Equal(t, "capacity", train.Balancer().Name())
}

func TestWaterFill(t *testing.T) {
	shares := waterFill(1000, []float64{1, 1, 1}, []float64{200, 500, 500})
	assert.InDeltaSlice(t, []float64{200, 400, 400}, shares, 1e-9)

	shares = waterFill(2000, []float64{1, 1}, []float64{500, 500})
	assert.InDeltaSlice(t, []float64{500, 500}, shares, 1e-9)

	shares = waterFill(100, []float64{0, 1}, []float64{500, 500})
	assert.InDeltaSlice(t, []float64{0, 100}, shares, 1e-9)
}

func TestAgeAndOverhaul(t *testing.T) {
	train, _ := designTrain(t)
	faults := train.Age(25000, 0.5)
	require.Len(t, faults, 3)
	assert.InDelta(t, 12.5, train.Pumps()[0].Wear, 1e-9)
	assert.Equal(t, 0.0, train.Pumps()[3].Wear)

	train.Overhaul()
	assert.InDelta(t, 1.25, train.Pumps()[0].Wear, 1e-9)
}
