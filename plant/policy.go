package plant

import (
	"pwrsim/config"
	"pwrsim/feedwater"
)

// Coordination decides how the plant answers a feedwater shortfall.
type Coordination interface {
	Name() string
	// Runback returns a demand ceiling, as a fraction of rated load, when
	// the turbine should be run back to what feedwater can supply.
	Runback(fw feedwater.State, designFlow float64) (float64, bool)
}

// Coordinated runs the turbine back to the delivered feedwater flow.
type Coordinated struct{}

func (Coordinated) Name() string { return "coordinated" }

func (Coordinated) Runback(fw feedwater.State, designFlow float64) (float64, bool) {
	if fw.Shortfall <= 1e-6 || designFlow <= 0 {
		return 0, false
	}
	return fw.TotalFlow / designFlow, true
}

// Independent leaves each system to its own controls.
type Independent struct{}

func (Independent) Name() string { return "independent" }

func (Independent) Runback(feedwater.State, float64) (float64, bool) {
	return 0, false
}

func coordinationFor(cfg *config.PlantConfiguration) Coordination {
	if cfg.Simulation.SystemCoordination {
		return Coordinated{}
	}
	return Independent{}
}

func balancerFor(cfg *config.PlantConfiguration) feedwater.Balancer {
	if cfg.Simulation.AutoLoadBalancing {
		return feedwater.CapacityBalancer{}
	}
	return feedwater.EqualBalancer{}
}
