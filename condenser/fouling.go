package condenser

import (
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"pwrsim/fault"
)

// Deposits are water-side fouling layer thicknesses in mm.
type Deposits struct {
	Biofouling float64 `json:"biofouling"`
	Scale      float64 `json:"scale"`
	Corrosion  float64 `json:"corrosion"`
}

// deposit thermal conductivities, W/mK
const (
	bioConductivity       = 0.5
	scaleConductivity     = 2.0
	corrosionConductivity = 1.0
)

func (d Deposits) resistance() float64 {
	return d.Biofouling/1000/bioConductivity +
		d.Scale/1000/scaleConductivity +
		d.Corrosion/1000/corrosionConductivity
}

func (d Deposits) Total() float64 {
	return d.Biofouling + d.Scale + d.Corrosion
}

// removal fractions per cleaning method
var cleanings = map[string]Deposits{
	"chemical":   {Biofouling: 0.8, Scale: 0.6, Corrosion: 0.3},
	"mechanical": {Biofouling: 0.5, Scale: 0.7, Corrosion: 0.8},
	"hydroblast": {Biofouling: 0.9, Scale: 0.4, Corrosion: 0.9},
}

// ErrUnknownCleaning is returned by Clean for a method it does not know.
var ErrUnknownCleaning = errors.New("unknown cleaning method")

// Age grows the deposits and fails tubes over hours of operation.
// aggressiveness scales corrosion and tube failure, 0 for ideal chemistry.
func (c *Condenser) Age(hours, aggressiveness float64) []fault.Fault {
	var faults []fault.Fault
	if hours <= 0 {
		return nil
	}
	f := c.cfg.Fouling
	warm := math.Max(0, 1+f.BiofoulingTempCoef*(c.state.CoolingWaterInlet-25))
	khr := hours / 1000
	c.deposits.Biofouling += f.BiofoulingRate * khr * warm
	c.deposits.Scale += f.ScaleRate * khr
	c.deposits.Corrosion += f.CorrosionRate * khr * (1 + aggressiveness)
	c.hoursSinceCleaning += hours

	before := c.tubes.leaking
	c.tubes.age(c.cfg.TubeFailureRate*(1+aggressiveness), hours)
	if math.Floor(c.tubes.leaking) > math.Floor(before) {
		faults = append(faults, fault.Warn(component, "condenser tube leak", c.tubes.leaking, 0))
	}
	c.state.Fouling = c.deposits
	c.state.FoulingResistance = c.foulingResistance()
	c.state.HeatTransferCoefficient = c.overallCoefficient()
	c.state.ActiveTubes = c.tubes.active
	c.state.LeakingTubes = c.tubes.leaking
	c.state.TubeLeakRate = c.tubes.leakRate()
	c.state.HoursSinceCleaning = c.hoursSinceCleaning
	c.state.DistributionFactor = c.distributionFactor()
	return faults
}

// Clean removes deposits with one of the chemical, mechanical or
// hydroblast methods and returns the thickness removed in mm.
func (c *Condenser) Clean(method string) (float64, error) {
	r, ok := cleanings[method]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCleaning, method)
	}
	removed := Deposits{
		Biofouling: c.deposits.Biofouling * r.Biofouling,
		Scale:      c.deposits.Scale * r.Scale,
		Corrosion:  c.deposits.Corrosion * r.Corrosion,
	}
	c.deposits.Biofouling -= removed.Biofouling
	c.deposits.Scale -= removed.Scale
	c.deposits.Corrosion -= removed.Corrosion
	c.hoursSinceCleaning = 0

	log.WithFields(log.Fields{
		"method":  method,
		"removed": removed.Total(),
		"left":    c.deposits.Total(),
	}).Info("condenser cleaned")
	c.state.Fouling = c.deposits
	c.state.FoulingResistance = c.foulingResistance()
	c.state.HeatTransferCoefficient = c.overallCoefficient()
	c.state.HoursSinceCleaning = 0
	c.state.DistributionFactor = 1
	return removed.Total(), nil
}

// PlugTubes plugs every leaking tube and returns how many were plugged.
func (c *Condenser) PlugTubes() float64 {
	n := c.tubes.plug()
	log.WithFields(log.Fields{
		"plugged": n,
		"active":  c.tubes.active,
	}).Info("condenser tubes plugged")
	c.state.ActiveTubes = c.tubes.active
	c.state.LeakingTubes = c.tubes.leaking
	c.state.TubeLeakRate = c.tubes.leakRate()
	return n
}
