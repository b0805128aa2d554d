// Package telemetry exports plant snapshots as Prometheus metrics.
package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"pwrsim/plant"
)

var modes = []plant.Mode{
	plant.Initializing, plant.SteadyState, plant.LoadFollowing, plant.Transient,
	plant.Emergency, plant.ShuttingDown, plant.Stopped,
}

type Exporter struct {
	step              prometheus.Gauge
	demand            prometheus.Gauge
	electricalPower   prometheus.Gauge
	thermalPower      prometheus.Gauge
	steamFlow         prometheus.Gauge
	feedwaterFlow     prometheus.Gauge
	condenserPressure prometheus.Gauge
	runningPumps      prometheus.Gauge
	chloride          prometheus.Gauge
	mode              *prometheus.GaugeVec
	sgPressure        *prometheus.GaugeVec
	sgLevel           *prometheus.GaugeVec
	interlocks        *prometheus.GaugeVec
	faults            *prometheus.CounterVec
	degradedSteps     prometheus.Counter
}

// NewExporter registers the plant metrics on reg under namespace.
func NewExporter(reg prometheus.Registerer, namespace string) *Exporter {
	f := promauto.With(reg)
	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}
	return &Exporter{
		step:              gauge("step", "Last completed simulation step."),
		demand:            gauge("load_demand_ratio", "Ramped load demand as a fraction of rated power."),
		electricalPower:   gauge("electrical_power_mwe", "Net electrical output."),
		thermalPower:      gauge("thermal_power_mw", "Heat transferred by all steam generators."),
		steamFlow:         gauge("steam_flow_kg_per_s", "Steam admitted to the turbine."),
		feedwaterFlow:     gauge("feedwater_flow_kg_per_s", "Feedwater header flow."),
		condenserPressure: gauge("condenser_pressure_mpa", "Condenser back pressure."),
		runningPumps:      gauge("feedwater_running_pumps", "Feedwater pumps in the running state."),
		chloride:          gauge("chloride_ppb", "Secondary water chloride concentration."),
		mode: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mode",
			Help:      "1 for the current plant mode, 0 otherwise.",
		}, []string{"mode"}),
		sgPressure: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "steam_generator_pressure_mpa",
			Help:      "Steam generator secondary pressure.",
		}, []string{"sg"}),
		sgLevel: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "steam_generator_level_m",
			Help:      "Steam generator narrow range level.",
		}, []string{"sg"}),
		interlocks: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "interlock_active",
			Help:      "1 while the named interlock is latched.",
		}, []string{"interlock"}),
		faults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faults_total",
			Help:      "Component faults by kind and component.",
		}, []string{"kind", "component"}),
		degradedSteps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_steps_total",
			Help:      "Steps flagged degraded.",
		}),
	}
}

// Observe updates every metric from one snapshot.
func (e *Exporter) Observe(s plant.Snapshot) {
	e.step.Set(float64(s.Step))
	e.demand.Set(s.Demand)
	e.electricalPower.Set(s.ElectricalPower)
	e.thermalPower.Set(s.ThermalPower)
	e.steamFlow.Set(s.SteamFlow)
	e.feedwaterFlow.Set(s.FeedwaterFlow)
	e.condenserPressure.Set(s.CondenserPressure)
	e.runningPumps.Set(float64(s.Feedwater.RunningPumps))
	e.chloride.Set(s.Chemistry.ChloridePPB)

	for _, m := range modes {
		v := 0.0
		if m == s.Mode {
			v = 1
		}
		e.mode.WithLabelValues(m.String()).Set(v)
	}
	for _, l := range s.Loops {
		id := strconv.Itoa(l.ID + 1)
		e.sgPressure.WithLabelValues(id).Set(l.Pressure)
		e.sgLevel.WithLabelValues(id).Set(l.Level)
	}
	for _, name := range []string{plant.TurbineTrip, plant.SteamDumpBlock, plant.FeedwaterRunback} {
		e.interlocks.WithLabelValues(name).Set(0)
	}
	for _, name := range s.Interlocks {
		e.interlocks.WithLabelValues(name).Set(1)
	}
	for _, f := range s.Faults {
		e.faults.WithLabelValues(f.Kind.String(), f.Component).Inc()
	}
	if s.Degraded() {
		e.degradedSteps.Inc()
	}
}

// Consume observes everything arriving on ch until it closes.
func (e *Exporter) Consume(ch <-chan plant.Snapshot) {
	var n int
	for s := range ch {
		e.Observe(s)
		n++
	}
	log.WithFields(log.Fields{"snapshots": n}).Debug("telemetry subscriber finished")
}
