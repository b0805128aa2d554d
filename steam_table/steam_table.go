package steam_table

import (
	"math"
	"sort"
)

// Saturated water/steam properties, interpolated in ln(P).
// Pressure MPa, temperature C, enthalpy kJ/kg.

const (
	MinPressure = 0.004
	MaxPressure = 15.0

	// Specific heat of liquid water, kJ/kg/K
	WaterCp = 4.18

	Gravity = 9.81
)

type row struct {
	p  float64 // MPa
	t  float64 // C
	hf float64 // saturated liquid enthalpy
	hg float64 // saturated vapour enthalpy
}

var table = []row{
	{0.004, 28.96, 121.39, 2553.7},
	{0.005, 32.87, 137.75, 2560.7},
	{0.007, 39.00, 163.38, 2572.5},
	{0.010, 45.81, 191.81, 2583.9},
	{0.015, 53.97, 225.94, 2598.3},
	{0.020, 60.06, 251.42, 2608.9},
	{0.050, 81.32, 340.54, 2645.2},
	{0.100, 99.61, 417.50, 2674.9},
	{0.200, 120.21, 504.70, 2706.3},
	{0.500, 151.83, 640.09, 2748.1},
	{1.0, 179.88, 762.51, 2777.1},
	{2.0, 212.38, 908.47, 2798.3},
	{3.0, 233.85, 1008.3, 2803.2},
	{4.0, 250.35, 1087.4, 2800.8},
	{5.0, 263.94, 1154.5, 2794.2},
	{6.0, 275.59, 1213.9, 2784.6},
	{7.0, 285.83, 1267.5, 2772.6},
	{8.0, 295.01, 1317.1, 2758.7},
	{9.0, 303.35, 1363.7, 2742.9},
	{10.0, 311.00, 1408.1, 2725.5},
	{12.0, 324.68, 1491.5, 2685.4},
	{15.0, 342.16, 1610.3, 2610.7},
}

func clampPressure(p float64) float64 {
	if p < MinPressure {
		return MinPressure
	}
	if p > MaxPressure {
		return MaxPressure
	}
	return p
}

// bracketing rows and interpolation weight for pressure p
func byPressure(p float64) (lo, hi row, w float64) {
	p = clampPressure(p)
	i := sort.Search(len(table), func(i int) bool { return table[i].p >= p })
	if i == 0 {
		return table[0], table[0], 0
	}
	lo, hi = table[i-1], table[i]
	w = (math.Log(p) - math.Log(lo.p)) / (math.Log(hi.p) - math.Log(lo.p))
	return lo, hi, w
}

func byTemperature(t float64) (lo, hi row, w float64) {
	if t <= table[0].t {
		return table[0], table[0], 0
	}
	last := table[len(table)-1]
	if t >= last.t {
		return last, last, 0
	}
	i := sort.Search(len(table), func(i int) bool { return table[i].t >= t })
	lo, hi = table[i-1], table[i]
	w = (t - lo.t) / (hi.t - lo.t)
	return lo, hi, w
}

func lerp(a, b, w float64) float64 {
	return a + (b-a)*w
}

// SaturationTemperature returns T_sat in C for pressure p in MPa.
func SaturationTemperature(p float64) float64 {
	lo, hi, w := byPressure(p)
	return lerp(lo.t, hi.t, w)
}

// SaturationPressure returns P_sat in MPa for temperature t in C.
func SaturationPressure(t float64) float64 {
	lo, hi, w := byTemperature(t)
	return math.Exp(lerp(math.Log(lo.p), math.Log(hi.p), w))
}

// LiquidEnthalpy is the saturated-liquid enthalpy at pressure p.
func LiquidEnthalpy(p float64) float64 {
	lo, hi, w := byPressure(p)
	return lerp(lo.hf, hi.hf, w)
}

// VaporEnthalpy is the saturated-vapour enthalpy at pressure p.
func VaporEnthalpy(p float64) float64 {
	lo, hi, w := byPressure(p)
	return lerp(lo.hg, hi.hg, w)
}

// LatentHeat is h_g - h_f at pressure p.
func LatentHeat(p float64) float64 {
	return VaporEnthalpy(p) - LiquidEnthalpy(p)
}

// SubcooledEnthalpy approximates compressed liquid at temperature t by the
// saturated liquid enthalpy at the same temperature.
func SubcooledEnthalpy(t float64) float64 {
	lo, hi, w := byTemperature(t)
	return lerp(lo.hf, hi.hf, w)
}

// WetSteamEnthalpy is h_f + x*h_fg at pressure p.
func WetSteamEnthalpy(p, quality float64) float64 {
	hf := LiquidEnthalpy(p)
	return hf + quality*(VaporEnthalpy(p)-hf)
}

// Quality inverts WetSteamEnthalpy, clamped to [0, 1].
func Quality(p, h float64) float64 {
	hf := LiquidEnthalpy(p)
	x := (h - hf) / (VaporEnthalpy(p) - hf)
	return math.Max(0, math.Min(1, x))
}

// Kelvin converts C to K.
func Kelvin(t float64) float64 {
	return t + 273.15
}
