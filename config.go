package missionsim

import (
	"math"
	"sort"
	"strings"
)

// Timings defines the scheduling windows of the loads, all in seconds from mission start.
type Timings struct {
	BeaconInterval         float64
	BeaconDuration         float64
	PassoverInterval       float64
	PassoverDurationExpOff float64 // Passover duration while the experiment is off.
	PassoverDurationExpOn  float64 // Passover duration while the experiment runs.
	ExpStartTime           float64
	ExpDuration            float64
}

// Validate implements the bundle validation.
func (t Timings) Validate() error {
	for _, p := range []struct {
		name string
		val  float64
	}{{"beacon_interval", t.BeaconInterval}, {"passover_interval", t.PassoverInterval}} {
		if !(p.val > 0) || math.IsInf(p.val, 0) {
			return newConfigError("timings", p.name, p.val, "must be a positive number of seconds")
		}
	}
	for _, p := range []struct {
		name string
		val  float64
	}{
		{"beacon_duration", t.BeaconDuration},
		{"passover_duration_exp_off", t.PassoverDurationExpOff},
		{"passover_duration_exp_on", t.PassoverDurationExpOn},
		{"exp_start_time", t.ExpStartTime},
		{"exp_duration", t.ExpDuration},
	} {
		if !(p.val >= 0) || math.IsInf(p.val, 0) {
			return newConfigError("timings", p.name, p.val, "must be a non-negative number of seconds")
		}
	}
	return nil
}

// EPS defines the electrical power subsystem characteristics.
type EPS struct {
	BatteryCapacity     float64 // mAh
	ConverterEfficiency float64 // in (0, 1]
	StartingChargeFrac  float64 // in [0, 1]
}

// Validate implements the bundle validation.
func (e EPS) Validate() error {
	if !(e.BatteryCapacity > 0) || math.IsInf(e.BatteryCapacity, 0) {
		return newConfigError("eps", "battery_capacity_mAh", e.BatteryCapacity, "must be positive")
	}
	if !(e.ConverterEfficiency > 0 && e.ConverterEfficiency <= 1) {
		return newConfigError("eps", "converter_efficiency", e.ConverterEfficiency, "must be in (0, 1]")
	}
	if !(e.StartingChargeFrac >= 0 && e.StartingChargeFrac <= 1) {
		return newConfigError("eps", "starting_charge_frac", e.StartingChargeFrac, "must be in [0, 1]")
	}
	return nil
}

// Temperatures stores the initial temperatures (K) of the three thermal nodes.
type Temperatures struct {
	Structure float64
	Battery   float64
	Payload   float64
}

// Validate implements the bundle validation.
func (t Temperatures) Validate() error {
	return validateKelvins("temperatures", map[string]float64{"structure": t.Structure, "battery": t.Battery, "payload": t.Payload})
}

func (t Temperatures) nodeValues() NodeValues {
	return NodeValues{Structure: t.Structure, Battery: t.Battery, Payload: t.Payload}
}

// Setpoints stores the heater thermostat temperatures (K).
type Setpoints struct {
	PayloadStasis float64 // Payload setpoint outside of the experiment.
	PayloadExp    float64 // Payload setpoint while the experiment runs.
	Battery       float64
}

// Validate implements the bundle validation.
func (s Setpoints) Validate() error {
	return validateKelvins("setpoints", map[string]float64{"payload_stasis": s.PayloadStasis, "payload_exp": s.PayloadExp, "battery": s.Battery})
}

func validateKelvins(bundle string, vals map[string]float64) error {
	// Sorted so that the reported field is stable.
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := vals[k]; !(v > 0) || math.IsInf(v, 0) {
			return newConfigError(bundle, k, v, "must be a positive, finite temperature in Kelvin")
		}
	}
	return nil
}

// StructureConstants are the structural constants of the thermal model.
// Conductive resistances may be +Inf to disable a conductive path.
type StructureConstants struct {
	AreaT    float64 // Total radiating surface area (m^2)
	RBatt    float64 // Battery internal resistance for self heating (ohm)
	RStrPay  float64 // Structure to payload resistance (K/W)
	RStrBatt float64 // Structure to battery resistance (K/W)
	CStr     float64 // Heat capacity of the structure (J/K)
	CBatt    float64 // Heat capacity of the battery (J/K)
	CPay     float64 // Heat capacity of the payload (J/K)
	E        float64 // Emissivity
	A        float64 // Absorptivity
}

// Validate implements the bundle validation.
func (s StructureConstants) Validate() error {
	if !(s.AreaT >= 0) || math.IsInf(s.AreaT, 0) {
		return newConfigError("structure", "area_t", s.AreaT, "must be non-negative")
	}
	if !(s.RBatt >= 0) || math.IsInf(s.RBatt, 0) {
		return newConfigError("structure", "r_batt", s.RBatt, "must be non-negative")
	}
	if !(s.RStrPay > 0) {
		return newConfigError("structure", "R_str_pay", s.RStrPay, "must be positive (inf disables conduction)")
	}
	if !(s.RStrBatt > 0) {
		return newConfigError("structure", "R_str_batt", s.RStrBatt, "must be positive (inf disables conduction)")
	}
	for _, c := range []struct {
		name string
		val  float64
	}{{"c_str", s.CStr}, {"c_batt", s.CBatt}, {"c_pay", s.CPay}} {
		if !(c.val > 0) || math.IsInf(c.val, 0) {
			return newConfigError("structure", c.name, c.val, "must be a positive heat capacity")
		}
	}
	if !(s.E >= 0 && s.E <= 1) {
		return newConfigError("structure", "e", s.E, "must be in [0, 1]")
	}
	if !(s.A >= 0 && s.A <= 1) {
		return newConfigError("structure", "a", s.A, "must be in [0, 1]")
	}
	return nil
}

// SolarArray defines the solar cells of one side of the satellite.
type SolarArray struct {
	CellsPerSide float64 // Number of cell strings per side.
	CellCurrent  float64 // Current of one string in full sun (mA).
}

// Validate implements the bundle validation.
func (s SolarArray) Validate() error {
	if !(s.CellsPerSide > 0) || math.IsInf(s.CellsPerSide, 0) {
		return newConfigError("solar", "cells_per_side", s.CellsPerSide, "must be positive")
	}
	if !(s.CellCurrent >= 0) || math.IsInf(s.CellCurrent, 0) {
		return newConfigError("solar", "cell_current_mA", s.CellCurrent, "must be non-negative")
	}
	return nil
}

// SideCurrent returns the current (mA) delivered by one side in full sun.
func (s SolarArray) SideCurrent() float64 {
	return s.CellCurrent * s.CellsPerSide
}

// Heaters defines the heater power (W) when commanded on.
type Heaters struct {
	Battery float64
	Payload float64
}

// Validate implements the bundle validation.
func (h Heaters) Validate() error {
	if !(h.Battery >= 0) || math.IsInf(h.Battery, 0) {
		return newConfigError("heaters", "battery_W", h.Battery, "must be non-negative")
	}
	if !(h.Payload >= 0) || math.IsInf(h.Payload, 0) {
		return newConfigError("heaters", "payload_W", h.Payload, "must be non-negative")
	}
	return nil
}

// Config groups all the bundles needed to build a Satellite.
// It only contains values, so a copy is fully independent of the original.
type Config struct {
	Timings      Timings
	EPS          EPS
	Temperatures Temperatures
	Setpoints    Setpoints
	Structure    StructureConstants
	Solar        SolarArray
	Heaters      Heaters
}

// Validate validates each bundle and returns the first error.
func (c Config) Validate() error {
	for _, v := range []interface{ Validate() error }{c.Timings, c.EPS, c.Temperatures, c.Setpoints, c.Structure, c.Solar, c.Heaters} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultConfig returns the HERON Mk II defaults.
func DefaultConfig() Config {
	return Config{
		Timings: Timings{
			BeaconInterval:         60,
			BeaconDuration:         1,
			PassoverInterval:       90 * 60,
			PassoverDurationExpOff: 600,
			PassoverDurationExpOn:  60,
			ExpStartTime:           5 * 60 * 60,
			ExpDuration:            2 * 24 * 60 * 60,
		},
		EPS:          EPS{BatteryCapacity: 20000, ConverterEfficiency: 0.8, StartingChargeFrac: 1},
		Temperatures: Temperatures{Structure: 300, Battery: 300, Payload: 300},
		Setpoints:    Setpoints{PayloadStasis: 273.15 + 30, PayloadExp: 273.15 + 38, Battery: 273.15 + 30},
		Structure: StructureConstants{
			AreaT:    0.0013,
			RBatt:    130e-3,
			RStrPay:  16.67,
			RStrBatt: 14,
			CStr:     900,
			CBatt:    850,
			CPay:     800,
			E:        0.58,
			A:        0.72,
		},
		Solar:   SolarArray{CellsPerSide: 3, CellCurrent: 500},
		Heaters: Heaters{Battery: 1.28, Payload: 2.5},
	}
}

// ParameterKeys lists every scalar configuration key, as used in scenario files and sweeps.
var ParameterKeys = []string{
	"timings.beacon_interval",
	"timings.beacon_duration",
	"timings.passover_interval",
	"timings.passover_duration_exp_off",
	"timings.passover_duration_exp_on",
	"timings.exp_start_time",
	"timings.exp_duration",
	"eps.battery_capacity_mAh",
	"eps.converter_efficiency",
	"eps.starting_charge_frac",
	"temperatures.structure",
	"temperatures.battery",
	"temperatures.payload",
	"setpoints.payload_stasis",
	"setpoints.payload_exp",
	"setpoints.battery",
	"structure.area_t",
	"structure.r_batt",
	"structure.R_str_pay",
	"structure.R_str_batt",
	"structure.c_str",
	"structure.c_batt",
	"structure.c_pay",
	"structure.e",
	"structure.a",
	"solar.cells_per_side",
	"solar.cell_current_mA",
	"heaters.battery_W",
	"heaters.payload_W",
}

// field returns a pointer to the parameter named by key (case insensitive).
func (c *Config) field(key string) (*float64, bool) {
	switch strings.ToLower(key) {
	case "timings.beacon_interval":
		return &c.Timings.BeaconInterval, true
	case "timings.beacon_duration":
		return &c.Timings.BeaconDuration, true
	case "timings.passover_interval":
		return &c.Timings.PassoverInterval, true
	case "timings.passover_duration_exp_off":
		return &c.Timings.PassoverDurationExpOff, true
	case "timings.passover_duration_exp_on":
		return &c.Timings.PassoverDurationExpOn, true
	case "timings.exp_start_time":
		return &c.Timings.ExpStartTime, true
	case "timings.exp_duration":
		return &c.Timings.ExpDuration, true
	case "eps.battery_capacity_mah":
		return &c.EPS.BatteryCapacity, true
	case "eps.converter_efficiency":
		return &c.EPS.ConverterEfficiency, true
	case "eps.starting_charge_frac":
		return &c.EPS.StartingChargeFrac, true
	case "temperatures.structure":
		return &c.Temperatures.Structure, true
	case "temperatures.battery":
		return &c.Temperatures.Battery, true
	case "temperatures.payload":
		return &c.Temperatures.Payload, true
	case "setpoints.payload_stasis":
		return &c.Setpoints.PayloadStasis, true
	case "setpoints.payload_exp":
		return &c.Setpoints.PayloadExp, true
	case "setpoints.battery":
		return &c.Setpoints.Battery, true
	case "structure.area_t":
		return &c.Structure.AreaT, true
	case "structure.r_batt":
		return &c.Structure.RBatt, true
	case "structure.r_str_pay":
		return &c.Structure.RStrPay, true
	case "structure.r_str_batt":
		return &c.Structure.RStrBatt, true
	case "structure.c_str":
		return &c.Structure.CStr, true
	case "structure.c_batt":
		return &c.Structure.CBatt, true
	case "structure.c_pay":
		return &c.Structure.CPay, true
	case "structure.e":
		return &c.Structure.E, true
	case "structure.a":
		return &c.Structure.A, true
	case "solar.cells_per_side":
		return &c.Solar.CellsPerSide, true
	case "solar.cell_current_ma":
		return &c.Solar.CellCurrent, true
	case "heaters.battery_w":
		return &c.Heaters.Battery, true
	case "heaters.payload_w":
		return &c.Heaters.Payload, true
	}
	return nil, false
}

// Get returns the value of the parameter named by key.
func (c Config) Get(key string) (float64, error) {
	ptr, ok := c.field(key)
	if !ok {
		bundle, field := splitKey(key)
		return 0, newConfigError(bundle, field, nil, "is not a known parameter")
	}
	return *ptr, nil
}

// With returns a copy of the configuration where the parameter named by key is set to val.
// The copy is not validated.
func (c Config) With(key string, val float64) (Config, error) {
	ptr, ok := c.field(key)
	if !ok {
		bundle, field := splitKey(key)
		return c, newConfigError(bundle, field, nil, "is not a known parameter")
	}
	*ptr = val
	return c, nil
}
