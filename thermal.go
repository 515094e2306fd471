package missionsim

import (
	"fmt"
	"math"
)

const (
	// StefanBoltzmann constant in W m^-2 K^-4.
	StefanBoltzmann = 5.67e-8
	// SolarFlux at 1 AU in W m^-2.
	SolarFlux = 1361.0
	// selfHeatFactor scales the I^2 R dissipation of the battery pack.
	selfHeatFactor = 4.0
)

// Node identifies one of the lumped thermal nodes.
type Node uint8

const (
	// Structure is the primary structure node.
	Structure Node = iota
	// BatteryNode is the battery pack node.
	BatteryNode
	// Payload is the payload node.
	Payload
)

func (n Node) String() string {
	switch n {
	case Structure:
		return "structure"
	case BatteryNode:
		return "battery"
	case Payload:
		return "payload"
	}
	panic(fmt.Errorf("cannot stringify unknown thermal node %d", uint8(n)))
}

// NodeValues stores one value per thermal node, e.g. temperatures (K) or heat flows (W).
type NodeValues struct {
	Structure float64
	Battery   float64
	Payload   float64
}

// Get returns the value of the provided node.
func (v NodeValues) Get(n Node) float64 {
	switch n {
	case Structure:
		return v.Structure
	case BatteryNode:
		return v.Battery
	case Payload:
		return v.Payload
	}
	panic(fmt.Errorf("unknown thermal node %d", uint8(n)))
}

func (v NodeValues) vector() []float64 {
	return []float64{v.Structure, v.Battery, v.Payload}
}

func nodeValuesFromVector(s []float64) NodeValues {
	return NodeValues{Structure: s[0], Battery: s[1], Payload: s[2]}
}

func (v NodeValues) String() string {
	return fmt.Sprintf("str=%.3f batt=%.3f pay=%.3f", v.Structure, v.Battery, v.Payload)
}

// ThermalNode is a lumped thermal mass.
type ThermalNode struct {
	Temperature  float64 // K
	HeatCapacity float64 // J/K
	HeatFlow     float64 // W, net heat flow in during the last step
}

// SolarAbsorbed returns the heat (W) absorbed from the sun through the provided exposed area (m^2).
func (s StructureConstants) SolarAbsorbed(area float64) float64 {
	return s.A * area * SolarFlux
}

// Radiated returns the heat (W) radiated by the full surface of the structure at temperature T.
func (s StructureConstants) Radiated(T float64) float64 {
	return s.E * StefanBoltzmann * s.AreaT * math.Pow(T, 4)
}

// SelfHeat returns the heat (W) dissipated in the battery by the provided discharge current (mA).
func (s StructureConstants) SelfHeat(current float64) float64 {
	rI := s.RBatt * current / 1000
	return selfHeatFactor * rI * rI
}

// conduction returns the heat (W) flowing from the hot to the cold side of resistance R (K/W).
// An infinite resistance conducts nothing.
func conduction(R, hot, cold float64) float64 {
	if math.IsInf(R, 1) {
		return 0
	}
	return (hot - cold) / R
}

// heater returns the heater power when commanded on.
func heater(power float64, on bool) float64 {
	if on {
		return power
	}
	return 0
}

// ThermalInputs are the exogenous inputs of one thermal step.
type ThermalInputs struct {
	SunArea       float64 // Total projected area exposed to the sun (m^2)
	ZCapSunArea   float64 // Projected area of the payload end cap exposed to the sun (m^2)
	Discharge     float64 // Net battery current (mA) used for self heating
	BatteryHeater bool
	PayloadHeater bool
}

// HeatFlows returns the net heat flow (W) into each node at the provided temperatures.
func (s StructureConstants) HeatFlows(T NodeValues, in ThermalInputs, h Heaters) NodeValues {
	strToPay := conduction(s.RStrPay, T.Structure, T.Payload)
	strToBatt := conduction(s.RStrBatt, T.Structure, T.Battery)
	radiated := s.Radiated(T.Structure)
	return NodeValues{
		Structure: s.SolarAbsorbed(in.SunArea) - radiated - strToPay - strToBatt,
		Battery:   strToBatt + heater(h.Battery, in.BatteryHeater) + s.SelfHeat(in.Discharge),
		// The payload end cap radiates with the structure temperature.
		Payload: strToPay + heater(h.Payload, in.PayloadHeater) + s.SolarAbsorbed(in.ZCapSunArea) - radiated,
	}
}

// derivatives returns dT/dt for each node.
func (s StructureConstants) derivatives(Q NodeValues) NodeValues {
	return NodeValues{Structure: Q.Structure / s.CStr, Battery: Q.Battery / s.CBatt, Payload: Q.Payload / s.CPay}
}
