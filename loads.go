package missionsim

import "fmt"

// LoadID identifies one of the six loads of the satellite.
type LoadID uint8

const (
	// Experiment is the payload experiment.
	Experiment LoadID = iota
	// Bus is the constant power of the bus, always on.
	Bus
	// Beacon is the periodic radio beacon.
	Beacon
	// Passover is the ground station communication window.
	Passover
	// BatteryHeater keeps the battery above its setpoint.
	BatteryHeater
	// PayloadHeater keeps the payload above its setpoint.
	PayloadHeater
	// NumLoads is the number of loads.
	NumLoads = int(PayloadHeater) + 1
)

func (id LoadID) String() string {
	switch id {
	case Experiment:
		return "Experiment"
	case Bus:
		return "Bus"
	case Beacon:
		return "Beacon"
	case Passover:
		return "Passover"
	case BatteryHeater:
		return "Battery Heater"
	case PayloadHeater:
		return "Payload Heater"
	}
	panic(fmt.Errorf("cannot stringify unknown load %d", uint8(id)))
}

// Load defines an electrical load powered from the battery.
type Load struct {
	ID          LoadID
	Voltage     float64 // Rated voltage (V)
	Current     float64 // Rated current (mA)
	On          bool
	InstCurrent float64 // Current drawn during the last step (mA)
}

func (l Load) String() string {
	return fmt.Sprintf("%s (%.1fV, %.0fmA, on=%v)", l.ID, l.Voltage, l.Current, l.On)
}

// Power returns the rated power of this load in mW.
func (l Load) Power() float64 {
	return l.Voltage * l.Current
}

// DefaultLoads returns the six loads in discharge order.
// The battery is drained sequentially in this order during each step, and every discharge sees
// the battery voltage left by the previous one, so the order is part of the model.
func DefaultLoads() [NumLoads]Load {
	return [NumLoads]Load{
		{ID: Experiment, Voltage: 3.3, Current: 100},
		{ID: Bus, Voltage: 3.3, Current: 200},
		{ID: Beacon, Voltage: 5, Current: 1000},
		{ID: Passover, Voltage: 5, Current: 1000},
		{ID: BatteryHeater, Voltage: 5, Current: 250},
		{ID: PayloadHeater, Voltage: 5, Current: 500},
	}
}
