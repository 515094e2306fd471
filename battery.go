package missionsim

const (
	// BatteryVMin is the battery voltage when empty.
	BatteryVMin = 2.5
	// BatteryVMax is the battery voltage when full.
	BatteryVMax = 4.0

	secondsPerHour = 3600.0
)

// Battery is the charge state of the EPS battery.
// The charge always remains within [0, Capacity] after any call.
type Battery struct {
	Charge       float64 // mAh
	Capacity     float64 // mAh
	Efficiency   float64 // Converter efficiency
	ShuntEngaged bool    // Sticky: set the first time generation exceeds the capacity.
}

// NewBattery returns a battery charged as per the EPS configuration.
func NewBattery(eps EPS) Battery {
	return Battery{Charge: eps.BatteryCapacity * eps.StartingChargeFrac, Capacity: eps.BatteryCapacity, Efficiency: eps.ConverterEfficiency}
}

// Voltage returns the battery voltage, linear in the state of charge.
func (b *Battery) Voltage() float64 {
	return BatteryVMin + (b.Charge/b.Capacity)*(BatteryVMax-BatteryVMin)
}

// StateOfCharge returns the charge as a fraction of the capacity.
func (b *Battery) StateOfCharge() float64 {
	return b.Charge / b.Capacity
}

// Discharge drains the battery to power a load at the provided voltage (V) and current (mA) for dt seconds,
// accounting for converter losses. If the battery cannot provide the energy, the charge is pinned at zero and
// depleted is true. The requested current is returned in both cases: it is not derated to reflect the clamp.
func (b *Battery) Discharge(voltage, current, dt float64) (drawn float64, depleted bool) {
	newCharge := b.Charge - ((voltage*current)/b.Voltage())*(dt/secondsPerHour)*(1/b.Efficiency)
	if newCharge < 0 {
		b.Charge = 0
		return current, true
	}
	b.Charge = newCharge
	return current, false
}

// Recharge adds the provided current (mA) for dt seconds. The charge is clamped to [0, Capacity]; the shunt engages
// when the generation exceeds the capacity. The returned current is the one actually stored, i.e. post clamp.
func (b *Battery) Recharge(current, dt float64) (stored float64, shunted bool) {
	hours := dt / secondsPerHour
	if hours <= 0 {
		return 0, false
	}
	newCharge := b.Charge + current*hours
	clamped := newCharge
	if clamped > b.Capacity {
		clamped = b.Capacity
		shunted = true
		b.ShuntEngaged = true
	} else if clamped < 0 {
		clamped = 0
	}
	stored = (clamped - b.Charge) / hours
	b.Charge = clamped
	return
}
