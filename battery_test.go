package missionsim

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestBatteryVoltage(t *testing.T) {
	b := NewBattery(EPS{BatteryCapacity: 20000, ConverterEfficiency: 0.8, StartingChargeFrac: 0.5})
	for _, tc := range []struct {
		charge, voltage float64
	}{{0, 2.5}, {5000, 2.875}, {10000, 3.25}, {20000, 4}} {
		b.Charge = tc.charge
		if v := b.Voltage(); !scalar.EqualWithinAbs(v, tc.voltage, 1e-12) {
			t.Fatalf("charge %f: voltage %f != %f", tc.charge, v, tc.voltage)
		}
		if soc := b.StateOfCharge(); !scalar.EqualWithinAbs(soc, tc.charge/20000, 1e-12) {
			t.Fatalf("charge %f: state of charge %f", tc.charge, soc)
		}
	}
}

func TestBatteryDischarge(t *testing.T) {
	b := NewBattery(EPS{BatteryCapacity: 20000, ConverterEfficiency: 0.8, StartingChargeFrac: 1})
	drawn, depleted := b.Discharge(3.3, 200, 1)
	if depleted {
		t.Fatal("full battery depleted")
	}
	if drawn != 200 {
		t.Fatalf("drawn %f mA", drawn)
	}
	exp := 20000 - (3.3*200/4.0)*(1.0/3600)/0.8
	if !scalar.EqualWithinAbs(b.Charge, exp, 1e-9) {
		t.Fatalf("charge %f != %f", b.Charge, exp)
	}
}

func TestBatteryDepletion(t *testing.T) {
	b := NewBattery(EPS{BatteryCapacity: 1, ConverterEfficiency: 1, StartingChargeFrac: 0.001})
	drawn, depleted := b.Discharge(5, 1000, 1)
	if !depleted {
		t.Fatal("battery should be depleted")
	}
	if b.Charge != 0 {
		t.Fatalf("charge not pinned at zero: %f", b.Charge)
	}
	// The requested current is reported even though the battery could not provide it.
	if drawn != 1000 {
		t.Fatalf("drawn %f mA", drawn)
	}
	if v := b.Voltage(); v != BatteryVMin {
		t.Fatalf("empty battery voltage %f", v)
	}
	if _, depleted = b.Discharge(3.3, 200, 1); !depleted || b.Charge != 0 {
		t.Fatalf("empty battery: depleted=%v charge=%f", depleted, b.Charge)
	}
}

func TestBatteryRecharge(t *testing.T) {
	b := NewBattery(EPS{BatteryCapacity: 100, ConverterEfficiency: 1, StartingChargeFrac: 0.5})
	stored, shunted := b.Recharge(360, 1)
	if shunted || b.ShuntEngaged {
		t.Fatal("shunt engaged below capacity")
	}
	if !scalar.EqualWithinAbs(b.Charge, 50.1, 1e-9) || !scalar.EqualWithinAbs(stored, 360, 1e-9) {
		t.Fatalf("charge %f stored %f", b.Charge, stored)
	}

	b.Charge = 99.9
	stored, shunted = b.Recharge(1500, 1)
	if !shunted || !b.ShuntEngaged {
		t.Fatal("shunt should engage above capacity")
	}
	if b.Charge != b.Capacity {
		t.Fatalf("charge %f != capacity", b.Charge)
	}
	// Only the current which fit in the battery is reported.
	if !scalar.EqualWithinAbs(stored, 360, 1e-6) {
		t.Fatalf("stored %f mA", stored)
	}

	// Sticky
	stored, shunted = b.Recharge(0, 1)
	if shunted || !b.ShuntEngaged || stored != 0 {
		t.Fatalf("shunted=%v engaged=%v stored=%f", shunted, b.ShuntEngaged, stored)
	}

	b.Charge = 0.1
	if stored, _ = b.Recharge(-3600, 1); b.Charge != 0 || !scalar.EqualWithinAbs(stored, -360, 1e-6) {
		t.Fatalf("negative recharge: charge %f stored %f", b.Charge, stored)
	}

	if stored, shunted = b.Recharge(1000, 0); stored != 0 || shunted || b.Charge != 0 {
		t.Fatal("zero time step changed the battery")
	}
}
