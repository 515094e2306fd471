package missionsim

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestHeatFlows(t *testing.T) {
	s := DefaultConfig().Structure
	h := DefaultConfig().Heaters
	T := NodeValues{Structure: 300, Battery: 300, Payload: 300}
	Q := s.HeatFlows(T, ThermalInputs{SunArea: 0.01, ZCapSunArea: 0.002, Discharge: 1000, BatteryHeater: true, PayloadHeater: true}, h)
	radiated := 0.58 * StefanBoltzmann * 0.0013 * math.Pow(300, 4)
	exp := NodeValues{
		Structure: 0.72*0.01*SolarFlux - radiated,
		Battery:   1.28 + 4*0.13*0.13,
		Payload:   2.5 + 0.72*0.002*SolarFlux - radiated,
	}
	for _, n := range []Node{Structure, BatteryNode, Payload} {
		if !scalar.EqualWithinAbs(Q.Get(n), exp.Get(n), 1e-12) {
			t.Fatalf("%s heat flow %f != %f", n, Q.Get(n), exp.Get(n))
		}
	}

	// Conduction flows from the hot structure into the colder nodes.
	T = NodeValues{Structure: 310, Battery: 296, Payload: 300}
	Q = s.HeatFlows(T, ThermalInputs{}, h)
	strToPay := 10 / s.RStrPay
	strToBatt := 14 / s.RStrBatt
	if !scalar.EqualWithinAbs(Q.Battery, strToBatt, 1e-12) {
		t.Fatalf("battery conduction %f != %f", Q.Battery, strToBatt)
	}
	if !scalar.EqualWithinAbs(Q.Structure, -s.Radiated(310)-strToPay-strToBatt, 1e-12) {
		t.Fatalf("structure heat flow %f", Q.Structure)
	}
	if !scalar.EqualWithinAbs(Q.Payload, strToPay-s.Radiated(310), 1e-12) {
		t.Fatalf("payload heat flow %f", Q.Payload)
	}
}

func TestSelfHeatUsesNetCurrent(t *testing.T) {
	s := DefaultConfig().Structure
	if q := s.SelfHeat(0); q != 0 {
		t.Fatalf("self heating without current: %f", q)
	}
	// Symmetric in the current direction.
	if !scalar.EqualWithinAbs(s.SelfHeat(500), s.SelfHeat(-500), 1e-15) {
		t.Fatal("self heating depends on the current direction")
	}
	if !scalar.EqualWithinAbs(s.SelfHeat(500), 4*math.Pow(0.13*0.5, 2), 1e-15) {
		t.Fatalf("self heating %f", s.SelfHeat(500))
	}
}

// zeroThermalConfig has no sun absorption, no radiation, no conduction, no self heating and no heater power.
func zeroThermalConfig() Config {
	cfg := DefaultConfig()
	cfg.Structure.E = 0
	cfg.Structure.A = 0
	cfg.Structure.RBatt = 0
	cfg.Structure.RStrPay = math.Inf(1)
	cfg.Structure.RStrBatt = math.Inf(1)
	cfg.Heaters = Heaters{}
	cfg.Temperatures = Temperatures{Structure: 290, Battery: 280, Payload: 310}
	return cfg
}

func TestThermalZeroTermsInvariance(t *testing.T) {
	cfg := zeroThermalConfig()
	Q := cfg.Structure.HeatFlows(cfg.Temperatures.nodeValues(), ThermalInputs{SunArea: 0.05, ZCapSunArea: 0.01, Discharge: 3000, BatteryHeater: true, PayloadHeater: true}, cfg.Heaters)
	if Q != (NodeValues{}) {
		t.Fatalf("non zero heat flows: %s", Q)
	}
	sat := newTestSatellite(t, cfg)
	for i := 0; i < 500; i++ {
		exp := Exposure{SunArea: 0.01 * float64(i%7), ZCapSunArea: 0.001 * float64(i%3), PanelFraction: 0.5}
		if err := sat.Step(float64(i), exp, 1); err != nil {
			t.Fatal(err)
		}
		if sat.Temperatures() != cfg.Temperatures.nodeValues() {
			t.Fatalf("step %d: temperatures changed to %s", i, sat.Temperatures())
		}
	}
}

func TestUpdateThermalSimultaneous(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Temperatures = Temperatures{Structure: 320, Battery: 290, Payload: 295}
	sat := newTestSatellite(t, cfg)
	T := sat.Temperatures()
	Q := cfg.Structure.HeatFlows(T, ThermalInputs{SunArea: 0.02, ZCapSunArea: 0.001, Discharge: 300}, cfg.Heaters)
	if err := sat.UpdateThermal(0.02, 0.001, 300, 10); err != nil {
		t.Fatal(err)
	}
	// All the nodes use the temperatures from before the step.
	next := sat.Temperatures()
	exp := NodeValues{
		Structure: T.Structure + 10*Q.Structure/cfg.Structure.CStr,
		Battery:   T.Battery + 10*Q.Battery/cfg.Structure.CBatt,
		Payload:   T.Payload + 10*Q.Payload/cfg.Structure.CPay,
	}
	for _, n := range []Node{Structure, BatteryNode, Payload} {
		if !scalar.EqualWithinAbs(next.Get(n), exp.Get(n), 1e-12) {
			t.Fatalf("%s: %f != %f", n, next.Get(n), exp.Get(n))
		}
	}
	if sat.HeatFlows() != Q {
		t.Fatalf("heat flows not recorded: %s != %s", sat.HeatFlows(), Q)
	}
}

func TestNodeStringPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("unknown node did not panic")
		}
	}()
	_ = Node(3).String()
}

func TestThermalSoak(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Heaters = Heaters{}
	res, err := ThermalSoak(cfg, 0.01, 0, 0, 10, 1e6, 1e-7)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged {
		t.Fatalf("soak did not converge in %d steps: %s", res.Steps, res.Temperatures)
	}
	// At equilibrium the absorbed heat is radiated away.
	absorbed := cfg.Structure.SolarAbsorbed(0.01)
	radiated := 2 * cfg.Structure.Radiated(res.Temperatures.Structure)
	if !scalar.EqualWithinRel(absorbed, radiated, 1e-3) {
		t.Fatalf("absorbed %f W, radiated %f W at %s", absorbed, radiated, res.Temperatures)
	}

	res, err = ThermalSoak(cfg, 0.01, 0, 0, 10, 5, 1e-7)
	if err != nil || res.Converged || res.Steps != 5 {
		t.Fatalf("expected 5 steps without convergence, got %d (%v, %v)", res.Steps, res.Converged, err)
	}

	cfg.Structure.CStr = 1e-6
	if _, err = ThermalSoak(cfg, 0, 0, 0, 1, 10, 1e-7); err == nil {
		t.Fatal("expected an instability")
	}
	if _, err = ThermalSoak(cfg, 0, 0, 0, 0, 10, 1e-7); err == nil {
		t.Fatal("expected an error on a zero time step")
	}
}
