package missionsim

import (
	"math"

	"github.com/utat-ss/HERON-mission-sim/integrator"
)

// SoakResult is the outcome of a thermal soak.
type SoakResult struct {
	Temperatures NodeValues
	Steps        uint64
	Converged    bool
}

// thermalSoak integrates the thermal network alone, with fixed sun exposure and discharge current.
// The heaters follow their thermostats with the stasis payload setpoint.
type thermalSoak struct {
	cfg       Config
	sunArea   float64
	zcapArea  float64
	discharge float64
	maxSteps  uint64
	tol       float64
	T         NodeValues
	converged bool
	err       *InstabilityError
}

func (s *thermalSoak) GetState() []float64 {
	return s.T.vector()
}

func (s *thermalSoak) SetState(i uint64, next []float64) {
	if idx, ok := integrator.Finite(next); !ok {
		s.err = &InstabilityError{Step: i, Time: float64(i), Node: Node(idx), Temperature: next[idx]}
		return
	}
	delta := 0.0
	for n, temp := range next {
		if temp <= 0 || temp > maxTemperature {
			s.err = &InstabilityError{Step: i, Time: float64(i), Node: Node(n), Temperature: temp}
			return
		}
		delta = math.Max(delta, math.Abs(temp-s.T.Get(Node(n))))
	}
	s.T = nodeValuesFromVector(next)
	s.converged = delta < s.tol
}

func (s *thermalSoak) Stop(i uint64) bool {
	return s.converged || s.err != nil || i >= s.maxSteps
}

func (s *thermalSoak) Func(t float64, state []float64) []float64 {
	T := nodeValuesFromVector(state)
	Q := s.cfg.Structure.HeatFlows(T, ThermalInputs{
		SunArea:       s.sunArea,
		ZCapSunArea:   s.zcapArea,
		Discharge:     s.discharge,
		BatteryHeater: T.Battery < s.cfg.Setpoints.Battery,
		PayloadHeater: T.Payload < s.cfg.Setpoints.PayloadStasis,
	}, s.cfg.Heaters)
	return s.cfg.Structure.derivatives(Q).vector()
}

// ThermalSoak integrates the thermal network from the configured starting temperatures with constant inputs
// until no temperature changes by tol (K) or more within one step of dt seconds, or until maxSteps steps.
// It is meant to find equilibrium starting temperatures for a given attitude and load.
func ThermalSoak(cfg Config, sunArea, zcapArea, discharge, dt float64, maxSteps uint64, tol float64) (SoakResult, error) {
	if err := cfg.Validate(); err != nil {
		return SoakResult{}, err
	}
	if !(dt > 0) {
		return SoakResult{}, newConfigError("soak", "dt", dt, "must be positive")
	}
	if !(tol > 0) {
		return SoakResult{}, newConfigError("soak", "tol", tol, "must be positive")
	}
	soak := &thermalSoak{
		cfg:       cfg,
		sunArea:   sunArea,
		zcapArea:  zcapArea,
		discharge: discharge,
		maxSteps:  maxSteps,
		tol:       tol,
		T:         cfg.Temperatures.nodeValues(),
	}
	steps, _ := integrator.NewEuler(0, dt, soak).Solve()
	if soak.err != nil {
		soak.err.Time *= dt
		return SoakResult{Temperatures: soak.T, Steps: steps}, soak.err
	}
	return SoakResult{Temperatures: soak.T, Steps: steps, Converged: soak.converged}, nil
}
