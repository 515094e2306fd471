package missionsim

import (
	"math"

	kitlog "github.com/go-kit/log"
	"github.com/utat-ss/HERON-mission-sim/integrator"
)

const (
	// maxTemperature is the temperature (K) above which the thermal integration is considered divergent.
	maxTemperature = 1e4
)

// Exposure is the sun exposure of one step, as read from the area table by the driver.
type Exposure struct {
	SunArea       float64 // Total projected area in the sun (m^2)
	ZCapSunArea   float64 // Payload end cap area in the sun (m^2)
	PanelFraction float64 // Sun-facing solar panel area as a fraction of one side
}

// Satellite owns the loads, the thermal nodes, the battery and the telemetry of one simulation run.
// It is not safe for concurrent use; run independent satellites in parallel instead.
type Satellite struct {
	Name    string
	cfg     Config // private copy
	loads   [NumLoads]Load
	nodes   [3]ThermalNode
	battery Battery
	tracker *Tracker
	logger  kitlog.Logger

	// Battery currents in mA.
	currentIn, currentOut, currentNet float64
	time                              float64 // time of the latest scheduling
	thermalSteps                      uint64
	depleted, wasDepleted             bool
	depletedSteps                     uint64
	shuntTime                         float64
	shuntLogged                       bool
}

// NewSatellite returns a new satellite built from a copy of the provided configuration.
// An invalid configuration returns a *ConfigError, which wraps ErrInvalidConfiguration.
func NewSatellite(name string, cfg Config, logger kitlog.Logger) (*Satellite, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	s := &Satellite{Name: name, cfg: cfg, loads: DefaultLoads(), battery: NewBattery(cfg.EPS), tracker: NewTracker(0)}
	s.logger = kitlog.With(logger, "sat", name)
	s.nodes[Structure] = ThermalNode{Temperature: cfg.Temperatures.Structure, HeatCapacity: cfg.Structure.CStr}
	s.nodes[BatteryNode] = ThermalNode{Temperature: cfg.Temperatures.Battery, HeatCapacity: cfg.Structure.CBatt}
	s.nodes[Payload] = ThermalNode{Temperature: cfg.Temperatures.Payload, HeatCapacity: cfg.Structure.CPay}
	return s, nil
}

// Config returns a copy of the configuration of this satellite.
func (s *Satellite) Config() Config {
	return s.cfg
}

// SetState sets the on/off state of every load at time t (seconds from mission start), from the current
// temperatures and the mission timings. Later rules override earlier ones.
func (s *Satellite) SetState(t float64) {
	s.time = t
	tm := s.cfg.Timings
	// The payload setpoint depends on whether the experiment was running at the previous scheduling.
	paySetpoint := s.cfg.Setpoints.PayloadStasis
	if s.loads[Experiment].On {
		paySetpoint = s.cfg.Setpoints.PayloadExp
	}
	// Bang-bang thermostats, no dead band.
	s.loads[BatteryHeater].On = s.nodes[BatteryNode].Temperature < s.cfg.Setpoints.Battery
	s.loads[PayloadHeater].On = s.nodes[Payload].Temperature < paySetpoint

	s.loads[Beacon].On = phase(t, tm.BeaconInterval) < tm.BeaconDuration
	// Strict bounds: the experiment is off at exactly its start and end times.
	s.loads[Experiment].On = t > tm.ExpStartTime && t < tm.ExpStartTime+tm.ExpDuration
	s.loads[Bus].On = true

	passoverDuration := tm.PassoverDurationExpOff
	if s.loads[Experiment].On {
		passoverDuration = tm.PassoverDurationExpOn
	}
	s.loads[Passover].On = phase(t, tm.PassoverInterval) < passoverDuration
	// The passover always wins over the beacon.
	if s.loads[Passover].On {
		s.loads[Beacon].On = false
	}
}

// phase returns t modulo period, in [0, period) also for a negative t.
func phase(t, period float64) float64 {
	p := math.Mod(t, period)
	if p < 0 {
		p += period
	}
	return p
}

// DrawPowers drains the battery for each load which is on, sequentially in the load order.
func (s *Satellite) DrawPowers(dt float64) {
	s.currentOut = 0
	s.depleted = false
	for i := range s.loads {
		load := &s.loads[i]
		if !load.On {
			load.InstCurrent = 0
			continue
		}
		drawn, depleted := s.battery.Discharge(load.Voltage, load.Current, dt)
		load.InstCurrent = drawn
		s.currentOut += drawn
		if depleted {
			s.depleted = true
		}
	}
	// The inflow is the one of the previous step until the panels are sampled.
	s.currentNet = s.currentOut - s.currentIn
	if s.depleted {
		s.depletedSteps++
		if !s.wasDepleted {
			s.logger.Log("level", "warning", "subsys", "eps", "status", ErrBatteryDepleted, "t", s.time, "out(mA)", s.currentOut)
		}
	} else if s.wasDepleted {
		s.logger.Log("level", "notice", "subsys", "eps", "status", "recovered", "t", s.time, "charge(mAh)", s.battery.Charge)
	}
	s.wasDepleted = s.depleted
}

// UpdateThermal computes the heat flows into each node and advances all the temperatures by one explicit
// Euler step of dt seconds. All nodes are integrated from the temperatures before this step.
// The discharge current (mA) drives the battery self heating.
// A divergent integration returns an *InstabilityError and leaves the temperatures untouched.
func (s *Satellite) UpdateThermal(sunArea, zcapSunArea, discharge, dt float64) error {
	T := s.Temperatures()
	Q := s.cfg.Structure.HeatFlows(T, ThermalInputs{
		SunArea:       sunArea,
		ZCapSunArea:   zcapSunArea,
		Discharge:     discharge,
		BatteryHeater: s.loads[BatteryHeater].On,
		PayloadHeater: s.loads[PayloadHeater].On,
	}, s.cfg.Heaters)
	next := integrator.Step(T.vector(), s.cfg.Structure.derivatives(Q).vector(), dt)
	if err := s.checkStability(next); err != nil {
		s.logger.Log("level", "critical", "subsys", "thermal", "err", err, "qdots", Q)
		return err
	}
	for i, temp := range next {
		s.nodes[i].Temperature = temp
	}
	s.nodes[Structure].HeatFlow = Q.Structure
	s.nodes[BatteryNode].HeatFlow = Q.Battery
	s.nodes[Payload].HeatFlow = Q.Payload
	s.thermalSteps++
	return nil
}

func (s *Satellite) checkStability(next []float64) error {
	if idx, ok := integrator.Finite(next); !ok {
		return &InstabilityError{Step: s.thermalSteps, Time: s.time, Node: Node(idx), Temperature: next[idx]}
	}
	for i, temp := range next {
		if temp <= 0 || temp > maxTemperature {
			return &InstabilityError{Step: s.thermalSteps, Time: s.time, Node: Node(i), Temperature: temp}
		}
	}
	return nil
}

// ChargeFromSolarPanel charges the battery from the solar panels for dt seconds. The effective area is the sun
// facing panel area as a fraction of one side (1 is one side in full sun, up to ~1.41 with the sun on an edge).
// The charge is clamped at the capacity, and the shunt engages when the generation exceeds it.
func (s *Satellite) ChargeFromSolarPanel(effectiveArea, dt float64) {
	stored, shunted := s.battery.Recharge(effectiveArea*s.cfg.Solar.SideCurrent(), dt)
	s.currentIn = stored
	if shunted && !s.shuntLogged {
		s.shuntLogged = true
		s.shuntTime = s.time
		s.logger.Log("level", "notice", "subsys", "eps", "status", "shunt engaged", "t", s.time)
	}
	s.currentNet = s.currentOut - s.currentIn
}

// UpdateTracker records the current state at time t and returns the recorded snapshot.
func (s *Satellite) UpdateTracker(t float64) Snapshot {
	snap := s.State(t)
	s.tracker.Append(snap)
	return snap
}

// Step runs the per step protocol at time t: scheduling, power draw, thermal update, solar charging and telemetry.
// The order matters: the scheduling reads the temperatures of the previous step, and the thermal update uses
// the discharge current of this step.
// On an *InstabilityError the loads and the battery have already been updated for t, but neither the temperatures
// nor the tracker have: the satellite is left half stepped and must not be stepped any further.
func (s *Satellite) Step(t float64, exp Exposure, dt float64) error {
	s.SetState(t)
	s.DrawPowers(dt)
	if err := s.UpdateThermal(exp.SunArea, exp.ZCapSunArea, s.currentNet, dt); err != nil {
		return err
	}
	s.ChargeFromSolarPanel(exp.PanelFraction, dt)
	s.UpdateTracker(t)
	return nil
}

// State returns the snapshot of the satellite at time t.
func (s *Satellite) State(t float64) Snapshot {
	v := s.battery.Voltage()
	snap := Snapshot{
		Time:         t,
		ShuntEngaged: s.battery.ShuntEngaged,
		Depleted:     s.depleted,
		Temperatures: s.Temperatures(),
		HeatFlows:    s.HeatFlows(),
		CurrentIn:    s.currentIn,
		CurrentOut:   s.currentOut,
		CurrentNet:   s.currentNet,
		Voltage:      v,
		Charge:       s.battery.Charge,
		PowerIn:      s.currentIn * v,
		PowerOut:     s.currentOut * v,
		PowerNet:     -s.currentNet * v,
	}
	for i, l := range s.loads {
		snap.Loads[i] = LoadSample{ID: l.ID, On: l.On, Current: l.InstCurrent}
	}
	return snap
}

// Loads returns a copy of the loads, in discharge order.
func (s *Satellite) Loads() [NumLoads]Load {
	return s.loads
}

// Load returns a copy of the provided load.
func (s *Satellite) Load(id LoadID) Load {
	return s.loads[id]
}

// Temperatures returns the temperatures (K) of the thermal nodes.
func (s *Satellite) Temperatures() NodeValues {
	return NodeValues{Structure: s.nodes[Structure].Temperature, Battery: s.nodes[BatteryNode].Temperature, Payload: s.nodes[Payload].Temperature}
}

// HeatFlows returns the heat flows (W) of the last thermal update.
func (s *Satellite) HeatFlows() NodeValues {
	return NodeValues{Structure: s.nodes[Structure].HeatFlow, Battery: s.nodes[BatteryNode].HeatFlow, Payload: s.nodes[Payload].HeatFlow}
}

// ThermalNode returns a copy of the provided thermal node.
func (s *Satellite) ThermalNode(n Node) ThermalNode {
	return s.nodes[n]
}

// Battery returns a copy of the battery state.
func (s *Satellite) Battery() Battery {
	return s.battery
}

// BatteryVoltage returns the current battery voltage.
func (s *Satellite) BatteryVoltage() float64 {
	return s.battery.Voltage()
}

// CurrentIn returns the current (mA) stored from the solar panels in the last step.
func (s *Satellite) CurrentIn() float64 {
	return s.currentIn
}

// CurrentOut returns the current (mA) drawn by the loads in the last step.
func (s *Satellite) CurrentOut() float64 {
	return s.currentOut
}

// CurrentNet returns the net current (mA) out of the battery.
func (s *Satellite) CurrentNet() float64 {
	return s.currentNet
}

// Depleted returns whether the battery could not power the loads during the last power draw.
func (s *Satellite) Depleted() bool {
	return s.depleted
}

// DepletedSteps returns the number of power draws during which the battery was depleted.
func (s *Satellite) DepletedSteps() uint64 {
	return s.depletedSteps
}

// ShuntTime returns the time at which the shunt first engaged, and false if it never did.
func (s *Satellite) ShuntTime() (float64, bool) {
	return s.shuntTime, s.shuntLogged
}

// Tracker returns the telemetry of this satellite.
func (s *Satellite) Tracker() *Tracker {
	return s.tracker
}
