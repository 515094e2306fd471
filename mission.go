package missionsim

import (
	"context"
	"fmt"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/google/uuid"
)

const (
	// OrbitPeriod is the default orbit period.
	OrbitPeriod = 92 * time.Minute
	// StepSize is the default step size of the simulation.
	StepSize = time.Second
	// panelSideArea is the area (m^2) of one side covered in solar cells.
	panelSideArea = 0.03 * 0.01
)

// MissionConfig defines how the driver feeds the area table into the satellite.
type MissionConfig struct {
	Orbits        int
	OrbitPeriod   time.Duration
	Step          time.Duration
	Epoch         time.Time // Date of the mission start, only used for exports.
	PanelSideArea float64   // Area (m^2) of one side of solar panels, normalizes the sunlit panel area.
	PanelFaces    []Face    // Faces which carry solar panels.
	PayloadFace   Face      // Face of the payload end cap.
	StrictAreas   bool      // Fail instead of zero filling when the area table is shorter than an orbit.
}

// DefaultMissionConfig returns three orbits of 92 minutes with one second steps.
func DefaultMissionConfig() MissionConfig {
	return MissionConfig{
		Orbits:        3,
		OrbitPeriod:   OrbitPeriod,
		Step:          StepSize,
		Epoch:         time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		PanelSideArea: panelSideArea,
		PanelFaces:    []Face{PlusX, PlusY, NegX, NegY},
		PayloadFace:   NegZ,
	}
}

// Validate implements the bundle validation.
func (c MissionConfig) Validate() error {
	if c.Orbits <= 0 {
		return newConfigError("mission", "orbits", c.Orbits, "must be positive")
	}
	if c.Step <= 0 {
		return newConfigError("mission", "step", c.Step, "must be positive")
	}
	if c.OrbitPeriod < c.Step {
		return newConfigError("mission", "orbit_period", c.OrbitPeriod, "must be at least one step")
	}
	if !(c.PanelSideArea > 0) {
		return newConfigError("mission", "panel_side_area", c.PanelSideArea, "must be positive")
	}
	for _, f := range c.PanelFaces {
		if int(f) >= NumFaces {
			return newConfigError("mission", "panel_faces", uint8(f), "is not a face")
		}
	}
	if int(c.PayloadFace) >= NumFaces {
		return newConfigError("mission", "payload_face", uint8(c.PayloadFace), "is not a face")
	}
	return nil
}

// PointsPerOrbit returns the number of steps in one orbit.
func (c MissionConfig) PointsPerOrbit() int {
	return int(c.OrbitPeriod / c.Step)
}

// Points returns the number of steps of the mission.
func (c MissionConfig) Points() int {
	return c.Orbits * c.PointsPerOrbit()
}

// Mission drives a satellite through the area table, one step at a time.
type Mission struct {
	ID     uuid.UUID
	Sat    *Satellite
	Areas  *AreaTable
	cfg    MissionConfig
	export ExportConfig
	logger kitlog.Logger
	points int // per orbit
}

// NewMission returns a new mission. An area table shorter than one orbit is zero filled (i.e. eclipse) with a
// warning, unless the mission config is strict in which case ErrInsufficientAreaData is returned.
func NewMission(sat *Satellite, areas *AreaTable, cfg MissionConfig, conf ExportConfig, logger kitlog.Logger) (*Mission, error) {
	if sat == nil || areas == nil {
		return nil, fmt.Errorf("mission requires a satellite and an area table")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	// Do not share the faces with the caller.
	cfg.PanelFaces = append([]Face(nil), cfg.PanelFaces...)
	m := &Mission{ID: uuid.New(), Sat: sat, Areas: areas, cfg: cfg, export: conf, points: cfg.PointsPerOrbit()}
	m.logger = kitlog.With(logger, "mission", m.ID.String()[:8])
	if supplied := m.suppliedSamples(); supplied < m.points {
		if cfg.StrictAreas {
			return nil, fmt.Errorf("%w: %d samples for an orbit of %d steps", ErrInsufficientAreaData, supplied, m.points)
		}
		m.logger.Log("level", "warning", "subsys", "areas", "message", "zero filling missing sun exposure", "supplied", supplied, "required", m.points)
	} else if areas.OrbitLen() > m.points {
		m.logger.Log("level", "warning", "subsys", "areas", "message", "ignoring samples past one orbit", "samples", areas.OrbitLen(), "required", m.points)
	}
	return m, nil
}

// Config returns a copy of the mission config.
func (m *Mission) Config() MissionConfig {
	cfg := m.cfg
	cfg.PanelFaces = append([]Face(nil), m.cfg.PanelFaces...)
	return cfg
}

func (m *Mission) suppliedSamples() int {
	if m.Areas.Supplied() < m.Areas.OrbitLen() {
		return m.Areas.Supplied()
	}
	return m.Areas.OrbitLen()
}

// Exposure returns the sun exposure of step i.
func (m *Mission) Exposure(i int) Exposure {
	idx := i % m.points
	if idx >= m.Areas.OrbitLen() {
		return Exposure{}
	}
	return Exposure{
		SunArea:       m.Areas.Total(idx),
		ZCapSunArea:   m.Areas.Face(idx, m.cfg.PayloadFace),
		PanelFraction: m.Areas.Sum(idx, m.cfg.PanelFaces...) / m.cfg.PanelSideArea,
	}
}

// LogStatus logs the status of the satellite.
func (m *Mission) LogStatus(t float64) {
	m.logger.Log("level", "info", "subsys", "mission", "t", t, "charge(mAh)", m.Sat.battery.Charge, "V", m.Sat.BatteryVoltage(), "temps(K)", m.Sat.Temperatures())
}

// Run runs the mission until all the orbits are simulated. The context is checked at the start of each orbit.
// An unstable thermal integration stops the mission and returns an *InstabilityError.
func (m *Mission) Run(ctx context.Context) error {
	total := m.cfg.Points()
	dt := m.cfg.Step.Seconds()
	m.Sat.tracker.Grow(total)

	// If no output is requested, then nothing is streamed.
	var snapChan chan Snapshot
	var streamErr chan error
	if !m.export.IsUseless() {
		snapChan = make(chan Snapshot, 1000) // a 1k entry buffer
		streamErr = make(chan error, 1)
		go func() {
			streamErr <- StreamSnapshots(m.export, m.ID, m.cfg.Epoch, snapChan)
		}()
	}
	// Stop streaming and wait for the writer to be done with all the files.
	finish := func(err error) error {
		if snapChan == nil {
			return err
		}
		close(snapChan)
		if werr := <-streamErr; werr != nil && err == nil {
			err = werr
		}
		return err
	}

	start := time.Now()
	m.LogStatus(0)
	for i := 0; i < total; i++ {
		t := float64(i) * dt
		if i%m.points == 0 {
			if err := ctx.Err(); err != nil {
				m.logger.Log("level", "warning", "subsys", "mission", "status", "aborted", "t", t)
				return finish(err)
			}
			if i > 0 {
				m.LogStatus(t)
			}
		}
		if err := m.Sat.Step(t, m.Exposure(i), dt); err != nil {
			return finish(fmt.Errorf("mission %s: %w", m.ID, err))
		}
		if snapChan != nil {
			snap, _ := m.Sat.tracker.Last()
			snapChan <- snap
		}
	}
	m.logger.Log("level", "notice", "subsys", "mission", "status", "finished", "points", total, "depleted steps", m.Sat.DepletedSteps(), "shunt", m.Sat.battery.ShuntEngaged, "took", time.Since(start))
	m.LogStatus(float64(total) * dt)
	return finish(nil)
}
