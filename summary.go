package missionsim

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// Range stores the extrema and the mean of a series.
type Range struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Mean float64 `yaml:"mean"`
}

func rangeOf(vals []float64) Range {
	if len(vals) == 0 {
		return Range{}
	}
	return Range{Min: floats.Min(vals), Max: floats.Max(vals), Mean: stat.Mean(vals, nil)}
}

// RunSummary are the statistics of one run.
type RunSummary struct {
	ID            string  `yaml:"id"`
	Steps         int     `yaml:"steps"`
	Duration      float64 `yaml:"duration_s"`
	Voltage       Range   `yaml:"voltage_V"`
	Charge        Range   `yaml:"charge_mAh"`
	FinalCharge   float64 `yaml:"final_charge_mAh"`
	Structure     Range   `yaml:"structure_K"`
	Battery       Range   `yaml:"battery_K"`
	Payload       Range   `yaml:"payload_K"`
	EnergyIn      float64 `yaml:"energy_in_mWh"`
	EnergyOut     float64 `yaml:"energy_out_mWh"`
	DepletedSteps int     `yaml:"depleted_steps"`
	ShuntEngaged  bool    `yaml:"shunt_engaged"`
	ShuntTime     float64 `yaml:"shunt_time_s,omitempty"`
}

// Summarize computes the statistics of the provided telemetry.
func Summarize(id uuid.UUID, tracker *Tracker) RunSummary {
	s := RunSummary{ID: id.String(), Steps: tracker.Len()}
	if tracker.Len() == 0 {
		return s
	}
	times := tracker.Times()
	charges := tracker.Charges()
	s.Voltage = rangeOf(tracker.Voltages())
	s.Charge = rangeOf(charges)
	s.FinalCharge = charges[len(charges)-1]
	s.Structure = rangeOf(tracker.Temperatures(Structure))
	s.Battery = rangeOf(tracker.Temperatures(BatteryNode))
	s.Payload = rangeOf(tracker.Temperatures(Payload))

	// Each snapshot holds for the step until the next one, the last one for the previous step size.
	dts := make([]float64, len(times))
	for i := range times {
		switch {
		case i+1 < len(times):
			dts[i] = times[i+1] - times[i]
		case i > 0:
			dts[i] = dts[i-1]
		}
	}
	hours := make([]float64, len(dts))
	floats.ScaleTo(hours, 1/secondsPerHour, dts)
	s.EnergyIn = floats.Dot(tracker.Series(func(snap Snapshot) float64 { return snap.PowerIn }), hours)
	s.EnergyOut = floats.Dot(tracker.Series(func(snap Snapshot) float64 { return snap.PowerOut }), hours)
	s.Duration = floats.Sum(dts)

	for i := 0; i < tracker.Len(); i++ {
		snap := tracker.At(i)
		if snap.Depleted {
			s.DepletedSteps++
		}
		if snap.ShuntEngaged && !s.ShuntEngaged {
			s.ShuntEngaged = true
			s.ShuntTime = snap.Time
		}
	}
	return s
}

// WriteSummary writes the summary as YAML.
func WriteSummary(w io.Writer, s RunSummary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

func writeSummaryFile(path string, s RunSummary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSummary(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
