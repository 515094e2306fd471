package missionsim

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soniakeys/meeus/v3/julian"
)

// ExportConfig configures the exporting of the simulation.
type ExportConfig struct {
	Filename  string
	OutputDir string // Defaults to the working directory.
	AsCSV     bool   // Full telemetry of each step.
	Currents  bool   // Supply current and electronic load power, as replayed on the lab bench.
	Summary   bool   // YAML statistics of the run.
	Timestamp bool   // Append the creation time to the file names.
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV && !c.Currents && !c.Summary
}

// path returns the path of an export file of the provided kind and extension.
func (c ExportConfig) path(kind, ext string, created time.Time) string {
	dir := c.OutputDir
	if dir == "" {
		dir = "."
	}
	name := fmt.Sprintf("%s-%s", kind, c.Filename)
	if c.Timestamp {
		name += fmt.Sprintf("-%d-%02d-%02dT%02d.%02d.%02d", created.Year(), created.Month(), created.Day(), created.Hour(), created.Minute(), created.Second())
	}
	return filepath.Join(dir, name+"."+ext)
}

type exportFile struct {
	f *os.File
	w *bufio.Writer
}

func createExportFile(path string) (*exportFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &exportFile{f: f, w: bufio.NewWriter(f)}, nil
}

func (e *exportFile) line(s string) error {
	_, err := e.w.WriteString(s + "\n")
	return err
}

func (e *exportFile) Close() error {
	if err := e.w.Flush(); err != nil {
		e.f.Close()
		return err
	}
	return e.f.Close()
}

// columnName returns the load name as a CSV column, e.g. "battery_heater".
func columnName(id LoadID) string {
	return strings.ReplaceAll(strings.ToLower(id.String()), " ", "_")
}

func telemetryHeader() string {
	cols := []string{"time_s", "jd"}
	for id := LoadID(0); int(id) < NumLoads; id++ {
		cols = append(cols, columnName(id)+"_on")
	}
	for id := LoadID(0); int(id) < NumLoads; id++ {
		cols = append(cols, columnName(id)+"_mA")
	}
	cols = append(cols, "shunt", "depleted",
		"T_str_K", "T_batt_K", "T_pay_K", "Q_str_W", "Q_batt_W", "Q_pay_W",
		"current_in_mA", "current_out_mA", "current_net_mA", "voltage_V", "charge_mAh",
		"power_in_mW", "power_out_mW", "power_net_mW")
	return strings.Join(cols, ",")
}

func telemetryRecord(s Snapshot, epoch time.Time) string {
	dt := epoch.Add(time.Duration(s.Time * float64(time.Second)))
	var b strings.Builder
	fmt.Fprintf(&b, "%.0f,%.8f", s.Time, julian.TimeToJD(dt))
	for _, l := range s.Loads {
		fmt.Fprintf(&b, ",%t", l.On)
	}
	for _, l := range s.Loads {
		fmt.Fprintf(&b, ",%.3f", l.Current)
	}
	fmt.Fprintf(&b, ",%t,%t", s.ShuntEngaged, s.Depleted)
	fmt.Fprintf(&b, ",%.6f,%.6f,%.6f", s.Temperatures.Structure, s.Temperatures.Battery, s.Temperatures.Payload)
	fmt.Fprintf(&b, ",%.6f,%.6f,%.6f", s.HeatFlows.Structure, s.HeatFlows.Battery, s.HeatFlows.Payload)
	fmt.Fprintf(&b, ",%.6f,%.6f,%.6f,%.6f,%.6f", s.CurrentIn, s.CurrentOut, s.CurrentNet, s.Voltage, s.Charge)
	fmt.Fprintf(&b, ",%.6f,%.6f,%.6f", s.PowerIn, s.PowerOut, s.PowerNet)
	return b.String()
}

// StreamSnapshots writes the snapshots of the channel to the files requested by the export config, until the
// channel is closed. The channel is always drained, even after a write error, so the mission never blocks on it.
func StreamSnapshots(conf ExportConfig, id uuid.UUID, epoch time.Time, snapChan <-chan Snapshot) (err error) {
	created := time.Now()
	var fAsCSV, fCurrents *exportFile
	var tracker *Tracker
	fail := func(werr error) {
		if werr != nil && err == nil {
			err = werr
		}
	}
	defer func() {
		// Drain whatever is left if a write failed early.
		for range snapChan {
		}
		if fAsCSV != nil {
			fail(fAsCSV.line(fmt.Sprintf("# Export end (UTC): %s", time.Now().UTC())))
			fail(fAsCSV.Close())
		}
		if fCurrents != nil {
			fail(fCurrents.Close())
		}
		if tracker != nil && err == nil {
			fail(writeSummaryFile(conf.path("summary", "yaml", created), Summarize(id, tracker)))
		}
	}()

	if conf.AsCSV {
		if fAsCSV, err = createExportFile(conf.path("telemetry", "csv", created)); err != nil {
			return err
		}
		fail(fAsCSV.line(fmt.Sprintf(`# Creation date (UTC): %s
# Mission: %s
# Simulation time start (UTC): %s
# Temperatures in K, heat flows in W, currents in mA, charge in mAh, powers in mW.
%s`, created.UTC(), id, epoch.UTC(), telemetryHeader())))
	}
	if conf.Currents {
		if fCurrents, err = createExportFile(conf.path("currents", "csv", created)); err != nil {
			return err
		}
		fail(fCurrents.line("supply_current_mA,eload_power_mW"))
	}
	if conf.Summary {
		tracker = NewTracker(0)
	}

	for snap := range snapChan {
		if err != nil {
			return err
		}
		if fAsCSV != nil {
			fail(fAsCSV.line(telemetryRecord(snap, epoch)))
		}
		if fCurrents != nil {
			fail(fCurrents.line(fmt.Sprintf("%.6f,%.6f", snap.CurrentIn, snap.PowerOut)))
		}
		if tracker != nil {
			tracker.Append(snap)
		}
	}
	return err
}
