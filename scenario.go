package missionsim

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// SweepConfig defines a parameter sweep of a scenario.
type SweepConfig struct {
	Parameter string
	Values    []float64
}

// Scenario is everything needed to run a simulation, as read from a TOML scenario file.
type Scenario struct {
	Name    string
	Config  Config
	Mission MissionConfig
	Export  ExportConfig
	Areas   string       // Path to the STK areas report, empty for an eclipse-only run.
	Sweep   *SweepConfig // nil if the scenario is a single run
}

// Variants returns the runs of this scenario: one per sweep value, or the scenario itself.
// Each sweep variant exports to its own files.
func (s Scenario) Variants() ([]Variant, error) {
	if s.Sweep == nil {
		return []Variant{{Name: s.Name, Config: s.Config, Mission: s.Mission, Export: s.Export}}, nil
	}
	variants, err := SweepParameter(s.Config, s.Mission, s.Sweep.Parameter, s.Sweep.Values)
	if err != nil {
		return nil, err
	}
	for i := range variants {
		variants[i].Export = s.Export
		variants[i].Export.Filename = fmt.Sprintf("%s-%d", s.Export.Filename, i)
	}
	return variants, nil
}

// LoadScenario reads the TOML scenario at the provided path.
// Every satellite parameter must be set; a missing or malformed one returns a *ConfigError.
func LoadScenario(path string) (Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return readScenario(v, name, filepath.Dir(path))
}

func readScenario(v *viper.Viper, name, dir string) (Scenario, error) {
	sc := Scenario{Name: name}
	for _, key := range ParameterKeys {
		bundle, field := splitKey(key)
		if !v.IsSet(key) {
			return sc, newConfigError(bundle, field, nil, "is missing")
		}
		val, err := cast.ToFloat64E(v.Get(key))
		if err != nil {
			return sc, newConfigError(bundle, field, v.Get(key), "is not a number")
		}
		if sc.Config, err = sc.Config.With(key, val); err != nil {
			return sc, err
		}
	}
	if err := sc.Config.Validate(); err != nil {
		return sc, err
	}

	var err error
	if sc.Mission, err = readMission(v); err != nil {
		return sc, err
	}
	if areas := v.GetString("mission.areas"); areas != "" {
		if !filepath.IsAbs(areas) {
			areas = filepath.Join(dir, areas)
		}
		sc.Areas = areas
	}

	sc.Export = ExportConfig{
		Filename:  name,
		OutputDir: v.GetString("export.output_dir"),
		AsCSV:     v.GetBool("export.csv"),
		Currents:  v.GetBool("export.currents"),
		Summary:   v.GetBool("export.summary"),
		Timestamp: v.GetBool("export.timestamp"),
	}
	if fn := v.GetString("export.filename"); fn != "" {
		sc.Export.Filename = fn
	}

	if v.IsSet("sweep") {
		sweep := &SweepConfig{Parameter: v.GetString("sweep.parameter")}
		if _, ok := sc.Config.field(sweep.Parameter); !ok {
			return sc, newConfigError("sweep", "parameter", sweep.Parameter, "is not a known parameter")
		}
		raw, err := cast.ToSliceE(v.Get("sweep.values"))
		if err != nil || len(raw) == 0 {
			return sc, newConfigError("sweep", "values", v.Get("sweep.values"), "must be a non empty list of numbers")
		}
		for _, r := range raw {
			val, err := cast.ToFloat64E(r)
			if err != nil {
				return sc, newConfigError("sweep", "values", r, "is not a number")
			}
			sweep.Values = append(sweep.Values, val)
		}
		sc.Sweep = sweep
	}
	return sc, nil
}

// readMission reads the [mission] section. The orbits, the orbit period and the step are required,
// the rest defaults to DefaultMissionConfig.
func readMission(v *viper.Viper) (MissionConfig, error) {
	mc := DefaultMissionConfig()
	for _, key := range []string{"mission.orbits", "mission.orbit_period", "mission.step"} {
		if !v.IsSet(key) {
			return mc, newConfigError("mission", strings.TrimPrefix(key, "mission."), nil, "is missing")
		}
	}
	var err error
	if mc.Orbits, err = cast.ToIntE(v.Get("mission.orbits")); err != nil {
		return mc, newConfigError("mission", "orbits", v.Get("mission.orbits"), "is not an integer")
	}
	if mc.OrbitPeriod, err = cast.ToDurationE(v.Get("mission.orbit_period")); err != nil {
		return mc, newConfigError("mission", "orbit_period", v.Get("mission.orbit_period"), "is not a duration")
	}
	if mc.Step, err = cast.ToDurationE(v.Get("mission.step")); err != nil {
		return mc, newConfigError("mission", "step", v.Get("mission.step"), "is not a duration")
	}
	if v.IsSet("mission.epoch") {
		if mc.Epoch, err = readJDEorTime(v, "mission.epoch"); err != nil {
			return mc, newConfigError("mission", "epoch", v.Get("mission.epoch"), "is neither a date nor a Julian date")
		}
	}
	if v.IsSet("mission.panel_side_area") {
		if mc.PanelSideArea, err = cast.ToFloat64E(v.Get("mission.panel_side_area")); err != nil {
			return mc, newConfigError("mission", "panel_side_area", v.Get("mission.panel_side_area"), "is not a number")
		}
	}
	if v.IsSet("mission.panel_faces") {
		mc.PanelFaces = nil
		for _, name := range v.GetStringSlice("mission.panel_faces") {
			f, err := FaceFromString(name)
			if err != nil {
				return mc, newConfigError("mission", "panel_faces", name, err.Error())
			}
			mc.PanelFaces = append(mc.PanelFaces, f)
		}
	}
	if v.IsSet("mission.payload_face") {
		if mc.PayloadFace, err = FaceFromString(v.GetString("mission.payload_face")); err != nil {
			return mc, newConfigError("mission", "payload_face", v.GetString("mission.payload_face"), err.Error())
		}
	}
	mc.StrictAreas = v.GetBool("mission.strict_areas")
	return mc, mc.Validate()
}

// readJDEorTime reads a date which is either a Julian date or a time.
func readJDEorTime(v *viper.Viper, key string) (time.Time, error) {
	if jde, err := cast.ToFloat64E(v.Get(key)); err == nil && jde > 0 {
		return julian.JDToTime(jde).UTC(), nil
	}
	dt, err := cast.ToTimeE(v.Get(key))
	return dt.UTC(), err
}

// splitKey splits a parameter key into its bundle and field names.
func splitKey(key string) (string, string) {
	if idx := strings.Index(key, "."); idx > 0 {
		return key[:idx], key[idx+1:]
	}
	return "config", key
}
