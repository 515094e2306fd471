package missionsim

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const exampleScenario = "cmd/missionsim/scenario.toml"

// writeScenario writes the example scenario, edited by the provided line replacements, to a temporary file.
func writeScenario(t *testing.T, replace map[string]string, extra string) string {
	raw, err := os.ReadFile(exampleScenario)
	require.NoError(t, err)
	lines := strings.Split(string(raw), "\n")
	for i, line := range lines {
		for prefix, repl := range replace {
			if strings.HasPrefix(line, prefix) {
				lines[i] = repl
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"+extra), 0o644))
	return path
}

func TestLoadExampleScenario(t *testing.T) {
	sc, err := LoadScenario(exampleScenario)
	require.NoError(t, err)
	require.Equal(t, "scenario", sc.Name)
	require.Equal(t, DefaultConfig(), sc.Config)

	exp := DefaultMissionConfig()
	require.Equal(t, exp.Orbits, sc.Mission.Orbits)
	require.Equal(t, exp.OrbitPeriod, sc.Mission.OrbitPeriod)
	require.Equal(t, exp.Step, sc.Mission.Step)
	require.True(t, exp.Epoch.Equal(sc.Mission.Epoch), "epoch %s", sc.Mission.Epoch)
	require.Equal(t, exp.PanelSideArea, sc.Mission.PanelSideArea)
	require.Equal(t, exp.PanelFaces, sc.Mission.PanelFaces)
	require.Equal(t, exp.PayloadFace, sc.Mission.PayloadFace)
	require.False(t, sc.Mission.StrictAreas)
	require.Empty(t, sc.Areas)

	require.Equal(t, ExportConfig{Filename: "scenario", OutputDir: "output", AsCSV: true, Currents: true, Summary: true}, sc.Export)
	require.Nil(t, sc.Sweep)
	variants, err := sc.Variants()
	require.NoError(t, err)
	require.Len(t, variants, 1)
}

func TestLoadScenarioMissingKey(t *testing.T) {
	path := writeScenario(t, map[string]string{"c_pay": "# c_pay removed"}, "")
	_, err := LoadScenario(path)
	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	require.Equal(t, "structure", cerr.Bundle)
	require.Equal(t, "c_pay", cerr.Field)
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	path = writeScenario(t, map[string]string{"step": "# no step"}, "")
	_, err = LoadScenario(path)
	require.True(t, errors.As(err, &cerr), "got %v", err)
	require.Equal(t, "mission", cerr.Bundle)
	require.Equal(t, "step", cerr.Field)
}

func TestLoadScenarioBadValues(t *testing.T) {
	for name, replace := range map[string]map[string]string{
		"not a number":  {"e = ": `e = "high"`},
		"out of domain": {"converter_efficiency": "converter_efficiency = 1.5"},
		"unknown face":  {"payload_face": `payload_face = "top"`},
		"bad duration":  {"orbit_period": `orbit_period = "ninety"`},
	} {
		_, err := LoadScenario(writeScenario(t, replace, ""))
		require.ErrorIs(t, err, ErrInvalidConfiguration, name)
	}
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestLoadScenarioSweep(t *testing.T) {
	path := writeScenario(t, map[string]string{
		"epoch":  "epoch = 2458484.5",
		"# areas": `areas = "areas.csv"`,
	}, "[sweep]\nparameter = \"eps.converter_efficiency\"\nvalues = [0.7, 0.9]\n")
	sc, err := LoadScenario(path)
	require.NoError(t, err)
	require.True(t, DefaultMissionConfig().Epoch.Equal(sc.Mission.Epoch), "epoch %s", sc.Mission.Epoch)
	require.Equal(t, filepath.Join(filepath.Dir(path), "areas.csv"), sc.Areas)
	require.Equal(t, &SweepConfig{Parameter: "eps.converter_efficiency", Values: []float64{0.7, 0.9}}, sc.Sweep)

	variants, err := sc.Variants()
	require.NoError(t, err)
	require.Len(t, variants, 2)
	require.Equal(t, 0.9, variants[1].Config.EPS.ConverterEfficiency)
	require.Equal(t, "test-0", variants[0].Export.Filename)
	require.Equal(t, "test-1", variants[1].Export.Filename)

	path = writeScenario(t, nil, "[sweep]\nparameter = \"eps.nope\"\nvalues = [1]\n")
	_, err = LoadScenario(path)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	path = writeScenario(t, nil, "[sweep]\nparameter = \"eps.converter_efficiency\"\nvalues = []\n")
	_, err = LoadScenario(path)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}
