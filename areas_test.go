package missionsim

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const stkReport = `plusX,,,,
,Time,Time (UTCG),Area (m^2),Intensity
,,1 Jan 2019 00:00:00.000,10.0,1
,,1 Jan 2019 00:00:01.000,20.0,1
,,1 Jan 2019 00:00:02.000,30.0,1
negZ,,,,
,Time,Time (UTCG),Area (m^2),Intensity
,,1 Jan 2019 00:00:00.000,5.0,1
,,1 Jan 2019 00:00:01.000,0.0,0
,,1 Jan 2019 00:00:02.000,2.5,1
,,,,
plusY,,,,
,,this is ignored,,
`

func TestReadSTKAreas(t *testing.T) {
	table, err := ReadSTKAreas(strings.NewReader(stkReport), 3)
	require.NoError(t, err)
	require.Equal(t, 3, table.OrbitLen())
	require.Equal(t, 3, table.Supplied())
	require.False(t, table.Padded())
	require.InDelta(t, 0.1, table.Face(0, PlusX), 1e-12)
	require.InDelta(t, 0.3, table.Face(2, PlusX), 1e-12)
	require.InDelta(t, 0.025, table.Face(2, NegZ), 1e-12)
	require.Zero(t, table.Face(1, PlusY))
	require.InDelta(t, 0.15, table.Total(0), 1e-12)
	require.InDelta(t, 0.2, table.Sum(1, PlusX, PlusY, NegX, NegY), 1e-12)
	// Modulo the orbit
	require.Equal(t, table.Face(0, PlusX), table.Face(3, PlusX))
	require.Equal(t, table.Total(2), table.Total(-1))
}

func TestReadSTKAreasPadding(t *testing.T) {
	table, err := ReadSTKAreas(strings.NewReader(stkReport), 5)
	require.NoError(t, err)
	require.Equal(t, 3, table.Supplied())
	require.True(t, table.Padded())
	require.Zero(t, table.Total(3))
	require.Zero(t, table.Total(4))

	// Samples past one orbit are dropped.
	table, err = ReadSTKAreas(strings.NewReader(stkReport), 2)
	require.NoError(t, err)
	require.Equal(t, 2, table.Supplied())
	require.InDelta(t, 0.1, table.Face(2, PlusX), 1e-12)
}

func TestReadSTKAreasErrors(t *testing.T) {
	for name, report := range map[string]string{
		"no section":   ",,1 Jan 2019,10.0,1\n",
		"not a number": "plusX,,,,\n,,1 Jan 2019,ten,1\n",
		"short row":    "plusX,,,,\n,,1 Jan 2019\n",
		"negative":     "plusX,,,,\n,,1 Jan 2019,-1,1\n",
	} {
		_, err := ReadSTKAreas(strings.NewReader(report), 3)
		require.Error(t, err, name)
	}
}

func TestLoadSTKAreas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.csv")
	require.NoError(t, os.WriteFile(path, []byte(stkReport), 0o644))
	table, err := LoadSTKAreas(path, 3)
	require.NoError(t, err)
	require.InDelta(t, 0.05, table.Face(0, NegZ), 1e-12)

	_, err = LoadSTKAreas(filepath.Join(t.TempDir(), "missing.csv"), 3)
	require.Error(t, err)
}

func TestNewAreaTable(t *testing.T) {
	table, err := NewAreaTable(map[Face][]float64{PlusX: {1, 2}, NegZ: {1}}, 4)
	require.NoError(t, err)
	require.Equal(t, 1, table.Supplied())
	require.True(t, table.Padded())
	require.Zero(t, table.Face(3, PlusX))

	_, err = NewAreaTable(map[Face][]float64{PlusX: {1, 2, 3}}, 2)
	require.Error(t, err)
	_, err = NewAreaTable(map[Face][]float64{PlusX: {math.NaN()}}, 2)
	require.Error(t, err)
	_, err = NewAreaTable(nil, 0)
	require.Error(t, err)

	zero := ZeroAreaTable(10)
	require.Equal(t, 10, zero.Supplied())
	require.False(t, zero.Padded())
	require.Zero(t, zero.Total(5))
}

func TestFaceFromString(t *testing.T) {
	for f := Face(0); int(f) < NumFaces; f++ {
		got, err := FaceFromString(strings.ToUpper(f.String()))
		require.NoError(t, err)
		require.Equal(t, f, got)
	}
	_, err := FaceFromString("top")
	require.Error(t, err)
	require.Panics(t, func() { _ = Face(NumFaces).String() })
}
